package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/foodgram/apiserver/types"
	"github.com/lib/pq"
)

// RecipeRepository handles persistence for recipes and their ingredient lines.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

const recipeColumns = `r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.created_at, r.updated_at`

func scanRecipe(row interface{ Scan(...any) error }) (types.Recipe, error) {
	var recipe types.Recipe
	err := row.Scan(
		&recipe.ID,
		&recipe.AuthorID,
		&recipe.Name,
		&recipe.Image,
		&recipe.Text,
		&recipe.CookingTime,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	return recipe, err
}

// Create inserts the recipe row and all of its ingredient lines in one transaction.
func (r *RecipeRepository) Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			INSERT INTO recipes (author_id, name, image, text, cooking_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`
		if err := tx.QueryRowContext(
			ctx,
			query,
			recipe.AuthorID,
			recipe.Name,
			recipe.Image,
			recipe.Text,
			recipe.CookingTime,
			recipe.CreatedAt,
			recipe.UpdatedAt,
		).Scan(&recipe.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, recipe.ID, recipe.Ingredients)
	})
	if err != nil {
		return types.Recipe{}, mapWriteError(err)
	}
	return r.Get(ctx, recipe.ID)
}

// Update overwrites the scalar fields of a recipe. When replaceLines is set
// the existing ingredient lines are deleted and recipe.Ingredients inserted.
func (r *RecipeRepository) Update(ctx context.Context, recipe types.Recipe, replaceLines bool) (types.Recipe, error) {
	recipe.UpdatedAt = time.Now()

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			UPDATE recipes
			SET name = $1,
				image = $2,
				text = $3,
				cooking_time = $4,
				updated_at = $5
			WHERE id = $6`
		result, err := tx.ExecContext(
			ctx,
			query,
			recipe.Name,
			recipe.Image,
			recipe.Text,
			recipe.CookingTime,
			recipe.UpdatedAt,
			recipe.ID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}

		if !replaceLines {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, recipe.ID, recipe.Ingredients)
	})
	if err != nil {
		return types.Recipe{}, mapWriteError(err)
	}
	return r.Get(ctx, recipe.ID)
}

func insertLines(ctx context.Context, tx *sql.Tx, recipeID int, lines []types.RecipeIngredient) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]int64, len(lines))
	amounts := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = int64(line.IngredientID)
		amounts[i] = int64(line.Amount)
	}

	const query = `
		INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, position)
		SELECT $1, t.ingredient_id, t.amount, t.ord
		FROM UNNEST($2::int[], $3::int[]) WITH ORDINALITY AS t(ingredient_id, amount, ord)`
	_, err := tx.ExecContext(ctx, query, recipeID, pq.Array(ids), pq.Array(amounts))
	return err
}

func (r *RecipeRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns a recipe with its ingredient lines.
func (r *RecipeRepository) Get(ctx context.Context, id int) (types.Recipe, error) {
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recipe{}, ErrNotFound
		}
		return types.Recipe{}, err
	}

	lines, err := r.linesFor(ctx, []int{recipe.ID})
	if err != nil {
		return types.Recipe{}, err
	}
	recipe.Ingredients = lines[recipe.ID]
	return recipe, nil
}

// Exists reports whether a recipe with the given id exists.
func (r *RecipeRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM recipes WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

const recipeFilterClause = `
	WHERE ($1 = 0 OR r.author_id = $1)
	  AND ($2 = 0 OR EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = $2))
	  AND ($3 = 0 OR EXISTS (SELECT 1 FROM shopping_cart_entries c WHERE c.recipe_id = r.id AND c.user_id = $3))`

// List returns one page of recipes, newest first, with ingredient lines,
// and the total number of recipes matching the filter.
func (r *RecipeRepository) List(ctx context.Context, filter types.RecipeFilter) ([]types.Recipe, int, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit < 1 {
		filter.Limit = 6
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM recipes r`+recipeFilterClause,
		filter.AuthorID, filter.FavoritedBy, filter.InCartOf,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r`+recipeFilterClause+`
		ORDER BY r.created_at DESC, r.id DESC
		OFFSET $4 LIMIT $5`,
		filter.AuthorID, filter.FavoritedBy, filter.InCartOf, filter.Offset, filter.Limit,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	recipes := make([]types.Recipe, 0, filter.Limit)
	ids := make([]int, 0, filter.Limit)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, recipe)
		ids = append(ids, recipe.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range recipes {
		recipes[i].Ingredients = lines[recipes[i].ID]
	}
	return recipes, total, nil
}

// ListByAuthor returns an author's recipes without ingredient lines, newest
// id first. A non-positive limit returns all of them.
func (r *RecipeRepository) ListByAuthor(ctx context.Context, authorID, limit int) ([]types.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.author_id = $1 ORDER BY r.id DESC`
	args := []any{authorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := make([]types.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

func (r *RecipeRepository) CountByAuthor(ctx context.Context, authorID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM recipes WHERE author_id = $1`, authorID).Scan(&count)
	return count, err
}

// ExistsByAuthorAndName reports whether the author already has a recipe with this name.
func (r *RecipeRepository) ExistsByAuthorAndName(ctx context.Context, authorID int, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recipes WHERE author_id = $1 AND name = $2)`, authorID, name,
	).Scan(&exists)
	return exists, err
}

func (r *RecipeRepository) linesFor(ctx context.Context, recipeIDs []int) (map[int][]types.RecipeIngredient, error) {
	lines := make(map[int][]types.RecipeIngredient, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return lines, nil
	}

	const query = `
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, ri.position`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(recipeIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recipeID int
			line     types.RecipeIngredient
		)
		if err := rows.Scan(&recipeID, &line.IngredientID, &line.Name, &line.MeasurementUnit, &line.Amount); err != nil {
			return nil, err
		}
		lines[recipeID] = append(lines[recipeID], line)
	}
	return lines, rows.Err()
}
