package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/foodgram/apiserver/types"
	"github.com/lib/pq"
)

// IngredientRepository handles persistence for the ingredient catalog.
type IngredientRepository struct {
	db *sql.DB
}

func NewIngredientRepository(db *sql.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// List returns the catalog ordered by name. A non-empty name filter matches
// case-insensitively; names starting with it come before names merely
// containing it.
func (r *IngredientRepository) List(ctx context.Context, name string) ([]types.Ingredient, error) {
	name = strings.TrimSpace(name)

	var (
		rows *sql.Rows
		err  error
	)
	if name == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, name, measurement_unit FROM ingredients ORDER BY name, measurement_unit`)
	} else {
		const query = `
			SELECT id, name, measurement_unit
			FROM ingredients
			WHERE POSITION(LOWER($1) IN LOWER(name)) > 0
			ORDER BY POSITION(LOWER($1) IN LOWER(name)) <> 1, name, measurement_unit`
		rows, err = r.db.QueryContext(ctx, query, name)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := make([]types.Ingredient, 0)
	for rows.Next() {
		var ingredient types.Ingredient
		if err := rows.Scan(&ingredient.ID, &ingredient.Name, &ingredient.MeasurementUnit); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients, rows.Err()
}

func (r *IngredientRepository) Get(ctx context.Context, id int) (types.Ingredient, error) {
	var ingredient types.Ingredient
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id,
	).Scan(&ingredient.ID, &ingredient.Name, &ingredient.MeasurementUnit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Ingredient{}, ErrNotFound
		}
		return types.Ingredient{}, err
	}
	return ingredient, nil
}

// ExistingIDs reports which of ids are present in the catalog.
func (r *IngredientRepository) ExistingIDs(ctx context.Context, ids []int) (map[int]bool, error) {
	found := make(map[int]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM ingredients WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	return found, rows.Err()
}

// Ensure returns the ingredient with the given name and unit, inserting it
// first when absent. The boolean reports whether a row was inserted.
func (r *IngredientRepository) Ensure(ctx context.Context, name, unit string) (types.Ingredient, bool, error) {
	ingredient := types.Ingredient{Name: name, MeasurementUnit: unit}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ingredients (name, measurement_unit)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT unique_ingredient DO NOTHING
		RETURNING id`, name, unit,
	).Scan(&ingredient.ID)
	if err == nil {
		return ingredient, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.Ingredient{}, false, err
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM ingredients WHERE name = $1 AND measurement_unit = $2`, name, unit,
	).Scan(&ingredient.ID)
	if err != nil {
		return types.Ingredient{}, false, err
	}
	return ingredient, false, nil
}
