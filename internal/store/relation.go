package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// RelationRepository persists a per-user set of recipes. Favorites and the
// shopping cart share this shape and differ only by table.
type RelationRepository struct {
	db    *sql.DB
	table string
}

func NewFavoriteRepository(db *sql.DB) *RelationRepository {
	return &RelationRepository{db: db, table: "favorites"}
}

func NewCartRepository(db *sql.DB) *RelationRepository {
	return &RelationRepository{db: db, table: "shopping_cart_entries"}
}

// Add links recipeID to userID. A duplicate link yields ErrAlreadyExists.
func (r *RelationRepository) Add(ctx context.Context, userID, recipeID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+r.table+` (user_id, recipe_id, created_at) VALUES ($1, $2, $3)`,
		userID, recipeID, time.Now(),
	)
	return mapWriteError(err)
}

// Remove deletes the link. A missing link yields ErrNotFound.
func (r *RelationRepository) Remove(ctx context.Context, userID, recipeID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM `+r.table+` WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
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

func (r *RelationRepository) Exists(ctx context.Context, userID, recipeID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+r.table+` WHERE user_id = $1 AND recipe_id = $2)`,
		userID, recipeID,
	).Scan(&exists)
	return exists, err
}

// Contains reports which of recipeIDs are linked to userID.
func (r *RelationRepository) Contains(ctx context.Context, userID int, recipeIDs []int) (map[int]bool, error) {
	linked := make(map[int]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return linked, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT recipe_id FROM `+r.table+` WHERE user_id = $1 AND recipe_id = ANY($2)`,
		userID, pq.Array(recipeIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		linked[id] = true
	}
	return linked, rows.Err()
}

func (r *RelationRepository) Count(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM `+r.table+` WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}
