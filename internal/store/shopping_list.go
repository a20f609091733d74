package store

import (
	"context"
	"database/sql"

	"github.com/foodgram/apiserver/types"
)

// ShoppingListRepository aggregates the ingredients of a user's cart.
type ShoppingListRepository struct {
	db *sql.DB
}

func NewShoppingListRepository(db *sql.DB) *ShoppingListRepository {
	return &ShoppingListRepository{db: db}
}

// Aggregate sums ingredient amounts across every recipe in the user's cart,
// one item per (name, unit) pair, ordered by name then unit.
func (r *ShoppingListRepository) Aggregate(ctx context.Context, userID int) ([]types.ShoppingListItem, error) {
	const query = `
		SELECT i.name, i.measurement_unit, SUM(ri.amount)
		FROM shopping_cart_entries c
		JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE c.user_id = $1
		GROUP BY i.name, i.measurement_unit
		ORDER BY i.name, i.measurement_unit`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.ShoppingListItem, 0)
	for rows.Next() {
		var item types.ShoppingListItem
		if err := rows.Scan(&item.Name, &item.MeasurementUnit, &item.Amount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
