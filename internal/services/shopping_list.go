package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/foodgram/apiserver/types"
)

// ShoppingListService builds the aggregated ingredient list of a user's cart.
type ShoppingListService struct {
	cart  RelationRepository
	items ShoppingListRepository
}

func NewShoppingListService(cart RelationRepository, items ShoppingListRepository) *ShoppingListService {
	return &ShoppingListService{cart: cart, items: items}
}

// Build returns one line per distinct (ingredient name, unit) pair across
// every recipe in the user's cart, ordered by name. An empty cart yields
// ErrEmptyCart.
func (s *ShoppingListService) Build(ctx context.Context, userID int) ([]types.ShoppingListItem, error) {
	if userID < 1 {
		return nil, ErrUnauthorized
	}

	count, err := s.cart.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyCart
	}

	items, err := s.items.Aggregate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return items, nil
}

// RenderShoppingList formats items as plain text, one line per item.
func RenderShoppingList(items []types.ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s — %d %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}
	return b.String()
}
