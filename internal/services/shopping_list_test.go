package services

import (
	"context"
	"errors"
	"testing"

	"github.com/foodgram/apiserver/types"
)

func TestShoppingListSumsSharedIngredients(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chef := f.Users.Add("chef")
	buyer := f.Users.Add("buyer")

	first := f.createRecipe(chef.ID, IngredientAmount{ID: 1, Amount: 200}, IngredientAmount{ID: 2, Amount: 50})
	second := f.createRecipe(chef.ID, IngredientAmount{ID: 1, Amount: 300}, IngredientAmount{ID: 3, Amount: 250})
	for _, id := range []int{first.Recipe.ID, second.Recipe.ID} {
		if _, err := f.cartService.Add(ctx, buyer.ID, id); err != nil {
			t.Fatalf("add to cart: %v", err)
		}
	}

	items, err := f.shoppingListService.Build(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "Flour — 500 g\nMilk — 250 ml\nSugar — 50 g\n"
	if got := RenderShoppingList(items); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestShoppingListKeepsUnitsSeparate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chef := f.Users.Add("chef")
	recipe := f.createRecipe(chef.ID, IngredientAmount{ID: 1, Amount: 100}, IngredientAmount{ID: 4, Amount: 2})
	if _, err := f.cartService.Add(ctx, chef.ID, recipe.Recipe.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	items, err := f.shoppingListService.Build(ctx, chef.ID)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []types.ShoppingListItem{
		{Name: "Flour", MeasurementUnit: "cup", Amount: 2},
		{Name: "Flour", MeasurementUnit: "g", Amount: 100},
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %+v", len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item %d: expected %+v, got %+v", i, want[i], items[i])
		}
	}
}

func TestShoppingListEmptyCart(t *testing.T) {
	f := newFixture()
	user := f.Users.Add("buyer")
	if _, err := f.shoppingListService.Build(context.Background(), user.ID); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}
