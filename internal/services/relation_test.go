package services

import (
	"context"
	"errors"
	"testing"
)

func TestFavoriteAddTwiceConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.Users.Add("fan")
	recipe := f.createRecipe(f.Users.Add("chef").ID)

	got, err := f.favoriteService.Add(ctx, user.ID, recipe.Recipe.ID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID != recipe.Recipe.ID || got.Name != "Pancakes" {
		t.Fatalf("unexpected recipe summary %+v", got)
	}

	if _, err := f.favoriteService.Add(ctx, user.ID, recipe.Recipe.ID); !errors.Is(err, ErrAlreadyInFavorites) {
		t.Fatalf("expected ErrAlreadyInFavorites, got %v", err)
	}
	if count, _ := f.Favorites.Count(ctx, user.ID); count != 1 {
		t.Fatalf("expected exactly one favorite row, got %d", count)
	}
}

func TestRelationAddRaceMapsToConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.Users.Add("fan")
	recipe := f.createRecipe(f.Users.Add("chef").ID)
	f.Cart.RaceOnAdd = true

	if _, err := f.cartService.Add(ctx, user.ID, recipe.Recipe.ID); !errors.Is(err, ErrAlreadyInCart) {
		t.Fatalf("expected ErrAlreadyInCart from constraint violation, got %v", err)
	}
}

func TestRelationRemoveMissingLink(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.Users.Add("fan")
	recipe := f.createRecipe(f.Users.Add("chef").ID)

	if err := f.favoriteService.Remove(ctx, user.ID, recipe.Recipe.ID); !errors.Is(err, ErrNotInFavorites) {
		t.Fatalf("expected ErrNotInFavorites, got %v", err)
	}
	if err := f.cartService.Remove(ctx, user.ID, recipe.Recipe.ID); !errors.Is(err, ErrNotInCart) {
		t.Fatalf("expected ErrNotInCart, got %v", err)
	}

	if _, err := f.cartService.Add(ctx, user.ID, recipe.Recipe.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.cartService.Remove(ctx, user.ID, recipe.Recipe.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if f.Cart.Has(user.ID, recipe.Recipe.ID) {
		t.Fatalf("expected cart entry to be removed")
	}
}

func TestRelationUnknownRecipeIsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.Users.Add("fan")
	f.Favorites.RaceOnAdd = true

	if _, err := f.favoriteService.Add(ctx, user.ID, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before relation checks, got %v", err)
	}
	if err := f.cartService.Remove(ctx, user.ID, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
