package services

import (
	"context"

	"github.com/foodgram/apiserver/internal/services/servicetest"
)

// fixture wires every service against one in-memory store.
type fixture struct {
	*servicetest.Store

	recipeService       *RecipeService
	favoriteService     *RelationService
	cartService         *RelationService
	shoppingListService *ShoppingListService
	subscriptionService *SubscriptionService
}

func newFixture() *fixture {
	f := &fixture{Store: servicetest.NewStore()}
	f.recipeService = NewRecipeService(RecipeServiceDeps{
		Recipes:       f.Recipes,
		Ingredients:   f.Ingredients,
		Users:         f.Users,
		Favorites:     f.Favorites,
		Cart:          f.Cart,
		Subscriptions: f.Subscriptions,
		Images:        f.Images,
		Publisher:     f.Publisher,
	})
	f.favoriteService = NewFavoriteService(f.Favorites, f.Recipes, f.Publisher)
	f.cartService = NewCartService(f.Cart, f.Recipes, f.Publisher)
	f.shoppingListService = NewShoppingListService(f.Cart, f.ShoppingList)
	f.subscriptionService = NewSubscriptionService(f.Subscriptions, f.Users, f.Recipes, f.Publisher)
	return f
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func validInput(lines ...IngredientAmount) RecipeInput {
	if len(lines) == 0 {
		lines = []IngredientAmount{{ID: 1, Amount: 200}}
	}
	return RecipeInput{
		Name:        strPtr("Pancakes"),
		Text:        strPtr("Mix and fry."),
		CookingTime: intPtr(20),
		Image:       strPtr(servicetest.PNGDataURI()),
		Ingredients: &lines,
	}
}

func (f *fixture) createRecipe(authorID int, lines ...IngredientAmount) RecipeDetail {
	detail, err := f.recipeService.Create(context.Background(), authorID, validInput(lines...))
	if err != nil {
		panic(err)
	}
	return detail
}
