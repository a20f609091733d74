package handlers

import (
	"net/http"

	"github.com/foodgram/apiserver/internal/services"
	"github.com/foodgram/apiserver/types"
)

// UserResponse is the public representation of a user.
type UserResponse struct {
	Email        string  `json:"email"`
	ID           int     `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Email     string `json:"email"`
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AvatarResponse is returned after an avatar upload.
type AvatarResponse struct {
	Avatar *string `json:"avatar"`
}

// RecipeResponse is the full representation of a recipe.
type RecipeResponse struct {
	ID               int                      `json:"id"`
	Author           UserResponse             `json:"author"`
	Ingredients      []types.RecipeIngredient `json:"ingredients"`
	IsFavorited      bool                     `json:"is_favorited"`
	IsInShoppingCart bool                     `json:"is_in_shopping_cart"`
	Name             string                   `json:"name"`
	Image            *string                  `json:"image"`
	Text             string                   `json:"text"`
	CookingTime      int                      `json:"cooking_time"`
}

// RecipeShortResponse is the compact representation used by relation
// endpoints and subscription previews.
type RecipeShortResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	CookingTime int     `json:"cooking_time"`
}

// SubscriptionResponse is an author with a preview of their recipes.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

// PageResponse is a paginated list payload.
type PageResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// LinkResponse carries the public link of a recipe.
type LinkResponse struct {
	ShortLink string `json:"short-link"`
}

func (l Links) user(r *http.Request, user types.User, subscribed bool) UserResponse {
	return UserResponse{
		Email:        user.Email,
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
		Avatar:       l.Media(r, user.Avatar),
	}
}

func (l Links) recipe(r *http.Request, detail services.RecipeDetail) RecipeResponse {
	ingredients := detail.Recipe.Ingredients
	if ingredients == nil {
		ingredients = []types.RecipeIngredient{}
	}
	return RecipeResponse{
		ID:               detail.Recipe.ID,
		Author:           l.user(r, detail.Author, detail.AuthorSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      detail.IsFavorited,
		IsInShoppingCart: detail.IsInShoppingCart,
		Name:             detail.Recipe.Name,
		Image:            l.Media(r, detail.Recipe.Image),
		Text:             detail.Recipe.Text,
		CookingTime:      detail.Recipe.CookingTime,
	}
}

func (l Links) recipeShort(r *http.Request, recipe types.Recipe) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       l.Media(r, recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

func (l Links) subscription(r *http.Request, summary services.AuthorSummary) SubscriptionResponse {
	recipes := make([]RecipeShortResponse, 0, len(summary.Recipes))
	for _, recipe := range summary.Recipes {
		recipes = append(recipes, l.recipeShort(r, recipe))
	}
	return SubscriptionResponse{
		UserResponse: l.user(r, summary.User, summary.IsSubscribed),
		Recipes:      recipes,
		RecipesCount: summary.RecipesCount,
	}
}

func newPage[T any](l Links, r *http.Request, page, limit, total int, results []T) PageResponse[T] {
	last := (total + limit - 1) / limit
	if results == nil {
		results = []T{}
	}
	return PageResponse[T]{
		Count:    total,
		Next:     l.Page(r, page+1, last),
		Previous: l.Page(r, page-1, last),
		Results:  results,
	}
}
