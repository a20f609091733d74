package types

import "time"

const (
	// MinCookingTime is the smallest accepted cooking time in minutes.
	MinCookingTime = 1
	// MaxCookingTime is the largest accepted cooking time in minutes.
	MaxCookingTime = 300
	// MinIngredientAmount is the smallest accepted ingredient amount.
	MinIngredientAmount = 1
	// MaxIngredientAmount is the largest accepted ingredient amount.
	MaxIngredientAmount = 32000
	// MaxRecipeNameLength is the maximum number of characters in a recipe name.
	MaxRecipeNameLength = 200
)

// Recipe represents a recipe published by an author.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID int `json:"id" db:"id"`

	// AuthorID references the user who owns the recipe.
	// Only the author may modify or delete the recipe.
	AuthorID int `json:"author_id" db:"author_id"`

	// Name is the title of the recipe.
	Name string `json:"name" db:"name"`

	// Image is the object storage key of the recipe picture.
	Image string `json:"image" db:"image"`

	// Text is the free-form description and cooking instructions.
	Text string `json:"text" db:"text"`

	// CookingTime is the preparation time in minutes, between
	// MinCookingTime and MaxCookingTime inclusive.
	CookingTime int `json:"cooking_time" db:"cooking_time"`

	// Ingredients lists the ingredient lines of the recipe.
	// Each ingredient appears at most once.
	Ingredients []RecipeIngredient `json:"ingredients" db:"-"`

	// CreatedAt is the publication timestamp of the recipe.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the recipe.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RecipeIngredient is a single (ingredient, amount) line of a recipe.
type RecipeIngredient struct {
	// IngredientID references the catalog ingredient.
	IngredientID int `json:"id" db:"ingredient_id"`

	// Name is the ingredient name, denormalized from the catalog on read.
	Name string `json:"name" db:"name"`

	// MeasurementUnit is the ingredient unit, denormalized from the catalog on read.
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`

	// Amount is the quantity of the ingredient, between
	// MinIngredientAmount and MaxIngredientAmount inclusive.
	Amount int `json:"amount" db:"amount"`
}

// RecipeFilter narrows a recipe listing.
// Zero values disable the corresponding filter.
type RecipeFilter struct {
	// AuthorID restricts results to recipes written by this user.
	AuthorID int

	// FavoritedBy restricts results to recipes favorited by this user.
	FavoritedBy int

	// InCartOf restricts results to recipes in this user's shopping cart.
	InCartOf int

	// Offset is the number of matching recipes to skip.
	Offset int

	// Limit is the maximum number of recipes to return.
	Limit int
}
