// Package services implements the recipe, relation and user use-cases on top
// of repository interfaces.
package services

import (
	"context"

	"github.com/foodgram/apiserver/internal/events"
	"github.com/foodgram/apiserver/internal/images"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/metrics"
	"github.com/foodgram/apiserver/types"
)

const (
	recipeImagePrefix = "recipes"
	avatarPrefix      = "avatars"

	msgRequired = "this field is required"
)

// ImageStore persists decoded images and returns their object keys.
type ImageStore interface {
	Save(ctx context.Context, prefix string, img images.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByIDs(ctx context.Context, ids []int) (map[int]types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	UpdateAvatar(ctx context.Context, id int, avatar string) error
}

// IngredientRepository defines read access to the ingredient catalog.
type IngredientRepository interface {
	List(ctx context.Context, name string) ([]types.Ingredient, error)
	Get(ctx context.Context, id int) (types.Ingredient, error)
	ExistingIDs(ctx context.Context, ids []int) (map[int]bool, error)
}

// RecipeRepository defines persistence operations for recipes.
type RecipeRepository interface {
	Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Update(ctx context.Context, recipe types.Recipe, replaceLines bool) (types.Recipe, error)
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (types.Recipe, error)
	Exists(ctx context.Context, id int) (bool, error)
	List(ctx context.Context, filter types.RecipeFilter) ([]types.Recipe, int, error)
	ListByAuthor(ctx context.Context, authorID, limit int) ([]types.Recipe, error)
	CountByAuthor(ctx context.Context, authorID int) (int, error)
}

// RelationRepository stores user-to-recipe links such as favorites and
// shopping cart entries.
type RelationRepository interface {
	Add(ctx context.Context, userID, recipeID int) error
	Remove(ctx context.Context, userID, recipeID int) error
	Exists(ctx context.Context, userID, recipeID int) (bool, error)
	Contains(ctx context.Context, userID int, recipeIDs []int) (map[int]bool, error)
	Count(ctx context.Context, userID int) (int, error)
}

// SubscriptionRepository stores subscriber-to-author links.
type SubscriptionRepository interface {
	Add(ctx context.Context, subscriberID, authorID int) error
	Remove(ctx context.Context, subscriberID, authorID int) error
	Exists(ctx context.Context, subscriberID, authorID int) (bool, error)
	SubscribedTo(ctx context.Context, subscriberID int, authorIDs []int) (map[int]bool, error)
	ListAuthors(ctx context.Context, subscriberID, offset, limit int) ([]types.User, int, error)
}

// ShoppingListRepository aggregates cart ingredients.
type ShoppingListRepository interface {
	Aggregate(ctx context.Context, userID int) ([]types.ShoppingListItem, error)
}

func publish(ctx context.Context, publisher events.Publisher, eventType events.Type, actorID, subjectID int) {
	if publisher == nil {
		return
	}
	err := publisher.Publish(ctx, events.New(eventType, actorID, subjectID))
	metrics.RecordEventPublish(string(eventType), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish event")
	}
}

func discardImage(ctx context.Context, store ImageStore, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete image")
	}
}
