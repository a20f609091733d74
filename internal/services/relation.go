package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/foodgram/apiserver/internal/events"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/foodgram/apiserver/types"
)

// RelationService toggles a user-to-recipe link. Favorites and the shopping
// cart share this behavior and differ only in storage and messages.
type RelationService struct {
	relations RelationRepository
	recipes   RecipeRepository
	publisher events.Publisher

	errAlreadyLinked error
	errNotLinked     error
	addedEvent       events.Type
}

// NewFavoriteService constructs a RelationService for favorites.
func NewFavoriteService(relations RelationRepository, recipes RecipeRepository, publisher events.Publisher) *RelationService {
	return newRelationService(relations, recipes, publisher, ErrAlreadyInFavorites, ErrNotInFavorites, events.FavoriteAdded)
}

// NewCartService constructs a RelationService for the shopping cart.
func NewCartService(relations RelationRepository, recipes RecipeRepository, publisher events.Publisher) *RelationService {
	return newRelationService(relations, recipes, publisher, ErrAlreadyInCart, ErrNotInCart, events.CartAdded)
}

func newRelationService(relations RelationRepository, recipes RecipeRepository, publisher events.Publisher, already, notLinked error, added events.Type) *RelationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RelationService{
		relations:        relations,
		recipes:          recipes,
		publisher:        publisher,
		errAlreadyLinked: already,
		errNotLinked:     notLinked,
		addedEvent:       added,
	}
}

// Add links the recipe to the user and returns the recipe.
func (s *RelationService) Add(ctx context.Context, userID, recipeID int) (types.Recipe, error) {
	if userID < 1 {
		return types.Recipe{}, ErrUnauthorized
	}

	recipe, err := s.recipes.Get(ctx, recipeID)
	if err != nil {
		return types.Recipe{}, mapNotFound(err)
	}

	exists, err := s.relations.Exists(ctx, userID, recipeID)
	if err != nil {
		return types.Recipe{}, err
	}
	if exists {
		return types.Recipe{}, s.errAlreadyLinked
	}

	if err := s.relations.Add(ctx, userID, recipeID); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return types.Recipe{}, s.errAlreadyLinked
		}
		return types.Recipe{}, fmt.Errorf("add relation: %w", err)
	}

	publish(ctx, s.publisher, s.addedEvent, userID, recipeID)
	return recipe, nil
}

// Remove unlinks the recipe from the user.
func (s *RelationService) Remove(ctx context.Context, userID, recipeID int) error {
	if userID < 1 {
		return ErrUnauthorized
	}

	exists, err := s.recipes.Exists(ctx, recipeID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.relations.Remove(ctx, userID, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.errNotLinked
		}
		return fmt.Errorf("remove relation: %w", err)
	}
	return nil
}
