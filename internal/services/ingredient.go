package services

import (
	"context"
	"strings"

	"github.com/foodgram/apiserver/types"
)

// IngredientService exposes the read-only ingredient catalog.
type IngredientService struct {
	repo IngredientRepository
}

func NewIngredientService(repo IngredientRepository) *IngredientService {
	return &IngredientService{repo: repo}
}

// List returns catalog entries whose name contains name, case-insensitively.
// Names starting with the query come first.
func (s *IngredientService) List(ctx context.Context, name string) ([]types.Ingredient, error) {
	return s.repo.List(ctx, strings.TrimSpace(name))
}

func (s *IngredientService) Get(ctx context.Context, id int) (types.Ingredient, error) {
	ingredient, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Ingredient{}, mapNotFound(err)
	}
	return ingredient, nil
}
