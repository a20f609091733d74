package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foodgram/apiserver/internal/events"
	"github.com/foodgram/apiserver/internal/images"
	"github.com/foodgram/apiserver/internal/validation"
	"github.com/foodgram/apiserver/types"
)

// IngredientAmount is one submitted (ingredient, amount) pair.
type IngredientAmount struct {
	ID     int
	Amount int
}

// RecipeInput carries the writable recipe fields. Nil fields were not
// supplied by the client.
type RecipeInput struct {
	Name        *string
	Text        *string
	CookingTime *int
	Image       *string
	Ingredients *[]IngredientAmount
}

// RecipeQuery selects recipes for a listing.
type RecipeQuery struct {
	AuthorID  int
	Favorited bool
	InCart    bool
	Offset    int
	Limit     int
}

// RecipeDetail is a recipe annotated for a particular viewer.
type RecipeDetail struct {
	Recipe           types.Recipe
	Author           types.User
	AuthorSubscribed bool
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService encapsulates recipe use-cases.
type RecipeService struct {
	recipes       RecipeRepository
	ingredients   IngredientRepository
	users         UserRepository
	favorites     RelationRepository
	cart          RelationRepository
	subscriptions SubscriptionRepository
	images        ImageStore
	publisher     events.Publisher
}

// RecipeServiceDeps groups the collaborators of RecipeService.
type RecipeServiceDeps struct {
	Recipes       RecipeRepository
	Ingredients   IngredientRepository
	Users         UserRepository
	Favorites     RelationRepository
	Cart          RelationRepository
	Subscriptions SubscriptionRepository
	Images        ImageStore
	Publisher     events.Publisher
}

func NewRecipeService(deps RecipeServiceDeps) *RecipeService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &RecipeService{
		recipes:       deps.Recipes,
		ingredients:   deps.Ingredients,
		users:         deps.Users,
		favorites:     deps.Favorites,
		cart:          deps.Cart,
		subscriptions: deps.Subscriptions,
		images:        deps.Images,
		publisher:     publisher,
	}
}

// List returns one page of recipes for viewerID (0 for anonymous callers)
// and the total number of matches. Favorite and cart filters only apply to
// authenticated viewers.
func (s *RecipeService) List(ctx context.Context, viewerID int, query RecipeQuery) ([]RecipeDetail, int, error) {
	filter := types.RecipeFilter{
		AuthorID: query.AuthorID,
		Offset:   query.Offset,
		Limit:    query.Limit,
	}
	if viewerID > 0 {
		if query.Favorited {
			filter.FavoritedBy = viewerID
		}
		if query.InCart {
			filter.InCartOf = viewerID
		}
	}

	recipes, total, err := s.recipes.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	details, err := s.annotate(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (s *RecipeService) Get(ctx context.Context, viewerID, id int) (RecipeDetail, error) {
	recipe, err := s.recipes.Get(ctx, id)
	if err != nil {
		return RecipeDetail{}, mapNotFound(err)
	}
	return s.annotateOne(ctx, viewerID, recipe)
}

// Create validates input and stores a recipe owned by authorID.
func (s *RecipeService) Create(ctx context.Context, authorID int, input RecipeInput) (RecipeDetail, error) {
	if authorID < 1 {
		return RecipeDetail{}, ErrUnauthorized
	}

	img, lines, err := s.validate(ctx, input, true)
	if err != nil {
		return RecipeDetail{}, err
	}

	key, err := s.images.Save(ctx, recipeImagePrefix, *img)
	if err != nil {
		return RecipeDetail{}, err
	}

	created, err := s.recipes.Create(ctx, types.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(*input.Name),
		Text:        *input.Text,
		CookingTime: *input.CookingTime,
		Image:       key,
		Ingredients: lines,
	})
	if err != nil {
		discardImage(ctx, s.images, key)
		return RecipeDetail{}, fmt.Errorf("create recipe: %w", err)
	}

	publish(ctx, s.publisher, events.RecipeCreated, authorID, created.ID)
	return s.annotateOne(ctx, authorID, created)
}

// Update modifies a recipe owned by userID. A partial update keeps omitted
// scalar fields; ingredients are required either way and replace the
// existing lines.
func (s *RecipeService) Update(ctx context.Context, userID, id int, input RecipeInput, partial bool) (RecipeDetail, error) {
	recipe, err := s.owned(ctx, userID, id)
	if err != nil {
		return RecipeDetail{}, err
	}

	img, lines, err := s.validate(ctx, input, !partial)
	if err != nil {
		return RecipeDetail{}, err
	}

	if input.Name != nil {
		recipe.Name = strings.TrimSpace(*input.Name)
	}
	if input.Text != nil {
		recipe.Text = *input.Text
	}
	if input.CookingTime != nil {
		recipe.CookingTime = *input.CookingTime
	}
	recipe.Ingredients = lines

	oldImage := ""
	if img != nil {
		key, err := s.images.Save(ctx, recipeImagePrefix, *img)
		if err != nil {
			return RecipeDetail{}, err
		}
		oldImage = recipe.Image
		recipe.Image = key
	}

	updated, err := s.recipes.Update(ctx, recipe, true)
	if err != nil {
		if img != nil {
			discardImage(ctx, s.images, recipe.Image)
		}
		return RecipeDetail{}, fmt.Errorf("update recipe: %w", mapNotFound(err))
	}
	discardImage(ctx, s.images, oldImage)

	publish(ctx, s.publisher, events.RecipeUpdated, userID, updated.ID)
	return s.annotateOne(ctx, userID, updated)
}

// Delete removes a recipe owned by userID together with its image.
func (s *RecipeService) Delete(ctx context.Context, userID, id int) error {
	recipe, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	discardImage(ctx, s.images, recipe.Image)

	publish(ctx, s.publisher, events.RecipeDeleted, userID, id)
	return nil
}

// Exists reports whether the recipe exists; used by link resolution.
func (s *RecipeService) Exists(ctx context.Context, id int) error {
	ok, err := s.recipes.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RecipeService) owned(ctx context.Context, userID, id int) (types.Recipe, error) {
	if userID < 1 {
		return types.Recipe{}, ErrUnauthorized
	}
	recipe, err := s.recipes.Get(ctx, id)
	if err != nil {
		return types.Recipe{}, mapNotFound(err)
	}
	if recipe.AuthorID != userID {
		return types.Recipe{}, ErrForbidden
	}
	return recipe, nil
}

// validate checks input and returns the decoded image (nil when none was
// supplied) and the ingredient lines. full requires every scalar field.
func (s *RecipeService) validate(ctx context.Context, input RecipeInput, full bool) (*images.Image, []types.RecipeIngredient, error) {
	errs := validation.Errors{}

	if input.Name == nil {
		if full {
			errs.Add("name", msgRequired)
		}
	} else {
		errs.Var("name", strings.TrimSpace(*input.Name), fmt.Sprintf("notblank,max=%d", types.MaxRecipeNameLength))
	}

	if input.Text == nil {
		if full {
			errs.Add("text", msgRequired)
		}
	} else {
		errs.Var("text", *input.Text, "notblank")
	}

	if input.CookingTime == nil {
		if full {
			errs.Add("cooking_time", msgRequired)
		}
	} else {
		errs.Var("cooking_time", *input.CookingTime,
			fmt.Sprintf("gte=%d,lte=%d", types.MinCookingTime, types.MaxCookingTime))
	}

	var img *images.Image
	if input.Image == nil {
		if full {
			errs.Add("image", msgRequired)
		}
	} else {
		decoded, err := images.Decode(*input.Image)
		if err != nil {
			errs.Add("image", err.Error())
		} else {
			img = &decoded
		}
	}

	lines, err := s.validateIngredients(ctx, input.Ingredients, errs)
	if err != nil {
		return nil, nil, err
	}

	if err := errs.Err(); err != nil {
		return nil, nil, err
	}
	return img, lines, nil
}

func (s *RecipeService) validateIngredients(ctx context.Context, input *[]IngredientAmount, errs validation.Errors) ([]types.RecipeIngredient, error) {
	const field = "ingredients"

	if input == nil {
		errs.Add(field, msgRequired)
		return nil, nil
	}
	items := *input
	if len(items) == 0 {
		errs.Add(field, "must specify at least one ingredient")
		return nil, nil
	}

	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	existing, err := s.ingredients.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve ingredients: %w", err)
	}

	reported := make(map[int]bool)
	for _, id := range ids {
		if !existing[id] && !reported[id] {
			errs.Add(field, fmt.Sprintf("ingredient %d not found", id))
			reported[id] = true
		}
	}
	if len(reported) > 0 {
		return nil, nil
	}

	seen := make(map[int]bool, len(items))
	for _, item := range items {
		if seen[item.ID] {
			errs.Add(field, "ingredients must not repeat")
			break
		}
		seen[item.ID] = true
	}

	for _, item := range items {
		if item.Amount < types.MinIngredientAmount || item.Amount > types.MaxIngredientAmount {
			errs.Add(field, fmt.Sprintf("amount must be between %d and %d",
				types.MinIngredientAmount, types.MaxIngredientAmount))
			break
		}
	}

	if errs.Has(field) {
		return nil, nil
	}

	lines := make([]types.RecipeIngredient, 0, len(items))
	for _, item := range items {
		lines = append(lines, types.RecipeIngredient{IngredientID: item.ID, Amount: item.Amount})
	}
	return lines, nil
}

func (s *RecipeService) annotateOne(ctx context.Context, viewerID int, recipe types.Recipe) (RecipeDetail, error) {
	details, err := s.annotate(ctx, viewerID, []types.Recipe{recipe})
	if err != nil {
		return RecipeDetail{}, err
	}
	return details[0], nil
}

// annotate attaches authors and per-viewer flags to recipes with one query
// per relation.
func (s *RecipeService) annotate(ctx context.Context, viewerID int, recipes []types.Recipe) ([]RecipeDetail, error) {
	details := make([]RecipeDetail, 0, len(recipes))
	if len(recipes) == 0 {
		return details, nil
	}

	recipeIDs := make([]int, 0, len(recipes))
	authorIDs := make([]int, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
		authorIDs = append(authorIDs, recipe.AuthorID)
	}

	authors, err := s.users.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	var favorited, inCart, subscribed map[int]bool
	if viewerID > 0 {
		if favorited, err = s.favorites.Contains(ctx, viewerID, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = s.cart.Contains(ctx, viewerID, recipeIDs); err != nil {
			return nil, err
		}
		if subscribed, err = s.subscriptions.SubscribedTo(ctx, viewerID, authorIDs); err != nil {
			return nil, err
		}
	}

	for _, recipe := range recipes {
		author, ok := authors[recipe.AuthorID]
		if !ok {
			return nil, errors.New("recipe author is missing")
		}
		details = append(details, RecipeDetail{
			Recipe:           recipe,
			Author:           author,
			AuthorSubscribed: subscribed[recipe.AuthorID],
			IsFavorited:      favorited[recipe.ID],
			IsInShoppingCart: inCart[recipe.ID],
		})
	}
	return details, nil
}
