package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/foodgram/apiserver/internal/events"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/foodgram/apiserver/types"
)

// AuthorSummary is an author as seen from a subscriber: the profile plus a
// preview of the author's recipes.
type AuthorSummary struct {
	User         types.User
	IsSubscribed bool
	Recipes      []types.Recipe
	RecipesCount int
}

// SubscriptionService manages subscriptions between users.
type SubscriptionService struct {
	subscriptions SubscriptionRepository
	users         UserRepository
	recipes       RecipeRepository
	publisher     events.Publisher
}

func NewSubscriptionService(subscriptions SubscriptionRepository, users UserRepository, recipes RecipeRepository, publisher events.Publisher) *SubscriptionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SubscriptionService{
		subscriptions: subscriptions,
		users:         users,
		recipes:       recipes,
		publisher:     publisher,
	}
}

// Subscribe makes subscriberID follow authorID. recipesLimit bounds the
// recipe preview in the result; non-positive means all recipes.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, authorID, recipesLimit int) (AuthorSummary, error) {
	if subscriberID < 1 {
		return AuthorSummary{}, ErrUnauthorized
	}

	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return AuthorSummary{}, mapNotFound(err)
	}
	if subscriberID == authorID {
		return AuthorSummary{}, ErrSelfSubscription
	}

	exists, err := s.subscriptions.Exists(ctx, subscriberID, authorID)
	if err != nil {
		return AuthorSummary{}, err
	}
	if exists {
		return AuthorSummary{}, ErrAlreadySubscribed
	}

	if err := s.subscriptions.Add(ctx, subscriberID, authorID); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return AuthorSummary{}, ErrAlreadySubscribed
		}
		return AuthorSummary{}, fmt.Errorf("add subscription: %w", err)
	}

	publish(ctx, s.publisher, events.SubscriptionCreated, subscriberID, authorID)
	return s.summarize(ctx, author, true, recipesLimit)
}

// Unsubscribe removes the subscription of subscriberID to authorID.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, authorID int) error {
	if subscriberID < 1 {
		return ErrUnauthorized
	}

	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return mapNotFound(err)
	}

	if err := s.subscriptions.Remove(ctx, subscriberID, authorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotSubscribed
		}
		return fmt.Errorf("remove subscription: %w", err)
	}
	return nil
}

// List returns one page of the authors subscriberID follows and the total
// number of subscriptions.
func (s *SubscriptionService) List(ctx context.Context, subscriberID, offset, limit, recipesLimit int) ([]AuthorSummary, int, error) {
	if subscriberID < 1 {
		return nil, 0, ErrUnauthorized
	}

	authors, total, err := s.subscriptions.ListAuthors(ctx, subscriberID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]AuthorSummary, 0, len(authors))
	for _, author := range authors {
		summary, err := s.summarize(ctx, author, true, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func (s *SubscriptionService) summarize(ctx context.Context, author types.User, subscribed bool, recipesLimit int) (AuthorSummary, error) {
	recipes, err := s.recipes.ListByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return AuthorSummary{}, fmt.Errorf("list author recipes: %w", err)
	}
	count, err := s.recipes.CountByAuthor(ctx, author.ID)
	if err != nil {
		return AuthorSummary{}, fmt.Errorf("count author recipes: %w", err)
	}
	return AuthorSummary{
		User:         author,
		IsSubscribed: subscribed,
		Recipes:      recipes,
		RecipesCount: count,
	}, nil
}
