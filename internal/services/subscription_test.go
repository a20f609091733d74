package services

import (
	"context"
	"errors"
	"testing"
)

func TestSubscribeRejectsSelf(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.Users.Add("alice")

	if _, err := f.subscriptionService.Subscribe(ctx, user.ID, user.ID, 0); !errors.Is(err, ErrSelfSubscription) {
		t.Fatalf("expected ErrSelfSubscription, got %v", err)
	}

	// A stale self row must not change the outcome.
	_ = f.Subscriptions.Add(ctx, user.ID, user.ID)
	if _, err := f.subscriptionService.Subscribe(ctx, user.ID, user.ID, 0); !errors.Is(err, ErrSelfSubscription) {
		t.Fatalf("expected ErrSelfSubscription with existing row, got %v", err)
	}
}

func TestSubscribeConflictsAndNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.Users.Add("alice")
	bob := f.Users.Add("bob")

	if _, err := f.subscriptionService.Subscribe(ctx, alice.ID, 999, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.subscriptionService.Subscribe(ctx, alice.ID, bob.ID, 0); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := f.subscriptionService.Subscribe(ctx, alice.ID, bob.ID, 0); !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("expected ErrAlreadySubscribed, got %v", err)
	}
	if err := f.subscriptionService.Unsubscribe(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := f.subscriptionService.Unsubscribe(ctx, alice.ID, bob.ID); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("expected ErrNotSubscribed, got %v", err)
	}
}

func TestSubscriptionListIncludesRecipePreview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.Users.Add("alice")
	bob := f.Users.Add("bob")
	carol := f.Users.Add("carol")

	var newest int
	for i := 0; i < 3; i++ {
		newest = f.createRecipe(bob.ID).Recipe.ID
	}
	f.createRecipe(carol.ID)

	for _, author := range []int{bob.ID, carol.ID} {
		if _, err := f.subscriptionService.Subscribe(ctx, alice.ID, author, 0); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	summaries, total, err := f.subscriptionService.List(ctx, alice.ID, 0, 6, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(summaries) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d/%d", len(summaries), total)
	}
	first := summaries[0]
	if first.User.ID != bob.ID || !first.IsSubscribed {
		t.Fatalf("expected bob first and subscribed, got %+v", first.User)
	}
	if first.RecipesCount != 3 || len(first.Recipes) != 2 {
		t.Fatalf("expected 2 of 3 recipes, got %d of %d", len(first.Recipes), first.RecipesCount)
	}
	if first.Recipes[0].ID != newest {
		t.Fatalf("expected newest recipe first")
	}

	page, total, err := f.subscriptionService.List(ctx, alice.ID, 1, 1, 0)
	if err != nil || total != 2 || len(page) != 1 || page[0].User.ID != carol.ID {
		t.Fatalf("expected second page with carol, got %v %d", err, total)
	}
}
