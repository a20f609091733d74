package services

import (
	"errors"

	"github.com/foodgram/apiserver/internal/store"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("authentication credentials were not provided")
	ErrForbidden    = errors.New("you do not have permission to perform this action")

	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")

	ErrAlreadyInFavorites = errors.New("recipe is already in favorites")
	ErrNotInFavorites     = errors.New("recipe is not in favorites")
	ErrAlreadyInCart      = errors.New("recipe is already in the shopping cart")
	ErrNotInCart          = errors.New("recipe is not in the shopping cart")

	ErrAlreadySubscribed = errors.New("already subscribed to this user")
	ErrNotSubscribed     = errors.New("not subscribed to this user")
	ErrSelfSubscription  = errors.New("cannot subscribe to yourself")

	ErrEmptyCart = errors.New("shopping cart is empty")
)

// IsConflict reports whether err is a relation conflict that callers render
// as a client error rather than a failure.
func IsConflict(err error) bool {
	for _, target := range []error{
		ErrAlreadyInFavorites, ErrNotInFavorites,
		ErrAlreadyInCart, ErrNotInCart,
		ErrAlreadySubscribed, ErrNotSubscribed, ErrSelfSubscription,
		ErrEmptyCart,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
