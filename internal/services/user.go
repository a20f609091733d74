package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foodgram/apiserver/internal/images"
	"github.com/foodgram/apiserver/internal/password"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/foodgram/apiserver/internal/validation"
	"github.com/foodgram/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,notblank,max=150"`
	LastName  string `json:"last_name" validate:"required,notblank,max=150"`
	Password  string `json:"password" validate:"required"`
}

// UserProfile is a user annotated for a particular viewer.
type UserProfile struct {
	User         types.User
	IsSubscribed bool
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo          UserRepository
	subscriptions SubscriptionRepository
	images        ImageStore
	policy        password.Policy
	hashCost      int
}

func NewUserService(repo UserRepository, subscriptions SubscriptionRepository, imageStore ImageStore, policy password.Policy) *UserService {
	return &UserService{
		repo:          repo,
		subscriptions: subscriptions,
		images:        imageStore,
		policy:        policy,
		hashCost:      bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

// Register validates input and creates a user with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (types.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	errs := validation.Struct(input)
	if errs == nil {
		errs = validation.Errors{}
	}
	if !errs.Has("password") {
		for _, problem := range s.policy.Check(input.Password, input.Username, input.Email) {
			errs.Add("password", problem)
		}
	}

	if !errs.Has("email") {
		if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
			errs.Add("email", "a user with that email already exists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return types.User{}, fmt.Errorf("check email: %w", err)
		}
	}
	if !errs.Has("username") {
		if _, err := s.repo.GetByUsername(ctx, input.Username); err == nil {
			errs.Add("username", "a user with that username already exists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return types.User{}, fmt.Errorf("check username: %w", err)
		}
	}
	if err := errs.Err(); err != nil {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hashed),
	})
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return types.User{}, validation.Errors{"email": {"a user with that email already exists"}}
	case errors.Is(err, store.ErrDuplicateUsername):
		return types.User{}, validation.Errors{"username": {"a user with that username already exists"}}
	case err != nil:
		return types.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate checks email and password and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, email, plain string) (types.User, error) {
	errs := validation.Errors{}
	if strings.TrimSpace(email) == "" {
		errs.Add("email", msgRequired)
	}
	if plain == "" {
		errs.Add("password", msgRequired)
	}
	if err := errs.Err(); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plain)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns user id as seen by viewerID (0 for anonymous callers).
func (s *UserService) Get(ctx context.Context, viewerID, id int) (UserProfile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return UserProfile{}, mapNotFound(err)
	}
	profiles, err := s.annotate(ctx, viewerID, []types.User{user})
	if err != nil {
		return UserProfile{}, err
	}
	return profiles[0], nil
}

// List returns one page of users and the total number of users.
func (s *UserService) List(ctx context.Context, viewerID, offset, limit int) ([]UserProfile, int, error) {
	users, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	profiles, err := s.annotate(ctx, viewerID, users)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// SetPassword replaces the user's password after verifying the current one.
func (s *UserService) SetPassword(ctx context.Context, userID int, current, next string) error {
	if userID < 1 {
		return ErrUnauthorized
	}

	errs := validation.Errors{}
	if current == "" {
		errs.Add("current_password", msgRequired)
	}
	if next == "" {
		errs.Add("new_password", msgRequired)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return mapNotFound(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		errs.Add("current_password", "wrong password")
	}
	for _, problem := range s.policy.Check(next, user.Username, user.Email) {
		errs.Add("new_password", problem)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return mapNotFound(s.repo.UpdatePassword(ctx, userID, string(hashed)))
}

// SetAvatar decodes raw inline image data and makes it the user's avatar,
// replacing any previous one. It returns the new avatar key.
func (s *UserService) SetAvatar(ctx context.Context, userID int, raw string) (string, error) {
	if userID < 1 {
		return "", ErrUnauthorized
	}
	if strings.TrimSpace(raw) == "" {
		return "", validation.Errors{"avatar": {msgRequired}}
	}
	img, err := images.Decode(raw)
	if err != nil {
		return "", validation.Errors{"avatar": {err.Error()}}
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", mapNotFound(err)
	}

	key, err := s.images.Save(ctx, avatarPrefix, img)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateAvatar(ctx, userID, key); err != nil {
		discardImage(ctx, s.images, key)
		return "", fmt.Errorf("update avatar: %w", mapNotFound(err))
	}
	discardImage(ctx, s.images, user.Avatar)
	return key, nil
}

// DeleteAvatar clears the user's avatar and removes the stored image.
func (s *UserService) DeleteAvatar(ctx context.Context, userID int) error {
	if userID < 1 {
		return ErrUnauthorized
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return mapNotFound(err)
	}
	if user.Avatar == "" {
		return nil
	}
	if err := s.repo.UpdateAvatar(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear avatar: %w", mapNotFound(err))
	}
	discardImage(ctx, s.images, user.Avatar)
	return nil
}

func (s *UserService) annotate(ctx context.Context, viewerID int, users []types.User) ([]UserProfile, error) {
	profiles := make([]UserProfile, 0, len(users))
	if len(users) == 0 {
		return profiles, nil
	}

	var subscribed map[int]bool
	if viewerID > 0 {
		ids := make([]int, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}
		var err error
		if subscribed, err = s.subscriptions.SubscribedTo(ctx, viewerID, ids); err != nil {
			return nil, err
		}
	}

	for _, user := range users {
		profiles = append(profiles, UserProfile{User: user, IsSubscribed: subscribed[user.ID]})
	}
	return profiles, nil
}
