package services

import (
	"context"
	"errors"
	"testing"

	"github.com/foodgram/apiserver/internal/services/servicetest"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/password"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(f *fixture) *UserService {
	policy := password.NewPolicy(config.PasswordConfig{
		MinLength:                8,
		RequireDigit:             true,
		RequireLetter:            true,
		MaxConsecutiveRepeats:    4,
		ForbidCommonPasswords:    true,
		ForbidUsernameSimilarity: true,
	})
	return NewUserService(f.Users, f.Subscriptions, f.Images, policy).WithHashCost(bcrypt.MinCost)
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:     "cook@example.com",
		Username:  "cook",
		FirstName: "Ann",
		LastName:  "Cook",
		Password:  "pl4nt-b4sed-pie",
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)

	user, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}
	if user.PasswordHash == "" || user.PasswordHash == "pl4nt-b4sed-pie" {
		t.Fatalf("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pl4nt-b4sed-pie")); err != nil {
		t.Fatalf("hash does not match password: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "nope" }, "email"},
		{"bad username", func(in *RegisterInput) { in.Username = "with space" }, "username"},
		{"missing first name", func(in *RegisterInput) { in.FirstName = "" }, "first_name"},
		{"weak password", func(in *RegisterInput) { in.Password = "password" }, "password"},
		{"password like username", func(in *RegisterInput) { in.Password = "cook1234" }, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			input := registerInput()
			tt.mutate(&input)
			_, err := newUserService(f).Register(context.Background(), input)
			errs := validationErrors(t, err)
			if !errs.Has(tt.field) {
				t.Fatalf("expected %s error, got %v", tt.field, errs)
			}
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)
	ctx := context.Background()
	if _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	input := registerInput()
	input.Email = "COOK@example.com"
	input.Username = "other"
	errs := validationErrors(t, func() error { _, err := svc.Register(ctx, input); return err }())
	if !errs.Has("email") {
		t.Fatalf("expected duplicate email error, got %v", errs)
	}

	input = registerInput()
	input.Email = "other@example.com"
	errs = validationErrors(t, func() error { _, err := svc.Register(ctx, input); return err }())
	if !errs.Has("username") {
		t.Fatalf("expected duplicate username error, got %v", errs)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)
	ctx := context.Background()
	registered, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate(ctx, "cook@example.com", "pl4nt-b4sed-pie")
	if err != nil || user.ID != registered.ID {
		t.Fatalf("expected successful login, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "cook@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ghost@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)
	ctx := context.Background()
	user, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	errs := validationErrors(t, svc.SetPassword(ctx, user.ID, "wrong", "n3w-s3cret-soup"))
	if !errs.Has("current_password") || errs.Has("new_password") {
		t.Fatalf("expected only current_password error, got %v", errs)
	}

	errs = validationErrors(t, svc.SetPassword(ctx, user.ID, "pl4nt-b4sed-pie", "12345678"))
	if errs.Has("current_password") || !errs.Has("new_password") {
		t.Fatalf("expected only new_password error, got %v", errs)
	}

	if err := svc.SetPassword(ctx, user.ID, "pl4nt-b4sed-pie", "n3w-s3cret-soup"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "cook@example.com", "n3w-s3cret-soup"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAvatarLifecycle(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)
	ctx := context.Background()
	user := f.Users.Add("cook")

	if _, err := svc.SetAvatar(ctx, user.ID, "!!!"); err == nil {
		t.Fatalf("expected invalid image error")
	} else if errs := validationErrors(t, err); !errs.Has("avatar") {
		t.Fatalf("expected avatar error, got %v", errs)
	}

	first, err := svc.SetAvatar(ctx, user.ID, servicetest.PNGDataURI())
	if err != nil {
		t.Fatalf("set avatar: %v", err)
	}
	second, err := svc.SetAvatar(ctx, user.ID, servicetest.PNGDataURI())
	if err != nil {
		t.Fatalf("replace avatar: %v", err)
	}
	if first == second {
		t.Fatalf("expected a new key on replace")
	}
	if f.Images.Len() != 1 {
		t.Fatalf("expected previous avatar to be deleted, have %d objects", f.Images.Len())
	}

	if err := svc.DeleteAvatar(ctx, user.ID); err != nil {
		t.Fatalf("delete avatar: %v", err)
	}
	stored, _ := f.Users.GetByID(ctx, user.ID)
	if stored.Avatar != "" || f.Images.Len() != 0 {
		t.Fatalf("expected avatar to be cleared")
	}
}

func TestUserProfilesShowSubscription(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)
	ctx := context.Background()
	alice := f.Users.Add("alice")
	bob := f.Users.Add("bob")
	if _, err := f.subscriptionService.Subscribe(ctx, alice.ID, bob.ID, 0); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	profile, err := svc.Get(ctx, alice.ID, bob.ID)
	if err != nil || !profile.IsSubscribed {
		t.Fatalf("expected alice to see subscription, err=%v", err)
	}
	profile, err = svc.Get(ctx, 0, bob.ID)
	if err != nil || profile.IsSubscribed {
		t.Fatalf("anonymous viewer must not be subscribed, err=%v", err)
	}
	if _, err := svc.Get(ctx, 0, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users, total, err := svc.List(ctx, alice.ID, 0, 10)
	if err != nil || total != 2 || len(users) != 2 {
		t.Fatalf("list: total=%d err=%v", total, err)
	}
}
