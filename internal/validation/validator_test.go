package validation

import (
	"errors"
	"testing"
)

type signup struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,notblank,max=150"`
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Fatal("expected the same validator instance")
	}
}

func TestStructValid(t *testing.T) {
	errs := Struct(signup{Email: "cook@example.com", Username: "chef.one", FirstName: "Ann"})
	if errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestStructUsesJSONFieldNames(t *testing.T) {
	errs := Struct(signup{Email: "not-an-email", Username: "bad name!", FirstName: "   "})
	if errs == nil {
		t.Fatal("expected errors")
	}

	tests := map[string]string{
		"email":      messages["email"],
		"username":   messages["username"],
		"first_name": messages["notblank"],
	}
	for field, want := range tests {
		got := errs[field]
		if len(got) != 1 || got[0] != want {
			t.Errorf("field %s: got %v, want [%s]", field, got, want)
		}
	}
}

func TestVarRange(t *testing.T) {
	tests := []struct {
		name  string
		value int
		ok    bool
	}{
		{name: "below", value: 0, ok: false},
		{name: "lower bound", value: 1, ok: true},
		{name: "upper bound", value: 300, ok: true},
		{name: "above", value: 301, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Errors{}
			errs.Var("cooking_time", tt.value, "gte=1,lte=300")
			if tt.ok != (errs.Err() == nil) {
				t.Fatalf("value %d: unexpected result %v", tt.value, errs)
			}
			if !tt.ok && !errs.Has("cooking_time") {
				t.Fatalf("expected cooking_time error, got %v", errs)
			}
		})
	}
}

func TestErrorsAsError(t *testing.T) {
	errs := Errors{}
	errs.Add("ingredients", "ingredients must not repeat")

	var err error = errs.Err()
	var target Errors
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to match Errors")
	}
	if target["ingredients"][0] != "ingredients must not repeat" {
		t.Fatalf("unexpected message %v", target)
	}
	if (Errors{}).Err() != nil {
		t.Fatal("expected empty errors to be nil")
	}
}
