package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/foodgram/apiserver/internal/services/servicetest"
	"github.com/foodgram/apiserver/types"
)

const ingredientsJSON = `[
	{"name": "Flour", "measurement_unit": "g"},
	{"name": "Milk", "measurement_unit": "ml"},
	{"name": "Flour", "measurement_unit": "g"}
]`

const usersJSON = `[
	{"email": "chef@example.com", "username": "chef", "first_name": "Ann", "last_name": "Chef", "password": "kitchen-2024", "avatar": "avatars/chef.png"},
	{"email": "cook@example.com", "username": "cook", "first_name": "Bob", "last_name": "Cook", "password": "kitchen-2024"}
]`

const recipesJSON = `[
	{
		"author_email": "chef@example.com",
		"name": "Pancakes",
		"text": "Mix and fry.",
		"cooking_time": 20,
		"image": "recipes/pancakes.png",
		"ingredients": [
			{"name": "Flour", "measurement_unit": "g", "amount": 200},
			{"name": "Eggs", "measurement_unit": "pcs", "amount": 2}
		]
	},
	{
		"author_email": "ghost@example.com",
		"name": "Nothing",
		"text": "No author.",
		"cooking_time": 5,
		"ingredients": [{"name": "Milk", "measurement_unit": "ml", "amount": 100}]
	},
	{
		"author_email": "cook@example.com",
		"name": "Too slow",
		"text": "Takes forever.",
		"cooking_time": 301,
		"ingredients": [{"name": "Milk", "measurement_unit": "ml", "amount": 100}]
	}
]`

type fixture struct {
	users       *servicetest.Users
	ingredients *servicetest.Ingredients
	recipes     *servicetest.Recipes
	images      *servicetest.Images
	importer    *Importer
}

func newFixture() *fixture {
	f := &fixture{
		users:       servicetest.NewUsers(),
		ingredients: servicetest.NewIngredients(),
		images:      servicetest.NewImages(),
	}
	f.recipes = servicetest.NewRecipes(f.ingredients)
	f.importer = New(Deps{
		Ingredients: f.ingredients,
		Users:       f.users,
		Recipes:     f.recipes,
		Images:      f.images,
		HashCost:    bcrypt.MinCost,
	})
	return f
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		IngredientsFile:              []byte(ingredientsJSON),
		UsersFile:                    []byte(usersJSON),
		RecipesFile:                  []byte(recipesJSON),
		"media/avatars/chef.png":     servicetest.PNGPixel,
		"media/recipes/pancakes.png": servicetest.PNGPixel,
	}
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestRunImportsFixtures(t *testing.T) {
	f := newFixture()
	dir := writeFixtures(t)
	ctx := context.Background()

	report, err := f.importer.Run(ctx, dir, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.IngredientsCreated != 2 || report.IngredientsSkipped != 1 {
		t.Fatalf("unexpected ingredient counts: %+v", report)
	}
	if report.UsersCreated != 2 || report.RecipesCreated != 1 || report.RecipesSkipped != 2 {
		t.Fatalf("unexpected counts: %+v", report)
	}

	chef, err := f.users.GetByEmail(ctx, "chef@example.com")
	if err != nil {
		t.Fatalf("get chef: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(chef.PasswordHash), []byte("kitchen-2024")); err != nil {
		t.Fatalf("password was not hashed correctly: %v", err)
	}
	if chef.Avatar == "" || !f.images.Has(chef.Avatar) {
		t.Fatalf("expected avatar upload, got %q", chef.Avatar)
	}

	recipes, total, err := f.recipes.List(ctx, types.RecipeFilter{Limit: 10})
	if err != nil {
		t.Fatalf("list recipes: %v", err)
	}
	if total != 1 || recipes[0].Name != "Pancakes" || recipes[0].AuthorID != chef.ID {
		t.Fatalf("unexpected recipes: %+v", recipes)
	}
	if len(recipes[0].Ingredients) != 2 {
		t.Fatalf("expected 2 ingredient lines, got %+v", recipes[0].Ingredients)
	}
	if recipes[0].Ingredients[1].Name != "Eggs" {
		t.Fatalf("expected missing ingredient to be created, got %+v", recipes[0].Ingredients[1])
	}
	if f.images.Len() != 2 {
		t.Fatalf("expected 2 stored images, got %d", f.images.Len())
	}
}

func TestRunIsRepeatable(t *testing.T) {
	f := newFixture()
	dir := writeFixtures(t)
	ctx := context.Background()

	if _, err := f.importer.Run(ctx, dir, ""); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := f.importer.Run(ctx, dir, "")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.IngredientsCreated != 0 || report.UsersCreated != 0 || report.RecipesCreated != 0 {
		t.Fatalf("second run created rows: %+v", report)
	}
	if report.UsersSkipped != 2 || report.RecipesSkipped != 3 {
		t.Fatalf("unexpected skip counts: %+v", report)
	}
}

func TestRunMissingFilesAndImages(t *testing.T) {
	f := newFixture()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, UsersFile), []byte(usersJSON), 0o644); err != nil {
		t.Fatalf("write users: %v", err)
	}

	report, err := f.importer.Run(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.UsersCreated != 2 || report.IngredientsCreated != 0 || report.RecipesCreated != 0 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	chef, err := f.users.GetByEmail(context.Background(), "chef@example.com")
	if err != nil {
		t.Fatalf("get chef: %v", err)
	}
	if chef.Avatar != "" {
		t.Fatalf("expected empty avatar when the file is missing, got %q", chef.Avatar)
	}
}

func TestRunRejectsMalformedJSON(t *testing.T) {
	f := newFixture()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, IngredientsFile), []byte(`{"name":`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := f.importer.Run(context.Background(), dir, ""); err == nil {
		t.Fatalf("expected parse error")
	}
}
