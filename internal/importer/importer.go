// Package importer loads fixture data (ingredients, users, recipes) from a
// directory of JSON files. Every step inserts only what is absent, so the
// import can be repeated.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/foodgram/apiserver/internal/images"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/foodgram/apiserver/types"
)

const (
	IngredientsFile = "ingredients.json"
	UsersFile       = "users.json"
	RecipesFile     = "recipes.json"
)

type IngredientRepository interface {
	Ensure(ctx context.Context, name, unit string) (types.Ingredient, bool, error)
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

type RecipeRepository interface {
	Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	ExistsByAuthorAndName(ctx context.Context, authorID int, name string) (bool, error)
}

type ImageStore interface {
	Save(ctx context.Context, prefix string, img images.Image) (string, error)
}

// Deps groups the repositories the importer writes to.
type Deps struct {
	Ingredients IngredientRepository
	Users       UserRepository
	Recipes     RecipeRepository
	Images      ImageStore
	// HashCost is the bcrypt cost for imported passwords.
	HashCost int
}

// Report counts what a run created and skipped.
type Report struct {
	IngredientsCreated int
	IngredientsSkipped int
	UsersCreated       int
	UsersSkipped       int
	RecipesCreated     int
	RecipesSkipped     int
}

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type userRecord struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Avatar    string `json:"avatar"`
}

type recipeLineRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type recipeRecord struct {
	AuthorEmail string             `json:"author_email"`
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
	Image       string             `json:"image"`
	Ingredients []recipeLineRecord `json:"ingredients"`
}

type Importer struct {
	deps   Deps
	logger zerolog.Logger
}

func New(deps Deps) *Importer {
	if deps.HashCost == 0 {
		deps.HashCost = bcrypt.DefaultCost
	}
	return &Importer{deps: deps, logger: logging.WithComponent("importer")}
}

// Run imports every fixture file present in dir. Image and avatar paths in
// the fixtures are resolved against mediaDir. Missing files are skipped.
func (im *Importer) Run(ctx context.Context, dir, mediaDir string) (Report, error) {
	var report Report
	if mediaDir == "" {
		mediaDir = filepath.Join(dir, "media")
	}

	var ingredients []ingredientRecord
	if err := readFixture(filepath.Join(dir, IngredientsFile), &ingredients); err != nil {
		return report, err
	}
	if err := im.importIngredients(ctx, ingredients, &report); err != nil {
		return report, err
	}

	var users []userRecord
	if err := readFixture(filepath.Join(dir, UsersFile), &users); err != nil {
		return report, err
	}
	if err := im.importUsers(ctx, users, mediaDir, &report); err != nil {
		return report, err
	}

	var recipes []recipeRecord
	if err := readFixture(filepath.Join(dir, RecipesFile), &recipes); err != nil {
		return report, err
	}
	if err := im.importRecipes(ctx, recipes, mediaDir, &report); err != nil {
		return report, err
	}

	im.logger.Info().
		Int("ingredients_created", report.IngredientsCreated).
		Int("users_created", report.UsersCreated).
		Int("recipes_created", report.RecipesCreated).
		Int("recipes_skipped", report.RecipesSkipped).
		Msg("import finished")
	return report, nil
}

func readFixture(path string, dst any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (im *Importer) importIngredients(ctx context.Context, records []ingredientRecord, report *Report) error {
	for _, record := range records {
		name := strings.TrimSpace(record.Name)
		unit := strings.TrimSpace(record.MeasurementUnit)
		if name == "" || unit == "" {
			report.IngredientsSkipped++
			continue
		}
		_, created, err := im.deps.Ingredients.Ensure(ctx, name, unit)
		if err != nil {
			return fmt.Errorf("import ingredient %q: %w", name, err)
		}
		if created {
			report.IngredientsCreated++
		} else {
			report.IngredientsSkipped++
		}
	}
	return nil
}

func (im *Importer) importUsers(ctx context.Context, records []userRecord, mediaDir string, report *Report) error {
	for _, record := range records {
		email := strings.TrimSpace(record.Email)
		_, err := im.deps.Users.GetByEmail(ctx, email)
		if err == nil {
			report.UsersSkipped++
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("look up user %q: %w", email, err)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(record.Password), im.deps.HashCost)
		if err != nil {
			return fmt.Errorf("hash password for %q: %w", email, err)
		}
		user := types.User{
			Email:        email,
			Username:     strings.TrimSpace(record.Username),
			FirstName:    strings.TrimSpace(record.FirstName),
			LastName:     strings.TrimSpace(record.LastName),
			PasswordHash: string(hashed),
		}
		user.Avatar = im.uploadImage(ctx, mediaDir, record.Avatar, "avatars")

		if _, err := im.deps.Users.Create(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) || errors.Is(err, store.ErrDuplicateUsername) {
				im.logger.Warn().Str("email", email).Err(err).Msg("skipping duplicate user")
				report.UsersSkipped++
				continue
			}
			return fmt.Errorf("create user %q: %w", email, err)
		}
		report.UsersCreated++
	}
	return nil
}

func (im *Importer) importRecipes(ctx context.Context, records []recipeRecord, mediaDir string, report *Report) error {
	for _, record := range records {
		log := im.logger.With().Str("recipe", record.Name).Str("author", record.AuthorEmail).Logger()

		author, err := im.deps.Users.GetByEmail(ctx, strings.TrimSpace(record.AuthorEmail))
		if errors.Is(err, store.ErrNotFound) {
			log.Warn().Msg("skipping recipe with unknown author")
			report.RecipesSkipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("look up author %q: %w", record.AuthorEmail, err)
		}

		exists, err := im.deps.Recipes.ExistsByAuthorAndName(ctx, author.ID, record.Name)
		if err != nil {
			return fmt.Errorf("check recipe %q: %w", record.Name, err)
		}
		if exists {
			report.RecipesSkipped++
			continue
		}

		if problem := checkRecipe(record); problem != "" {
			log.Warn().Str("problem", problem).Msg("skipping invalid recipe")
			report.RecipesSkipped++
			continue
		}

		lines := make([]types.RecipeIngredient, 0, len(record.Ingredients))
		for _, line := range record.Ingredients {
			ingredient, _, err := im.deps.Ingredients.Ensure(ctx, strings.TrimSpace(line.Name), strings.TrimSpace(line.MeasurementUnit))
			if err != nil {
				return fmt.Errorf("resolve ingredient %q: %w", line.Name, err)
			}
			lines = append(lines, types.RecipeIngredient{IngredientID: ingredient.ID, Amount: line.Amount})
		}

		recipe := types.Recipe{
			AuthorID:    author.ID,
			Name:        record.Name,
			Text:        record.Text,
			CookingTime: record.CookingTime,
			Image:       im.uploadImage(ctx, mediaDir, record.Image, "recipes"),
			Ingredients: lines,
		}
		if _, err := im.deps.Recipes.Create(ctx, recipe); err != nil {
			return fmt.Errorf("create recipe %q: %w", record.Name, err)
		}
		report.RecipesCreated++
	}
	return nil
}

// checkRecipe returns a description of the first problem with record, or "".
func checkRecipe(record recipeRecord) string {
	switch {
	case strings.TrimSpace(record.Name) == "" || len([]rune(record.Name)) > types.MaxRecipeNameLength:
		return "invalid name"
	case strings.TrimSpace(record.Text) == "":
		return "empty text"
	case record.CookingTime < types.MinCookingTime || record.CookingTime > types.MaxCookingTime:
		return "cooking time out of range"
	case len(record.Ingredients) == 0:
		return "no ingredients"
	}
	seen := map[[2]string]bool{}
	for _, line := range record.Ingredients {
		key := [2]string{strings.TrimSpace(line.Name), strings.TrimSpace(line.MeasurementUnit)}
		if key[0] == "" || key[1] == "" {
			return "ingredient without name or unit"
		}
		if seen[key] {
			return "repeated ingredient"
		}
		seen[key] = true
		if line.Amount < types.MinIngredientAmount || line.Amount > types.MaxIngredientAmount {
			return "ingredient amount out of range"
		}
	}
	return ""
}

// uploadImage stores the file at mediaDir/rel and returns its key. A missing
// or unreadable file yields an empty key.
func (im *Importer) uploadImage(ctx context.Context, mediaDir, rel, prefix string) string {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(mediaDir, filepath.FromSlash(rel)))
	if err != nil {
		im.logger.Warn().Str("file", rel).Err(err).Msg("image not found")
		return ""
	}
	img, err := images.FromBytes(data)
	if err != nil {
		im.logger.Warn().Str("file", rel).Err(err).Msg("skipping invalid image")
		return ""
	}
	key, err := im.deps.Images.Save(ctx, prefix, img)
	if err != nil {
		im.logger.Warn().Str("file", rel).Err(err).Msg("image upload failed")
		return ""
	}
	return key
}
