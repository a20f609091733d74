// Package servicetest provides in-memory repositories and collaborators for
// exercising services and handlers without a database.
package servicetest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/foodgram/apiserver/internal/events"
	"github.com/foodgram/apiserver/internal/images"
	"github.com/foodgram/apiserver/internal/storage"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/foodgram/apiserver/types"
)

// PNGPixel is a 1x1 transparent PNG.
var PNGPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

// PNGDataURI returns PNGPixel as an inline data URI.
func PNGDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(PNGPixel)
}

// Users is an in-memory user repository.
type Users struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func NewUsers() *Users {
	return &Users{users: map[int]types.User{}}
}

func (m *Users) GetByID(_ context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *Users) GetByUsername(_ context.Context, username string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *Users) GetByIDs(_ context.Context, ids []int) (map[int]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int]types.User{}
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

func (m *Users) List(_ context.Context, offset, limit int) ([]types.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := []types.User{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.users[ids[i]])
	}
	return out, len(ids), nil
}

func (m *Users) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return types.User{}, store.ErrDuplicateEmail
		}
		if existing.Username == user.Username {
			return types.User{}, store.ErrDuplicateUsername
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return user, nil
}

func (m *Users) UpdatePassword(_ context.Context, id int, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = hash
	m.users[id] = user
	return nil
}

func (m *Users) UpdateAvatar(_ context.Context, id int, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Avatar = avatar
	m.users[id] = user
	return nil
}

// Add creates a user with a derived email address.
func (m *Users) Add(username string) types.User {
	user, err := m.Create(context.Background(), types.User{
		Email:    username + "@example.com",
		Username: username,
	})
	if err != nil {
		panic(err)
	}
	return user
}

// Ingredients is an in-memory ingredient catalog.
type Ingredients struct {
	items map[int]types.Ingredient
}

func NewIngredients(items ...types.Ingredient) *Ingredients {
	m := &Ingredients{items: map[int]types.Ingredient{}}
	for _, item := range items {
		m.items[item.ID] = item
	}
	return m
}

func (m *Ingredients) List(_ context.Context, name string) ([]types.Ingredient, error) {
	out := []types.Ingredient{}
	for _, item := range m.items {
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(name)) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Ingredients) Get(_ context.Context, id int) (types.Ingredient, error) {
	item, ok := m.items[id]
	if !ok {
		return types.Ingredient{}, store.ErrNotFound
	}
	return item, nil
}

// Ensure returns the (name, unit) entry, inserting it when absent.
func (m *Ingredients) Ensure(_ context.Context, name, unit string) (types.Ingredient, bool, error) {
	maxID := 0
	for id, item := range m.items {
		if item.Name == name && item.MeasurementUnit == unit {
			return item, false, nil
		}
		if id > maxID {
			maxID = id
		}
	}
	item := types.Ingredient{ID: maxID + 1, Name: name, MeasurementUnit: unit}
	m.items[item.ID] = item
	return item, true, nil
}

func (m *Ingredients) ExistingIDs(_ context.Context, ids []int) (map[int]bool, error) {
	out := map[int]bool{}
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// Recipes is an in-memory recipe repository. Favorites and Cart back the
// listing filters; FailWrites makes Create and Update fail.
type Recipes struct {
	mu          sync.Mutex
	nextID      int
	recipes     map[int]types.Recipe
	ingredients *Ingredients
	Favorites   *Relations
	Cart        *Relations
	FailWrites  bool
}

func NewRecipes(ingredients *Ingredients) *Recipes {
	return &Recipes{recipes: map[int]types.Recipe{}, ingredients: ingredients}
}

func (m *Recipes) fill(recipe types.Recipe) types.Recipe {
	lines := make([]types.RecipeIngredient, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		item := m.ingredients.items[line.IngredientID]
		line.Name = item.Name
		line.MeasurementUnit = item.MeasurementUnit
		lines = append(lines, line)
	}
	recipe.Ingredients = lines
	return recipe
}

func (m *Recipes) Create(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return types.Recipe{}, fmt.Errorf("write failed")
	}
	m.nextID++
	recipe.ID = m.nextID
	recipe = m.fill(recipe)
	m.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (m *Recipes) Update(_ context.Context, recipe types.Recipe, replaceLines bool) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return types.Recipe{}, fmt.Errorf("write failed")
	}
	existing, ok := m.recipes[recipe.ID]
	if !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	if !replaceLines {
		recipe.Ingredients = existing.Ingredients
	}
	recipe = m.fill(recipe)
	m.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (m *Recipes) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.recipes, id)
	return nil
}

func (m *Recipes) Get(_ context.Context, id int) (types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipe, ok := m.recipes[id]
	if !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	return recipe, nil
}

func (m *Recipes) Exists(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recipes[id]
	return ok, nil
}

func (m *Recipes) sortedDesc() []types.Recipe {
	out := make([]types.Recipe, 0, len(m.recipes))
	for _, recipe := range m.recipes {
		out = append(out, recipe)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *Recipes) List(_ context.Context, filter types.RecipeFilter) ([]types.Recipe, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []types.Recipe{}
	for _, recipe := range m.sortedDesc() {
		if filter.AuthorID != 0 && recipe.AuthorID != filter.AuthorID {
			continue
		}
		if filter.FavoritedBy != 0 && !m.Favorites.Has(filter.FavoritedBy, recipe.ID) {
			continue
		}
		if filter.InCartOf != 0 && !m.Cart.Has(filter.InCartOf, recipe.ID) {
			continue
		}
		matched = append(matched, recipe)
	}
	out := []types.Recipe{}
	for i := filter.Offset; i < len(matched) && len(out) < filter.Limit; i++ {
		out = append(out, matched[i])
	}
	return out, len(matched), nil
}

func (m *Recipes) ListByAuthor(_ context.Context, authorID, limit int) ([]types.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Recipe{}
	for _, recipe := range m.sortedDesc() {
		if recipe.AuthorID != authorID {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		recipe.Ingredients = nil
		out = append(out, recipe)
	}
	return out, nil
}

func (m *Recipes) ExistsByAuthorAndName(_ context.Context, authorID int, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, recipe := range m.recipes {
		if recipe.AuthorID == authorID && recipe.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *Recipes) CountByAuthor(_ context.Context, authorID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, recipe := range m.recipes {
		if recipe.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

type pair struct{ a, b int }

// Relations backs favorites, cart entries and subscriptions. RaceOnAdd
// simulates a concurrent insert that slipped past the existence check.
// Users resolves authors for ListAuthors.
type Relations struct {
	mu        sync.Mutex
	links     map[pair]bool
	order     []pair
	RaceOnAdd bool
	Users     *Users
}

func NewRelations() *Relations {
	return &Relations{links: map[pair]bool{}}
}

// Has reports whether the (a, b) link exists.
func (m *Relations) Has(a, b int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[pair{a, b}]
}

func (m *Relations) Add(_ context.Context, a, b int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RaceOnAdd || m.links[pair{a, b}] {
		return store.ErrAlreadyExists
	}
	m.links[pair{a, b}] = true
	m.order = append(m.order, pair{a, b})
	return nil
}

func (m *Relations) Remove(_ context.Context, a, b int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.links[pair{a, b}] {
		return store.ErrNotFound
	}
	delete(m.links, pair{a, b})
	return nil
}

func (m *Relations) Exists(_ context.Context, a, b int) (bool, error) {
	return m.Has(a, b), nil
}

func (m *Relations) Contains(_ context.Context, a int, bs []int) (map[int]bool, error) {
	out := map[int]bool{}
	for _, b := range bs {
		if m.Has(a, b) {
			out[b] = true
		}
	}
	return out, nil
}

func (m *Relations) SubscribedTo(ctx context.Context, a int, bs []int) (map[int]bool, error) {
	return m.Contains(ctx, a, bs)
}

func (m *Relations) Count(_ context.Context, a int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for p := range m.links {
		if p.a == a {
			count++
		}
	}
	return count, nil
}

func (m *Relations) ListAuthors(ctx context.Context, subscriberID, offset, limit int) ([]types.User, int, error) {
	m.mu.Lock()
	var ids []int
	for _, p := range m.order {
		if p.a == subscriberID && m.links[p] {
			ids = append(ids, p.b)
		}
	}
	m.mu.Unlock()

	out := []types.User{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		user, err := m.Users.GetByID(ctx, ids[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, user)
	}
	return out, len(ids), nil
}

// ShoppingList aggregates like the SQL query: group by (name, unit), sum,
// order by name then unit.
type ShoppingList struct {
	Recipes *Recipes
	Cart    *Relations
}

func (m *ShoppingList) Aggregate(ctx context.Context, userID int) ([]types.ShoppingListItem, error) {
	type key struct{ name, unit string }
	sums := map[key]int{}
	m.Recipes.mu.Lock()
	recipes := m.Recipes.sortedDesc()
	m.Recipes.mu.Unlock()
	for _, recipe := range recipes {
		if !m.Cart.Has(userID, recipe.ID) {
			continue
		}
		for _, line := range recipe.Ingredients {
			sums[key{line.Name, line.MeasurementUnit}] += line.Amount
		}
	}
	out := make([]types.ShoppingListItem, 0, len(sums))
	for k, amount := range sums {
		out = append(out, types.ShoppingListItem{Name: k.name, MeasurementUnit: k.unit, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MeasurementUnit < out[j].MeasurementUnit
	})
	return out, nil
}

// Images is an in-memory image store with sequential keys.
type Images struct {
	mu      sync.Mutex
	objects map[string]images.Image
	saved   int
}

func NewImages() *Images {
	return &Images{objects: map[string]images.Image{}}
}

func (m *Images) Save(_ context.Context, prefix string, img images.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved++
	key := fmt.Sprintf("%s/%d%s", prefix, m.saved, img.Extension)
	m.objects[key] = img
	return key, nil
}

func (m *Images) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Len returns the number of stored images.
func (m *Images) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Has reports whether key is stored.
func (m *Images) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Get serves stored image bytes so Images can back the media endpoint.
func (m *Images) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(img.Data)), nil
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *Publisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Types returns the types of the published events in order.
func (p *Publisher) Types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

// Store bundles one consistent set of in-memory collaborators. The catalog
// holds Flour (g), Sugar (g), Milk (ml) and Flour (cup) with ids 1 to 4.
type Store struct {
	Users         *Users
	Ingredients   *Ingredients
	Recipes       *Recipes
	Favorites     *Relations
	Cart          *Relations
	Subscriptions *Relations
	ShoppingList  *ShoppingList
	Images        *Images
	Publisher     *Publisher
}

func NewStore() *Store {
	s := &Store{
		Users: NewUsers(),
		Ingredients: NewIngredients(
			types.Ingredient{ID: 1, Name: "Flour", MeasurementUnit: "g"},
			types.Ingredient{ID: 2, Name: "Sugar", MeasurementUnit: "g"},
			types.Ingredient{ID: 3, Name: "Milk", MeasurementUnit: "ml"},
			types.Ingredient{ID: 4, Name: "Flour", MeasurementUnit: "cup"},
		),
		Favorites:     NewRelations(),
		Cart:          NewRelations(),
		Subscriptions: NewRelations(),
		Images:        NewImages(),
		Publisher:     &Publisher{},
	}
	s.Subscriptions.Users = s.Users
	s.Recipes = NewRecipes(s.Ingredients)
	s.Recipes.Favorites = s.Favorites
	s.Recipes.Cart = s.Cart
	s.ShoppingList = &ShoppingList{Recipes: s.Recipes, Cart: s.Cart}
	return s
}
