package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/password"
	"github.com/foodgram/apiserver/internal/services"
	"github.com/foodgram/apiserver/internal/services/servicetest"
)

const testSecret = "test-secret"

type harness struct {
	t      *testing.T
	store  *servicetest.Store
	router chi.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st := servicetest.NewStore()
	users := services.NewUserService(st.Users, st.Subscriptions, st.Images, password.NewPolicy(config.PasswordConfig{
		MinLength:     8,
		RequireDigit:  true,
		RequireLetter: true,
	})).WithHashCost(bcrypt.MinCost)
	recipes := services.NewRecipeService(services.RecipeServiceDeps{
		Recipes:       st.Recipes,
		Ingredients:   st.Ingredients,
		Users:         st.Users,
		Favorites:     st.Favorites,
		Cart:          st.Cart,
		Subscriptions: st.Subscriptions,
		Images:        st.Images,
		Publisher:     st.Publisher,
	})
	links := NewLinks("")
	pages := Pagination{DefaultLimit: 6, MaxLimit: 100}

	r := chi.NewRouter()
	r.Route("/media", func(r chi.Router) {
		MediaRouter(r, NewMediaHandler(st.Images))
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(testSecret))
		r.Route("/auth", func(r chi.Router) {
			AuthRouter(r, NewAuthHandler(users, testSecret, time.Hour), RequireUser)
		})
		r.Route("/ingredients", func(r chi.Router) {
			IngredientRouter(r, NewIngredientHandler(services.NewIngredientService(st.Ingredients)))
		})
		r.Route("/recipes", func(r chi.Router) {
			RecipeRouter(r, NewRecipeHandler(RecipeHandlerDeps{
				Recipes:      recipes,
				Favorites:    services.NewFavoriteService(st.Favorites, st.Recipes, st.Publisher),
				Cart:         services.NewCartService(st.Cart, st.Recipes, st.Publisher),
				ShoppingList: services.NewShoppingListService(st.Cart, st.ShoppingList),
				Links:        links,
				Pages:        pages,
			}), RequireUser)
		})
		r.Route("/users", func(r chi.Router) {
			subscriptions := services.NewSubscriptionService(st.Subscriptions, st.Users, st.Recipes, st.Publisher)
			UserRouter(r, NewUserHandler(users, subscriptions, links, pages), RequireUser)
		})
	})

	return &harness{t: t, store: st, router: r}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) expect(rec *httptest.ResponseRecorder, status int) {
	h.t.Helper()
	if rec.Code != status {
		h.t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

// register signs a user up through the API and returns its id and a token.
func (h *harness) register(username string) (int, string) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/users/", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  "Cook",
		"password":   "kitchen-2024",
	})
	h.expect(rec, http.StatusCreated)
	created := decode[RegisterResponse](h.t, rec)

	token, err := issueToken(created.ID, []byte(testSecret), time.Hour)
	if err != nil {
		h.t.Fatalf("issue token: %v", err)
	}
	return created.ID, token
}

func recipeBody(name string, lines ...IngredientAmountRequest) map[string]any {
	if len(lines) == 0 {
		lines = []IngredientAmountRequest{{ID: 1, Amount: 200}}
	}
	return map[string]any{
		"name":         name,
		"text":         "Mix and bake.",
		"cooking_time": 30,
		"image":        servicetest.PNGDataURI(),
		"ingredients":  lines,
	}
}

func (h *harness) createRecipe(token, name string, lines ...IngredientAmountRequest) RecipeResponse {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/recipes/", token, recipeBody(name, lines...))
	h.expect(rec, http.StatusCreated)
	return decode[RecipeResponse](h.t, rec)
}

func recipePath(id int, suffix string) string {
	return "/api/recipes/" + strconv.Itoa(id) + suffix
}

func TestLoginReturnsUsableToken(t *testing.T) {
	h := newHarness(t)
	h.register("baker")

	rec := h.do(http.MethodPost, "/api/auth/token/login", "", LoginRequest{
		Email:    "baker@example.com",
		Password: "kitchen-2024",
	})
	h.expect(rec, http.StatusOK)
	token := decode[TokenResponse](t, rec).AuthToken
	if token == "" {
		t.Fatalf("expected auth token")
	}

	rec = h.do(http.MethodGet, "/api/users/me", token, nil)
	h.expect(rec, http.StatusOK)
	me := decode[UserResponse](t, rec)
	if me.Username != "baker" || me.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", me)
	}
	if me.Avatar != nil {
		t.Fatalf("expected null avatar, got %q", *me.Avatar)
	}

	h.expect(h.do(http.MethodPost, "/api/auth/token/logout", token, nil), http.StatusNoContent)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.register("baker")

	rec := h.do(http.MethodPost, "/api/auth/token/login", "", LoginRequest{
		Email:    "baker@example.com",
		Password: "not-the-password1",
	})
	h.expect(rec, http.StatusBadRequest)
	body := decode[map[string][]string](t, rec)
	if len(body["non_field_errors"]) != 1 {
		t.Fatalf("expected non_field_errors, got %v", body)
	}
}

func TestInvalidTokenIsRejected(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/recipes/", "garbage", nil)
	h.expect(rec, http.StatusUnauthorized)

	other, err := issueToken(1, []byte("another-secret"), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	h.expect(h.do(http.MethodGet, "/api/recipes/", other, nil), http.StatusUnauthorized)
}

func TestAnonymousWritesRequireAuthentication(t *testing.T) {
	h := newHarness(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/recipes/"},
		{http.MethodGet, "/api/recipes/download_shopping_cart"},
		{http.MethodPost, "/api/recipes/1/favorite"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/users/subscriptions"},
		{http.MethodPost, "/api/auth/token/logout"},
	} {
		rec := h.do(tc.method, tc.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
		if detail := decode[DetailResponse](t, rec).Detail; detail != services.ErrUnauthorized.Error() {
			t.Fatalf("%s %s: unexpected detail %q", tc.method, tc.path, detail)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	h.register("baker")

	rec := h.do(http.MethodPost, "/api/users/", "", map[string]string{
		"email":      "baker@example.com",
		"username":   "bad name!",
		"first_name": "",
		"last_name":  "Cook",
		"password":   "kitchen-2024",
	})
	h.expect(rec, http.StatusBadRequest)
	body := decode[map[string][]string](t, rec)
	for _, field := range []string{"username", "first_name"} {
		if len(body[field]) == 0 {
			t.Fatalf("expected error for %s, got %v", field, body)
		}
	}
}

func TestRecipeLifecycle(t *testing.T) {
	h := newHarness(t)
	authorID, author := h.register("author")
	_, stranger := h.register("stranger")

	created := h.createRecipe(author, "Bread",
		IngredientAmountRequest{ID: 1, Amount: 500},
		IngredientAmountRequest{ID: 3, Amount: 250},
	)
	if created.Author.ID != authorID || created.Name != "Bread" || created.CookingTime != 30 {
		t.Fatalf("unexpected recipe: %+v", created)
	}
	if len(created.Ingredients) != 2 || created.Ingredients[0].Name != "Flour" {
		t.Fatalf("unexpected ingredients: %+v", created.Ingredients)
	}
	if created.Image == nil || !strings.HasPrefix(*created.Image, "http://example.com/media/recipes/") {
		t.Fatalf("unexpected image url: %v", created.Image)
	}

	rec := h.do(http.MethodGet, recipePath(created.ID, "/"), "", nil)
	h.expect(rec, http.StatusOK)
	if got := decode[RecipeResponse](t, rec); got.IsFavorited || got.IsInShoppingCart {
		t.Fatalf("anonymous flags must be false: %+v", got)
	}

	patch := map[string]any{
		"name":        "Rye bread",
		"ingredients": []IngredientAmountRequest{{ID: 2, Amount: 10}},
	}
	h.expect(h.do(http.MethodPatch, recipePath(created.ID, "/"), stranger, patch), http.StatusForbidden)
	h.expect(h.do(http.MethodDelete, recipePath(created.ID, "/"), stranger, nil), http.StatusForbidden)

	rec = h.do(http.MethodPatch, recipePath(created.ID, "/"), author, patch)
	h.expect(rec, http.StatusOK)
	updated := decode[RecipeResponse](t, rec)
	if updated.Name != "Rye bread" || updated.Text != "Mix and bake." {
		t.Fatalf("unexpected patch result: %+v", updated)
	}
	if len(updated.Ingredients) != 1 || updated.Ingredients[0].IngredientID != 2 {
		t.Fatalf("ingredients were not replaced: %+v", updated.Ingredients)
	}

	h.expect(h.do(http.MethodDelete, recipePath(created.ID, "/"), author, nil), http.StatusNoContent)
	h.expect(h.do(http.MethodGet, recipePath(created.ID, "/"), "", nil), http.StatusNotFound)
	if h.store.Images.Len() != 0 {
		t.Fatalf("expected recipe image to be removed")
	}
}

func TestPutRequiresEveryField(t *testing.T) {
	h := newHarness(t)
	_, author := h.register("author")
	created := h.createRecipe(author, "Soup")

	rec := h.do(http.MethodPut, recipePath(created.ID, "/"), author, map[string]any{
		"name":        "Stew",
		"ingredients": []IngredientAmountRequest{{ID: 1, Amount: 1}},
	})
	h.expect(rec, http.StatusBadRequest)
	body := decode[map[string][]string](t, rec)
	for _, field := range []string{"text", "cooking_time", "image"} {
		if len(body[field]) == 0 {
			t.Fatalf("expected error for %s, got %v", field, body)
		}
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	h := newHarness(t)
	_, author := h.register("author")

	body := recipeBody("Cake",
		IngredientAmountRequest{ID: 1, Amount: 100},
		IngredientAmountRequest{ID: 1, Amount: 200},
	)
	body["cooking_time"] = 0
	rec := h.do(http.MethodPost, "/api/recipes/", author, body)
	h.expect(rec, http.StatusBadRequest)
	errs := decode[map[string][]string](t, rec)
	if len(errs["cooking_time"]) == 0 || len(errs["ingredients"]) == 0 {
		t.Fatalf("expected cooking_time and ingredients errors, got %v", errs)
	}

	rec = h.do(http.MethodPost, "/api/recipes/", author, recipeBody("Cake", IngredientAmountRequest{ID: 99, Amount: 1}))
	h.expect(rec, http.StatusBadRequest)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes/", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Token "+author)
	malformed := httptest.NewRecorder()
	h.router.ServeHTTP(malformed, req)
	h.expect(malformed, http.StatusBadRequest)
}

func TestRecipeListPaginationAndFilters(t *testing.T) {
	h := newHarness(t)
	authorID, author := h.register("author")
	_, reader := h.register("reader")

	var ids []int
	for _, name := range []string{"One", "Two", "Three"} {
		ids = append(ids, h.createRecipe(author, name).ID)
	}

	rec := h.do(http.MethodGet, "/api/recipes/?limit=2", "", nil)
	h.expect(rec, http.StatusOK)
	page := decode[PageResponse[RecipeResponse]](t, rec)
	if page.Count != 3 || len(page.Results) != 2 {
		t.Fatalf("unexpected page: count=%d results=%d", page.Count, len(page.Results))
	}
	if page.Results[0].Name != "Three" {
		t.Fatalf("expected newest first, got %q", page.Results[0].Name)
	}
	if page.Previous != nil || page.Next == nil || !strings.Contains(*page.Next, "page=2") {
		t.Fatalf("unexpected links: next=%v previous=%v", page.Next, page.Previous)
	}

	h.expect(h.do(http.MethodPost, recipePath(ids[0], "/favorite"), reader, nil), http.StatusCreated)
	rec = h.do(http.MethodGet, "/api/recipes/?is_favorited=1", reader, nil)
	h.expect(rec, http.StatusOK)
	page = decode[PageResponse[RecipeResponse]](t, rec)
	if page.Count != 1 || page.Results[0].ID != ids[0] || !page.Results[0].IsFavorited {
		t.Fatalf("unexpected favorites page: %+v", page)
	}

	rec = h.do(http.MethodGet, "/api/recipes/?author="+strconv.Itoa(authorID)+"&limit=10", "", nil)
	h.expect(rec, http.StatusOK)
	if got := decode[PageResponse[RecipeResponse]](t, rec).Count; got != 3 {
		t.Fatalf("expected 3 recipes by author, got %d", got)
	}

	h.expect(h.do(http.MethodGet, "/api/recipes/?author=abc", "", nil), http.StatusBadRequest)
	h.expect(h.do(http.MethodGet, "/api/recipes/?page=0", "", nil), http.StatusBadRequest)
}

func TestFavoriteAndCartRelations(t *testing.T) {
	h := newHarness(t)
	_, author := h.register("author")
	created := h.createRecipe(author, "Pie")

	for _, suffix := range []string{"/favorite", "/shopping_cart"} {
		rec := h.do(http.MethodPost, recipePath(created.ID, suffix), author, nil)
		h.expect(rec, http.StatusCreated)
		short := decode[RecipeShortResponse](t, rec)
		if short.ID != created.ID || short.Name != "Pie" || short.Image == nil {
			t.Fatalf("%s: unexpected short recipe %+v", suffix, short)
		}

		rec = h.do(http.MethodPost, recipePath(created.ID, suffix), author, nil)
		h.expect(rec, http.StatusBadRequest)
		if decode[DetailResponse](t, rec).Detail == "" {
			t.Fatalf("%s: expected detail on duplicate add", suffix)
		}

		h.expect(h.do(http.MethodDelete, recipePath(created.ID, suffix), author, nil), http.StatusNoContent)
		h.expect(h.do(http.MethodDelete, recipePath(created.ID, suffix), author, nil), http.StatusBadRequest)
		h.expect(h.do(http.MethodPost, recipePath(9999, suffix), author, nil), http.StatusNotFound)
	}
}

func TestDownloadShoppingCart(t *testing.T) {
	h := newHarness(t)
	_, author := h.register("author")

	h.expect(h.do(http.MethodGet, "/api/recipes/download_shopping_cart", author, nil), http.StatusBadRequest)

	first := h.createRecipe(author, "Pancakes", IngredientAmountRequest{ID: 1, Amount: 200})
	second := h.createRecipe(author, "Bread",
		IngredientAmountRequest{ID: 1, Amount: 300},
		IngredientAmountRequest{ID: 3, Amount: 100},
	)
	for _, id := range []int{first.ID, second.ID} {
		h.expect(h.do(http.MethodPost, recipePath(id, "/shopping_cart"), author, nil), http.StatusCreated)
	}

	rec := h.do(http.MethodGet, "/api/recipes/download_shopping_cart", author, nil)
	h.expect(rec, http.StatusOK)
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="shopping_cart.txt"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type %q", got)
	}
	text := rec.Body.String()
	for _, line := range []string{"Flour — 500 g", "Milk — 100 ml"} {
		if !strings.Contains(text, line) {
			t.Fatalf("expected %q in shopping list:\n%s", line, text)
		}
	}
}

func TestGetLink(t *testing.T) {
	h := newHarness(t)
	_, author := h.register("author")
	created := h.createRecipe(author, "Salad")

	rec := h.do(http.MethodGet, recipePath(created.ID, "/get-link"), "", nil)
	h.expect(rec, http.StatusOK)
	want := "http://example.com/recipes/" + strconv.Itoa(created.ID) + "/"
	if got := decode[LinkResponse](t, rec).ShortLink; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	h.expect(h.do(http.MethodGet, recipePath(9999, "/get-link"), "", nil), http.StatusNotFound)
}

func TestSubscriptions(t *testing.T) {
	h := newHarness(t)
	authorID, author := h.register("author")
	readerID, reader := h.register("reader")
	for _, name := range []string{"A", "B", "C"} {
		h.createRecipe(author, name)
	}

	subscribe := "/api/users/" + strconv.Itoa(authorID) + "/subscribe"
	rec := h.do(http.MethodPost, subscribe+"?recipes_limit=2", reader, nil)
	h.expect(rec, http.StatusCreated)
	summary := decode[SubscriptionResponse](t, rec)
	if !summary.IsSubscribed || summary.RecipesCount != 3 || len(summary.Recipes) != 2 {
		t.Fatalf("unexpected subscription: %+v", summary)
	}

	rec = h.do(http.MethodPost, subscribe, reader, nil)
	h.expect(rec, http.StatusBadRequest)
	if decode[ErrorResponse](t, rec).Error != services.ErrAlreadySubscribed.Error() {
		t.Fatalf("unexpected duplicate subscription body: %s", rec.Body.String())
	}
	h.expect(h.do(http.MethodPost, "/api/users/"+strconv.Itoa(readerID)+"/subscribe", reader, nil), http.StatusBadRequest)
	h.expect(h.do(http.MethodPost, "/api/users/9999/subscribe", reader, nil), http.StatusNotFound)
	h.expect(h.do(http.MethodPost, subscribe+"?recipes_limit=-1", reader, nil), http.StatusBadRequest)

	rec = h.do(http.MethodGet, "/api/users/"+strconv.Itoa(authorID)+"/", reader, nil)
	h.expect(rec, http.StatusOK)
	if !decode[UserResponse](t, rec).IsSubscribed {
		t.Fatalf("expected is_subscribed for reader")
	}

	rec = h.do(http.MethodGet, "/api/users/subscriptions", reader, nil)
	h.expect(rec, http.StatusOK)
	page := decode[PageResponse[SubscriptionResponse]](t, rec)
	if page.Count != 1 || page.Results[0].ID != authorID || len(page.Results[0].Recipes) != 3 {
		t.Fatalf("unexpected subscriptions page: %+v", page)
	}

	h.expect(h.do(http.MethodDelete, subscribe, reader, nil), http.StatusNoContent)
	h.expect(h.do(http.MethodDelete, subscribe, reader, nil), http.StatusBadRequest)
}

func TestSetPassword(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("baker")

	rec := h.do(http.MethodPost, "/api/users/set_password", token, SetPasswordRequest{
		CurrentPassword: "wrong-pass-1",
		NewPassword:     "short",
	})
	h.expect(rec, http.StatusBadRequest)
	errs := decode[map[string][]string](t, rec)
	if len(errs["current_password"]) == 0 || len(errs["new_password"]) == 0 {
		t.Fatalf("expected both password errors, got %v", errs)
	}

	h.expect(h.do(http.MethodPost, "/api/users/set_password", token, SetPasswordRequest{
		CurrentPassword: "kitchen-2024",
		NewPassword:     "oven-mitts-77",
	}), http.StatusNoContent)

	h.expect(h.do(http.MethodPost, "/api/auth/token/login", "", LoginRequest{
		Email:    "baker@example.com",
		Password: "oven-mitts-77",
	}), http.StatusOK)
}

func TestAvatarUploadAndMedia(t *testing.T) {
	h := newHarness(t)
	_, token := h.register("baker")

	h.expect(h.do(http.MethodPut, "/api/users/me/avatar", token, AvatarRequest{}), http.StatusBadRequest)

	rec := h.do(http.MethodPut, "/api/users/me/avatar", token, AvatarRequest{Avatar: servicetest.PNGDataURI()})
	h.expect(rec, http.StatusOK)
	avatar := decode[AvatarResponse](t, rec).Avatar
	if avatar == nil || !strings.HasPrefix(*avatar, "http://example.com/media/avatars/") {
		t.Fatalf("unexpected avatar url: %v", avatar)
	}

	rec = h.do(http.MethodGet, strings.TrimPrefix(*avatar, "http://example.com"), "", nil)
	h.expect(rec, http.StatusOK)
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected media content type %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), servicetest.PNGPixel) {
		t.Fatalf("media body does not match uploaded image")
	}

	h.expect(h.do(http.MethodDelete, "/api/users/me/avatar", token, nil), http.StatusNoContent)
	h.expect(h.do(http.MethodGet, strings.TrimPrefix(*avatar, "http://example.com"), "", nil), http.StatusNotFound)
	h.expect(h.do(http.MethodDelete, "/api/users/me/avatar", token, nil), http.StatusNoContent)
}

func TestIngredients(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/ingredients/?name=flo", "", nil)
	h.expect(rec, http.StatusOK)
	items := decode[[]map[string]any](t, rec)
	if len(items) != 2 {
		t.Fatalf("expected two flour entries, got %v", items)
	}

	rec = h.do(http.MethodGet, "/api/ingredients/3", "", nil)
	h.expect(rec, http.StatusOK)
	if got := decode[map[string]any](t, rec)["measurement_unit"]; got != "ml" {
		t.Fatalf("unexpected unit %v", got)
	}
	h.expect(h.do(http.MethodGet, "/api/ingredients/99", "", nil), http.StatusNotFound)
	h.expect(h.do(http.MethodGet, "/api/ingredients/abc", "", nil), http.StatusNotFound)
}

func TestUserList(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"a1", "b2", "c3"} {
		h.register(name)
	}

	rec := h.do(http.MethodGet, "/api/users/?limit=2&page=2", "", nil)
	h.expect(rec, http.StatusOK)
	page := decode[PageResponse[UserResponse]](t, rec)
	if page.Count != 3 || len(page.Results) != 1 || page.Next != nil || page.Previous == nil {
		t.Fatalf("unexpected users page: %+v", page)
	}
	h.expect(h.do(http.MethodGet, "/api/users/9999/", "", nil), http.StatusNotFound)
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode[map[string]string](t, rec); body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}
