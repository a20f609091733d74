package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodgram/apiserver/internal/metrics"
	"github.com/foodgram/apiserver/internal/services"
)

const shoppingListFilename = "shopping_cart.txt"

// RecipeHandler provides HTTP handlers for recipes and the per-user recipe
// relations (favorites, shopping cart).
type RecipeHandler struct {
	recipes      *services.RecipeService
	favorites    *services.RelationService
	cart         *services.RelationService
	shoppingList *services.ShoppingListService
	links        Links
	pages        Pagination
}

// RecipeHandlerDeps groups the collaborators of RecipeHandler.
type RecipeHandlerDeps struct {
	Recipes      *services.RecipeService
	Favorites    *services.RelationService
	Cart         *services.RelationService
	ShoppingList *services.ShoppingListService
	Links        Links
	Pages        Pagination
}

func NewRecipeHandler(deps RecipeHandlerDeps) *RecipeHandler {
	return &RecipeHandler{
		recipes:      deps.Recipes,
		favorites:    deps.Favorites,
		cart:         deps.Cart,
		shoppingList: deps.ShoppingList,
		links:        deps.Links,
		pages:        deps.Pages,
	}
}

// RecipeRouter registers recipe routes on the given router.
func RecipeRouter(r chi.Router, handler *RecipeHandler, requireUser func(http.Handler) http.Handler) {
	r.Get("/", handler.List)
	r.With(requireUser).Post("/", handler.Create)
	r.With(requireUser).Get("/download_shopping_cart", handler.DownloadShoppingCart)
	r.Route("/{recipeID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(requireUser).Put("/", handler.Replace)
		r.With(requireUser).Patch("/", handler.Patch)
		r.With(requireUser).Delete("/", handler.Delete)
		r.Get("/get-link", handler.GetLink)
		r.With(requireUser).Post("/favorite", handler.AddFavorite)
		r.With(requireUser).Delete("/favorite", handler.RemoveFavorite)
		r.With(requireUser).Post("/shopping_cart", handler.AddToCart)
		r.With(requireUser).Delete("/shopping_cart", handler.RemoveFromCart)
	})
}

// RecipeWriteRequest is the body of recipe create and update requests.
// Omitted fields decode as nil.
type RecipeWriteRequest struct {
	Ingredients *[]IngredientAmountRequest `json:"ingredients"`
	Image       *string                    `json:"image"`
	Name        *string                    `json:"name"`
	Text        *string                    `json:"text"`
	CookingTime *int                       `json:"cooking_time"`
}

type IngredientAmountRequest struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

func (req RecipeWriteRequest) input() services.RecipeInput {
	input := services.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
	}
	if req.Ingredients != nil {
		items := make([]services.IngredientAmount, 0, len(*req.Ingredients))
		for _, item := range *req.Ingredients {
			items = append(items, services.IngredientAmount{ID: item.ID, Amount: item.Amount})
		}
		input.Ingredients = &items
	}
	return input
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := h.pages.parse(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	authorID, err := parseOptionalInt(r, "author")
	if err != nil {
		writeFieldError(w, "author", err.Error())
		return
	}

	details, total, err := h.recipes.List(r.Context(), viewerID(r), services.RecipeQuery{
		AuthorID:  authorID,
		Favorited: queryBool(r, "is_favorited"),
		InCart:    queryBool(r, "is_in_shopping_cart"),
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	results := make([]RecipeResponse, 0, len(details))
	for _, detail := range details {
		results = append(results, h.links.recipe(r, detail))
	}
	writeJSON(w, http.StatusOK, newPage(h.links, r, page, limit, total, results))
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}
	detail, err := h.recipes.Get(r.Context(), viewerID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.links.recipe(r, detail))
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RecipeWriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	detail, err := h.recipes.Create(r.Context(), viewerID(r), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	metrics.RecipesCreated.Inc()
	writeJSON(w, http.StatusCreated, h.links.recipe(r, detail))
}

// Replace handles PUT: every field is required.
func (h *RecipeHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// Patch handles PATCH: omitted scalar fields are kept.
func (h *RecipeHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *RecipeHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}
	var req RecipeWriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	detail, err := h.recipes.Update(r.Context(), viewerID(r), id, req.input(), partial)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.links.recipe(r, detail))
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}
	if err := h.recipes.Delete(r.Context(), viewerID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}
	if err := h.recipes.Exists(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkResponse{ShortLink: h.links.Recipe(r, id)})
}

func (h *RecipeHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, h.favorites)
}

func (h *RecipeHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, h.favorites)
}

func (h *RecipeHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, h.cart)
}

func (h *RecipeHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, h.cart)
}

func (h *RecipeHandler) addRelation(w http.ResponseWriter, r *http.Request, relation *services.RelationService) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}
	recipe, err := relation.Add(r.Context(), viewerID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.links.recipeShort(r, recipe))
}

func (h *RecipeHandler) removeRelation(w http.ResponseWriter, r *http.Request, relation *services.RelationService) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}
	if err := relation.Remove(r.Context(), viewerID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadShoppingCart serves the aggregated shopping list as a text file.
func (h *RecipeHandler) DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.shoppingList.Build(r.Context(), viewerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	metrics.ShoppingListDownloads.Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(services.RenderShoppingList(items)))
}

func (h *RecipeHandler) recipeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := parseIDParam(r, "recipeID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}
