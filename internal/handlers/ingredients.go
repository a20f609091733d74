package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodgram/apiserver/internal/services"
)

// IngredientHandler serves the read-only ingredient catalog.
type IngredientHandler struct {
	ingredients *services.IngredientService
}

func NewIngredientHandler(ingredients *services.IngredientService) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients}
}

// IngredientRouter registers ingredient routes on the given router.
func IngredientRouter(r chi.Router, handler *IngredientHandler) {
	r.Get("/", handler.List)
	r.Get("/{ingredientID}", handler.Get)
}

// List returns every ingredient matching the optional name query, unpaginated.
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.ingredients.List(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "ingredientID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "not found")
		return
	}
	item, err := h.ingredients.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
