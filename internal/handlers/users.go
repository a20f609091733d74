package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodgram/apiserver/internal/services"
)

// UserHandler provides user profile and subscription endpoints.
type UserHandler struct {
	users         *services.UserService
	subscriptions *services.SubscriptionService
	links         Links
	pages         Pagination
}

func NewUserHandler(users *services.UserService, subscriptions *services.SubscriptionService, links Links, pages Pagination) *UserHandler {
	return &UserHandler{
		users:         users,
		subscriptions: subscriptions,
		links:         links,
		pages:         pages,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, handler *UserHandler, requireUser func(http.Handler) http.Handler) {
	r.Get("/", handler.List)
	r.Post("/", handler.Register)
	r.With(requireUser).Get("/me", handler.Me)
	r.With(requireUser).Put("/me/avatar", handler.SetAvatar)
	r.With(requireUser).Delete("/me/avatar", handler.DeleteAvatar)
	r.With(requireUser).Post("/set_password", handler.SetPassword)
	r.With(requireUser).Get("/subscriptions", handler.Subscriptions)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(requireUser).Post("/subscribe", handler.Subscribe)
		r.With(requireUser).Delete("/subscribe", handler.Unsubscribe)
	})
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type AvatarRequest struct {
	Avatar string `json:"avatar"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := h.pages.parse(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	profiles, total, err := h.users.List(r.Context(), viewerID(r), offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	results := make([]UserResponse, 0, len(profiles))
	for _, profile := range profiles {
		results = append(results, h.links.user(r, profile.User, profile.IsSubscribed))
	}
	writeJSON(w, http.StatusOK, newPage(h.links, r, page, limit, total, results))
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	profile, err := h.users.Get(r.Context(), viewerID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.links.user(r, profile.User, profile.IsSubscribed))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	me := viewerID(r)
	profile, err := h.users.Get(r.Context(), me, me)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.links.user(r, profile.User, profile.IsSubscribed))
}

func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req AvatarRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	key, err := h.users.SetAvatar(r.Context(), viewerID(r), req.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AvatarResponse{Avatar: h.links.Media(r, key)})
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteAvatar(r.Context(), viewerID(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req SetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.SetPassword(r.Context(), viewerID(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := h.pages.parse(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	recipesLimit, ok := h.recipesLimit(w, r)
	if !ok {
		return
	}

	summaries, total, err := h.subscriptions.List(r.Context(), viewerID(r), offset, limit, recipesLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	results := make([]SubscriptionResponse, 0, len(summaries))
	for _, summary := range summaries {
		results = append(results, h.links.subscription(r, summary))
	}
	writeJSON(w, http.StatusOK, newPage(h.links, r, page, limit, total, results))
}

func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	authorID, ok := h.userID(w, r)
	if !ok {
		return
	}
	recipesLimit, ok := h.recipesLimit(w, r)
	if !ok {
		return
	}
	summary, err := h.subscriptions.Subscribe(r.Context(), viewerID(r), authorID, recipesLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.links.subscription(r, summary))
}

func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	authorID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.subscriptions.Unsubscribe(r.Context(), viewerID(r), authorID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeDetail(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func (h *UserHandler) recipesLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit, err := parseOptionalInt(r, "recipes_limit")
	if err != nil {
		writeFieldError(w, "recipes_limit", err.Error())
		return 0, false
	}
	return limit, true
}
