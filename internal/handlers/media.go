package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/foodgram/apiserver/internal/storage"
)

// ObjectReader opens stored objects by key.
type ObjectReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// MediaHandler streams stored images.
type MediaHandler struct {
	objects ObjectReader
}

func NewMediaHandler(objects ObjectReader) *MediaHandler {
	return &MediaHandler{objects: objects}
}

// MediaRouter registers the media route on the given router.
func MediaRouter(r chi.Router, handler *MediaHandler) {
	r.Get("/*", handler.Serve)
}

func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := strings.Trim(chi.URLParam(r, "*"), "/")
	if key == "" || strings.Contains(key, "..") {
		writeDetail(w, http.StatusNotFound, "not found")
		return
	}

	body, err := h.objects.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "not found")
			return
		}
		writeServiceError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", storage.ContentType(key))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
