package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Links builds absolute URLs for media objects, pages and recipes.
type Links struct {
	baseURL string
}

// NewLinks uses publicBaseURL as the URL prefix when set; otherwise the
// prefix is derived from each request.
func NewLinks(publicBaseURL string) Links {
	return Links{baseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")}
}

func (l Links) base(r *http.Request) string {
	if l.baseURL != "" {
		return l.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}

// Absolute joins path onto the base URL.
func (l Links) Absolute(r *http.Request, path string) string {
	return l.base(r) + "/" + strings.TrimLeft(path, "/")
}

// Media returns the public URL of a stored object, or nil when key is empty.
func (l Links) Media(r *http.Request, key string) *string {
	if key == "" {
		return nil
	}
	link := l.Absolute(r, "/media/"+key)
	return &link
}

// Page returns the current request URL with its page parameter replaced,
// or nil when page is outside 1..last.
func (l Links) Page(r *http.Request, page, last int) *string {
	if page < 1 || page > last {
		return nil
	}
	query := r.URL.Query()
	query.Set("page", strconv.Itoa(page))
	u := url.URL{Path: r.URL.Path, RawQuery: query.Encode()}
	link := l.Absolute(r, u.String())
	return &link
}

// Recipe returns the canonical public link of a recipe.
func (l Links) Recipe(r *http.Request, id int) string {
	return l.Absolute(r, "/recipes/"+strconv.Itoa(id)+"/")
}
