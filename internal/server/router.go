package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/handlers"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/metrics"
	"github.com/foodgram/apiserver/internal/services"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Ingredients   *services.IngredientService
	Recipes       *services.RecipeService
	Favorites     *services.RelationService
	Cart          *services.RelationService
	ShoppingList  *services.ShoppingListService
	Subscriptions *services.SubscriptionService
	Users         *services.UserService
	Media         handlers.ObjectReader
}

// NewRouter assembles the middleware stack and every route.
func NewRouter(cfg config.Config, deps Deps) *chi.Mux {
	links := handlers.NewLinks(cfg.Server.PublicBaseURL)
	pages := handlers.Pagination{
		DefaultLimit: cfg.API.DefaultPageSize,
		MaxLimit:     cfg.API.MaxPageSize,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger,
		middleware.Recoverer,
		metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Security.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	)
	if !cfg.Security.RateLimitDisabled && cfg.Security.RateLimitRequests > 0 {
		router.Use(httprate.Limit(
			cfg.Security.RateLimitRequests,
			cfg.Security.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}
	if cfg.Server.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}
	router.Use(middleware.StripSlashes)

	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Route("/media", func(r chi.Router) {
		handlers.MediaRouter(r, handlers.NewMediaHandler(deps.Media))
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(handlers.Authenticate(cfg.Auth.JWTSecret))
		requireUser := handlers.RequireUser

		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, handlers.NewAuthHandler(deps.Users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), requireUser)
		})
		r.Route("/ingredients", func(r chi.Router) {
			handlers.IngredientRouter(r, handlers.NewIngredientHandler(deps.Ingredients))
		})
		r.Route("/recipes", func(r chi.Router) {
			handlers.RecipeRouter(r, handlers.NewRecipeHandler(handlers.RecipeHandlerDeps{
				Recipes:      deps.Recipes,
				Favorites:    deps.Favorites,
				Cart:         deps.Cart,
				ShoppingList: deps.ShoppingList,
				Links:        links,
				Pages:        pages,
			}), requireUser)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, handlers.NewUserHandler(deps.Users, deps.Subscriptions, links, pages), requireUser)
		})
	})

	return router
}
