package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/db"
	"github.com/foodgram/apiserver/internal/events"
	"github.com/foodgram/apiserver/internal/images"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/mq"
	"github.com/foodgram/apiserver/internal/password"
	"github.com/foodgram/apiserver/internal/services"
	"github.com/foodgram/apiserver/internal/storage"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
}

// New opens the database, object storage and message queue described by
// cfg and constructs a Server.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	objects, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	var publisher events.Publisher = events.NopPublisher{}
	if queue != nil {
		publisher = events.NewMQPublisher(queue, cfg.MQ.EventsChannel)
	}

	router := NewRouter(cfg, BuildDeps(cfg, dbConn, objects, publisher))

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// BuildDeps wires repositories and services on top of an open database,
// object storage and event publisher.
func BuildDeps(cfg config.Config, dbConn *sql.DB, objects *storage.Storage, publisher events.Publisher) Deps {
	userRepo := store.NewUserRepository(dbConn)
	ingredientRepo := store.NewIngredientRepository(dbConn)
	recipeRepo := store.NewRecipeRepository(dbConn)
	favoriteRepo := store.NewFavoriteRepository(dbConn)
	cartRepo := store.NewCartRepository(dbConn)
	subscriptionRepo := store.NewSubscriptionRepository(dbConn)
	shoppingListRepo := store.NewShoppingListRepository(dbConn)

	imageStore := images.NewStore(objects)

	return Deps{
		Ingredients: services.NewIngredientService(ingredientRepo),
		Recipes: services.NewRecipeService(services.RecipeServiceDeps{
			Recipes:       recipeRepo,
			Ingredients:   ingredientRepo,
			Users:         userRepo,
			Favorites:     favoriteRepo,
			Cart:          cartRepo,
			Subscriptions: subscriptionRepo,
			Images:        imageStore,
			Publisher:     publisher,
		}),
		Favorites:     services.NewFavoriteService(favoriteRepo, recipeRepo, publisher),
		Cart:          services.NewCartService(cartRepo, recipeRepo, publisher),
		ShoppingList:  services.NewShoppingListService(cartRepo, shoppingListRepo),
		Subscriptions: services.NewSubscriptionService(subscriptionRepo, userRepo, recipeRepo, publisher),
		Users:         services.NewUserService(userRepo, subscriptionRepo, imageStore, password.NewPolicy(cfg.Password)),
		Media:         objects,
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.httpServer.Addr).Msg("starting http server")
	return s.httpServer.ListenAndServe()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.release()
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down http server")
	return s.Shutdown()
}

// Shutdown drains in-flight requests and releases owned resources.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.release()
	return err
}

func (s *Server) release() {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
