package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/camden-git/loreboardbackend/realtime"
	"github.com/camden-git/loreboardbackend/services"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Processor      *services.EntityProcessor
	Hub            *realtime.Hub
	Log            *zap.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Health answers GET /.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "LoreBoard API is running",
	})
}

// NewRouter builds the HTTP handler for the API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	entityHandler := &EntityHandler{Processor: cfg.Processor, Log: log.Named("handlers")}

	r.Get("/", Health)

	r.Route("/api", func(r chi.Router) {
		if cfg.Hub != nil {
			r.Get("/ws", cfg.Hub.ServeWS)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			r.Route("/entities", func(r chi.Router) {
				r.Get("/", entityHandler.ListEntities)
				r.Post("/bulk-update", entityHandler.BulkUpdate)
				r.Route("/{entity_type}", func(r chi.Router) {
					r.Post("/", entityHandler.CreateEntity)
					r.Route("/{entity_id}", func(r chi.Router) {
						r.Get("/", entityHandler.GetEntity)
						r.Put("/", entityHandler.UpdateEntity)
						r.Delete("/", entityHandler.DeleteEntity)
						r.Route("/aliases", func(r chi.Router) {
							r.Post("/", entityHandler.AddAlias)
							r.Get("/", entityHandler.ListAliases)
							r.Delete("/{alias_id}", entityHandler.DeleteAlias)
						})
					})
				})
			})

			r.Post("/detect-entities", entityHandler.DetectEntities)
			r.Get("/search", entityHandler.SearchEntities)
		})
	})

	return r
}
