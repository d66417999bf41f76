package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"annoloom/internal/handlers"
	"annoloom/internal/render"
	"annoloom/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Annotations service.AnnotationService
	Files       service.FileService
	Verifier    service.Verifier
	Markdown    *render.Markdown
	DB          handlers.Pinger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	fileHandler := handlers.NewFileHandler(deps.Files)
	annotationHandler := handlers.NewAnnotationHandler(deps.Annotations, deps.Markdown)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.DB))

		r.Get("/tree", fileHandler.Tree)
		r.Get("/file", fileHandler.Chunk)
		r.Get("/file/full", fileHandler.Full)
		r.Put("/file", fileHandler.Write)

		r.Route("/annotations", func(r chi.Router) {
			r.Get("/", annotationHandler.List)
			r.Post("/", annotationHandler.Create)
			r.Post("/import", annotationHandler.Import)
			r.Get("/export", annotationHandler.Export)
			r.Method(http.MethodPost, "/verify", handlers.NewVerifyHandler(deps.Verifier))
			r.Put("/{id}", annotationHandler.Update)
			r.Delete("/{id}", annotationHandler.Delete)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("annoloom\n"))
	})

	return r
}
