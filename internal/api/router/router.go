package router

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"path"

	"sainmakosam/internal/api/handler"
	"sainmakosam/internal/api/middleware"
	"sainmakosam/internal/core/service"
	"sainmakosam/internal/observability"
	"sainmakosam/internal/session"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Dependencies struct {
	ReviewService  service.ReviewService
	AuthService    service.AuthService
	Sessions       *session.Manager
	Metrics        *observability.Metrics
	Templates      fs.FS
	PublicDir      string
	MaxUploadBytes int64
}

func NewRouter(deps Dependencies) (http.Handler, error) {
	render, err := handler.NewRenderer(deps.Templates)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	// Initialize handlers
	pageHandler := handler.NewPageHandler(deps.ReviewService, render)
	reviewHandler := handler.NewReviewHandler(deps.ReviewService, render)
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Sessions, render, deps.Metrics)
	adminHandler := handler.NewAdminHandler(deps.ReviewService, deps.AuthService, render, deps.Metrics, deps.MaxUploadBytes)
	authMiddleware := middleware.NewAuthMiddleware(deps.Sessions)

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.LoggingMiddleware,
		chimw.Recoverer,
		middleware.Metrics(deps.Metrics),
		middleware.MethodOverride,
		deps.Sessions.Middleware,
	)

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Get("/", pageHandler.Start)
	r.Get("/dashboard", pageHandler.Dashboard)
	r.Get("/why", pageHandler.Why)
	r.Get("/contact", pageHandler.Contact)
	r.Get("/reviews/{slug}", reviewHandler.Show)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Get("/", adminHandler.Index)
		r.Get("/dashboard", adminHandler.Dashboard)
		r.Get("/reviews/new", adminHandler.New)
		r.Post("/reviews", adminHandler.Create)
		r.Get("/reviews/edit/{id}", adminHandler.Edit)
		r.Put("/reviews/{id}", adminHandler.Update)
		r.Delete("/reviews/delete/{id}", adminHandler.Delete)
	})

	r.NotFound(staticOrNotFound(deps.PublicDir, pageHandler.NotFound))
	return r, nil
}

// staticOrNotFound serves regular files from publicDir (uploaded images,
// stylesheets) and the 404 page for everything else.
func staticOrNotFound(publicDir string, notFound http.HandlerFunc) http.HandlerFunc {
	if publicDir == "" {
		return notFound
	}
	root := http.Dir(publicDir)
	files := http.FileServer(root)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			if f, err := root.Open(path.Clean("/" + r.URL.Path)); err == nil {
				st, err := f.Stat()
				f.Close()
				if err == nil && !st.IsDir() {
					files.ServeHTTP(w, r)
					return
				}
			}
		}
		notFound(w, r)
	}
}
