package main

import (
	"context"
	"net/http"
	"time"

	"libri/internal/auth"
	"libri/internal/catalog"
	"libri/internal/config"
	"libri/internal/httpx"
	"libri/internal/library"
	"libri/internal/user"
)

// deps are the storage and upstream adapters the router is built on.
type deps struct {
	users    user.Repository
	library  library.Repository
	catalog  catalog.Upstream
	identity auth.IdentityProvider
	limiter  *httpx.RateLimitMiddleware
	// ready reports whether the backing store can serve requests.
	ready func(ctx context.Context) error
}

func newRouter(cfg config.Config, d deps) http.Handler {
	userService := user.NewService(d.users)
	authService := auth.NewService(userService, d.identity, auth.Options{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})
	libraryService := library.NewService(d.library)
	catalogService := catalog.NewService(d.catalog)

	authHandler := auth.NewHTTPHandler(authService)
	libraryHandler := library.NewHTTPHandler(libraryService)
	catalogHandler := catalog.NewHTTPHandler(catalogService)

	limited := func(h http.HandlerFunc) http.Handler {
		if d.limiter == nil {
			return h
		}
		return d.limiter.Middleware(h)
	}
	protected := httpx.AuthMiddleware(cfg.JWTSecret)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONSuccess(w, r, map[string]string{"status": "ok"}, nil)
	})
	mux.HandleFunc("GET /api/ready", func(w http.ResponseWriter, r *http.Request) {
		if d.ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := d.ready(ctx); err != nil {
				httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not ready", nil)
				return
			}
		}
		httpx.JSONSuccess(w, r, map[string]string{"status": "ready"}, nil)
	})

	mux.Handle("POST /api/auth/register", limited(authHandler.Register))
	mux.Handle("POST /api/auth/login", limited(authHandler.Login))
	mux.Handle("POST /api/auth/google", limited(authHandler.Google))
	mux.Handle("GET /api/auth/me", protected(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/profile", protected(http.HandlerFunc(authHandler.UpdateProfile)))

	mux.HandleFunc("GET /api/books/search", catalogHandler.Search)

	mux.Handle("GET /api/library", protected(http.HandlerFunc(libraryHandler.List)))
	mux.Handle("POST /api/library", protected(http.HandlerFunc(libraryHandler.Save)))
	mux.Handle("PUT /api/library/{id}", protected(http.HandlerFunc(libraryHandler.Update)))
	mux.Handle("DELETE /api/library/{id}", protected(http.HandlerFunc(libraryHandler.Delete)))

	return httpx.Chain(mux,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.AllowedOrigins),
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)
}
