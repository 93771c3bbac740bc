package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-passwordless-api/internal/application/issuer"
	"github.com/go-passwordless-api/internal/application/passwordless"
	"github.com/go-passwordless-api/internal/config"
	jwtinfra "github.com/go-passwordless-api/internal/infrastructure/jwt"
	"github.com/go-passwordless-api/internal/metrics"
	"github.com/go-passwordless-api/internal/transport/http/handler"
	appmiddleware "github.com/go-passwordless-api/internal/transport/http/middleware"
)

// Deps holds the wired services the router exposes over HTTP.
type Deps struct {
	Passwordless passwordless.Service
	Issuer       issuer.Service
	JWTProvider  *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.Passwordless, deps.Issuer)
	verifyH := handler.NewVerifyHandler(deps.Passwordless)

	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Post("/auth/email", authH.ObtainEmailToken)
		r.Post("/auth/mobile", authH.ObtainMobileToken)
		r.Post("/auth/token", authH.ExchangeToken)
		r.Post("/auth/refresh", authH.RefreshSession)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/verify/email", verifyH.RequestEmailToken)
			r.Post("/auth/verify/mobile", verifyH.RequestMobileToken)
			r.Post("/auth/verify/token", verifyH.RedeemToken)
			r.Post("/auth/logout", authH.Logout)
		})
	})

	return r
}
