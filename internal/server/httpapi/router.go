package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/registrar/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type handler struct {
	svc    Service
	logger logging.Logger
}

// Options configures the router.
type Options struct {
	// AllowedOrigins may call the API from a browser with credentials.
	AllowedOrigins []string
	// TrustProxyHeaders takes the client IP from X-Forwarded-For and friends.
	// Without it the IP is the TCP peer address.
	TrustProxyHeaders bool
}

// NewRouter wires routes and middleware.
func NewRouter(svc Service, logger logging.Logger, opts Options) http.Handler {
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.health)
	r.Post("/user_login", h.login)
	r.Post("/user_register", h.register)

	r.Group(func(r chi.Router) {
		r.Use(h.requireBearer)
		r.Get("/user_profile", h.profile)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler(r)
}
