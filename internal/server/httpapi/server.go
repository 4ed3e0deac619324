// Package httpapi exposes the authentication core over HTTP: login,
// registration, profile and health endpoints.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/registrar/internal/logging"
	"github.com/dmitrijs2005/registrar/internal/server/models"
	"github.com/dmitrijs2005/registrar/internal/server/services"
)

// Service is the authentication core as seen by the handlers.
type Service interface {
	Login(ctx context.Context, username, password string, meta services.RequestMeta) (string, error)
	Register(ctx context.Context, nu models.NewUser, meta services.RequestMeta) (string, error)
	Validate(ctx context.Context, token string) (string, error)
	GetProfile(ctx context.Context, username string) (*models.UserProfile, error)
}

// shutdownTimeout bounds how long in-flight requests may run after Run's
// context is cancelled.
const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, svc Service, opts Options) *HTTPServer {
	logger := l.With("module", "http_server")
	return &HTTPServer{
		address: address,
		handler: NewRouter(svc, logger, opts),
		logger:  logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
