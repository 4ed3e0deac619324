// Package server wires the registrar components together and runs the HTTP
// API until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/registrar/internal/dbx"
	"github.com/dmitrijs2005/registrar/internal/logging"
	"github.com/dmitrijs2005/registrar/internal/server/auth"
	"github.com/dmitrijs2005/registrar/internal/server/config"
	"github.com/dmitrijs2005/registrar/internal/server/directory"
	"github.com/dmitrijs2005/registrar/internal/server/geo"
	"github.com/dmitrijs2005/registrar/internal/server/httpapi"
	"github.com/dmitrijs2005/registrar/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/registrar/internal/server/services"
	"github.com/dmitrijs2005/registrar/internal/server/sessions"
	"github.com/dmitrijs2005/registrar/internal/server/thumbnails"
)

// MemoryDSN selects the in-memory store instead of PostgreSQL.
const MemoryDSN = "memory://"

var (
	newDirectory = func(cfg *config.Config) (services.Directory, error) {
		c, err := directory.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
		return dbx.Open(ctx, "pgx", dsn)
	}
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *services.UserService
	closers     []io.Closer
}

// NewApp validates c and builds every component. Nothing listens until Run.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &App{
		config: c,
		logger: logging.NewJSONLogger(os.Stdout, c.LogLevel),
	}

	svc, err := app.buildUserService(ctx)
	if err != nil {
		app.close()
		return nil, err
	}
	app.userService = svc
	return app, nil
}

func (app *App) buildUserService(ctx context.Context) (*services.UserService, error) {
	c := app.config

	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)
	if c.DatabaseDSN == MemoryDSN {
		app.logger.Warn(ctx, "using in-memory storage; data is lost on exit")
		rm = repomanager.NewInMemoryRepositoryManager()
	} else {
		var err error
		db, err = openDB(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, db)

		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}

	dir, err := newDirectory(c)
	if err != nil {
		return nil, fmt.Errorf("directory init error: %w", err)
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey), c.SigningAlgorithm, c.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token init error: %w", err)
	}

	var locator geo.Locator = geo.NewIPInfoLocator(c.GeoBaseURL, c.GeoToken, c.GeoTimeout)
	if c.RedisURL != "" {
		rdb, err := geo.NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			app.logger.Warn(ctx, "geolocation cache disabled", "error", err)
		} else {
			app.closers = append(app.closers, rdb)
			locator = geo.NewCachedLocator(rdb, locator, c.GeoCacheTTL, app.logger.With("module", "geo_cache"))
		}
	}
	builder := sessions.NewBuilder(locator, c.GeoTimeout, app.logger.With("module", "sessions"))

	var store thumbnails.Store = thumbnails.NewMemoryStore()
	if c.S3Bucket != "" {
		if store, err = thumbnails.NewS3Store(ctx, c); err != nil {
			return nil, fmt.Errorf("thumbnail store init error: %w", err)
		}
	}

	return services.NewUserService(db, rm, dir, builder, codec, store, app.logger.With("module", "user_service")), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the HTTP API until ctx is cancelled or a termination signal
// arrives, then releases the database and cache connections.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService, httpapi.Options{
		AllowedOrigins:    app.config.CORSAllowedOrigins,
		TrustProxyHeaders: app.config.TrustProxyHeaders,
	})
	err := s.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
	}

	return errors.Join(err, app.close())
}

func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i].Close())
	}
	app.closers = nil
	return errors.Join(errs...)
}
