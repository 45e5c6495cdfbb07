package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/sqlstore"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/migrations"
	"github.com/vadimbarashkov/shortlink/pkg/sqldb"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
)

// NewLogger returns the process logger: JSON at info level in production,
// concise text at debug level elsewhere.
func NewLogger(cfg *config.Config) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	}

	if cfg.Env == config.EnvProd {
		opts.LogLevel = slog.LevelInfo
		opts.JSON = true
		opts.Concise = false
	}

	return httplog.NewLogger("shortlink", opts)
}

// Migrate applies the embedded migrations of the configured driver.
func Migrate(cfg *config.Config) error {
	const op = "app.Migrate"

	if err := sqldb.RunMigrations(migrations.FS, cfg.Database.Driver, cfg.Database.MigrationURL()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// OpenDB connects to the configured database. SQLite gets a single
// connection so writers queue in the pool instead of failing with SQLITE_BUSY.
func OpenDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	const op = "app.OpenDB"

	driver := sqldb.DriverSQLite
	maxOpenConns := 1

	if cfg.Database.Driver == config.DriverPostgres {
		driver = sqldb.DriverPostgres
		maxOpenConns = cfg.Database.MaxOpenConns
	}

	db, err := sqldb.New(
		ctx,
		driver,
		cfg.Database.DSN(),
		sqldb.WithConnMaxIdleTime(cfg.Database.ConnMaxIdleTime),
		sqldb.WithConnMaxLifetime(cfg.Database.ConnMaxLifetime),
		sqldb.WithMaxIdleConns(min(cfg.Database.MaxIdleConns, maxOpenConns)),
		sqldb.WithMaxOpenConns(maxOpenConns),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return db, nil
}

// Run serves the application until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	if err := Migrate(cfg); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	m := metrics.New()
	if err := m.RegisterDB(db.DB); err != nil {
		return fmt.Errorf("%s: failed to register database metrics: %w", op, err)
	}

	linkRepo := sqlstore.NewLinkRepository(db)
	linkUseCase := usecase.New(cfg.AliasLength, linkRepo)
	adminAuth := usecase.NewAdminAuth(cfg.AdminKey)

	if cfg.AdminKey == "" {
		logger.Warn("admin key is not configured, admin console is disabled")
	}

	router := delivery.NewRouter(logger, m, linkUseCase, adminAuth, delivery.Options{
		BaseURL:       cfg.BaseURL,
		QRURLTemplate: cfg.QRURLTemplate,
	})

	servers := []*http.Server{newServer(ctx, cfg, cfg.HTTPServer.Addr(), router)}
	if cfg.Metrics.Enabled() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		servers = append(servers, newServer(ctx, cfg, cfg.Metrics.Addr(), mux))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		logger.Info("starting http server", slog.String("addr", servers[0].Addr), slog.String("db", cfg.Database.Driver))

		if cfg.HTTPServer.CertFile != "" && cfg.HTTPServer.KeyFile != "" {
			err = servers[0].ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		} else {
			err = servers[0].ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	for _, s := range servers[1:] {
		s := s
		g.Go(func() error {
			logger.Info("starting metrics server", slog.String("addr", s.Addr))

			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s: metrics server error occurred: %w", op, err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down")

		for _, s := range servers {
			if err := s.Shutdown(context.Background()); err != nil {
				return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
			}
		}

		return nil
	})

	return g.Wait()
}

func newServer(ctx context.Context, cfg *config.Config, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
}
