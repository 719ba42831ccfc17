// Package app wires the passage server runtime: config, logging, stores,
// services, the background sweeper, and the HTTP server.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"passage/cmd/internal/account"
	"passage/cmd/internal/api"
	"passage/cmd/internal/auth/session"
	"passage/cmd/internal/avatar"
	"passage/cmd/internal/mail"
	"passage/cmd/internal/metrics"
)

// App is the passage server runtime.
type App struct {
	cfg Config
	log Logger

	pool      *pgxpool.Pool
	dbEnabled bool

	sessions *session.Service
	sweeper  *session.Sweeper
	accounts *account.Service
	handler  *api.Handler
}

// New constructs a fully wired App. With no DatabaseURL the stores are
// in-memory and state is lost on restart; that mode exists for local
// development only.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	var (
		pool         *pgxpool.Pool
		sessionStore session.Store
		accountStore account.Store
	)
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		sessionStore = session.NewMemoryStore()
		accountStore = account.NewMemoryStore()
	} else {
		p, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("db.enabled.postgres_store")
		pool = p
		sessionStore = session.NewPostgresStore(pool)
		accountStore = account.NewPostgresStore(pool)
	}

	sessCfg := cfg.SessionConfig()
	sessions, err := session.NewService(sessCfg, sessionStore)
	if err != nil {
		closePool(pool)
		return nil, err
	}
	sweeper := session.NewSweeper(sessionStore, log, sessCfg)

	sender, err := newMailSender(cfg, log)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	avatars, err := newAvatarStore(ctx, cfg)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	accounts, err := account.NewService(log, accountStore, sender, sessions, cfg.PasswordParams(),
		account.WithAvatarStore(avatars))
	if err != nil {
		closePool(pool)
		return nil, err
	}

	handler, err := api.NewHandler(log, accounts, sessions)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		pool:      pool,
		dbEnabled: pool != nil,
		sessions:  sessions,
		sweeper:   sweeper,
		accounts:  accounts,
		handler:   handler,
	}, nil
}

func newMailSender(cfg Config, log Logger) (mail.Sender, error) {
	if cfg.SMTPHost == "" {
		log.Warn("mail.disabled.noop_sender")
		return mail.NoopSender{}, nil
	}
	return mail.NewSMTPSender(cfg.MailConfig())
}

func newAvatarStore(ctx context.Context, cfg Config) (avatar.Store, error) {
	if cfg.AvatarBackend == "s3" {
		return avatar.NewS3Store(ctx, cfg.S3Config())
	}
	return avatar.NewDiskStore(cfg.AvatarDir)
}

// Run starts the sweeper and the HTTP server and blocks until context
// cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		a.sweeper.Run(sweepCtx)
	}()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		stopSweep()
		<-sweepDone
		closePool(a.pool)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
	}

	stopSweep()
	<-sweepDone

	// Pool closes last so in-flight handlers and the final sweep can finish.
	closePool(a.pool)

	a.log.Info("server.stopped")
	return err
}

func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(WithRequestID)
	r.Use(func(next http.Handler) http.Handler {
		return WithRequestLogging(next, a.log)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if a.cfg.ReadinessRequireDB && !a.dbEnabled {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		if a.dbEnabled {
			if err := PingDB(req.Context(), a.pool, 2*time.Second); err != nil {
				a.log.Info("readyz.db.not_ready", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	a.handler.Routes(r)
	return r
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
