package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrconsole/internal/domain/access"
	"hrconsole/internal/domain/attendance"
	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/core"
	"hrconsole/internal/domain/leave"
	"hrconsole/internal/domain/notifications"
	"hrconsole/internal/domain/org"
	"hrconsole/internal/domain/recruitment"
	"hrconsole/internal/domain/reports"
	"hrconsole/internal/platform/cache"
	"hrconsole/internal/platform/config"
	cryptoutil "hrconsole/internal/platform/crypto"
	"hrconsole/internal/platform/db"
	"hrconsole/internal/platform/email"
	"hrconsole/internal/platform/jobs"
	"hrconsole/internal/platform/metrics"
	"hrconsole/internal/transport/http/api"
	accesshandler "hrconsole/internal/transport/http/handlers/access"
	attendancehandler "hrconsole/internal/transport/http/handlers/attendance"
	audithandler "hrconsole/internal/transport/http/handlers/audit"
	authhandler "hrconsole/internal/transport/http/handlers/auth"
	corehandler "hrconsole/internal/transport/http/handlers/core"
	leavehandler "hrconsole/internal/transport/http/handlers/leave"
	notificationshandler "hrconsole/internal/transport/http/handlers/notifications"
	orghandler "hrconsole/internal/transport/http/handlers/org"
	recruitmenthandler "hrconsole/internal/transport/http/handlers/recruitment"
	reportshandler "hrconsole/internal/transport/http/handlers/reports"
	"hrconsole/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	cache   cache.Store
}

// New connects to the database, applies migrations and the seed when
// configured, and wires every service behind the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workdayStart, err := cfg.WorkdayStartOffset()
	if err != nil {
		return nil, err
	}
	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption setup: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	permCache := cache.New(cfg)
	mailer := email.New(cfg)
	auditSvc := audit.New(pool)
	notifySvc := notifications.New(notifications.NewStore(pool), mailer, cfg.EmailFrom)

	accessStore := access.NewStore(pool)
	checker := access.NewChecker(accessStore, permCache, cfg.PermissionCacheTTL)
	accessSvc := access.NewService(accessStore, checker)

	authSvc := auth.NewService(auth.NewStore(pool))
	coreSvc := core.NewService(core.NewStore(pool, crypto), checker)
	orgSvc := org.NewService(org.NewStore(pool))
	leaveSvc := leave.NewService(leave.NewStore(pool), notifySvc)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), workdayStart)
	recruitmentSvc := recruitment.NewService(recruitment.NewStore(pool), coreSvc, notifySvc)
	reportsSvc := reports.NewService(reports.NewStore(pool))
	jobsSvc := jobs.New(jobs.NewStore(pool), cfg, leaveSvc, recruitmentSvc, collector)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, authSvc))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if err := permCache.Ping(ctx); err != nil {
			slog.Warn("permission cache not reachable", "err", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	authHandler := authhandler.NewHandler(authSvc, cfg.JWTSecret, crypto, mailer, cfg.EmailFrom, cfg.FrontendBaseURL, cfg.PasswordResetTTL, auditSvc)
	idem := middleware.NewIdempotencyStore(pool)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			authHandler.RegisterRoutes(r)
			accesshandler.NewHandler(accessSvc, checker, checker, auditSvc).RegisterRoutes(r)
			corehandler.NewHandler(coreSvc, checker, auditSvc).RegisterRoutes(r)
			orghandler.NewHandler(orgSvc, checker, auditSvc).RegisterRoutes(r)
			leavehandler.NewHandler(leaveSvc, checker, auditSvc, idem).RegisterRoutes(r)
			attendancehandler.NewHandler(attendanceSvc, checker, auditSvc).RegisterRoutes(r)
			recruitmenthandler.NewHandler(recruitmentSvc, checker, auditSvc).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc, checker).RegisterRoutes(r)
			notificationshandler.NewHandler(notifySvc, checker, auditSvc).RegisterRoutes(r)
			reportshandler.NewHandler(reportsSvc, jobsSvc, checker, auditSvc).RegisterRoutes(r)
			if cfg.MetricsEnabled {
				r.With(middleware.RequirePermission(auth.PermSettingsView, checker)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
					api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
				})
			}
		})
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Jobs:    jobsSvc,
		Metrics: collector,
		cache:   permCache,
	}, nil
}

// Serve starts the background jobs and the HTTP listener, and shuts both
// down when ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	jobCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	a.Jobs.Start(jobCtx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("hr console listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if closer, ok := a.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("cache close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if err == nil || os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
