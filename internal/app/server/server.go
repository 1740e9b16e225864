package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/approval"
	"pms/internal/domain/assignment"
	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/catalog"
	"pms/internal/domain/chat"
	"pms/internal/domain/evidence"
	"pms/internal/domain/notifications"
	"pms/internal/domain/planning"
	"pms/internal/domain/reports"
	"pms/internal/platform/config"
	"pms/internal/platform/crypto"
	"pms/internal/platform/db"
	"pms/internal/platform/email"
	"pms/internal/platform/jobs"
	"pms/internal/platform/metrics"
	"pms/internal/platform/seed"
	"pms/internal/platform/storage"
	"pms/internal/transport/http/api"
	adminhandler "pms/internal/transport/http/handlers/admin"
	assignmenthandler "pms/internal/transport/http/handlers/assignment"
	audithandler "pms/internal/transport/http/handlers/audit"
	authhandler "pms/internal/transport/http/handlers/auth"
	cataloghandler "pms/internal/transport/http/handlers/catalog"
	chathandler "pms/internal/transport/http/handlers/chat"
	evidencehandler "pms/internal/transport/http/handlers/evidence"
	notificationshandler "pms/internal/transport/http/handlers/notifications"
	planninghandler "pms/internal/transport/http/handlers/planning"
	reportshandler "pms/internal/transport/http/handlers/reports"
	validationhandler "pms/internal/transport/http/handlers/validation"
	"pms/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	cancel  context.CancelFunc
}

// New connects to the database, prepares the schema and builds the router.
// Background jobs run until Close is called.
func New(ctx context.Context, cfg config.Config) (*App, error) {
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
		if err := seed.Run(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption: %w", err)
	}
	blobs, err := storage.NewLocal(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("upload storage: %w", err)
	}

	collector := metrics.New()
	auditSvc := audit.New(pool)
	idem := middleware.NewIdempotencyStore(pool)

	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	catalogSvc := catalog.NewService(catalog.NewStore(pool))
	assignmentSvc := assignment.NewService(assignment.NewStore(pool))
	approvalSvc := approval.NewService(approval.NewStore(pool))
	planningSvc := planning.NewService(planning.NewStore(pool), approvalSvc)
	evidenceSvc := evidence.NewService(evidence.NewStore(pool), blobs)
	notifier := notifications.New(notifications.NewStore(pool), email.New(cfg), authSvc)
	reportsSvc := reports.NewService(reports.NewStore(pool))
	chatSvc := chat.NewService(chat.NewStore(pool), sealer, blobs, chat.NewHub())

	jobCtx, cancel := context.WithCancel(context.Background())
	jobSvc := jobs.New(pool)
	jobSvc.Start(jobCtx)
	if cfg.RollupReconcileInterval > 0 {
		jobSvc.Schedule(jobCtx, jobs.JobRollupReconcile, cfg.RollupReconcileInterval, func(ctx context.Context) (any, error) {
			return planningSvc.Reconcile(ctx, time.Now().Year())
		})
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.UploadMaxBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, cfg.TrustScopeHeaders))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authSvc, auditSvc)
		authHandler.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			authHandler.RegisterRoutes(r)
			cataloghandler.NewHandler(catalogSvc, auditSvc).RegisterRoutes(r)
			assignmenthandler.NewHandler(assignmentSvc, auditSvc).RegisterRoutes(r)
			planninghandler.NewHandler(planningSvc, auditSvc, idem, collector).RegisterRoutes(r)
			validationhandler.NewHandler(approvalSvc, planningSvc, notifier, auditSvc, collector).RegisterRoutes(r)
			evidencehandler.NewHandler(evidenceSvc, auditSvc).RegisterRoutes(r)
			notificationshandler.NewHandler(notifier).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc).RegisterRoutes(r)
			reportshandler.NewHandler(reportsSvc).RegisterRoutes(r)
			adminhandler.NewHandler(planningSvc, jobSvc, auditSvc, idem, collector).RegisterRoutes(r)
			chathandler.NewHandler(chatSvc, cfg.WSOriginPatterns).RegisterRoutes(r)
		})
	})

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Jobs:    jobSvc,
		Metrics: collector,
		cancel:  cancel,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("pms server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("pms server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
