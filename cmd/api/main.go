package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters/storage"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/email"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/exports"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http/router"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/notification"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/realtime"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/reporting"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/scheduler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/webhook"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/migrations"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/db"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	applied, err := db.RunMigrations(ctx, pool, migrations.FS)
	if err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database ready", "migrationsApplied", len(applied))

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	hub := realtime.NewHub(log)
	defer hub.Close()

	jobs, closeJobs := initScheduler(cfg, log)
	if closeJobs != nil {
		defer closeJobs()
	}

	archiver := initStorage(ctx, cfg, log)

	if cfg.GetRedisURL() != "" {
		if client, err := realtime.NewRedisClient(cfg); err != nil {
			log.Error("realtime relay disabled", "error", err)
		} else {
			defer func() { _ = client.Close() }()
			go startRelay(ctx, client, hub, log)
		}
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, cfg, log, val)
	teamModule := team.NewModule(pool, eventBus, val)
	members := adapters.NewTeamMemberDirectory(teamModule.Service())

	leadsModule := leads.NewModule(pool, eventBus, val, members, log)
	leadRefs := adapters.NewLeadReference(leadsModule.ManagementService())

	// Typed nil interfaces would pass the modules' nil checks.
	var reminders scheduler.ReminderScheduler
	var taskDue scheduler.TaskDueScheduler
	if jobs != nil {
		reminders, taskDue = jobs, jobs
	}
	tasksModule := tasks.NewModule(pool, val, eventBus, leadRefs, members, taskDue, log)
	appointmentsModule := appointments.NewModule(pool, val, eventBus, leadRefs, members, reminders, log)
	reportingModule := reporting.NewModule(pool, val, log)

	var importArchive storage.Archiver
	if archiver != nil {
		importArchive = archiver
	}
	importsModule := imports.NewModule(leadsModule.ManagementService(), members, importArchive, cfg.GetMinioBucketImports(), val, eventBus, log)
	exportsModule := exports.NewModule(leadsModule.ManagementService(), members, val, log)
	webhookModule := webhook.NewModule(pool, leadsModule.ManagementService(), val, log)
	realtimeModule := realtime.NewModule(hub, eventBus)

	assistantModule, err := assistant.NewModule(cfg, reportingModule.Service, importArchive, cfg.GetMinioBucketVoiceNotes(), val, log)
	if err != nil {
		log.Error("failed to initialize assistant module", "error", err)
		panic("failed to initialize assistant module: " + err.Error())
	}

	// Notifications raised in this process go straight to the local hub.
	notificationModule := notification.New(email.NewSender(cfg), hub, members, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			teamModule,
			leadsModule,
			tasksModule,
			appointmentsModule,
			reportingModule,
			importsModule,
			exportsModule,
			webhookModule,
			realtimeModule,
			assistantModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		// Open event streams would hold Shutdown until the deadline.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; reminders and due-task notifications disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}
	return client, func() { _ = client.Close() }
}

// initStorage returns nil when MinIO is not configured; uploads are then
// processed without being archived.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) *storage.MinIOService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; uploads will not be archived")
		return nil
	}
	svc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	for _, bucket := range []string{cfg.GetMinioBucketImports(), cfg.GetMinioBucketVoiceNotes()} {
		if err := withRetry(ctx, log, "ensure bucket "+bucket, 5, 2*time.Second, func() error {
			return svc.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
	}
	log.Info("storage service initialized", "importsBucket", cfg.GetMinioBucketImports(), "voiceNotesBucket", cfg.GetMinioBucketVoiceNotes())
	return svc
}

// startRelay forwards notifications published by the scheduler process to
// streams connected here. go-redis resubscribes after connection drops.
func startRelay(ctx context.Context, client *redis.Client, hub *realtime.Hub, log *logger.Logger) {
	relay := realtime.NewRelay(client, realtime.DefaultChannel, hub, log)
	if err := withRetry(ctx, log, "realtime relay subscribe", 5, 2*time.Second, func() error {
		return relay.Run(ctx)
	}); err != nil {
		log.Error("realtime relay disabled", "error", err)
		return
	}
	log.Info("realtime relay subscribed", "channel", realtime.DefaultChannel)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
