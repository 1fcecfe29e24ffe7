package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters"
	apptrepo "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/email"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/notification"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/realtime"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/scheduler"
	taskrepo "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/db"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	// Browsers are connected to the API process; pushes travel over Redis.
	redisClient, err := realtime.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize realtime publisher", "error", err)
		panic("failed to initialize realtime publisher: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()
	publisher := realtime.NewPublisher(redisClient, realtime.DefaultChannel)

	teamModule := team.NewModule(pool, eventBus, validator.New())
	members := adapters.NewTeamMemberDirectory(teamModule.Service())

	notificationModule := notification.New(email.NewSender(cfg), publisher, members, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, apptrepo.New(pool), taskrepo.New(pool), eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
