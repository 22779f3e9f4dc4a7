package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/printdesk/printdesk/internal/app"
	"github.com/printdesk/printdesk/internal/invoices"
	jobmetrics "github.com/printdesk/printdesk/internal/jobs"
	"github.com/printdesk/printdesk/internal/notifications"
	"github.com/printdesk/printdesk/internal/quotes"
	"github.com/printdesk/printdesk/internal/shared"
	"github.com/printdesk/printdesk/internal/tasks"
	"github.com/printdesk/printdesk/internal/users"
	"github.com/printdesk/printdesk/internal/workorders"
	"github.com/printdesk/printdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	idempotencyStore := shared.NewIdempotencyStore(pool)

	invoicesService := invoices.NewService(invoices.NewRepository(pool))
	workOrdersService := workorders.NewService(workorders.NewRepository(pool))
	quotesService := quotes.NewService(quotes.NewRepository(pool), invoicesService, workOrdersService, idempotencyStore)
	tasksService := tasks.NewService(tasks.NewRepository(pool))

	// Sweep handlers enqueue the email copy through the same queue this
	// worker consumes, so notifications get a full client-backed service.
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect job queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	notificationsService := notifications.NewService(notifications.NewRepository(pool), jobs.NewEnqueuer(jobClient), logger)

	mailer := jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	userEmails := users.NewRepository(pool)

	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		logger.Info("starting metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := http.ListenAndServe(cfg.WorkerMetricsAddr, mux); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server", slog.Any("error", err))
		}
	}()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Metrics:   metrics,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeNotifyEmail, Handler: jobs.NewNotifyEmailHandler(mailer, userEmails, logger)},
			{Type: jobs.TaskTypeInvoiceOverdueScan, Handler: jobs.NewInvoiceOverdueScanHandler(invoicesService, notificationsService, logger)},
			{Type: jobs.TaskTypeTaskReminders, Handler: jobs.NewTaskRemindersHandler(tasksService, notificationsService, logger)},
			{Type: jobs.TaskTypeQuoteExpire, Handler: jobs.NewQuoteExpireHandler(quotesService, notificationsService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: jobs.NewInvoiceOverdueScanTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 * * * *", Task: jobs.NewTaskRemindersTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: jobs.NewQuoteExpireTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
