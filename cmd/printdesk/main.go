package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/printdesk/printdesk/internal/app"
	"github.com/printdesk/printdesk/internal/auth"
	"github.com/printdesk/printdesk/internal/blades"
	"github.com/printdesk/printdesk/internal/companies"
	"github.com/printdesk/printdesk/internal/invoices"
	"github.com/printdesk/printdesk/internal/notifications"
	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/quotes"
	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/roles"
	"github.com/printdesk/printdesk/internal/shared"
	"github.com/printdesk/printdesk/internal/tasks"
	"github.com/printdesk/printdesk/internal/users"
	"github.com/printdesk/printdesk/internal/workorders"
	"github.com/printdesk/printdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "printdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacLoader := rbac.NewLoader(rbac.LoaderConfig{
		Repository:  rbacRepo,
		Redis:       redisClient,
		Logger:      logger,
		LoadTimeout: cfg.RBACLoadTimeout,
		CacheTTL:    cfg.RBACCacheTTL,
	})
	guard := rbac.Guard{Loader: rbacLoader, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, rbacLoader)

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

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

	usersService := users.NewService(users.NewRepository(dbpool))
	usersHandler := users.NewHandler(logger, usersService, guard, rbacLoader)

	rolesService := roles.NewService(roles.NewRepository(dbpool))
	rolesHandler := roles.NewHandler(logger, rolesService, guard, rbacLoader)

	companiesService := companies.NewService(companies.NewRepository(dbpool))
	companiesHandler := companies.NewHandler(logger, companiesService, guard, auditLogger)

	invoicesService := invoices.NewService(invoices.NewRepository(dbpool))
	invoicesHandler := invoices.NewHandler(logger, invoicesService, guard, auditLogger)

	workOrdersService := workorders.NewService(workorders.NewRepository(dbpool))
	workOrdersHandler := workorders.NewHandler(logger, workOrdersService, guard)

	quotesService := quotes.NewService(quotes.NewRepository(dbpool), invoicesService, workOrdersService, idempotencyStore)
	quotesHandler := quotes.NewHandler(logger, quotesService, guard, auditLogger)

	tasksService := tasks.NewService(tasks.NewRepository(dbpool))
	tasksHandler := tasks.NewHandler(logger, tasksService, guard)

	notificationsService := notifications.NewService(notifications.NewRepository(dbpool), jobs.NewEnqueuer(jobClient), logger)
	notificationsHandler := notifications.NewHandler(logger, notificationsService, guard)

	metrics := observability.NewMetrics()

	bladesHandler := blades.NewHandler(logger, guard)
	rbacHandler := rbac.NewHandler(logger, rbacLoader, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Metrics:              metrics,
		AuthHandler:          authHandler,
		RBACHandler:          rbacHandler,
		BladesHandler:        bladesHandler,
		CompaniesHandler:     companiesHandler,
		QuotesHandler:        quotesHandler,
		InvoicesHandler:      invoicesHandler,
		WorkOrdersHandler:    workOrdersHandler,
		TasksHandler:         tasksHandler,
		NotificationsHandler: notificationsHandler,
		UsersHandler:         usersHandler,
		RolesHandler:         rolesHandler,
		JobsHandler:          jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
