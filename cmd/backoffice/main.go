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

	"github.com/sahyadri-hs/backoffice/internal/app"
	"github.com/sahyadri-hs/backoffice/internal/auth"
	"github.com/sahyadri-hs/backoffice/internal/billing"
	"github.com/sahyadri-hs/backoffice/internal/inventory"
	"github.com/sahyadri-hs/backoffice/internal/observability"
	"github.com/sahyadri-hs/backoffice/internal/participants"
	"github.com/sahyadri-hs/backoffice/internal/perm"
	"github.com/sahyadri-hs/backoffice/internal/platform/cache"
	"github.com/sahyadri-hs/backoffice/internal/platform/db"
	"github.com/sahyadri-hs/backoffice/internal/programs"
	"github.com/sahyadri-hs/backoffice/internal/roles"
	"github.com/sahyadri-hs/backoffice/internal/shared"
	"github.com/sahyadri-hs/backoffice/internal/staff"
	"github.com/sahyadri-hs/backoffice/internal/users"
	"github.com/sahyadri-hs/backoffice/internal/view"
	"github.com/sahyadri-hs/backoffice/jobs"
	"github.com/sahyadri-hs/backoffice/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "backoffice_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	permRepo := perm.NewRepository(dbpool)
	permService := perm.NewService(permRepo,
		perm.WithLogger(logger),
		perm.WithCache(redisClient, cfg.PermCacheTTL),
	)
	guard := perm.Middleware{Service: permService, Logger: logger, Templates: templates, Recorder: metrics}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	auditLogger := shared.NewAuditLogger(dbpool)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService, templates, csrfManager, sessionManager, guard)
	roleDirectory := roles.MatrixDirectory{Service: rolesService}

	permHandler := perm.NewHandler(logger, permService, roleDirectory, perm.DefaultRegistry, templates, csrfManager, sessionManager, guard)

	legacyService := perm.NewService(permRepo,
		perm.WithLogger(logger),
		perm.WithCache(redisClient, cfg.PermCacheTTL),
		perm.WithEvaluator(perm.LegacyEvaluator{Ancestors: perm.DefaultRegistry.AncestorTable()}),
	)
	navHandler := perm.NewNavHandler(logger, legacyService, perm.DefaultRegistry)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, roleDirectory, templates, csrfManager, sessionManager, guard)

	programsRepo := programs.NewRepository(dbpool)
	programsService := programs.NewService(programsRepo)
	programsHandler := programs.NewHandler(logger, programsService, templates, csrfManager, sessionManager, guard)

	participantsRepo := participants.NewRepository(dbpool)
	participantsService := participants.NewService(participantsRepo)
	participantsHandler := participants.NewHandler(logger, participantsService, programsService, templates, csrfManager, sessionManager, guard)

	staffRepo := staff.NewRepository(dbpool)
	staffService := staff.NewService(staffRepo)
	staffHandler := staff.NewHandler(logger, staffService, templates, csrfManager, sessionManager, guard)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, templates, csrfManager, sessionManager, guard)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	if err := pdfClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg not reachable, pdf export will fail until it is", slog.Any("error", err))
	}
	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo)
	billingHandler := billing.NewHandler(logger, billingService, programsService, inventoryService, pdfClient, templates, csrfManager, sessionManager, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Templates:           templates,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		Guard:               guard,
		AuthHandler:         authHandler,
		PermHandler:         permHandler,
		NavHandler:          navHandler,
		RolesHandler:        rolesHandler,
		UsersHandler:        usersHandler,
		ProgramsHandler:     programsHandler,
		ParticipantsHandler: participantsHandler,
		StaffHandler:        staffHandler,
		InventoryHandler:    inventoryHandler,
		BillingHandler:      billingHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
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
