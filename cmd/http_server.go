package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/awardly/compliance-engine/internal"
	"github.com/awardly/compliance-engine/internal/auth"
	authPostgres "github.com/awardly/compliance-engine/internal/auth/postgres"
	"github.com/awardly/compliance-engine/internal/award"
	awardPostgres "github.com/awardly/compliance-engine/internal/award/postgres"
	"github.com/awardly/compliance-engine/internal/core/events"
	"github.com/awardly/compliance-engine/internal/employee"
	employeePostgres "github.com/awardly/compliance-engine/internal/employee/postgres"
	"github.com/awardly/compliance-engine/internal/payroll"
	payrollPostgres "github.com/awardly/compliance-engine/internal/payroll/postgres"
	"github.com/awardly/compliance-engine/internal/roster"
	rosterPostgres "github.com/awardly/compliance-engine/internal/roster/postgres"
	"github.com/awardly/compliance-engine/internal/transport/rest"
	"github.com/awardly/compliance-engine/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config

	// Load-check the OpenAPI contract so a broken spec fails the boot, not a
	// reader of /swagger.
	specLoader := openapi3.NewLoader()
	spec, err := specLoader.LoadFromFile(cfg.Server.OpenAPISpecPath)
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI spec %s: %w", cfg.Server.OpenAPISpecPath, err)
	}
	if err := spec.Validate(specLoader.Context); err != nil {
		return fmt.Errorf("OpenAPI spec %s is invalid: %w", cfg.Server.OpenAPISpecPath, err)
	}

	bus := events.NewEventBus(deps.Logger)

	tokenGen := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.JWTSecret)
	if cfg.Security.AccessTokenDuration > 0 {
		tokenGen.AccessTokenTTL = cfg.Security.AccessTokenDuration
	}
	if cfg.Security.RefreshTokenDuration > 0 {
		tokenGen.RefreshTokenTTL = cfg.Security.RefreshTokenDuration
	}
	authService := auth.NewService(authPostgres.NewRepository(deps.GormDB), tokenGen)
	authHandler := auth.NewHandler(authService)

	awardRepo := awardPostgres.NewAwardRepository(deps.GormDB)
	catalog := award.NewCatalog(awardRepo, deps.Logger)
	awardHandler := award.NewHandler(catalog)

	employeeRepo := employeePostgres.NewEmployeeRepository(deps.GormDB)
	employeeService := employee.NewService(employeeRepo, deps.Logger)
	employeeHandler := employee.NewHandler(employeeService)

	rosterRepo := rosterPostgres.NewRosterRepository(deps.GormDB)
	rosterService := roster.NewService(
		rosterRepo, employeeService, catalog, bus, deps.Logger,
		cfg.Engine.StaleRunThreshold, cfg.Engine.RunTimeout, cfg.Engine.DisabledChecks)
	rosterHandler := roster.NewHandler(rosterService)

	payrollRepo := payrollPostgres.NewPayrollRepository(deps.GormDB)
	payrollService := payroll.NewService(
		payrollRepo, catalog, bus, deps.Logger,
		cfg.Engine.StaleRunThreshold, cfg.Engine.RunTimeout, cfg.Engine.DisabledChecks)
	payrollHandler := payroll.NewHandler(payrollService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB,
		authHandler, awardHandler, employeeHandler, rosterHandler, payrollHandler, deps.Logger)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	router := chi.NewRouter()

	return &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper(),
		DB:     db,
		GormDB: gormDB,
		Router: router,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
