package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/awardly/compliance-engine/internal/award"
	awardPostgres "github.com/awardly/compliance-engine/internal/award/postgres"
	"github.com/awardly/compliance-engine/internal/core/events"
	"github.com/awardly/compliance-engine/internal/employee"
	employeePostgres "github.com/awardly/compliance-engine/internal/employee/postgres"
	"github.com/awardly/compliance-engine/internal/payroll"
	payrollPostgres "github.com/awardly/compliance-engine/internal/payroll/postgres"
	"github.com/awardly/compliance-engine/internal/roster"
	rosterPostgres "github.com/awardly/compliance-engine/internal/roster/postgres"
	"github.com/awardly/compliance-engine/pkg/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run a validation from the command line",
	Long:  `Run a roster or payroll validation directly against the database and print the result as JSON.`,
}

var (
	validateOrgID   string
	validateWeek    string
	validateWeekEnd string

	validatePeriodStart string
	validatePeriodEnd   string
)

var validateRosterCmd = &cobra.Command{
	Use:   "roster [roster-id]",
	Short: "Validate a roster week",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRosterValidation(args[0])
	},
}

var validatePayrollCmd = &cobra.Command{
	Use:   "payroll [batch-id]",
	Short: "Validate a payroll batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPayrollValidation(args[0])
	},
}

type engineDeps struct {
	gormDB   *gorm.DB
	catalog  *award.Catalog
	roster   *roster.Service
	payroll  *payroll.Service
	shutdown func()
}

func initEngine() (*engineDeps, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	bus := events.NewEventBus(log)
	catalog := award.NewCatalog(awardPostgres.NewAwardRepository(gormDB), log)
	employeeService := employee.NewService(employeePostgres.NewEmployeeRepository(gormDB), log)

	rosterService := roster.NewService(
		rosterPostgres.NewRosterRepository(gormDB), employeeService, catalog, bus, log,
		cfg.Engine.StaleRunThreshold, cfg.Engine.RunTimeout, cfg.Engine.DisabledChecks)

	payrollService := payroll.NewService(
		payrollPostgres.NewPayrollRepository(gormDB), catalog, bus, log,
		cfg.Engine.StaleRunThreshold, cfg.Engine.RunTimeout, cfg.Engine.DisabledChecks)

	return &engineDeps{
		gormDB:   gormDB,
		catalog:  catalog,
		roster:   rosterService,
		payroll:  payrollService,
		shutdown: func() { _ = db.Close() },
	}, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

func runRosterValidation(rosterIDArg string) error {
	rosterID, err := uuid.Parse(rosterIDArg)
	if err != nil {
		return fmt.Errorf("roster-id must be a UUID: %w", err)
	}
	orgID, err := uuid.Parse(validateOrgID)
	if err != nil {
		return fmt.Errorf("--org must be a UUID: %w", err)
	}
	weekStart, err := parseDateFlag("week-start", validateWeek)
	if err != nil {
		return err
	}
	weekEnd := weekStart.AddDate(0, 0, 6)
	if validateWeekEnd != "" {
		if weekEnd, err = parseDateFlag("week-end", validateWeekEnd); err != nil {
			return err
		}
	}

	deps, err := initEngine()
	if err != nil {
		return err
	}
	defer deps.shutdown()

	result, err := deps.roster.StartValidation(context.Background(), orgID, rosterID, weekStart, weekEnd)
	if err != nil {
		return err
	}
	return printRunResult(result)
}

func runPayrollValidation(batchIDArg string) error {
	batchID, err := uuid.Parse(batchIDArg)
	if err != nil {
		return fmt.Errorf("batch-id must be a UUID: %w", err)
	}
	orgID, err := uuid.Parse(validateOrgID)
	if err != nil {
		return fmt.Errorf("--org must be a UUID: %w", err)
	}
	periodStart, err := parseDateFlag("period-start", validatePeriodStart)
	if err != nil {
		return err
	}
	periodEnd, err := parseDateFlag("period-end", validatePeriodEnd)
	if err != nil {
		return err
	}

	deps, err := initEngine()
	if err != nil {
		return err
	}
	defer deps.shutdown()

	result, err := deps.payroll.StartValidation(context.Background(), orgID, batchID, periodStart, periodEnd)
	if err != nil {
		return err
	}
	return printRunResult(result)
}

func printRunResult(result any) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	validateRosterCmd.Flags().StringVar(&validateOrgID, "org", "", "organization ID (required)")
	validateRosterCmd.Flags().StringVar(&validateWeek, "week-start", "", "roster week start, YYYY-MM-DD (required)")
	validateRosterCmd.Flags().StringVar(&validateWeekEnd, "week-end", "", "roster week end, defaults to week-start + 6 days")
	_ = validateRosterCmd.MarkFlagRequired("org")
	_ = validateRosterCmd.MarkFlagRequired("week-start")

	validatePayrollCmd.Flags().StringVar(&validateOrgID, "org", "", "organization ID (required)")
	validatePayrollCmd.Flags().StringVar(&validatePeriodStart, "period-start", "", "pay period start, YYYY-MM-DD (required)")
	validatePayrollCmd.Flags().StringVar(&validatePeriodEnd, "period-end", "", "pay period end, YYYY-MM-DD (required)")
	_ = validatePayrollCmd.MarkFlagRequired("org")
	_ = validatePayrollCmd.MarkFlagRequired("period-start")
	_ = validatePayrollCmd.MarkFlagRequired("period-end")

	validateCmd.AddCommand(validateRosterCmd)
	validateCmd.AddCommand(validatePayrollCmd)
	rootCmd.AddCommand(validateCmd)
}
