package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// awardSeed is one award instrument with its scalar rule parameters.
type awardSeed struct {
	AwardType   string
	Name        string
	AwardCode   string
	Description string

	SaturdayPenaltyRate      float64
	SundayPenaltyRate        float64
	PublicHolidayPenaltyRate float64
	CasualLoadingRate        float64

	MinimumShiftHours       float64
	MaxConsecutiveDays      int
	MealBreakThresholdHours int
	MealBreakMinutes        int
	MinimumRestPeriodHours  int
	ReducedRestPeriodHours  int
	OrdinaryWeeklyHours     int
}

var awardSeeds = []awardSeed{
	{
		AwardType:                "Retail",
		Name:                     "General Retail Industry Award 2020",
		AwardCode:                "MA000004",
		Description:              "Covers employers and employees in the general retail industry",
		SaturdayPenaltyRate:      1.25,
		SundayPenaltyRate:        1.50,
		PublicHolidayPenaltyRate: 2.25,
		CasualLoadingRate:        0.25,
		MinimumShiftHours:        3,
		MaxConsecutiveDays:       6,
		MealBreakThresholdHours:  5,
		MealBreakMinutes:         30,
		MinimumRestPeriodHours:   12,
		ReducedRestPeriodHours:   10,
		OrdinaryWeeklyHours:      38,
	},
	{
		AwardType:                "Hospitality",
		Name:                     "Hospitality Industry (General) Award 2020",
		AwardCode:                "MA000009",
		Description:              "Covers employers and employees in the hospitality industry",
		SaturdayPenaltyRate:      1.25,
		SundayPenaltyRate:        1.50,
		PublicHolidayPenaltyRate: 2.25,
		CasualLoadingRate:        0.25,
		MinimumShiftHours:        3,
		MaxConsecutiveDays:       7,
		MealBreakThresholdHours:  5,
		MealBreakMinutes:         30,
		MinimumRestPeriodHours:   10,
		ReducedRestPeriodHours:   8,
		OrdinaryWeeklyHours:      38,
	},
	{
		AwardType:                "Clerks",
		Name:                     "Clerks - Private Sector Award 2020",
		AwardCode:                "MA000002",
		Description:              "Covers employers and employees performing clerical work in the private sector",
		SaturdayPenaltyRate:      1.25,
		SundayPenaltyRate:        1.50,
		PublicHolidayPenaltyRate: 2.25,
		CasualLoadingRate:        0.25,
		MinimumShiftHours:        3,
		MaxConsecutiveDays:       5,
		MealBreakThresholdHours:  5,
		MealBreakMinutes:         30,
		MinimumRestPeriodHours:   10,
		ReducedRestPeriodHours:   10,
		OrdinaryWeeklyHours:      38,
	},
}

// levelRates are the minimum hourly rates by classification level, effective
// 1 July 2025. Part-time employees are on the permanent rate; casual rates
// include the 25% loading.
var levelRates = []struct {
	Level     int
	Permanent float64
	Casual    float64
}{
	{1, 26.55, 33.19},
	{2, 27.16, 33.95},
	{3, 27.58, 34.48},
	{4, 28.12, 35.15},
	{5, 29.27, 36.59},
	{6, 29.70, 37.13},
	{7, 31.19, 38.99},
	{8, 32.45, 40.56},
}

const levelsEffectiveFrom = "2025-07-01"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with award catalog and demo data",
	Long:  `Seed the award catalog (the three MVP awards with their pay levels), a demo organization and an admin user.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"award_levels", "awards", "users", "organizations"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing seed data")
		}

		orgID := seedOrganization(db)
		seedAdminUser(db, orgID)
		seedAwards(db)

		fmt.Println("Seeding complete")
	},
}

func seedOrganization(db *gorm.DB) uuid.UUID {
	var orgID uuid.UUID
	row := db.Raw("SELECT id FROM organizations WHERE name = ?", "Demo Corp Pty Ltd").Row()
	if err := row.Scan(&orgID); err == nil {
		fmt.Println("demo organization already exists")
		return orgID
	}

	orgID = uuid.New()
	if err := db.Exec("INSERT INTO organizations (id, name, created_at, updated_at) VALUES (?, ?, now(), now())",
		orgID, "Demo Corp Pty Ltd").Error; err != nil {
		log.Fatalf("failed to insert demo organization: %v", err)
	}
	fmt.Println("Seeded demo organization")
	return orgID
}

func seedAdminUser(db *gorm.DB, orgID uuid.UUID) {
	adminEmail := "admin@demo-corp.com.au"

	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", adminEmail).Row().Scan(&exists); err == nil {
		fmt.Println("admin user already exists")
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err := db.Exec(`INSERT INTO users (id, organization_id, email, first_name, last_name, password_hash, role, is_active, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'admin', true, false, now(), now())`,
		uuid.New(), orgID, adminEmail, "Admin", "User", string(hash)).Error; err != nil {
		log.Fatalf("failed to insert admin user: %v", err)
	}
	fmt.Println("Seeded admin user:", adminEmail)
}

func seedAwards(db *gorm.DB) {
	for _, a := range awardSeeds {
		var awardID uuid.UUID
		row := db.Raw("SELECT id FROM awards WHERE award_code = ? AND is_deleted = false", a.AwardCode).Row()
		if err := row.Scan(&awardID); err != nil {
			awardID = uuid.New()
			if err := db.Exec(`INSERT INTO awards
				(id, award_type, name, award_code, description,
				 saturday_penalty_rate, sunday_penalty_rate, public_holiday_penalty_rate, casual_loading_rate,
				 minimum_shift_hours, max_consecutive_days, meal_break_threshold_hours, meal_break_minutes,
				 minimum_rest_period_hours, reduced_rest_period_hours, ordinary_weekly_hours,
				 is_deleted, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, false, now(), now())`,
				awardID, a.AwardType, a.Name, a.AwardCode, a.Description,
				a.SaturdayPenaltyRate, a.SundayPenaltyRate, a.PublicHolidayPenaltyRate, a.CasualLoadingRate,
				a.MinimumShiftHours, a.MaxConsecutiveDays, a.MealBreakThresholdHours, a.MealBreakMinutes,
				a.MinimumRestPeriodHours, a.ReducedRestPeriodHours, a.OrdinaryWeeklyHours).Error; err != nil {
				log.Fatalf("failed to insert award %s: %v", a.AwardCode, err)
			}
			fmt.Printf("Seeded award %s (%s)\n", a.AwardCode, a.Name)
		}

		for _, lr := range levelRates {
			var exists int
			row := db.Raw("SELECT 1 FROM award_levels WHERE award_id = ? AND level_number = ? AND effective_from = ?",
				awardID, lr.Level, levelsEffectiveFrom).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec(`INSERT INTO award_levels
				(id, award_id, level_number, level_name,
				 full_time_hourly_rate, part_time_hourly_rate, casual_hourly_rate,
				 effective_from, effective_to, is_active, is_deleted, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, true, false, now(), now())`,
				uuid.New(), awardID, lr.Level, fmt.Sprintf("Level %d", lr.Level),
				lr.Permanent, lr.Permanent, lr.Casual, levelsEffectiveFrom).Error; err != nil {
				log.Fatalf("failed to insert level %d for award %s: %v", lr.Level, a.AwardCode, err)
			}
		}
		fmt.Printf("Seeded pay levels for %s effective %s\n", a.AwardCode, levelsEffectiveFrom)
	}
}
