package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee carries the award mapping the checks need: which award, which
// level, which employment type, and for part-timers the guaranteed weekly
// hours their contract promises.
type Employee struct {
	ID             uuid.UUID `gorm:"primaryKey;type:uuid"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;index;not null"`
	FirstName      string    `gorm:"column:first_name;not null"`
	LastName       string    `gorm:"column:last_name;not null"`
	Email          string    `gorm:"column:email;uniqueIndex;not null"`

	AwardID        *uuid.UUID `gorm:"column:award_id;type:uuid"`
	AwardLevel     int        `gorm:"column:award_level;default:1"`
	EmploymentType string     `gorm:"column:employment_type;not null"`

	GuaranteedHours *decimal.Decimal `gorm:"column:guaranteed_hours;type:numeric(5,2)"`
	HourlyRate      *decimal.Decimal `gorm:"column:hourly_rate;type:numeric(10,4)"`

	IsActive  bool       `gorm:"column:is_active;default:true"`
	IsDeleted bool       `gorm:"column:is_deleted;default:false"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employees"
}

// User is an operator account for the API, scoped to an organization.
type User struct {
	ID             uuid.UUID `gorm:"primaryKey;type:uuid"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;index;not null"`
	Email          string    `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	Name           string    `gorm:"column:name;not null"`
	Role           string    `gorm:"column:role;default:operator"`
	IsActive       bool      `gorm:"column:is_active;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
