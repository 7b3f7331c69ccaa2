package auth

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/awardly/compliance-engine/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialByEmail(email string) (*auth.Credential, error) {
	var cred auth.Credential
	query := `SELECT id, organization_id, email, password_hash, is_active FROM users WHERE email = ? AND is_deleted = false`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&cred.UserID, &cred.OrganizationID, &cred.Email, &cred.PasswordHash, &cred.IsActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}
	return &cred, nil
}
