package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
)

// StaffRepository provides database access for registrar and accountant accounts.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByUsernameAndRole returns the staff account matching both username and role.
func (r *StaffRepository) FindByUsernameAndRole(ctx context.Context, username string, role models.UserRole) (*models.StaffUser, error) {
	query := r.db.Rebind(`SELECT id, username, secret_hash, role, full_name, created_at
        FROM staff_users WHERE username = ? AND role = ? LIMIT 1`)
	var user models.StaffUser
	if err := r.db.GetContext(ctx, &user, query, username, string(role)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, wrapError("find staff user", err)
	}
	return &user, nil
}

// Create inserts a staff account.
func (r *StaffRepository) Create(ctx context.Context, user *models.StaffUser) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO staff_users (id, username, secret_hash, role, full_name, created_at)
        VALUES (:id, :username, :secret_hash, :role, :full_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return wrapError("create staff user", err)
	}
	return nil
}
