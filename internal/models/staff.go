package models

import "time"

// UserRole is one of the three actor roles of the ledger.
type UserRole string

const (
	RoleRegistrar  UserRole = "REGISTRAR"
	RoleAccountant UserRole = "ACCOUNTANT"
	RoleStudent    UserRole = "STUDENT"
)

// Valid reports whether the role is one of the known actor roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleRegistrar, RoleAccountant, RoleStudent:
		return true
	}
	return false
}

// StaffUser is a registrar or accountant account stored in staff_users.
type StaffUser struct {
	ID         string    `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	SecretHash string    `db:"secret_hash" json:"-"`
	Role       UserRole  `db:"role" json:"role"`
	FullName   string    `db:"full_name" json:"full_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
