package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds the credentials submitted to the role gate.
// Identifier is a staff username or, for students, a registration number.
type LoginRequest struct {
	Identifier string   `json:"identifier" validate:"required"`
	Secret     string   `json:"secret" validate:"required"`
	Role       UserRole `json:"role" validate:"required,oneof=REGISTRAR ACCOUNTANT STUDENT"`
}

// Principal is the resolved identity of an authenticated actor.
type Principal struct {
	ID         string   `json:"id"`
	Identifier string   `json:"identifier"`
	FullName   string   `json:"full_name"`
	Role       UserRole `json:"role"`
}

// LoginResponse returns the access token and the resolved principal.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Principal   Principal `json:"principal"`
	IssuedAt    time.Time `json:"issued_at"`
}

// CreateStaffRequest provisions a registrar or accountant account.
type CreateStaffRequest struct {
	Username string   `json:"username" validate:"required,min=3"`
	Secret   string   `json:"secret" validate:"required,min=3"`
	FullName string   `json:"full_name" validate:"required"`
	Role     UserRole `json:"role" validate:"required,oneof=REGISTRAR ACCOUNTANT"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Role       UserRole `json:"role"`
	Identifier string   `json:"identifier"`
	FullName   string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Principal converts the claims back into the identity they carry.
func (c *JWTClaims) Principal() Principal {
	return Principal{ID: c.UserID, Identifier: c.Identifier, FullName: c.FullName, Role: c.Role}
}
