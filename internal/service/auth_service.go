package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
)

type staffRepository interface {
	FindByUsernameAndRole(ctx context.Context, username string, role models.UserRole) (*models.StaffUser, error)
	Create(ctx context.Context, user *models.StaffUser) error
}

type studentCredentialRepository interface {
	FindByRegNumber(ctx context.Context, regNumber string) (*models.Student, error)
}

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	BcryptCost        int
}

// AuthService is the role gate: it resolves credentials to a principal of one of three roles.
type AuthService struct {
	staff     staffRepository
	students  studentCredentialRepository
	audit     auditRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(staff staffRepository, students studentCredentialRepository, audit auditRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 8 * time.Hour
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{staff: staff, students: students, audit: audit, validator: validate, logger: logger, metrics: metrics, config: config}
}

// Authenticate checks the credentials against the table for the requested role. Registrars and
// accountants match username and role in the staff table; students match their registration number.
func (s *AuthService) Authenticate(ctx context.Context, req models.LoginRequest) (*models.Principal, error) {
	req.Identifier = strings.TrimSpace(req.Identifier)
	req.Role = models.UserRole(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err, "invalid login payload")
	}

	var (
		principal models.Principal
		hash      string
	)
	switch req.Role {
	case models.RoleStudent:
		student, err := s.students.FindByRegNumber(ctx, req.Identifier)
		if err != nil {
			return nil, s.lookupFailure(err, req)
		}
		principal = models.Principal{ID: student.ID, Identifier: student.RegNumber, FullName: student.FullName, Role: models.RoleStudent}
		hash = student.SecretHash
	default:
		user, err := s.staff.FindByUsernameAndRole(ctx, req.Identifier, req.Role)
		if err != nil {
			return nil, s.lookupFailure(err, req)
		}
		principal = models.Principal{ID: user.ID, Identifier: user.Username, FullName: user.FullName, Role: user.Role}
		hash = user.SecretHash
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Secret)); err != nil {
		s.logger.Warn("login rejected", zap.String("identifier", req.Identifier), zap.String("role", string(req.Role)))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid identifier, secret or role")
	}
	return &principal, nil
}

func (s *AuthService) lookupFailure(err error, req models.LoginRequest) error {
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("login rejected", zap.String("identifier", req.Identifier), zap.String("role", string(req.Role)))
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid identifier, secret or role")
	}
	return storeFailure(s.logger, s.metrics, "authenticate", err, zap.String("identifier", req.Identifier))
}

// Login authenticates and issues an access token carrying the principal.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, ip, userAgent string) (*models.LoginResponse, error) {
	principal, err := s.Authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	token, issuedAt, err := s.IssueToken(*principal)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if s.audit != nil {
		if err := s.audit.Create(ctx, &models.AuditLog{
			UserID:     &principal.ID,
			Role:       string(principal.Role),
			Action:     models.AuditActionLogin,
			Resource:   "auth",
			ResourceID: &principal.ID,
			IPAddress:  ip,
			UserAgent:  userAgent,
		}); err != nil {
			s.logger.Warn("failed to record login audit log", zap.Error(err))
		}
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Principal:   *principal,
		IssuedAt:    issuedAt,
	}, nil
}

// CreateStaff provisions a registrar or accountant account.
func (s *AuthService) CreateStaff(ctx context.Context, req models.CreateStaffRequest) (*models.StaffUser, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Role = models.UserRole(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err, "invalid staff payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Secret), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash secret")
	}
	user := &models.StaffUser{
		Username:   req.Username,
		SecretHash: string(hash),
		Role:       req.Role,
		FullName:   req.FullName,
	}
	if err := s.staff.Create(ctx, user); err != nil {
		return nil, storeFailure(s.logger, s.metrics, "create staff user", err, zap.String("username", req.Username))
	}
	return user, nil
}

// IssueToken signs an HS256 access token for the principal.
func (s *AuthService) IssueToken(principal models.Principal) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:     principal.ID,
		Role:       principal.Role,
		Identifier: principal.Identifier,
		FullName:   principal.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   principal.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
