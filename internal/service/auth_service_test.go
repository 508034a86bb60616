package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
)

type fakeStaff struct {
	users []models.StaffUser
}

func (f *fakeStaff) FindByUsernameAndRole(ctx context.Context, username string, role models.UserRole) (*models.StaffUser, error) {
	for _, u := range f.users {
		if u.Username == username && u.Role == role {
			found := u
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStaff) Create(ctx context.Context, user *models.StaffUser) error {
	for _, u := range f.users {
		if u.Username == user.Username && u.Role == user.Role {
			return repository.ErrDuplicate
		}
	}
	user.ID = "staff-" + user.Username
	f.users = append(f.users, *user)
	return nil
}

type fakeAudit struct {
	logs []models.AuditLog
}

func (f *fakeAudit) Create(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeStaff, *fakeAudit, *ledgerFixture) {
	t.Helper()
	fx := newLedgerFixture()
	staff := &fakeStaff{}
	audit := &fakeAudit{}
	svc := NewAuthService(staff, fakeStudents{fx.store}, audit, nil, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "tuition-ledger-api",
		BcryptCost:        bcrypt.MinCost,
	})
	_, err := svc.CreateStaff(context.Background(), models.CreateStaffRequest{
		Username: "registrar", Secret: "reg-pass", FullName: "Main Registrar", Role: "registrar",
	})
	require.NoError(t, err)
	return svc, staff, audit, fx
}

func TestLoginStaff(t *testing.T) {
	svc, _, audit, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: "registrar", Secret: "reg-pass", Role: models.RoleRegistrar,
	}, "127.0.0.1", "test")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleRegistrar, resp.Principal.Role)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Principal, claims.Principal())
	assert.Equal(t, "tuition-ledger-api", claims.Issuer)
}

func TestLoginRejectsWrongRoleAndSecret(t *testing.T) {
	svc, _, audit, _ := newAuthFixture(t)

	cases := map[string]models.LoginRequest{
		"wrong role":     {Identifier: "registrar", Secret: "reg-pass", Role: models.RoleAccountant},
		"wrong secret":   {Identifier: "registrar", Secret: "nope", Role: models.RoleRegistrar},
		"unknown user":   {Identifier: "ghost", Secret: "reg-pass", Role: models.RoleRegistrar},
		"unknown reg no": {Identifier: "2025001", Secret: "123", Role: models.RoleStudent},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), req, "", "")
			assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
		})
	}
	assert.Empty(t, audit.logs)

	_, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "registrar", Secret: "reg-pass", Role: "ADMIN"}, "", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLoginStudentWithDefaultSecret(t *testing.T) {
	svc, _, _, fx := newAuthFixture(t)
	student := registerFixtureStudent(t, fx, "500")

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Identifier: student.RegNumber, Secret: "123", Role: models.RoleStudent,
	}, "", "")
	require.NoError(t, err)
	assert.Equal(t, student.ID, resp.Principal.ID)
	assert.Equal(t, models.RoleStudent, resp.Principal.Role)
}

func TestCreateStaffRejectsStudentRoleAndDuplicates(t *testing.T) {
	svc, staff, _, _ := newAuthFixture(t)

	_, err := svc.CreateStaff(context.Background(), models.CreateStaffRequest{
		Username: "pupil", Secret: "abc", FullName: "P", Role: models.RoleStudent,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.CreateStaff(context.Background(), models.CreateStaffRequest{
		Username: "registrar", Secret: "other", FullName: "Again", Role: models.RoleRegistrar,
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrConstraint))
	assert.Len(t, staff.users, 1)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	token, _, err := svc.IssueToken(models.Principal{ID: "u1", Identifier: "acc", Role: models.RoleAccountant})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	other := NewAuthService(&fakeStaff{}, nil, nil, nil, nil, nil, AuthConfig{AccessTokenSecret: "different"})
	_, err = other.ValidateToken(token)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	forged, _, err := svc.IssueToken(models.Principal{ID: "u1", Role: "ADMIN"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
