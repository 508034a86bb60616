package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/internal/repository"
	"github.com/noah-isme/tuition-ledger-api/pkg/database"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
)

type sqliteLedger struct {
	enrollment *EnrollmentService
	courses    *CourseService
	payments   *PaymentService
	reports    *ReportService
}

func newSQLiteLedger(t *testing.T) *sqliteLedger {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = database.Migrate(context.Background(), db)
	require.NoError(t, err)

	students := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	gen := NewRegistrationNumberGenerator(students, nil, nil)
	return &sqliteLedger{
		enrollment: NewEnrollmentService(students, courseRepo, gen, nil, nil, nil, EnrollmentConfig{RegistrationYear: "2025", BcryptCost: bcrypt.MinCost}),
		courses:    NewCourseService(courseRepo, nil, nil, nil, nil, nil),
		payments:   NewPaymentService(paymentRepo, students, enrollments, nil, nil, nil, nil),
		reports:    NewReportService(students, enrollments, paymentRepo, nil, nil),
	}
}

func TestLedgerReconciliationOnSQLite(t *testing.T) {
	ledger := newSQLiteLedger(t)
	ctx := context.Background()
	enrollment, courses, payments, reports := ledger.enrollment, ledger.courses, ledger.payments, ledger.reports

	routing, err := courses.Add(ctx, models.CourseRequest{Program: "NETWORKING", Name: "Routing", Price: decimal.NewFromInt(500)})
	require.NoError(t, err)
	switching, err := courses.Add(ctx, models.CourseRequest{Program: "NETWORKING", Name: "Switching", Price: decimal.NewFromInt(300)})
	require.NoError(t, err)

	reg, err := enrollment.Register(ctx, models.RegisterStudentRequest{
		FullName: "Uwase Smith", Program: "NETWORKING", CourseIDs: []string{routing.ID, switching.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025001", reg.Student.RegNumber)
	assert.Equal(t, "800.00", reg.TotalFee.StringFixed(2))
	studentID := reg.Student.ID

	_, err = payments.RecordPayment(ctx, models.RecordPaymentRequest{StudentID: studentID, Amount: decimal.NewFromInt(300), Method: "CASH"})
	require.NoError(t, err)
	summary, err := payments.LoadSummary(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", summary.Outstanding.StringFixed(2))
	assert.Equal(t, models.FeeStatusPartiallyPaid, summary.Status())

	_, err = payments.PayAsStudent(ctx, studentID, models.SelfPaymentRequest{Amount: decimal.NewFromInt(500), Method: "MOMO"})
	require.NoError(t, err)
	summary, err = payments.LoadSummary(ctx, studentID)
	require.NoError(t, err)
	assert.True(t, summary.Outstanding.IsZero())
	assert.Equal(t, models.FeeStatusFullyPaid, summary.Status())

	rows, err := reports.AccountantRoster(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.FeeStatusFullyPaid, rows[0].Status)

	err = courses.Delete(ctx, routing.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrConstraint))

	require.NoError(t, enrollment.DeleteStudent(ctx, "2025001"))
	_, err = payments.LoadSummary(ctx, studentID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = payments.RecordPayment(ctx, models.RecordPaymentRequest{StudentID: studentID, Amount: decimal.NewFromInt(10), Method: "CASH"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConstraint))

	require.NoError(t, courses.Delete(ctx, routing.ID))
}

func assertSameSummary(t *testing.T, want, got models.FeeSummary, view string) {
	t.Helper()
	assert.Equal(t, want.StudentID, got.StudentID, view)
	assert.True(t, want.TotalFee.Equal(got.TotalFee), "%s total fee: %s != %s", view, want.TotalFee, got.TotalFee)
	assert.True(t, want.TotalPaid.Equal(got.TotalPaid), "%s total paid: %s != %s", view, want.TotalPaid, got.TotalPaid)
	assert.True(t, want.Outstanding.Equal(got.Outstanding), "%s outstanding: %s != %s", view, want.Outstanding, got.Outstanding)
	assert.True(t, got.Outstanding.Equal(got.TotalFee.Sub(got.TotalPaid)), "%s outstanding is not fee minus paid", view)
}

func TestFeeViewsAgreeOnSQLite(t *testing.T) {
	ledger := newSQLiteLedger(t)
	ctx := context.Background()

	routing, err := ledger.courses.Add(ctx, models.CourseRequest{Program: "NETWORKING", Name: "Routing", Price: decimal.RequireFromString("500.50")})
	require.NoError(t, err)
	switching, err := ledger.courses.Add(ctx, models.CourseRequest{Program: "NETWORKING", Name: "Switching", Price: decimal.NewFromInt(300)})
	require.NoError(t, err)
	records, err := ledger.courses.Add(ctx, models.CourseRequest{Program: "INFO MANAGEMENT", Name: "Records", Price: decimal.RequireFromString("199.99")})
	require.NoError(t, err)

	register := func(name, program string, courseIDs ...string) string {
		reg, err := ledger.enrollment.Register(ctx, models.RegisterStudentRequest{FullName: name, Program: program, CourseIDs: courseIDs})
		require.NoError(t, err)
		return reg.Student.ID
	}
	partial := register("Uwase Smith", "NETWORKING", routing.ID, switching.ID)
	overpaid := register("Mugisha Johnson", "INFO MANAGEMENT", records.ID)
	unpaid := register("Iradukunda Williams", "NETWORKING", switching.ID)

	_, err = ledger.payments.RecordPayment(ctx, models.RecordPaymentRequest{StudentID: partial, Amount: decimal.RequireFromString("100.25"), Method: "CASH"})
	require.NoError(t, err)
	_, err = ledger.payments.PayAsStudent(ctx, partial, models.SelfPaymentRequest{Amount: decimal.RequireFromString("0.10"), Method: "BK"})
	require.NoError(t, err)
	_, err = ledger.payments.RecordPayment(ctx, models.RecordPaymentRequest{StudentID: overpaid, Amount: decimal.NewFromInt(250), Method: "CASH"})
	require.NoError(t, err)

	accountant, err := ledger.reports.AccountantRoster(ctx)
	require.NoError(t, err)
	registrar, err := ledger.reports.RegistrarRoster(ctx)
	require.NoError(t, err)
	require.Len(t, accountant, 3)
	require.Len(t, registrar, 3)

	byStudent := func(id string) (models.AccountantRosterRow, models.RegistrarRosterRow) {
		var a models.AccountantRosterRow
		var r models.RegistrarRosterRow
		for _, row := range accountant {
			if row.StudentID == id {
				a = row
			}
		}
		for _, row := range registrar {
			if row.StudentID == id {
				r = row
			}
		}
		require.Equal(t, id, a.StudentID)
		require.Equal(t, id, r.StudentID)
		return a, r
	}

	cases := map[string]struct {
		studentID   string
		outstanding string
		status      models.FeeStatus
	}{
		"partially paid": {studentID: partial, outstanding: "700.15", status: models.FeeStatusPartiallyPaid},
		"overpaid":       {studentID: overpaid, outstanding: "-50.01", status: models.FeeStatusFullyPaid},
		"not paid":       {studentID: unpaid, outstanding: "300.00", status: models.FeeStatusNotPaid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			summary, err := ledger.payments.LoadSummary(ctx, tc.studentID)
			require.NoError(t, err)
			assert.Equal(t, tc.outstanding, summary.Outstanding.StringFixed(2))
			assert.Equal(t, tc.status, summary.Status())

			statement, err := ledger.reports.StudentStatement(ctx, tc.studentID)
			require.NoError(t, err)
			accountantRow, registrarRow := byStudent(tc.studentID)

			assertSameSummary(t, *summary, statement.Summary, "statement")
			assertSameSummary(t, *summary, accountantRow.Summary, "accountant roster")
			assertSameSummary(t, *summary, registrarRow.Summary, "registrar roster")
			assert.Equal(t, tc.status, statement.Status)
			assert.Equal(t, tc.status, accountantRow.Status)
			assert.Equal(t, tc.status, registrarRow.Status)
		})
	}
}
