package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
)

func TestRegisterStudentComputesTotalFee(t *testing.T) {
	fx := newLedgerFixture()
	a := fx.store.addCourse("NETWORKING", "Routing", "500")
	b := fx.store.addCourse("NETWORKING", "Switching", "300")

	res, err := fx.enrollment.RegisterStudent(context.Background(), models.RegisterStudentRequest{
		RegNumber: "2025001",
		FullName:  " Uwase Smith ",
		Program:   "NETWORKING",
		Secret:    "s3cret",
		CourseIDs: []string{a.ID, b.ID, a.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Uwase Smith", res.Student.FullName)
	assert.True(t, res.TotalFee.Equal(decimal.NewFromInt(800)))
	assert.Len(t, res.Courses, 2)
	assert.Len(t, fx.store.enrollments[res.Student.ID], 2)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.Student.SecretHash), []byte("s3cret")))
}

func TestRegisterStudentValidationBeforeStore(t *testing.T) {
	fx := newLedgerFixture()
	base := models.RegisterStudentRequest{RegNumber: "2025001", FullName: "Uwase Smith", Program: "NETWORKING", CourseIDs: []string{"c1"}}

	cases := map[string]func(r *models.RegisterStudentRequest){
		"empty reg number": func(r *models.RegisterStudentRequest) { r.RegNumber = " " },
		"empty full name":  func(r *models.RegisterStudentRequest) { r.FullName = "" },
		"empty program":    func(r *models.RegisterStudentRequest) { r.Program = "" },
		"unknown program":  func(r *models.RegisterStudentRequest) { r.Program = "MEDICINE" },
		"no courses":       func(r *models.RegisterStudentRequest) { r.CourseIDs = nil },
		"blank course ids": func(r *models.RegisterStudentRequest) { r.CourseIDs = []string{" "} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := base
			mutate(&req)
			_, err := fx.enrollment.RegisterStudent(context.Background(), req)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
			assert.Zero(t, fx.store.calls)
		})
	}
}

func TestRegisterStudentRejectsForeignCourses(t *testing.T) {
	fx := newLedgerFixture()
	own := fx.store.addCourse("NETWORKING", "Routing", "500")
	other := fx.store.addCourse("SOFTWARE ENGINEERING", "Compilers", "700")

	_, err := fx.enrollment.RegisterStudent(context.Background(), models.RegisterStudentRequest{
		RegNumber: "2025001", FullName: "A", Program: "NETWORKING", CourseIDs: []string{own.ID, other.ID},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = fx.enrollment.RegisterStudent(context.Background(), models.RegisterStudentRequest{
		RegNumber: "2025001", FullName: "A", Program: "NETWORKING", CourseIDs: []string{"nope"},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, fx.store.students)
}

func TestRegisterStudentDefaultSecret(t *testing.T) {
	fx := newLedgerFixture()
	c := fx.store.addCourse("NETWORKING", "Routing", "500")

	res, err := fx.enrollment.RegisterStudent(context.Background(), models.RegisterStudentRequest{
		RegNumber: "2025001", FullName: "A", Program: "NETWORKING", CourseIDs: []string{c.ID},
	})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.Student.SecretHash), []byte("123")))
}

func TestRegisterStudentDuplicateRegNumber(t *testing.T) {
	fx := newLedgerFixture()
	c := fx.store.addCourse("NETWORKING", "Routing", "500")
	req := models.RegisterStudentRequest{RegNumber: "2025001", FullName: "A", Program: "NETWORKING", CourseIDs: []string{c.ID}}

	_, err := fx.enrollment.RegisterStudent(context.Background(), req)
	require.NoError(t, err)
	_, err = fx.enrollment.RegisterStudent(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrConstraint))
	assert.Len(t, fx.store.students, 1)
}

func TestRegisterWithGeneratedNumberRetriesOnCollision(t *testing.T) {
	fx := newLedgerFixture()
	c := fx.store.addCourse("NETWORKING", "Routing", "500")
	fx.store.students["existing"] = models.Student{ID: "existing", RegNumber: "2025001"}
	fx.store.staleMax = 1

	res, err := fx.enrollment.Register(context.Background(), models.RegisterStudentRequest{
		FullName: "Mugisha Brown", Program: "NETWORKING", CourseIDs: []string{c.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025002", res.Student.RegNumber)
}

func TestRegisterWithGeneratedNumberGivesUp(t *testing.T) {
	fx := newLedgerFixture()
	c := fx.store.addCourse("NETWORKING", "Routing", "500")
	fx.store.students["existing"] = models.Student{ID: "existing", RegNumber: "2025001"}
	fx.store.staleMax = 10

	_, err := fx.enrollment.RegisterWithGeneratedNumber(context.Background(), models.RegisterStudentRequest{
		FullName: "Mugisha Brown", Program: "NETWORKING", CourseIDs: []string{c.ID},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrDuplicate))
	assert.True(t, appErrors.Is(err, appErrors.ErrConstraint))
}

func TestRegisterWithGeneratedNumberReportsStuckSequence(t *testing.T) {
	fx := newLedgerFixture()
	c := fx.store.addCourse("NETWORKING", "Routing", "500")
	fx.store.students["existing"] = models.Student{ID: "existing", RegNumber: "2025001"}
	fx.store.students["imported"] = models.Student{ID: "imported", RegNumber: "2025abc"}

	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	students := fakeStudents{fx.store}
	gen := NewRegistrationNumberGenerator(students, logger, nil)
	svc := NewEnrollmentService(students, fakeCourses{fx.store}, gen, nil, logger, nil, EnrollmentConfig{RegistrationYear: "2025", BcryptCost: 4})

	_, err := svc.RegisterWithGeneratedNumber(context.Background(), models.RegisterStudentRequest{
		FullName: "Mugisha Brown", Program: "NETWORKING", CourseIDs: []string{c.ID},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	restarts := logs.FilterMessage("registration sequence restarted").All()
	require.Len(t, restarts, 3)
	assert.Equal(t, zapcore.ErrorLevel, restarts[0].Level)
	assert.Equal(t, "2025abc", restarts[0].ContextMap()["current_max"])

	exhausted := logs.FilterMessage("registration numbers exhausted").All()
	require.Len(t, exhausted, 1)
	assert.Equal(t, zapcore.ErrorLevel, exhausted[0].Level)
	assert.Equal(t, int64(3), exhausted[0].ContextMap()["attempts"])
}

func TestComputeTotalFee(t *testing.T) {
	fx := newLedgerFixture()
	a := fx.store.addCourse("NETWORKING", "Routing", "0.10")
	b := fx.store.addCourse("NETWORKING", "Switching", "0.20")

	total, err := fx.enrollment.ComputeTotalFee(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.Zero(t, fx.store.calls)

	total, err = fx.enrollment.ComputeTotalFee(context.Background(), []string{a.ID, b.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, "0.30", total.StringFixed(2))
}

func TestGenerateSampleStudents(t *testing.T) {
	fx := newLedgerFixture()
	fx.store.addCourse("SOFTWARE ENGINEERING", "Algorithms", "400")
	fx.store.addCourse("SOFTWARE ENGINEERING", "Databases", "350")
	fx.store.addCourse("NETWORKING", "Routing", "500")

	res, err := fx.enrollment.GenerateSampleStudents(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Requested)
	// INFO MANAGEMENT has no courses, so indexes 1 and 4 are skipped.
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Created, 4)

	first := res.Created[0]
	assert.Equal(t, "Iradukunda Smith", first.FullName)
	assert.Equal(t, "SOFTWARE ENGINEERING", first.Program)
	assert.Equal(t, "2025001", first.RegNumber)
	assert.Len(t, fx.store.enrollments[first.ID], 1)

	third := res.Created[1]
	assert.Equal(t, "Uwase Williams", third.FullName)
	assert.Equal(t, "NETWORKING", third.Program)
	assert.Len(t, fx.store.enrollments[third.ID], 1)

	fourth := res.Created[2]
	assert.Equal(t, "Mugisha Johnson", fourth.FullName)
	assert.Len(t, fx.store.enrollments[fourth.ID], 2)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(fourth.SecretHash), []byte("123")))
}

func TestGenerateSampleStudentsPartialFailure(t *testing.T) {
	fx := newLedgerFixture()
	fx.store.addCourse("SOFTWARE ENGINEERING", "Algorithms", "400")
	fx.store.addCourse("NETWORKING", "Routing", "500")
	fx.store.failProgram = "NETWORKING"

	res, err := fx.enrollment.GenerateSampleStudents(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPartialFailure))
	require.NotNil(t, res)
	assert.Len(t, res.Created, 1)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Skipped)
}

func TestGenerateSampleStudentsTotalFailure(t *testing.T) {
	fx := newLedgerFixture()
	fx.store.addCourse("NETWORKING", "Routing", "500")
	fx.store.failProgram = "NETWORKING"

	res, err := fx.enrollment.GenerateSampleStudents(context.Background(), 3)
	require.Error(t, err)
	assert.False(t, appErrors.Is(err, appErrors.ErrPartialFailure))
	assert.True(t, appErrors.Is(err, appErrors.ErrStoreUnavailable))
	assert.Empty(t, res.Created)
}

func TestGenerateSampleStudentsRejectsBadCount(t *testing.T) {
	fx := newLedgerFixture()
	_, err := fx.enrollment.GenerateSampleStudents(context.Background(), 0)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestDeleteStudentCascades(t *testing.T) {
	fx := newLedgerFixture()
	ctx := context.Background()
	c := fx.store.addCourse("NETWORKING", "Routing", "500")
	res, err := fx.enrollment.RegisterStudent(ctx, models.RegisterStudentRequest{
		RegNumber: "2025001", FullName: "A", Program: "NETWORKING", CourseIDs: []string{c.ID},
	})
	require.NoError(t, err)
	_, err = fx.payments.RecordPayment(ctx, models.RecordPaymentRequest{StudentID: res.Student.ID, Amount: decimal.NewFromInt(100), Method: "CASH"})
	require.NoError(t, err)

	require.NoError(t, fx.enrollment.DeleteStudent(ctx, "2025001"))
	assert.Empty(t, fx.store.payments)
	assert.Empty(t, fx.store.enrollments)

	_, err = fx.payments.LoadSummary(ctx, res.Student.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	err = fx.enrollment.DeleteStudent(ctx, "2025001")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
