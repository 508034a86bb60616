package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
	"github.com/noah-isme/tuition-ledger-api/pkg/money"
)

// DefaultPrograms is the closed program list used when none is configured.
var DefaultPrograms = []string{"SOFTWARE ENGINEERING", "INFO MANAGEMENT", "NETWORKING"}

var (
	sampleFirstNames = []string{"Iradukunda", "Niyonsenga", "Uwase", "Mugisha", "Ishimwe"}
	sampleLastNames  = []string{"Smith", "Johnson", "Brown", "Garcia", "Williams"}
)

type enrollmentStudentRepository interface {
	CreateWithEnrollments(ctx context.Context, student *models.Student, courseIDs []string) error
	DeleteCascade(ctx context.Context, regNumber string) error
}

type enrollmentCourseRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Course, error)
	SumPrices(ctx context.Context, ids []string) (decimal.Decimal, error)
	List(ctx context.Context, program string) ([]models.Course, error)
}

type regNumberSource interface {
	Next(ctx context.Context, year string) (string, error)
}

// EnrollmentConfig tunes registration.
type EnrollmentConfig struct {
	RegistrationYear    string
	DefaultSecret       string
	RegistrationRetries int
	BcryptCost          int
	Programs            []string
}

// EnrollmentService registers students with their courses and computes their fee.
type EnrollmentService struct {
	students  enrollmentStudentRepository
	courses   enrollmentCourseRepository
	regNumber regNumberSource
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    EnrollmentConfig
	now       func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(students enrollmentStudentRepository, courses enrollmentCourseRepository, regNumber regNumberSource, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cfg EnrollmentConfig) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RegistrationRetries <= 0 {
		cfg.RegistrationRetries = 3
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.DefaultSecret == "" {
		cfg.DefaultSecret = "123"
	}
	if len(cfg.Programs) == 0 {
		cfg.Programs = DefaultPrograms
	}
	return &EnrollmentService{
		students:  students,
		courses:   courses,
		regNumber: regNumber,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    cfg,
		now:       time.Now,
	}
}

// Programs returns the closed set of programs students can register for.
func (s *EnrollmentService) Programs() []string {
	return append([]string(nil), s.config.Programs...)
}

func (s *EnrollmentService) knownProgram(program string) bool {
	for _, p := range s.config.Programs {
		if p == program {
			return true
		}
	}
	return false
}

func (s *EnrollmentService) registrationYear() string {
	if s.config.RegistrationYear != "" {
		return s.config.RegistrationYear
	}
	return s.now().Format("2006")
}

// Register registers the student, generating a registration number when none is supplied.
func (s *EnrollmentService) Register(ctx context.Context, req models.RegisterStudentRequest) (*models.RegistrationResult, error) {
	if strings.TrimSpace(req.RegNumber) == "" {
		return s.RegisterWithGeneratedNumber(ctx, req)
	}
	return s.RegisterStudent(ctx, req)
}

// RegisterStudent creates the student and its enrollments atomically and returns the total fee.
// Every course must exist, belong to the student's program and run in the active semester.
func (s *EnrollmentService) RegisterStudent(ctx context.Context, req models.RegisterStudentRequest) (*models.RegistrationResult, error) {
	req.RegNumber = strings.TrimSpace(req.RegNumber)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Program = strings.TrimSpace(req.Program)
	if req.RegNumber == "" {
		return nil, validationFailure(nil, "registration number is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err, "invalid registration payload")
	}
	if !s.knownProgram(req.Program) {
		return nil, validationFailure(nil, fmt.Sprintf("unknown program %q", req.Program))
	}
	courseIDs := uniqueIDs(req.CourseIDs)
	if len(courseIDs) == 0 {
		return nil, validationFailure(nil, "at least one course is required")
	}

	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, storeFailure(s.logger, s.metrics, "load courses", err)
	}
	if err := checkCourseSelection(req.Program, courseIDs, courses); err != nil {
		return nil, err
	}

	secret := req.Secret
	if secret == "" {
		secret = s.config.DefaultSecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash secret")
	}

	student := &models.Student{
		RegNumber:  req.RegNumber,
		FullName:   req.FullName,
		Program:    req.Program,
		SecretHash: string(hash),
	}
	if err := s.students.CreateWithEnrollments(ctx, student, courseIDs); err != nil {
		return nil, storeFailure(s.logger, s.metrics, "register student", err, zap.String("reg_number", req.RegNumber))
	}

	total := sumCoursePrices(courses)

	s.metrics.RecordRegistration()
	s.logger.Info("student registered",
		zap.String("reg_number", student.RegNumber),
		zap.String("program", student.Program),
		zap.Int("courses", len(courses)),
		zap.String("total_fee", money.Format(total)),
	)
	return &models.RegistrationResult{Student: *student, Courses: courses, TotalFee: total}, nil
}

// RegisterWithGeneratedNumber allocates the next registration number and registers the student,
// retrying with a fresh number when a concurrent registration took the same one.
func (s *EnrollmentService) RegisterWithGeneratedNumber(ctx context.Context, req models.RegisterStudentRequest) (*models.RegistrationResult, error) {
	year := s.registrationYear()
	var lastErr error
	for attempt := 1; attempt <= s.config.RegistrationRetries; attempt++ {
		regNumber, err := s.regNumber.Next(ctx, year)
		if err != nil {
			return nil, err
		}
		req.RegNumber = regNumber
		result, err := s.RegisterStudent(ctx, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		lastErr = err
		s.metrics.RecordRegistrationRetry()
		s.logger.Warn("registration number taken, retrying",
			zap.String("reg_number", regNumber),
			zap.Int("attempt", attempt),
		)
	}
	s.logger.Error("registration numbers exhausted",
		zap.String("year", year),
		zap.Int("attempts", s.config.RegistrationRetries),
	)
	return nil, lastErr
}

// ComputeTotalFee sums the prices of the distinct courses. An empty selection costs zero
// and touches no store.
func (s *EnrollmentService) ComputeTotalFee(ctx context.Context, courseIDs []string) (decimal.Decimal, error) {
	ids := uniqueIDs(courseIDs)
	if len(ids) == 0 {
		return decimal.Zero, nil
	}
	total, err := s.courses.SumPrices(ctx, ids)
	if err != nil {
		return decimal.Zero, storeFailure(s.logger, s.metrics, "sum course prices", err)
	}
	return total, nil
}

// Quote prices a prospective course selection.
func (s *EnrollmentService) Quote(ctx context.Context, req models.FeeQuoteRequest) (*models.FeeQuote, error) {
	ids := uniqueIDs(req.CourseIDs)
	total, err := s.ComputeTotalFee(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &models.FeeQuote{CourseIDs: ids, TotalFee: total}, nil
}

// GenerateSampleStudents registers n synthetic students through the normal registration path.
// Programs cycle through the configured list and each student takes one to four courses of
// their program. Programs without courses are skipped. When some registrations fail and others
// succeed the result is returned together with a PartialFailure error.
func (s *EnrollmentService) GenerateSampleStudents(ctx context.Context, n int) (*models.SampleBatchResult, error) {
	if err := s.validator.Struct(models.SampleStudentsRequest{Count: n}); err != nil {
		return nil, validationFailure(err, "sample count must be between 1 and 500")
	}

	catalog, err := s.courses.List(ctx, "")
	if err != nil {
		return nil, storeFailure(s.logger, s.metrics, "load course catalog", err)
	}
	pools := make(map[string][]models.Course)
	for _, c := range catalog {
		pools[c.Program] = append(pools[c.Program], c)
	}

	result := &models.SampleBatchResult{Requested: n, Created: []models.Student{}}
	var lastErr error
	for i := 0; i < n; i++ {
		program := s.config.Programs[i%len(s.config.Programs)]
		pool := pools[program]
		if len(pool) == 0 {
			result.Skipped++
			continue
		}

		req := models.RegisterStudentRequest{
			FullName:  sampleFirstNames[i%len(sampleFirstNames)] + " " + sampleLastNames[(i*2)%len(sampleLastNames)],
			Program:   program,
			Secret:    s.config.DefaultSecret,
			CourseIDs: sampleCourseIDs(pool, i),
		}
		registered, err := s.RegisterWithGeneratedNumber(ctx, req)
		if err != nil {
			result.Failed++
			lastErr = err
			s.logger.Warn("sample student failed", zap.Int("index", i), zap.Error(err))
			continue
		}
		result.Created = append(result.Created, registered.Student)
	}

	switch {
	case result.Failed > 0 && len(result.Created) > 0:
		return result, appErrors.Wrap(lastErr, appErrors.ErrPartialFailure.Code, appErrors.ErrPartialFailure.Status,
			fmt.Sprintf("%d of %d sample students created", len(result.Created), n))
	case result.Failed > 0:
		return result, lastErr
	}
	return result, nil
}

func sampleCourseIDs(pool []models.Course, i int) []string {
	limit := 1 + i%4
	if limit > len(pool) {
		limit = len(pool)
	}
	ids := make([]string, 0, limit)
	for c := 0; c < limit; c++ {
		ids = append(ids, pool[(i+c)%len(pool)].ID)
	}
	return ids
}

// DeleteStudent removes a student with all enrollments and payments. Callers must have
// obtained explicit confirmation first.
func (s *EnrollmentService) DeleteStudent(ctx context.Context, regNumber string) error {
	regNumber = strings.TrimSpace(regNumber)
	if regNumber == "" {
		return validationFailure(nil, "registration number is required")
	}
	if err := s.students.DeleteCascade(ctx, regNumber); err != nil {
		appErr := storeFailure(s.logger, s.metrics, "delete student", err, zap.String("reg_number", regNumber))
		if appErr.Code == appErrors.ErrNotFound.Code {
			return appErrors.Wrap(err, appErr.Code, appErr.Status, "student not found")
		}
		return appErr
	}
	s.logger.Info("student deleted", zap.String("reg_number", regNumber))
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func checkCourseSelection(program string, ids []string, courses []models.Course) error {
	found := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		found[c.ID] = c
	}
	for _, id := range ids {
		course, ok := found[id]
		switch {
		case !ok:
			return validationFailure(nil, fmt.Sprintf("course %s does not exist", id))
		case course.Semester != models.ActiveSemester:
			return validationFailure(nil, fmt.Sprintf("course %s is not offered in the active semester", course.Name))
		case course.Program != program:
			return validationFailure(nil, fmt.Sprintf("course %s belongs to %s", course.Name, course.Program))
		}
	}
	return nil
}
