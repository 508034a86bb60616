package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
	"github.com/noah-isme/tuition-ledger-api/pkg/money"
)

const paidOnLayout = "2006-01-02"

// Payment channels used for metrics labels.
const (
	ChannelAdmin = "admin"
	ChannelSelf  = "self"
)

// DefaultSelfServiceMethods are the channels students may pay through when none are configured.
var DefaultSelfServiceMethods = []string{"MOMO", "BK"}

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListForStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	SumForStudent(ctx context.Context, studentID string) (decimal.Decimal, error)
}

type studentLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type studentCourseLister interface {
	ListCoursesForStudent(ctx context.Context, studentID string) ([]models.Course, error)
}

// PaymentService is the payment ledger: it appends payments and recomputes fee summaries.
type PaymentService struct {
	payments    paymentRepository
	students    studentLookup
	enrollments studentCourseLister
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	methods     []string
	now         func() time.Time
}

// NewPaymentService constructs the payment ledger service.
func NewPaymentService(payments paymentRepository, students studentLookup, enrollments studentCourseLister, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, selfServiceMethods []string) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(selfServiceMethods) == 0 {
		selfServiceMethods = DefaultSelfServiceMethods
	}
	return &PaymentService{
		payments:    payments,
		students:    students,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		methods:     selfServiceMethods,
		now:         time.Now,
	}
}

// SelfServiceMethods lists the methods accepted from students.
func (s *PaymentService) SelfServiceMethods() []string {
	return append([]string(nil), s.methods...)
}

func (s *PaymentService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func positiveAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, validationFailure(nil, "amount must be greater than zero")
	}
	normalised, err := money.Normalize(amount)
	if err != nil {
		return decimal.Zero, validationFailure(err, err.Error())
	}
	return normalised, nil
}

// RecordPayment appends an administrative payment. PaidOn is caller supplied and defaults to
// today when blank. A payment for an unknown student is a constraint violation and nothing is stored.
func (s *PaymentService) RecordPayment(ctx context.Context, req models.RecordPaymentRequest) (*models.Payment, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Method = strings.TrimSpace(req.Method)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err, "invalid payment payload")
	}
	amount, err := positiveAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	paidOn := s.today()
	if raw := strings.TrimSpace(req.PaidOn); raw != "" {
		paidOn, err = time.Parse(paidOnLayout, raw)
		if err != nil {
			return nil, validationFailure(err, "paid_on must be a YYYY-MM-DD date")
		}
	}

	payment := &models.Payment{
		StudentID: req.StudentID,
		Amount:    amount,
		Method:    req.Method,
		Note:      strings.TrimSpace(req.Note),
		PaidOn:    paidOn,
	}
	return s.append(ctx, payment, ChannelAdmin)
}

// PayAsStudent appends a self-service payment dated today through one of the configured methods.
func (s *PaymentService) PayAsStudent(ctx context.Context, studentID string, req models.SelfPaymentRequest) (*models.Payment, error) {
	req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err, "invalid payment payload")
	}
	allowed := false
	for _, m := range s.methods {
		if strings.EqualFold(m, req.Method) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, validationFailure(nil, "payment method must be one of "+strings.Join(s.methods, ", "))
	}
	amount, err := positiveAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		StudentID: studentID,
		Amount:    amount,
		Method:    req.Method,
		Note:      strings.TrimSpace(req.Note),
		PaidOn:    s.today(),
	}
	return s.append(ctx, payment, ChannelSelf)
}

func (s *PaymentService) append(ctx context.Context, payment *models.Payment, channel string) (*models.Payment, error) {
	if err := s.payments.Create(ctx, payment); err != nil {
		appErr := storeFailure(s.logger, s.metrics, "record payment", err, zap.String("student_id", payment.StudentID))
		if appErr.Code == appErrors.ErrConstraint.Code {
			return nil, appErrors.Wrap(err, appErr.Code, appErr.Status, "student does not exist")
		}
		return nil, appErr
	}
	amount, _ := payment.Amount.Float64()
	s.metrics.RecordPayment(channel, amount)
	s.logger.Info("payment recorded",
		zap.String("student_id", payment.StudentID),
		zap.String("amount", money.Format(payment.Amount)),
		zap.String("method", payment.Method),
		zap.String("channel", channel),
	)
	return payment, nil
}

func (s *PaymentService) ensureStudent(ctx context.Context, studentID string) error {
	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return storeFailure(s.logger, s.metrics, "load student", err, zap.String("student_id", studentID))
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}

// ListPayments returns a student's payments, most recent first.
func (s *PaymentService) ListPayments(ctx context.Context, studentID string) ([]models.Payment, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, storeFailure(s.logger, s.metrics, "list payments", err, zap.String("student_id", studentID))
	}
	return payments, nil
}

// LoadSummary recomputes the student's fee summary from enrollments and payments.
// Nothing is cached; every call reads the store.
func (s *PaymentService) LoadSummary(ctx context.Context, studentID string) (*models.FeeSummary, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	courses, err := s.enrollments.ListCoursesForStudent(ctx, studentID)
	if err != nil {
		return nil, storeFailure(s.logger, s.metrics, "load enrollments", err, zap.String("student_id", studentID))
	}
	paid, err := s.payments.SumForStudent(ctx, studentID)
	if err != nil {
		return nil, storeFailure(s.logger, s.metrics, "sum payments", err, zap.String("student_id", studentID))
	}
	summary := models.NewFeeSummary(studentID, sumCoursePrices(courses), paid)
	return &summary, nil
}

func sumCoursePrices(courses []models.Course) decimal.Decimal {
	total := decimal.Zero
	for _, c := range courses {
		total = total.Add(c.Price)
	}
	return total
}
