package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	appErrors "github.com/noah-isme/tuition-ledger-api/pkg/errors"
	"github.com/noah-isme/tuition-ledger-api/pkg/export"
	"github.com/noah-isme/tuition-ledger-api/pkg/money"
)

type reportStudentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type reportEnrollmentRepository interface {
	ListCoursesForStudent(ctx context.Context, studentID string) ([]models.Course, error)
	ListPricedEnrollments(ctx context.Context) ([]models.PricedEnrollment, error)
}

type reportPaymentRepository interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	ListAmounts(ctx context.Context) ([]models.PaymentAmount, error)
}

// ReportService builds the reconciliation views. Every view derives its summary through
// models.NewFeeSummary and its status through models.ClassifyFee.
type ReportService struct {
	students    reportStudentRepository
	enrollments reportEnrollmentRepository
	payments    reportPaymentRepository
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewReportService constructs the reporting service.
func NewReportService(students reportStudentRepository, enrollments reportEnrollmentRepository, payments reportPaymentRepository, logger *zap.Logger, metrics *MetricsService) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{students: students, enrollments: enrollments, payments: payments, logger: logger, metrics: metrics}
}

// StudentStatement is the student self-view: profile, courses, payments, summary and status.
func (s *ReportService) StudentStatement(ctx context.Context, studentID string) (*models.StudentStatement, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		appErr := storeFailure(s.logger, s.metrics, "load student", err, zap.String("student_id", studentID))
		if appErr.Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.Wrap(err, appErr.Code, appErr.Status, "student not found")
		}
		return nil, appErr
	}
	courses, err := s.enrollments.ListCoursesForStudent(ctx, studentID)
	if err != nil {
		return nil, storeFailure(s.logger, s.metrics, "load enrollments", err, zap.String("student_id", studentID))
	}
	payments, err := s.payments.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, storeFailure(s.logger, s.metrics, "list payments", err, zap.String("student_id", studentID))
	}

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	summary := models.NewFeeSummary(student.ID, sumCoursePrices(courses), paid)
	return &models.StudentStatement{
		Student:  *student,
		Courses:  courses,
		Payments: payments,
		Summary:  summary,
		Status:   models.ClassifyFee(summary),
	}, nil
}

type rosterTotals struct {
	fee     map[string]decimal.Decimal
	paid    map[string]decimal.Decimal
	courses map[string][]string
}

func (s *ReportService) loadRoster(ctx context.Context) ([]models.Student, *rosterTotals, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("roster", time.Since(start)) }()

	students, err := s.students.List(ctx)
	if err != nil {
		return nil, nil, storeFailure(s.logger, s.metrics, "list students", err)
	}
	enrolled, err := s.enrollments.ListPricedEnrollments(ctx)
	if err != nil {
		return nil, nil, storeFailure(s.logger, s.metrics, "list enrollments", err)
	}
	amounts, err := s.payments.ListAmounts(ctx)
	if err != nil {
		return nil, nil, storeFailure(s.logger, s.metrics, "list payments", err)
	}

	totals := &rosterTotals{
		fee:     make(map[string]decimal.Decimal, len(students)),
		paid:    make(map[string]decimal.Decimal, len(students)),
		courses: make(map[string][]string, len(students)),
	}
	for _, e := range enrolled {
		totals.fee[e.StudentID] = totals.fee[e.StudentID].Add(e.Price)
		totals.courses[e.StudentID] = append(totals.courses[e.StudentID], e.CourseName)
	}
	for _, p := range amounts {
		totals.paid[p.StudentID] = totals.paid[p.StudentID].Add(p.Amount)
	}
	return students, totals, nil
}

// AccountantRoster returns one row per student ordered by registration number.
func (s *ReportService) AccountantRoster(ctx context.Context) ([]models.AccountantRosterRow, error) {
	students, totals, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.AccountantRosterRow, 0, len(students))
	for _, st := range students {
		summary := models.NewFeeSummary(st.ID, totals.fee[st.ID], totals.paid[st.ID])
		rows = append(rows, models.AccountantRosterRow{
			StudentID: st.ID,
			RegNumber: st.RegNumber,
			FullName:  st.FullName,
			Program:   st.Program,
			Summary:   summary,
			Status:    models.ClassifyFee(summary),
		})
	}
	return rows, nil
}

// RegistrarRoster returns one row per student with a readable course list, ordered by
// registration number. Students without courses are listed with an empty course list.
func (s *ReportService) RegistrarRoster(ctx context.Context) ([]models.RegistrarRosterRow, error) {
	students, totals, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.RegistrarRosterRow, 0, len(students))
	for _, st := range students {
		summary := models.NewFeeSummary(st.ID, totals.fee[st.ID], totals.paid[st.ID])
		names := totals.courses[st.ID]
		rows = append(rows, models.RegistrarRosterRow{
			StudentID:   st.ID,
			RegNumber:   st.RegNumber,
			FullName:    st.FullName,
			Program:     st.Program,
			Courses:     strings.Join(names, ", "),
			CourseCount: len(names),
			Summary:     summary,
			Status:      models.ClassifyFee(summary),
		})
	}
	return rows, nil
}

// ExportAccountantRoster renders the accountant roster as CSV or PDF.
func (s *ReportService) ExportAccountantRoster(ctx context.Context, format export.Format) ([]byte, error) {
	rows, err := s.AccountantRoster(ctx)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   "Student fee roster",
		Headers: []string{"Reg Number", "Full Name", "Program", "Total Fee", "Total Paid", "Outstanding", "Status"},
		Rows:    make([][]string, 0, len(rows)),
		Numeric: map[int]bool{3: true, 4: true, 5: true},
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, []string{
			r.RegNumber, r.FullName, r.Program,
			money.Format(r.Summary.TotalFee), money.Format(r.Summary.TotalPaid), money.Format(r.Summary.Outstanding),
			string(r.Status),
		})
	}
	return s.render(format, data)
}

// ExportRegistrarRoster renders the registrar roster as CSV or PDF.
func (s *ReportService) ExportRegistrarRoster(ctx context.Context, format export.Format) ([]byte, error) {
	rows, err := s.RegistrarRoster(ctx)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   "Enrolled students",
		Headers: []string{"Reg Number", "Full Name", "Program", "Courses", "Course Count", "Total Fee"},
		Rows:    make([][]string, 0, len(rows)),
		Numeric: map[int]bool{4: true, 5: true},
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, []string{
			r.RegNumber, r.FullName, r.Program, r.Courses,
			strconv.Itoa(r.CourseCount), money.Format(r.Summary.TotalFee),
		})
	}
	return s.render(format, data)
}

func (s *ReportService) render(format export.Format, data export.Dataset) ([]byte, error) {
	out, err := export.Render(format, data)
	if err != nil {
		s.logger.Error("render export", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return out, nil
}
