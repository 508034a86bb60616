package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/internal/repository"
)

// fakeStore is an in-memory ledger shared by the per-table fakes below.
type fakeStore struct {
	students    map[string]models.Student
	courses     map[string]models.Course
	enrollments map[string][]string
	payments    []models.Payment

	calls       int
	err         error
	failProgram string
	staleMax    int
	seq         int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students:    map[string]models.Student{},
		courses:     map[string]models.Course{},
		enrollments: map[string][]string{},
	}
}

func (f *fakeStore) touch() error {
	f.calls++
	return f.err
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) addCourse(program, name, price string) models.Course {
	c := models.Course{ID: f.nextID("course"), Program: program, Name: name, Price: decimal.RequireFromString(price), Semester: models.ActiveSemester}
	f.courses[c.ID] = c
	return c
}

type fakeStudents struct{ *fakeStore }

func (f fakeStudents) CreateWithEnrollments(ctx context.Context, student *models.Student, courseIDs []string) error {
	if err := f.touch(); err != nil {
		return err
	}
	if f.failProgram != "" && student.Program == f.failProgram {
		return fmt.Errorf("register student: %w", repository.ErrUnavailable)
	}
	for _, s := range f.students {
		if s.RegNumber == student.RegNumber {
			return fmt.Errorf("create student: %w", repository.ErrDuplicate)
		}
	}
	for _, id := range courseIDs {
		if _, ok := f.courses[id]; !ok {
			return fmt.Errorf("enroll student: %w", repository.ErrReferenceMissing)
		}
	}
	if student.ID == "" {
		student.ID = f.nextID("student")
	}
	student.CreatedAt = time.Now().UTC()
	f.students[student.ID] = *student
	f.enrollments[student.ID] = append([]string(nil), courseIDs...)
	return nil
}

func (f fakeStudents) DeleteCascade(ctx context.Context, regNumber string) error {
	if err := f.touch(); err != nil {
		return err
	}
	for id, s := range f.students {
		if s.RegNumber != regNumber {
			continue
		}
		delete(f.students, id)
		delete(f.enrollments, id)
		kept := f.payments[:0]
		for _, p := range f.payments {
			if p.StudentID != id {
				kept = append(kept, p)
			}
		}
		f.payments = kept
		return nil
	}
	return sql.ErrNoRows
}

func (f fakeStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	s, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f fakeStudents) FindByRegNumber(ctx context.Context, regNumber string) (*models.Student, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	for _, s := range f.students {
		if s.RegNumber == regNumber {
			found := s
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeStudents) List(ctx context.Context) ([]models.Student, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	out := make([]models.Student, 0, len(f.students))
	for _, s := range f.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegNumber < out[j].RegNumber })
	return out, nil
}

func (f fakeStudents) Exists(ctx context.Context, id string) (bool, error) {
	if err := f.touch(); err != nil {
		return false, err
	}
	_, ok := f.students[id]
	return ok, nil
}

func (f fakeStudents) MaxRegNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	if err := f.touch(); err != nil {
		return "", err
	}
	if f.staleMax > 0 {
		f.staleMax--
		return "", nil
	}
	current := ""
	for _, s := range f.students {
		if strings.HasPrefix(s.RegNumber, prefix) && len(s.RegNumber) == len(prefix)+3 && s.RegNumber > current {
			current = s.RegNumber
		}
	}
	return current, nil
}

type fakeCourses struct{ *fakeStore }

func (f fakeCourses) Create(ctx context.Context, course *models.Course) error {
	if err := f.touch(); err != nil {
		return err
	}
	course.ID = f.nextID("course")
	f.courses[course.ID] = *course
	return nil
}

func (f fakeCourses) Update(ctx context.Context, course *models.Course) error {
	if err := f.touch(); err != nil {
		return err
	}
	if _, ok := f.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	f.courses[course.ID] = *course
	return nil
}

func (f fakeCourses) Delete(ctx context.Context, id string) error {
	if err := f.touch(); err != nil {
		return err
	}
	if _, ok := f.courses[id]; !ok {
		return sql.ErrNoRows
	}
	if n, _ := f.CountEnrollments(ctx, id); n > 0 {
		return fmt.Errorf("delete course: %w", repository.ErrInUse)
	}
	delete(f.courses, id)
	return nil
}

func (f fakeCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (f fakeCourses) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	out := []models.Course{}
	for _, id := range ids {
		if c, ok := f.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f fakeCourses) List(ctx context.Context, program string) ([]models.Course, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	out := []models.Course{}
	for _, c := range f.courses {
		if c.Semester == models.ActiveSemester && (program == "" || c.Program == program) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Program != out[j].Program {
			return out[i].Program < out[j].Program
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f fakeCourses) SumPrices(ctx context.Context, ids []string) (decimal.Decimal, error) {
	if err := f.touch(); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, id := range ids {
		total = total.Add(f.courses[id].Price)
	}
	return total, nil
}

func (f fakeCourses) CountEnrollments(ctx context.Context, courseID string) (int, error) {
	if err := f.touch(); err != nil {
		return 0, err
	}
	count := 0
	for _, ids := range f.enrollments {
		for _, id := range ids {
			if id == courseID {
				count++
			}
		}
	}
	return count, nil
}

type fakeEnrollments struct{ *fakeStore }

func (f fakeEnrollments) ListCoursesForStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	out := []models.Course{}
	for _, id := range f.enrollments[studentID] {
		out = append(out, f.courses[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeEnrollments) ListPricedEnrollments(ctx context.Context) ([]models.PricedEnrollment, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	out := []models.PricedEnrollment{}
	for studentID := range f.enrollments {
		courses, _ := f.ListCoursesForStudent(ctx, studentID)
		for _, c := range courses {
			out = append(out, models.PricedEnrollment{StudentID: studentID, CourseName: c.Name, Price: c.Price})
		}
	}
	return out, nil
}

type fakePayments struct{ *fakeStore }

func (f fakePayments) Create(ctx context.Context, payment *models.Payment) error {
	if err := f.touch(); err != nil {
		return err
	}
	if _, ok := f.students[payment.StudentID]; !ok {
		return fmt.Errorf("record payment: %w", repository.ErrReferenceMissing)
	}
	payment.ID = f.nextID("payment")
	payment.CreatedAt = time.Now().UTC()
	f.payments = append(f.payments, *payment)
	return nil
}

func (f fakePayments) ListForStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	out := []models.Payment{}
	for _, p := range f.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidOn.After(out[j].PaidOn) })
	return out, nil
}

func (f fakePayments) SumForStudent(ctx context.Context, studentID string) (decimal.Decimal, error) {
	if err := f.touch(); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range f.payments {
		if p.StudentID == studentID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (f fakePayments) ListAmounts(ctx context.Context) ([]models.PaymentAmount, error) {
	if err := f.touch(); err != nil {
		return nil, err
	}
	out := make([]models.PaymentAmount, 0, len(f.payments))
	for _, p := range f.payments {
		out = append(out, models.PaymentAmount{StudentID: p.StudentID, Amount: p.Amount})
	}
	return out, nil
}

// ledgerFixture wires every service over one fake store.
type ledgerFixture struct {
	store      *fakeStore
	enrollment *EnrollmentService
	payments   *PaymentService
	courses    *CourseService
	reports    *ReportService
	regNumbers *RegistrationNumberGenerator
}

func newLedgerFixture() *ledgerFixture {
	store := newFakeStore()
	students := fakeStudents{store}
	gen := NewRegistrationNumberGenerator(students, nil, nil)
	cfg := EnrollmentConfig{RegistrationYear: "2025", BcryptCost: 4}
	return &ledgerFixture{
		store:      store,
		regNumbers: gen,
		enrollment: NewEnrollmentService(students, fakeCourses{store}, gen, nil, nil, nil, cfg),
		payments:   NewPaymentService(fakePayments{store}, students, fakeEnrollments{store}, nil, nil, nil, nil),
		courses:    NewCourseService(fakeCourses{store}, nil, nil, nil, nil, nil),
		reports:    NewReportService(students, fakeEnrollments{store}, fakePayments{store}, nil, nil),
	}
}
