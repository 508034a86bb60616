package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// EnrollStudent records every (student, course) pair in one transaction.
// An empty course list is a no-op.
func (r *EnrollmentRepository) EnrollStudent(ctx context.Context, studentID string, courseIDs []string) (err error) {
	if len(courseIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapError("begin enrollment transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertEnrollments(ctx, tx, studentID, courseIDs); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return wrapError("commit enrollments", err)
	}
	return nil
}

func insertEnrollments(ctx context.Context, tx *sqlx.Tx, studentID string, courseIDs []string) error {
	query := tx.Rebind("INSERT INTO enrollments (student_id, course_id) VALUES (?, ?)")
	for _, courseID := range courseIDs {
		if _, err := tx.ExecContext(ctx, query, studentID, courseID); err != nil {
			return wrapError("enroll student", err)
		}
	}
	return nil
}

// ListCoursesForStudent returns the courses a student is enrolled in ordered by name.
func (r *EnrollmentRepository) ListCoursesForStudent(ctx context.Context, studentID string) ([]models.Course, error) {
	query := r.db.Rebind(`SELECT c.id, c.program, c.name, c.price, c.semester, c.created_at, c.updated_at
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = ?
        ORDER BY c.name ASC`)
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, wrapError("list student courses", err)
	}
	return courses, nil
}

// ListPricedEnrollments returns every enrollment with its course name and price, grouped by student.
func (r *EnrollmentRepository) ListPricedEnrollments(ctx context.Context) ([]models.PricedEnrollment, error) {
	const query = `SELECT e.student_id, c.name AS course_name, c.price
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        ORDER BY e.student_id ASC, c.name ASC`
	rows := []models.PricedEnrollment{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrapError("list priced enrollments", err)
	}
	return rows, nil
}
