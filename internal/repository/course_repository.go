package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/pkg/money"
)

const courseColumns = "id, program, name, price, semester, created_at, updated_at"

// CourseRepository manages the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.Semester == 0 {
		course.Semester = models.ActiveSemester
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, program, name, price, semester, created_at, updated_at)
        VALUES (:id, :program, :name, :price, :semester, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return wrapError("create course", err)
	}
	return nil
}

// Update rewrites program, name and price. Returns sql.ErrNoRows when the course does not exist.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET program = :program, name = :name, price = :price, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return wrapError("update course", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course. Enrolled courses are protected by the store and yield ErrInUse.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM courses WHERE id = ?"), id)
	if err != nil {
		return storeError("delete course", err, ErrInUse)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := r.db.Rebind("SELECT " + courseColumns + " FROM courses WHERE id = ?")
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, wrapError("find course", err)
	}
	return &course, nil
}

// FindByIDs returns the subset of ids that exist. Missing ids are silently absent.
func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	courses := []models.Course{}
	if len(ids) == 0 {
		return courses, nil
	}
	query, args, err := sqlx.In("SELECT "+courseColumns+" FROM courses WHERE id IN (?) ORDER BY name ASC", ids)
	if err != nil {
		return nil, fmt.Errorf("build course lookup: %w", err)
	}
	if err := r.db.SelectContext(ctx, &courses, r.db.Rebind(query), args...); err != nil {
		return nil, wrapError("find courses", err)
	}
	return courses, nil
}

// List returns active-semester courses, optionally restricted to one program.
func (r *CourseRepository) List(ctx context.Context, program string) ([]models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE semester = ?"
	args := []interface{}{models.ActiveSemester}
	if program != "" {
		query += " AND program = ?"
		args = append(args, program)
	}
	query += " ORDER BY program ASC, name ASC"

	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, r.db.Rebind(query), args...); err != nil {
		return nil, wrapError("list courses", err)
	}
	return courses, nil
}

// SumPrices adds the prices of the given courses exactly. Unknown ids contribute nothing.
func (r *CourseRepository) SumPrices(ctx context.Context, ids []string) (decimal.Decimal, error) {
	if len(ids) == 0 {
		return decimal.Zero, nil
	}
	query, args, err := sqlx.In("SELECT price FROM courses WHERE id IN (?)", ids)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build price lookup: %w", err)
	}
	var prices []decimal.Decimal
	if err := r.db.SelectContext(ctx, &prices, r.db.Rebind(query), args...); err != nil {
		return decimal.Zero, wrapError("sum course prices", err)
	}
	return money.Sum(prices...), nil
}

// CountEnrollments returns how many students are enrolled in the course.
func (r *CourseRepository) CountEnrollments(ctx context.Context, courseID string) (int, error) {
	query := r.db.Rebind("SELECT COUNT(*) FROM enrollments WHERE course_id = ?")
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, wrapError("count course enrollments", err)
	}
	return count, nil
}
