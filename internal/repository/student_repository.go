package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
)

const studentColumns = "id, reg_number, full_name, program, secret_hash, created_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func prepareStudent(student *models.Student) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
}

const insertStudentQuery = `INSERT INTO students (id, reg_number, full_name, program, secret_hash, created_at)
        VALUES (:id, :reg_number, :full_name, :program, :secret_hash, :created_at)`

// Create inserts a student without enrollments.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	prepareStudent(student)
	if _, err := r.db.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		return wrapError("create student", err)
	}
	return nil
}

// CreateWithEnrollments inserts the student and its enrollments in one transaction.
// Either both are visible afterwards or neither is.
func (r *StudentRepository) CreateWithEnrollments(ctx context.Context, student *models.Student, courseIDs []string) (err error) {
	prepareStudent(student)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapError("begin registration transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		return wrapError("create student", err)
	}
	if err = insertEnrollments(ctx, tx, student.ID, courseIDs); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return wrapError("commit registration", err)
	}
	return nil
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE id = ?")
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, wrapError("find student by id", err)
	}
	return &student, nil
}

// FindByRegNumber returns a student by registration number.
func (r *StudentRepository) FindByRegNumber(ctx context.Context, regNumber string) (*models.Student, error) {
	query := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE reg_number = ?")
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, regNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, wrapError("find student by reg number", err)
	}
	return &student, nil
}

// List returns every student ordered by registration number.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students ORDER BY reg_number ASC"
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, wrapError("list students", err)
	}
	return students, nil
}

// Exists reports whether a student with the id is stored.
func (r *StudentRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := r.db.Rebind("SELECT 1 FROM students WHERE id = ? LIMIT 1")
	var found int
	if err := r.db.GetContext(ctx, &found, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, wrapError("check student", err)
	}
	return true, nil
}

// MaxRegNumberWithPrefix returns the largest registration number made of prefix plus three
// characters, or an empty string when none exists.
func (r *StudentRepository) MaxRegNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	query := r.db.Rebind("SELECT MAX(reg_number) FROM students WHERE reg_number LIKE ?")
	var current sql.NullString
	if err := r.db.GetContext(ctx, &current, query, prefix+"___"); err != nil {
		return "", wrapError("max reg number", err)
	}
	return current.String, nil
}

// DeleteCascade removes the student; enrollments and payments go with it through the
// foreign keys. Returns sql.ErrNoRows when nothing matched.
func (r *StudentRepository) DeleteCascade(ctx context.Context, regNumber string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapError("begin delete transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM students WHERE reg_number = ?"), regNumber)
	if err != nil {
		return wrapError("delete student", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows affected: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if err = tx.Commit(); err != nil {
		return wrapError("commit delete", err)
	}
	return nil
}
