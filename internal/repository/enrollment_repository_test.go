package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentRepositoryEnrollStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WithArgs("s1", "c1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO enrollments").WithArgs("s1", "c2").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.EnrollStudent(context.Background(), "s1", []string{"c1", "c2"}))
	require.NoError(t, repo.EnrollStudent(context.Background(), "s1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollStudentDuplicateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WithArgs("s1", "c1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO enrollments").WithArgs("s1", "c1").WillReturnError(&pqUnique)
	mock.ExpectRollback()

	err := repo.EnrollStudent(context.Background(), "s1", []string{"c1", "c1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListCoursesForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.student_id = ?")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow("c1", "NETWORKING", "Routing", "500.00", 1, now, now).
			AddRow("c2", "NETWORKING", "Switching", "300.00", 1, now, now))

	courses, err := repo.ListCoursesForStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, courses, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListPricedEnrollments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT e.student_id, c.name AS course_name, c.price").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "course_name", "price"}).
			AddRow("s1", "Routing", "500.00").
			AddRow("s1", "Switching", "300.50"))

	rows, err := repo.ListPricedEnrollments(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "300.5", rows[1].Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
