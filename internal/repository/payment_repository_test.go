package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
)

var pqUnique = pq.Error{Code: "23505"}

func TestPaymentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	paidOn := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), "s1", "300", "MOMO", "", paidOn, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payment := &models.Payment{StudentID: "s1", Amount: decimal.NewFromInt(300), Method: "MOMO", PaidOn: paidOn}
	require.NoError(t, repo.Create(context.Background(), payment))
	assert.NotEmpty(t, payment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryCreateUnknownStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec("INSERT INTO payments").WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Create(context.Background(), &models.Payment{StudentID: "ghost", Amount: decimal.NewFromInt(1), Method: "BK"})
	assert.ErrorIs(t, err, ErrReferenceMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListForStudentOrdering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY paid_on DESC, created_at DESC")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "amount", "method", "note", "paid_on", "created_at"}).
			AddRow("p2", "s1", "500.00", "BK", "", now, now).
			AddRow("p1", "s1", "300.00", "MOMO", "first", now.AddDate(0, 0, -1), now))

	payments, err := repo.ListForStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "p2", payments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySumForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT amount FROM payments WHERE student_id = ?")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("300.10").AddRow("499.90"))
	mock.ExpectQuery("SELECT amount FROM payments").
		WithArgs("s2").
		WillReturnRows(sqlmock.NewRows([]string{"amount"}))

	total, err := repo.SumForStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(800)))

	none, err := repo.SumForStudent(context.Background(), "s2")
	require.NoError(t, err)
	assert.True(t, none.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
