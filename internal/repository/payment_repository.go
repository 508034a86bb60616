package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/tuition-ledger-api/internal/models"
	"github.com/noah-isme/tuition-ledger-api/pkg/money"
)

// PaymentRepository stores the append-only payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create appends a payment. A payment for an unknown student yields ErrReferenceMissing.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, student_id, amount, method, note, paid_on, created_at)
        VALUES (:id, :student_id, :amount, :method, :note, :paid_on, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return wrapError("record payment", err)
	}
	return nil
}

// ListForStudent returns a student's payments, most recent first.
func (r *PaymentRepository) ListForStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	query := r.db.Rebind(`SELECT id, student_id, amount, method, note, paid_on, created_at
        FROM payments WHERE student_id = ?
        ORDER BY paid_on DESC, created_at DESC`)
	payments := []models.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, wrapError("list payments", err)
	}
	return payments, nil
}

// SumForStudent returns the exact total a student has paid; zero when there are no payments.
func (r *PaymentRepository) SumForStudent(ctx context.Context, studentID string) (decimal.Decimal, error) {
	query := r.db.Rebind("SELECT amount FROM payments WHERE student_id = ?")
	var amounts []decimal.Decimal
	if err := r.db.SelectContext(ctx, &amounts, query, studentID); err != nil {
		return decimal.Zero, wrapError("sum payments", err)
	}
	return money.Sum(amounts...), nil
}

// ListAmounts returns every payment amount keyed by student.
func (r *PaymentRepository) ListAmounts(ctx context.Context) ([]models.PaymentAmount, error) {
	const query = `SELECT student_id, amount FROM payments ORDER BY student_id ASC`
	rows := []models.PaymentAmount{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrapError("list payment amounts", err)
	}
	return rows, nil
}
