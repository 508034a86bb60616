package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an append-only ledger entry against a student.
type Payment struct {
	ID        string          `db:"id" json:"id"`
	StudentID string          `db:"student_id" json:"student_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Method    string          `db:"method" json:"method"`
	Note      string          `db:"note" json:"note,omitempty"`
	PaidOn    time.Time       `db:"paid_on" json:"paid_on"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// PaymentAmount is the minimal payment projection used to build rosters.
type PaymentAmount struct {
	StudentID string          `db:"student_id"`
	Amount    decimal.Decimal `db:"amount"`
}

// RecordPaymentRequest is the administrative payment input. PaidOn is a YYYY-MM-DD date.
type RecordPaymentRequest struct {
	StudentID string          `json:"student_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,max=64"`
	Note      string          `json:"note" validate:"max=500"`
	PaidOn    string          `json:"paid_on"`
}

// SelfPaymentRequest is the student self-service payment input.
type SelfPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"required"`
	Note   string          `json:"note" validate:"max=500"`
}
