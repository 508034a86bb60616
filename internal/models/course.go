package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActiveSemester is the only semester modelled by the ledger.
const ActiveSemester = 1

// Course is registrar-managed reference data priced per enrollment.
type Course struct {
	ID        string          `db:"id" json:"id"`
	Program   string          `db:"program" json:"program"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Semester  int             `db:"semester" json:"semester"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// CourseRequest is the registrar input for creating or updating a course.
type CourseRequest struct {
	Program string          `json:"program" validate:"required"`
	Name    string          `json:"name" validate:"required,max=255"`
	Price   decimal.Decimal `json:"price"`
}

// FeeQuoteRequest asks for the total fee of a prospective course selection.
type FeeQuoteRequest struct {
	CourseIDs []string `json:"course_ids"`
}

// FeeQuote is the total of a course selection.
type FeeQuote struct {
	CourseIDs []string        `json:"course_ids"`
	TotalFee  decimal.Decimal `json:"total_fee"`
}
