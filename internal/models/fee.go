package models

import "github.com/shopspring/decimal"

// FeeStatus buckets a student's payment progress.
type FeeStatus string

// Status buckets are exhaustive and mutually exclusive.
const (
	FeeStatusNoCourses     FeeStatus = "No courses"
	FeeStatusFullyPaid     FeeStatus = "Fully paid"
	FeeStatusPartiallyPaid FeeStatus = "Partially paid"
	FeeStatusNotPaid       FeeStatus = "Not paid"
)

// FeeSummary is recomputed from enrollments and payments on every read.
type FeeSummary struct {
	StudentID   string          `json:"student_id"`
	TotalFee    decimal.Decimal `json:"total_fee"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// NewFeeSummary derives the outstanding balance; every view builds summaries through it.
func NewFeeSummary(studentID string, totalFee, totalPaid decimal.Decimal) FeeSummary {
	return FeeSummary{
		StudentID:   studentID,
		TotalFee:    totalFee,
		TotalPaid:   totalPaid,
		Outstanding: totalFee.Sub(totalPaid),
	}
}

// Status is shorthand for ClassifyFee(s).
func (s FeeSummary) Status() FeeStatus {
	return ClassifyFee(s)
}

// ClassifyFee buckets a summary. A zero fee is always "No courses", even with payments on file.
func ClassifyFee(s FeeSummary) FeeStatus {
	switch {
	case s.TotalFee.IsZero():
		return FeeStatusNoCourses
	case s.TotalPaid.IsPositive() && !s.Outstanding.IsPositive():
		return FeeStatusFullyPaid
	case s.TotalPaid.IsPositive():
		return FeeStatusPartiallyPaid
	default:
		return FeeStatusNotPaid
	}
}

// FeeSummaryView pairs a summary with its status for API responses.
type FeeSummaryView struct {
	FeeSummary
	Status FeeStatus `json:"status"`
}

// View returns the summary together with its status.
func (s FeeSummary) View() FeeSummaryView {
	return FeeSummaryView{FeeSummary: s, Status: ClassifyFee(s)}
}
