package models

import "github.com/shopspring/decimal"

// Enrollment links a student to a course contributing to their fee.
type Enrollment struct {
	StudentID string `db:"student_id" json:"student_id"`
	CourseID  string `db:"course_id" json:"course_id"`
}

// PricedEnrollment is one enrolled course with its price, used to build rosters.
type PricedEnrollment struct {
	StudentID  string          `db:"student_id"`
	CourseName string          `db:"course_name"`
	Price      decimal.Decimal `db:"price"`
}
