package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Student represents a learner registered for tuition in the institution.
type Student struct {
	ID         string    `db:"id" json:"id"`
	RegNumber  string    `db:"reg_number" json:"reg_number"`
	FullName   string    `db:"full_name" json:"full_name"`
	Program    string    `db:"program" json:"program"`
	SecretHash string    `db:"secret_hash" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RegistrationResult is returned after a student and their enrollments are persisted.
type RegistrationResult struct {
	Student  Student         `json:"student"`
	Courses  []Course        `json:"courses"`
	TotalFee decimal.Decimal `json:"total_fee"`
}

// SampleBatchResult reports the outcome of synthetic student generation.
type SampleBatchResult struct {
	Requested int       `json:"requested"`
	Created   []Student `json:"created"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
}

// RegisterStudentRequest is the registrar input for registering a student with their courses.
type RegisterStudentRequest struct {
	RegNumber string   `json:"reg_number"`
	FullName  string   `json:"full_name" validate:"required"`
	Program   string   `json:"program" validate:"required"`
	Secret    string   `json:"secret"`
	CourseIDs []string `json:"course_ids" validate:"required,min=1,dive,required"`
}

// SampleStudentsRequest asks for n synthetic students.
type SampleStudentsRequest struct {
	Count int `json:"count" validate:"required,min=1,max=500"`
}
