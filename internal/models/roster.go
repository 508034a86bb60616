package models

// StudentStatement is the student self-service view.
type StudentStatement struct {
	Student  Student    `json:"student"`
	Courses  []Course   `json:"courses"`
	Payments []Payment  `json:"payments"`
	Summary  FeeSummary `json:"summary"`
	Status   FeeStatus  `json:"status"`
}

// AccountantRosterRow is one student line of the institution-wide fee report.
type AccountantRosterRow struct {
	StudentID string     `json:"student_id"`
	RegNumber string     `json:"reg_number"`
	FullName  string     `json:"full_name"`
	Program   string     `json:"program"`
	Summary   FeeSummary `json:"summary"`
	Status    FeeStatus  `json:"status"`
}

// RegistrarRosterRow is one student line of the enrollment report.
type RegistrarRosterRow struct {
	StudentID   string     `json:"student_id"`
	RegNumber   string     `json:"reg_number"`
	FullName    string     `json:"full_name"`
	Program     string     `json:"program"`
	Courses     string     `json:"courses"`
	CourseCount int        `json:"course_count"`
	Summary     FeeSummary `json:"summary"`
	Status      FeeStatus  `json:"status"`
}
