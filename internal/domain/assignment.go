package domain

import "time"

type SubmissionType string

const (
	SubmissionFile SubmissionType = "file"
	SubmissionText SubmissionType = "text"
	SubmissionBoth SubmissionType = "both"
)

type AssignmentStatus string

const (
	AssignmentActive AssignmentStatus = "active"
	AssignmentClosed AssignmentStatus = "closed"
	AssignmentDraft  AssignmentStatus = "draft"
)

const DefaultMaxMarks = 100

type Assignment struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Instructions        string           `json:"instructions,omitempty"`
	CourseID            string           `json:"courseId"`
	ChapterID           string           `json:"chapterId,omitempty"`
	TeacherID           string           `json:"teacherId"`
	MaxMarks            int              `json:"maxMarks"`
	DueDate             time.Time        `json:"dueDate"`
	AllowLateSubmission bool             `json:"allowLateSubmission"`
	SubmissionType      SubmissionType   `json:"submissionType"`
	Status              AssignmentStatus `json:"status"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

func (a Assignment) Overdue(now time.Time) bool {
	return now.After(a.DueDate)
}

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
	SubmissionReturned  SubmissionStatus = "returned"
)

type Grade struct {
	Marks    int       `json:"marks"`
	Feedback string    `json:"feedback,omitempty"`
	GradedAt time.Time `json:"gradedAt"`
	GradedBy string    `json:"gradedBy"`
}

// AssignmentSubmission is unique per (assignment, student).
type AssignmentSubmission struct {
	ID           string           `json:"id"`
	AssignmentID string           `json:"assignmentId"`
	StudentID    string           `json:"studentId"`
	Text         string           `json:"text,omitempty"`
	Attachments  []string         `json:"attachments,omitempty"`
	SubmittedAt  time.Time        `json:"submittedAt"`
	IsLate       bool             `json:"isLate"`
	Status       SubmissionStatus `json:"status"`
	Grade        *Grade           `json:"grade,omitempty"`
}

// AssignmentSummary is a teacher's list row.
type AssignmentSummary struct {
	Assignment
	TotalSubmissions  int `json:"totalSubmissions"`
	GradedSubmissions int `json:"gradedSubmissions"`
	PendingGrading    int `json:"pendingGrading"`
}

// StudentAssignment is a student's list row.
type StudentAssignment struct {
	Assignment
	SubmissionStatus StudentSubmissionStatus `json:"submissionStatus"`
}

type StudentSubmissionStatus struct {
	Submitted   bool       `json:"submitted"`
	IsOverdue   bool       `json:"isOverdue"`
	Grade       *Grade     `json:"grade,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// Bucket classifies a row for the pending/submitted/graded filter.
func (s StudentSubmissionStatus) Bucket() string {
	switch {
	case s.Grade != nil:
		return "graded"
	case s.Submitted:
		return "submitted"
	default:
		return "pending"
	}
}
