package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

// AssignmentService runs the assignment workflow for teachers and students.
type AssignmentService struct {
	assignments AssignmentRepository
	courses     CourseRepository
	enrollments EnrollmentRepository
	clock       calendar.Clock
	log         *zap.Logger
}

func NewAssignmentService(
	assignments AssignmentRepository,
	courses CourseRepository,
	enrollments EnrollmentRepository,
	clock calendar.Clock,
	log *zap.Logger,
) *AssignmentService {
	return &AssignmentService{assignments: assignments, courses: courses, enrollments: enrollments, clock: clock, log: log}
}

type AssignmentInput struct {
	Title               string
	Description         string
	Instructions        string
	CourseID            string
	ChapterID           string
	MaxMarks            int
	DueDate             time.Time
	AllowLateSubmission bool
	SubmissionType      domain.SubmissionType
	Status              domain.AssignmentStatus
}

func (in *AssignmentInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.CourseID == "" || in.DueDate.IsZero() {
		return domain.Invalid("title, courseId and dueDate are required")
	}
	if in.MaxMarks == 0 {
		in.MaxMarks = domain.DefaultMaxMarks
	}
	if in.MaxMarks < 0 {
		return domain.Invalid("maxMarks must be positive")
	}
	switch in.SubmissionType {
	case "":
		in.SubmissionType = domain.SubmissionBoth
	case domain.SubmissionFile, domain.SubmissionText, domain.SubmissionBoth:
	default:
		return domain.Invalid("submissionType must be file, text or both")
	}
	switch in.Status {
	case "":
		in.Status = domain.AssignmentActive
	case domain.AssignmentActive, domain.AssignmentClosed, domain.AssignmentDraft:
	default:
		return domain.Invalid("status must be active, closed or draft")
	}
	return nil
}

func (s *AssignmentService) ownCourse(ctx context.Context, teacherID, courseID string) error {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if course.TeacherID != teacherID {
		return domain.ErrForbidden
	}
	return nil
}

func (s *AssignmentService) ownAssignment(ctx context.Context, teacherID, assignmentID string) (domain.Assignment, error) {
	a, err := s.assignments.Get(ctx, assignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if a.TeacherID != teacherID {
		return domain.Assignment{}, domain.ErrForbidden
	}
	return a, nil
}

func (s *AssignmentService) Create(ctx context.Context, teacherID string, in AssignmentInput) (domain.Assignment, error) {
	if err := in.normalize(); err != nil {
		return domain.Assignment{}, err
	}
	if err := s.ownCourse(ctx, teacherID, in.CourseID); err != nil {
		return domain.Assignment{}, err
	}
	now := s.clock.Now().UTC()
	a := domain.Assignment{
		ID:                  uuid.NewString(),
		Title:               in.Title,
		Description:         in.Description,
		Instructions:        in.Instructions,
		CourseID:            in.CourseID,
		ChapterID:           in.ChapterID,
		TeacherID:           teacherID,
		MaxMarks:            in.MaxMarks,
		DueDate:             in.DueDate.UTC(),
		AllowLateSubmission: in.AllowLateSubmission,
		SubmissionType:      in.SubmissionType,
		Status:              in.Status,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.assignments.Create(ctx, a); err != nil {
		return domain.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return a, nil
}

func (s *AssignmentService) Update(ctx context.Context, teacherID, assignmentID string, in AssignmentInput) (domain.Assignment, error) {
	a, err := s.ownAssignment(ctx, teacherID, assignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}
	in.CourseID = a.CourseID
	if err := in.normalize(); err != nil {
		return domain.Assignment{}, err
	}
	a.Title = in.Title
	a.Description = in.Description
	a.Instructions = in.Instructions
	a.ChapterID = in.ChapterID
	a.MaxMarks = in.MaxMarks
	a.DueDate = in.DueDate.UTC()
	a.AllowLateSubmission = in.AllowLateSubmission
	a.SubmissionType = in.SubmissionType
	a.Status = in.Status
	a.UpdatedAt = s.clock.Now().UTC()
	if err := s.assignments.Update(ctx, a); err != nil {
		return domain.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return a, nil
}

func (s *AssignmentService) Delete(ctx context.Context, teacherID, assignmentID string) error {
	if _, err := s.ownAssignment(ctx, teacherID, assignmentID); err != nil {
		return err
	}
	return errors.Wrap(s.assignments.Delete(ctx, assignmentID), "deleting assignment")
}

// TeacherAssignments lists a teacher's assignments with grading counters.
func (s *AssignmentService) TeacherAssignments(ctx context.Context, teacherID string) ([]domain.AssignmentSummary, error) {
	list, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments")
	}
	out := make([]domain.AssignmentSummary, 0, len(list))
	for _, a := range list {
		subs, err := s.assignments.ListSubmissions(ctx, a.ID)
		if err != nil {
			return nil, errors.Wrap(err, "listing submissions")
		}
		row := domain.AssignmentSummary{Assignment: a, TotalSubmissions: len(subs)}
		for _, sub := range subs {
			if sub.Status == domain.SubmissionGraded {
				row.GradedSubmissions++
			}
		}
		row.PendingGrading = row.TotalSubmissions - row.GradedSubmissions
		out = append(out, row)
	}
	return out, nil
}

func (s *AssignmentService) Submissions(ctx context.Context, teacherID, assignmentID string) ([]domain.AssignmentSubmission, error) {
	if _, err := s.ownAssignment(ctx, teacherID, assignmentID); err != nil {
		return nil, err
	}
	return s.assignments.ListSubmissions(ctx, assignmentID)
}

// Grade scores a submission; marks may not exceed the assignment maximum.
func (s *AssignmentService) Grade(ctx context.Context, teacherID, submissionID string, marks int, feedback string) (domain.AssignmentSubmission, error) {
	sub, err := s.assignments.GetSubmission(ctx, submissionID)
	if err != nil {
		return domain.AssignmentSubmission{}, err
	}
	a, err := s.ownAssignment(ctx, teacherID, sub.AssignmentID)
	if err != nil {
		return domain.AssignmentSubmission{}, err
	}
	if marks < 0 || marks > a.MaxMarks {
		return domain.AssignmentSubmission{}, domain.Invalid("marks must be between 0 and maxMarks")
	}
	graded, err := s.assignments.SaveGrade(ctx, submissionID, domain.Grade{
		Marks:    marks,
		Feedback: feedback,
		GradedAt: s.clock.Now().UTC(),
		GradedBy: teacherID,
	})
	if err != nil {
		return domain.AssignmentSubmission{}, errors.Wrap(err, "saving grade")
	}
	s.log.Info("submission graded", zap.String("submission_id", submissionID), zap.Int("marks", marks))
	return graded, nil
}

// StudentAssignments lists active assignments of the student's courses.
// status filters by pending, submitted or graded; empty keeps everything.
func (s *AssignmentService) StudentAssignments(ctx context.Context, studentID, status string) ([]domain.StudentAssignment, error) {
	switch status {
	case "", "pending", "submitted", "graded":
	default:
		return nil, domain.Invalid("status must be pending, submitted or graded")
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "listing enrollments")
	}
	courseIDs := make([]string, len(enrollments))
	for i, e := range enrollments {
		courseIDs[i] = e.CourseID
	}
	list, err := s.assignments.ListActiveByCourses(ctx, courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "listing assignments")
	}
	subs, err := s.assignments.ListSubmissionsByStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}
	byAssignment := make(map[string]domain.AssignmentSubmission, len(subs))
	for _, sub := range subs {
		byAssignment[sub.AssignmentID] = sub
	}

	now := s.clock.Now()
	out := make([]domain.StudentAssignment, 0, len(list))
	for _, a := range list {
		row := domain.StudentAssignment{Assignment: a}
		if sub, ok := byAssignment[a.ID]; ok {
			submittedAt := sub.SubmittedAt
			row.SubmissionStatus.Submitted = true
			row.SubmissionStatus.SubmittedAt = &submittedAt
			row.SubmissionStatus.Grade = sub.Grade
		} else {
			row.SubmissionStatus.IsOverdue = a.Overdue(now)
		}
		if status != "" && row.SubmissionStatus.Bucket() != status {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

type SubmitAssignmentInput struct {
	Text        string
	Attachments []string
}

// Submit records the student's single submission for an assignment.
func (s *AssignmentService) Submit(ctx context.Context, studentID, assignmentID string, in SubmitAssignmentInput) (domain.AssignmentSubmission, error) {
	a, err := s.assignments.Get(ctx, assignmentID)
	if err != nil {
		return domain.AssignmentSubmission{}, err
	}
	if _, err := s.enrollments.Get(ctx, studentID, a.CourseID); err != nil {
		return domain.AssignmentSubmission{}, err
	}
	if a.Status != domain.AssignmentActive {
		return domain.AssignmentSubmission{}, domain.Invalid("assignment is not accepting submissions")
	}
	switch a.SubmissionType {
	case domain.SubmissionText:
		if strings.TrimSpace(in.Text) == "" {
			return domain.AssignmentSubmission{}, domain.Invalid("text submission is required")
		}
	case domain.SubmissionFile:
		if len(in.Attachments) == 0 {
			return domain.AssignmentSubmission{}, domain.Invalid("at least one attachment is required")
		}
	default:
		if strings.TrimSpace(in.Text) == "" && len(in.Attachments) == 0 {
			return domain.AssignmentSubmission{}, domain.Invalid("text or attachments are required")
		}
	}

	now := s.clock.Now().UTC()
	late := a.Overdue(now)
	if late && !a.AllowLateSubmission {
		return domain.AssignmentSubmission{}, domain.Invalid("the due date has passed")
	}
	sub := domain.AssignmentSubmission{
		ID:           uuid.NewString(),
		AssignmentID: a.ID,
		StudentID:    studentID,
		Text:         in.Text,
		Attachments:  in.Attachments,
		SubmittedAt:  now,
		IsLate:       late,
		Status:       domain.SubmissionSubmitted,
	}
	if err := s.assignments.CreateSubmission(ctx, sub); err != nil {
		return domain.AssignmentSubmission{}, errors.Wrap(err, "saving submission")
	}
	return sub, nil
}

func (s *AssignmentService) StudentSubmission(ctx context.Context, studentID, assignmentID string) (domain.AssignmentSubmission, error) {
	return s.assignments.FindSubmission(ctx, assignmentID, studentID)
}
