package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

// QuizOptions is the immutable quiz policy read from config at startup.
type QuizOptions struct {
	AllowMultipleAttemptsPerTopic bool
}

// QuizService contains the quiz submission use cases.
type QuizService struct {
	quizzes     QuizRepository
	submissions SubmissionRepository
	enrollments EnrollmentRepository
	hub         *ProgressHub
	clock       calendar.Clock
	opts        QuizOptions
	log         *zap.Logger
}

func NewQuizService(
	quizzes QuizRepository,
	submissions SubmissionRepository,
	enrollments EnrollmentRepository,
	hub *ProgressHub,
	clock calendar.Clock,
	opts QuizOptions,
	log *zap.Logger,
) *QuizService {
	return &QuizService{
		quizzes:     quizzes,
		submissions: submissions,
		enrollments: enrollments,
		hub:         hub,
		clock:       clock,
		opts:        opts,
		log:         log,
	}
}

// SubmitQuizInput is one attempt at a topic's quiz.
type SubmitQuizInput struct {
	StudentID string
	CourseID  string
	ChapterID string
	TopicID   string
	Answers   []domain.Answer
}

// SubmissionResult is the recorded attempt and the enrollment it updated.
type SubmissionResult struct {
	Submission domain.QuizSubmission `json:"submission"`
	Enrollment domain.Enrollment     `json:"enrollment"`
}

// SubmitQuiz grades the answers, records the attempt and folds its score into
// the student's enrollment for the course.
func (s *QuizService) SubmitQuiz(ctx context.Context, in SubmitQuizInput) (SubmissionResult, error) {
	ref := domain.TopicRef{CourseID: in.CourseID, ChapterID: in.ChapterID, TopicID: in.TopicID}
	if strings.TrimSpace(in.StudentID) == "" {
		return SubmissionResult{}, domain.ErrInvalidToken
	}
	if ref.CourseID == "" || ref.ChapterID == "" || ref.TopicID == "" {
		return SubmissionResult{}, domain.Invalid("courseId, chapterId and topicId are required")
	}

	quiz, err := s.quizzes.GetQuiz(ctx, ref)
	if err != nil {
		return SubmissionResult{}, errors.Wrap(err, "loading quiz")
	}
	eval, err := Evaluate(quiz, in.Answers)
	if err != nil {
		return SubmissionResult{}, err
	}

	if _, err := s.enrollments.Get(ctx, in.StudentID, in.CourseID); err != nil {
		return SubmissionResult{}, errors.Wrap(err, "checking enrollment")
	}

	submission := domain.QuizSubmission{
		ID:                uuid.NewString(),
		StudentID:         in.StudentID,
		CourseID:          ref.CourseID,
		ChapterID:         ref.ChapterID,
		TopicID:           ref.TopicID,
		AnsweredQuestions: eval.Results,
		CorrectCount:      eval.CorrectCount,
		TotalQuestions:    eval.TotalQuestions,
		ScorePercent:      eval.ScorePercent,
		SubmittedAt:       s.clock.Now().UTC(),
	}
	if s.opts.AllowMultipleAttemptsPerTopic {
		err = s.submissions.Create(ctx, submission)
	} else {
		err = s.submissions.CreateFirstAttempt(ctx, submission)
	}
	if err != nil {
		return SubmissionResult{}, errors.Wrap(err, "recording submission")
	}

	enrollment, err := s.enrollments.AppendScore(ctx, in.StudentID, in.CourseID, submission.ScoreEntry())
	if err != nil {
		// The attempt is durable; Reaggregate rebuilds the aggregate from it.
		s.log.Error("quiz aggregate update failed",
			zap.String("submission_id", submission.ID),
			zap.String("student_id", in.StudentID),
			zap.String("course_id", in.CourseID),
			zap.Error(err))
		return SubmissionResult{}, errors.Wrap(err, "updating enrollment aggregate")
	}

	s.hub.Publish(in.StudentID)
	s.log.Info("quiz submitted",
		zap.String("submission_id", submission.ID),
		zap.String("student_id", in.StudentID),
		zap.String("topic", ref.Key()),
		zap.Int("score", submission.ScorePercent))

	return SubmissionResult{Submission: submission, Enrollment: enrollment}, nil
}

// ListSubmissions returns a student's attempts in one course.
func (s *QuizService) ListSubmissions(ctx context.Context, studentID, courseID string) ([]domain.QuizSubmission, error) {
	subs, err := s.submissions.ListByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}
	return subs, nil
}

// ReaggregateReport summarises one backfill run.
type ReaggregateReport struct {
	Enrollments int `json:"enrollments"`
	Submissions int `json:"submissions"`
	// Orphaned counts submissions whose course the student is no longer enrolled in.
	Orphaned int `json:"orphaned"`
}

func (r *ReaggregateReport) add(o ReaggregateReport) {
	r.Enrollments += o.Enrollments
	r.Submissions += o.Submissions
	r.Orphaned += o.Orphaned
}

// Reaggregate rebuilds every enrollment history of a student from the
// submission log. It repairs aggregates left behind by a failed update. Each
// course's log is read while its enrollment is locked, so attempts recorded
// during the run are not lost.
func (s *QuizService) Reaggregate(ctx context.Context, studentID string) (ReaggregateReport, error) {
	subs, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return ReaggregateReport{}, errors.Wrap(err, "listing submissions")
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return ReaggregateReport{}, errors.Wrap(err, "listing enrollments")
	}

	var report ReaggregateReport
	enrolled := make(map[string]bool, len(enrollments))
	for _, e := range enrollments {
		courseID := e.CourseID
		enrolled[courseID] = true
		rebuilt, err := s.enrollments.RebuildHistory(ctx, studentID, courseID, func(ctx context.Context) ([]domain.QuizScore, error) {
			return s.courseHistory(ctx, studentID, courseID)
		})
		if err != nil {
			return report, errors.Wrapf(err, "rebuilding enrollment %s", courseID)
		}
		report.Enrollments++
		report.Submissions += rebuilt.CompletedQuizCount
	}

	orphans := make(map[string]int)
	for _, sub := range subs {
		if !enrolled[sub.CourseID] {
			orphans[sub.CourseID]++
		}
	}
	for courseID, n := range orphans {
		report.Orphaned += n
		report.Submissions += n
		s.log.Warn("submissions without enrollment",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Int("count", n))
	}
	if report.Enrollments > 0 {
		s.hub.Publish(studentID)
	}
	return report, nil
}

func (s *QuizService) courseHistory(ctx context.Context, studentID, courseID string) ([]domain.QuizScore, error) {
	subs, err := s.submissions.ListByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "listing course submissions")
	}
	history := make([]domain.QuizScore, 0, len(subs))
	for _, sub := range subs {
		history = append(history, sub.ScoreEntry())
	}
	return history, nil
}

// ReaggregateAll runs Reaggregate for each student id.
func (s *QuizService) ReaggregateAll(ctx context.Context, studentIDs []string) (ReaggregateReport, error) {
	var total ReaggregateReport
	for _, id := range studentIDs {
		r, err := s.Reaggregate(ctx, id)
		total.add(r)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
