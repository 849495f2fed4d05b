package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

// CourseService covers the catalog, enrollment and topic completion.
type CourseService struct {
	courses     CourseRepository
	enrollments EnrollmentRepository
	users       UserRepository
	hub         *ProgressHub
	clock       calendar.Clock
	log         *zap.Logger
}

func NewCourseService(
	courses CourseRepository,
	enrollments EnrollmentRepository,
	users UserRepository,
	hub *ProgressHub,
	clock calendar.Clock,
	log *zap.Logger,
) *CourseService {
	return &CourseService{courses: courses, enrollments: enrollments, users: users, hub: hub, clock: clock, log: log}
}

type QuestionInput struct {
	Text          string
	Options       []string
	CorrectOption string
	Explanation   string
}

type TopicInput struct {
	Title string
	Video string
	Notes string
	Quiz  []QuestionInput
}

type ChapterInput struct {
	Title  string
	Topics []TopicInput
}

type CreateCourseInput struct {
	Title       string
	Description string
	Category    string
	Level       domain.Level
	Price       float64
	Image       string
	Chapters    []ChapterInput
}

// CreateCourse stores a new course owned by a verified teacher. Chapter,
// topic and question ids are assigned here.
func (s *CourseService) CreateCourse(ctx context.Context, teacherID string, in CreateCourseInput) (domain.Course, error) {
	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return domain.Course{}, errors.Wrap(err, "loading teacher")
	}
	if !teacher.IsTeacher() {
		return domain.Course{}, domain.ErrForbidden
	}
	if teacher.VerificationStatus != domain.VerificationVerified {
		return domain.Course{}, domain.ErrTeacherNotVerified
	}

	course := domain.Course{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Level:       in.Level,
		Price:       in.Price,
		Image:       in.Image,
		TeacherID:   teacherID,
		Chapters:    make([]domain.Chapter, 0, len(in.Chapters)),
		CreatedAt:   s.clock.Now().UTC(),
	}
	if course.Title == "" {
		return domain.Course{}, domain.Invalid("title is required")
	}
	for ci, ch := range in.Chapters {
		chapter := domain.Chapter{ID: uuid.NewString(), Title: ch.Title, Topics: make([]domain.Topic, 0, len(ch.Topics))}
		for ti, tp := range ch.Topics {
			topic := domain.Topic{
				ID:    uuid.NewString(),
				Title: tp.Title,
				Video: tp.Video,
				Notes: tp.Notes,
				Quiz:  make([]domain.Question, 0, len(tp.Quiz)),
			}
			for qi, q := range tp.Quiz {
				question, err := buildQuestion(q)
				if err != nil {
					return domain.Course{}, domain.Invalid(fmt.Sprintf("chapter %d topic %d question %d: %s", ci+1, ti+1, qi+1, err))
				}
				topic.Quiz = append(topic.Quiz, question)
			}
			chapter.Topics = append(chapter.Topics, topic)
		}
		course.Chapters = append(course.Chapters, chapter)
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return domain.Course{}, errors.Wrap(err, "creating course")
	}
	s.log.Info("course created", zap.String("course_id", course.ID), zap.String("teacher_id", teacherID))
	return course, nil
}

func buildQuestion(in QuestionInput) (domain.Question, error) {
	if strings.TrimSpace(in.Text) == "" {
		return domain.Question{}, errors.New("text is required")
	}
	if len(in.Options) < 2 {
		return domain.Question{}, errors.New("at least two options are required")
	}
	q := domain.Question{
		ID:          uuid.NewString(),
		Text:        in.Text,
		Options:     make([]domain.Option, len(in.Options)),
		Explanation: in.Explanation,
	}
	for i, text := range in.Options {
		opt := domain.Option{ID: fmt.Sprintf("o%d", i+1), Text: text}
		q.Options[i] = opt
		if q.CorrectOptionID == "" && text == in.CorrectOption {
			q.CorrectOptionID = opt.ID
		}
	}
	if q.CorrectOptionID == "" {
		return domain.Question{}, errors.New("correct option must be one of the options")
	}
	return q, nil
}

// ListCourses returns catalog entries without quiz answers.
func (s *CourseService) ListCourses(ctx context.Context, filter domain.CourseFilter) ([]domain.Course, error) {
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}
	out := make([]domain.Course, len(courses))
	for i, c := range courses {
		out[i] = c.Public()
	}
	return out, nil
}

func (s *CourseService) GetCourse(ctx context.Context, id string) (domain.Course, error) {
	course, err := s.courses.Get(ctx, id)
	if err != nil {
		return domain.Course{}, err
	}
	return course.Public(), nil
}

// TeacherCourses lists a teacher's courses with enrollment figures.
func (s *CourseService) TeacherCourses(ctx context.Context, teacherID string) ([]domain.CourseStats, error) {
	courses, err := s.courses.List(ctx, domain.CourseFilter{TeacherID: teacherID})
	if err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}
	out := make([]domain.CourseStats, 0, len(courses))
	for _, c := range courses {
		enrollments, err := s.enrollments.ListByCourse(ctx, c.ID)
		if err != nil {
			return nil, errors.Wrap(err, "listing enrollments")
		}
		sum, n := 0, 0
		for _, e := range enrollments {
			if e.CompletedQuizCount > 0 {
				sum += e.AvgQuizScore
				n++
			}
		}
		out = append(out, domain.CourseStats{
			Course:           c,
			EnrolledCount:    len(enrollments),
			AverageQuizScore: domain.RoundedMean(sum, n),
		})
	}
	return out, nil
}

// Enroll creates an empty enrollment record for the student.
func (s *CourseService) Enroll(ctx context.Context, studentID, courseID string) (domain.Enrollment, error) {
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		return domain.Enrollment{}, err
	}
	enrollment := domain.Enrollment{
		StudentID:        studentID,
		CourseID:         courseID,
		EnrolledAt:       s.clock.Now().UTC(),
		QuizScoreHistory: []domain.QuizScore{},
		CompletedTopics:  []string{},
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return domain.Enrollment{}, errors.Wrap(err, "enrolling")
	}
	s.hub.Publish(studentID)
	s.log.Info("student enrolled", zap.String("student_id", studentID), zap.String("course_id", courseID))
	return enrollment, nil
}

// CompleteTopic marks a topic of an enrolled course as done.
func (s *CourseService) CompleteTopic(ctx context.Context, studentID string, ref domain.TopicRef) (domain.Enrollment, error) {
	course, err := s.courses.Get(ctx, ref.CourseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if _, ok := course.Topic(ref.ChapterID, ref.TopicID); !ok {
		return domain.Enrollment{}, domain.ErrTopicNotFound
	}
	enrollment, err := s.enrollments.CompleteTopic(ctx, studentID, ref.CourseID, ref.TopicID)
	if err != nil {
		return domain.Enrollment{}, errors.Wrap(err, "completing topic")
	}
	s.hub.Publish(studentID)
	return enrollment, nil
}
