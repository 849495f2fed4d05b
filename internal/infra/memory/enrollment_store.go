package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"lms-service/internal/domain"
)

type enrollmentKey struct {
	studentID string
	courseID  string
}

// EnrollmentStore is an in-memory app.EnrollmentRepository. The store lock
// makes each append-and-recompute a single atomic step.
type EnrollmentStore struct {
	mu          sync.RWMutex
	enrollments map[enrollmentKey]domain.Enrollment
}

func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{enrollments: make(map[enrollmentKey]domain.Enrollment)}
}

func (s *EnrollmentStore) Create(_ context.Context, e domain.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := enrollmentKey{e.StudentID, e.CourseID}
	if _, ok := s.enrollments[key]; ok {
		return domain.ErrAlreadyEnrolled
	}
	e.QuizScoreHistory = slices.Clone(e.QuizScoreHistory)
	e.CompletedTopics = slices.Clone(e.CompletedTopics)
	e.Recompute()
	s.enrollments[key] = e
	return nil
}

func (s *EnrollmentStore) Get(_ context.Context, studentID, courseID string) (domain.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[enrollmentKey{studentID, courseID}]
	if !ok {
		return domain.Enrollment{}, domain.ErrNotEnrolled
	}
	return clone(e), nil
}

func (s *EnrollmentStore) ListByStudent(_ context.Context, studentID string) ([]domain.Enrollment, error) {
	return s.filter(func(e domain.Enrollment) bool { return e.StudentID == studentID }), nil
}

func (s *EnrollmentStore) ListByCourse(_ context.Context, courseID string) ([]domain.Enrollment, error) {
	return s.filter(func(e domain.Enrollment) bool { return e.CourseID == courseID }), nil
}

func (s *EnrollmentStore) filter(keep func(domain.Enrollment) bool) []domain.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Enrollment, 0)
	for _, e := range s.enrollments {
		if keep(e) {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].EnrolledAt.Before(out[j].EnrolledAt)
		}
		return out[i].CourseID+out[i].StudentID < out[j].CourseID+out[j].StudentID
	})
	return out
}

func (s *EnrollmentStore) AppendScore(_ context.Context, studentID, courseID string, score domain.QuizScore) (domain.Enrollment, error) {
	return s.mutate(studentID, courseID, func(e *domain.Enrollment) error {
		e.AppendScore(score)
		return nil
	})
}

// RebuildHistory calls load while the enrollment is locked and makes its
// result the new history. load must not call back into this store.
func (s *EnrollmentStore) RebuildHistory(ctx context.Context, studentID, courseID string, load func(context.Context) ([]domain.QuizScore, error)) (domain.Enrollment, error) {
	return s.mutate(studentID, courseID, func(e *domain.Enrollment) error {
		history, err := load(ctx)
		if err != nil {
			return err
		}
		e.QuizScoreHistory = slices.Clone(history)
		if e.QuizScoreHistory == nil {
			e.QuizScoreHistory = []domain.QuizScore{}
		}
		e.Recompute()
		return nil
	})
}

func (s *EnrollmentStore) CompleteTopic(_ context.Context, studentID, courseID, topicID string) (domain.Enrollment, error) {
	return s.mutate(studentID, courseID, func(e *domain.Enrollment) error {
		e.CompleteTopic(topicID)
		return nil
	})
}

func (s *EnrollmentStore) mutate(studentID, courseID string, fn func(*domain.Enrollment) error) (domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := enrollmentKey{studentID, courseID}
	e, ok := s.enrollments[key]
	if !ok {
		return domain.Enrollment{}, domain.ErrNotEnrolled
	}
	e = clone(e)
	if err := fn(&e); err != nil {
		return domain.Enrollment{}, err
	}
	s.enrollments[key] = e
	return clone(e), nil
}

func clone(e domain.Enrollment) domain.Enrollment {
	e.QuizScoreHistory = slices.Clone(e.QuizScoreHistory)
	e.CompletedTopics = slices.Clone(e.CompletedTopics)
	return e
}
