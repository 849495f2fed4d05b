package memory

import (
	"context"
	"sort"
	"sync"

	"lms-service/internal/domain"
)

// SubmissionStore is an append-only in-memory quiz attempt log.
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions []domain.QuizSubmission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{}
}

func (s *SubmissionStore) Create(_ context.Context, sub domain.QuizSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
	return nil
}

func (s *SubmissionStore) CreateFirstAttempt(_ context.Context, sub domain.QuizSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.submissions {
		if existing.StudentID == sub.StudentID && existing.Ref() == sub.Ref() {
			return domain.ErrDuplicateAttempt
		}
	}
	s.submissions = append(s.submissions, sub)
	return nil
}

func (s *SubmissionStore) ListByStudent(_ context.Context, studentID string) ([]domain.QuizSubmission, error) {
	return s.filter(func(sub domain.QuizSubmission) bool { return sub.StudentID == studentID }), nil
}

func (s *SubmissionStore) ListByStudentCourse(_ context.Context, studentID, courseID string) ([]domain.QuizSubmission, error) {
	return s.filter(func(sub domain.QuizSubmission) bool {
		return sub.StudentID == studentID && sub.CourseID == courseID
	}), nil
}

func (s *SubmissionStore) filter(keep func(domain.QuizSubmission) bool) []domain.QuizSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizSubmission, 0)
	for _, sub := range s.submissions {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	// insertion order breaks ties between equal timestamps
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}
