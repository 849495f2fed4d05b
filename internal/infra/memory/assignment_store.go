package memory

import (
	"context"
	"sort"
	"sync"

	"lms-service/internal/domain"
)

// AssignmentStore keeps assignments and their submissions in memory.
type AssignmentStore struct {
	mu          sync.RWMutex
	assignments map[string]domain.Assignment
	submissions map[string]domain.AssignmentSubmission
}

func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{
		assignments: make(map[string]domain.Assignment),
		submissions: make(map[string]domain.AssignmentSubmission),
	}
}

func (s *AssignmentStore) Create(_ context.Context, a domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID] = a
	return nil
}

func (s *AssignmentStore) Get(_ context.Context, id string) (domain.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[id]
	if !ok {
		return domain.Assignment{}, domain.ErrAssignmentNotFound
	}
	return a, nil
}

func (s *AssignmentStore) Update(_ context.Context, a domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[a.ID]; !ok {
		return domain.ErrAssignmentNotFound
	}
	s.assignments[a.ID] = a
	return nil
}

func (s *AssignmentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[id]; !ok {
		return domain.ErrAssignmentNotFound
	}
	delete(s.assignments, id)
	for subID, sub := range s.submissions {
		if sub.AssignmentID == id {
			delete(s.submissions, subID)
		}
	}
	return nil
}

func (s *AssignmentStore) ListByTeacher(_ context.Context, teacherID string) ([]domain.Assignment, error) {
	return s.filterAssignments(func(a domain.Assignment) bool { return a.TeacherID == teacherID }), nil
}

func (s *AssignmentStore) ListActiveByCourses(_ context.Context, courseIDs []string) ([]domain.Assignment, error) {
	wanted := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	return s.filterAssignments(func(a domain.Assignment) bool {
		return wanted[a.CourseID] && a.Status == domain.AssignmentActive
	}), nil
}

func (s *AssignmentStore) filterAssignments(keep func(domain.Assignment) bool) []domain.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Assignment, 0)
	for _, a := range s.assignments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *AssignmentStore) CreateSubmission(_ context.Context, sub domain.AssignmentSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			return domain.ErrAlreadySubmitted
		}
	}
	s.submissions[sub.ID] = sub
	return nil
}

func (s *AssignmentStore) GetSubmission(_ context.Context, id string) (domain.AssignmentSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return domain.AssignmentSubmission{}, domain.ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *AssignmentStore) FindSubmission(_ context.Context, assignmentID, studentID string) (domain.AssignmentSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return sub, nil
		}
	}
	return domain.AssignmentSubmission{}, domain.ErrSubmissionNotFound
}

func (s *AssignmentStore) ListSubmissions(_ context.Context, assignmentID string) ([]domain.AssignmentSubmission, error) {
	return s.filterSubmissions(func(sub domain.AssignmentSubmission) bool { return sub.AssignmentID == assignmentID }), nil
}

func (s *AssignmentStore) ListSubmissionsByStudent(_ context.Context, studentID string) ([]domain.AssignmentSubmission, error) {
	return s.filterSubmissions(func(sub domain.AssignmentSubmission) bool { return sub.StudentID == studentID }), nil
}

func (s *AssignmentStore) filterSubmissions(keep func(domain.AssignmentSubmission) bool) []domain.AssignmentSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AssignmentSubmission, 0)
	for _, sub := range s.submissions {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *AssignmentStore) SaveGrade(_ context.Context, submissionID string, grade domain.Grade) (domain.AssignmentSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return domain.AssignmentSubmission{}, domain.ErrSubmissionNotFound
	}
	g := grade
	sub.Grade = &g
	sub.Status = domain.SubmissionGraded
	s.submissions[submissionID] = sub
	return sub, nil
}
