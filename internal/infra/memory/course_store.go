package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lms-service/internal/domain"
)

// CourseStore keeps course documents in memory. It doubles as the QuizLoader
// behind the quiz cache.
type CourseStore struct {
	mu      sync.RWMutex
	courses map[string]domain.Course
}

func NewCourseStore() *CourseStore {
	return &CourseStore{courses: make(map[string]domain.Course)}
}

func (s *CourseStore) Create(_ context.Context, course domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
	return nil
}

func (s *CourseStore) Get(_ context.Context, id string) (domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[id]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseStore) List(_ context.Context, filter domain.CourseFilter) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		if filter.TeacherID != "" && c.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.Level != "" && c.Level != filter.Level {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Title), query) &&
			!strings.Contains(strings.ToLower(c.Description), query) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *CourseStore) LoadQuizzes(ctx context.Context, courseID string) (map[string]domain.QuizDefinition, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return course.Quizzes(), nil
}
