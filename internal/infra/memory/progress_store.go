package memory

import (
	"context"
	"sort"
	"sync"

	"lms-service/internal/calendar"
	"lms-service/internal/domain"
)

// ProgressStore keeps streaks and daily study buckets per student.
type ProgressStore struct {
	mu      sync.Mutex
	streaks map[string]domain.StreakState
	daily   map[string]map[calendar.Day]int
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		streaks: make(map[string]domain.StreakState),
		daily:   make(map[string]map[calendar.Day]int),
	}
}

func (s *ProgressStore) Streak(_ context.Context, studentID string) (domain.StreakState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaks[studentID], nil
}

func (s *ProgressStore) TouchStreak(_ context.Context, studentID string, today calendar.Day) (domain.StreakState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, changed := s.streaks[studentID].Advance(today)
	if changed {
		s.streaks[studentID] = next
	}
	return next, changed, nil
}

func (s *ProgressStore) AddMinutes(_ context.Context, studentID string, day calendar.Day, minutes int) (domain.DailyProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, ok := s.daily[studentID]
	if !ok {
		days = make(map[calendar.Day]int)
		s.daily[studentID] = days
	}
	days[day] += minutes
	return domain.DailyProgress{Date: day, Minutes: days[day]}, nil
}

func (s *ProgressStore) Log(_ context.Context, studentID string) ([]domain.DailyProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days := s.daily[studentID]
	out := make([]domain.DailyProgress, 0, len(days))
	for d, m := range days {
		out = append(out, domain.DailyProgress{Date: d, Minutes: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
