package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"lms-service/internal/domain"
)

// DeckStore keeps flashcard decks in memory.
type DeckStore struct {
	mu    sync.RWMutex
	decks map[string]domain.Deck
}

func NewDeckStore() *DeckStore {
	return &DeckStore{decks: make(map[string]domain.Deck)}
}

func (s *DeckStore) Create(_ context.Context, deck domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	deck.Cards = slices.Clone(deck.Cards)
	s.decks[deck.ID] = deck
	return nil
}

func (s *DeckStore) Get(_ context.Context, id string) (domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deck, ok := s.decks[id]
	if !ok {
		return domain.Deck{}, domain.ErrDeckNotFound
	}
	deck.Cards = slices.Clone(deck.Cards)
	return deck, nil
}

func (s *DeckStore) Update(_ context.Context, deck domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[deck.ID]; !ok {
		return domain.ErrDeckNotFound
	}
	deck.Cards = slices.Clone(deck.Cards)
	s.decks[deck.ID] = deck
	return nil
}

func (s *DeckStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[id]; !ok {
		return domain.ErrDeckNotFound
	}
	delete(s.decks, id)
	return nil
}

func (s *DeckStore) ListByCreator(_ context.Context, teacherID string) ([]domain.Deck, error) {
	return s.filter(func(d domain.Deck) bool { return d.CreatedBy == teacherID }), nil
}

func (s *DeckStore) ListPublishedByCourse(_ context.Context, courseID string) ([]domain.Deck, error) {
	return s.filter(func(d domain.Deck) bool { return d.CourseID == courseID && d.IsPublished }), nil
}

func (s *DeckStore) filter(keep func(domain.Deck) bool) []domain.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Deck, 0)
	for _, d := range s.decks {
		if keep(d) {
			d.Cards = slices.Clone(d.Cards)
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
