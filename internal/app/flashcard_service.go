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

// FlashcardService manages teacher decks and their public study view.
type FlashcardService struct {
	decks   DeckRepository
	courses CourseRepository
	clock   calendar.Clock
	log     *zap.Logger
}

func NewFlashcardService(decks DeckRepository, courses CourseRepository, clock calendar.Clock, log *zap.Logger) *FlashcardService {
	return &FlashcardService{decks: decks, courses: courses, clock: clock, log: log}
}

type CardInput struct {
	Type       domain.CardType
	Question   string
	Answer     string
	ClozeText  string
	Hints      []string
	Difficulty domain.Difficulty
	Tags       []string
}

func (in CardInput) card(id string) (domain.Flashcard, error) {
	c := domain.Flashcard{
		ID:         id,
		Type:       in.Type,
		Question:   strings.TrimSpace(in.Question),
		Answer:     strings.TrimSpace(in.Answer),
		ClozeText:  in.ClozeText,
		Hints:      in.Hints,
		Difficulty: in.Difficulty,
		Tags:       in.Tags,
	}
	if c.Type == "" {
		c.Type = domain.CardQA
	}
	if c.Difficulty == "" {
		c.Difficulty = domain.DifficultyMedium
	}
	switch c.Type {
	case domain.CardQA:
		if c.Question == "" || c.Answer == "" {
			return c, domain.Invalid("question and answer are required")
		}
	case domain.CardCloze:
		if strings.TrimSpace(c.ClozeText) == "" {
			return c, domain.Invalid("clozeText is required for cloze cards")
		}
	default:
		return c, domain.Invalid("card type must be qa or cloze")
	}
	switch c.Difficulty {
	case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
	default:
		return c, domain.Invalid("difficulty must be easy, medium or hard")
	}
	return c, nil
}

type CreateDeckInput struct {
	CourseID    string
	Title       string
	Description string
	Cards       []CardInput
}

func (s *FlashcardService) CreateDeck(ctx context.Context, teacherID string, in CreateDeckInput) (domain.Deck, error) {
	if strings.TrimSpace(in.Title) == "" || in.CourseID == "" {
		return domain.Deck{}, domain.Invalid("courseId and title are required")
	}
	course, err := s.courses.Get(ctx, in.CourseID)
	if err != nil {
		return domain.Deck{}, err
	}
	if course.TeacherID != teacherID {
		return domain.Deck{}, domain.ErrForbidden
	}
	now := s.clock.Now().UTC()
	deck := domain.Deck{
		ID:          uuid.NewString(),
		CourseID:    in.CourseID,
		CreatedBy:   teacherID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Cards:       make([]domain.Flashcard, 0, len(in.Cards)),
		Visibility:  domain.VisibilityPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, ci := range in.Cards {
		c, err := ci.card(uuid.NewString())
		if err != nil {
			return domain.Deck{}, err
		}
		deck.Cards = append(deck.Cards, c)
	}
	if err := s.decks.Create(ctx, deck); err != nil {
		return domain.Deck{}, errors.Wrap(err, "creating deck")
	}
	return deck, nil
}

// ownDeck loads a deck the teacher created.
func (s *FlashcardService) ownDeck(ctx context.Context, teacherID, deckID string) (domain.Deck, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return domain.Deck{}, err
	}
	if deck.CreatedBy != teacherID {
		return domain.Deck{}, domain.ErrForbidden
	}
	return deck, nil
}

func (s *FlashcardService) editableDeck(ctx context.Context, teacherID, deckID string) (domain.Deck, error) {
	deck, err := s.ownDeck(ctx, teacherID, deckID)
	if err != nil {
		return domain.Deck{}, err
	}
	if deck.IsPublished {
		return domain.Deck{}, domain.Invalid("published decks cannot be edited")
	}
	return deck, nil
}

func (s *FlashcardService) save(ctx context.Context, deck domain.Deck) (domain.Deck, error) {
	deck.UpdatedAt = s.clock.Now().UTC()
	if err := s.decks.Update(ctx, deck); err != nil {
		return domain.Deck{}, errors.Wrap(err, "saving deck")
	}
	return deck, nil
}

func (s *FlashcardService) AddCards(ctx context.Context, teacherID, deckID string, cards []CardInput) (domain.Deck, error) {
	if len(cards) == 0 {
		return domain.Deck{}, domain.Invalid("at least one card is required")
	}
	deck, err := s.editableDeck(ctx, teacherID, deckID)
	if err != nil {
		return domain.Deck{}, err
	}
	for _, ci := range cards {
		c, err := ci.card(uuid.NewString())
		if err != nil {
			return domain.Deck{}, err
		}
		deck.Cards = append(deck.Cards, c)
	}
	return s.save(ctx, deck)
}

func (s *FlashcardService) EditCard(ctx context.Context, teacherID, deckID, cardID string, in CardInput) (domain.Deck, error) {
	deck, err := s.editableDeck(ctx, teacherID, deckID)
	if err != nil {
		return domain.Deck{}, err
	}
	i := deck.CardIndex(cardID)
	if i < 0 {
		return domain.Deck{}, domain.ErrCardNotFound
	}
	c, err := in.card(cardID)
	if err != nil {
		return domain.Deck{}, err
	}
	deck.Cards[i] = c
	return s.save(ctx, deck)
}

func (s *FlashcardService) DeleteCard(ctx context.Context, teacherID, deckID, cardID string) (domain.Deck, error) {
	deck, err := s.editableDeck(ctx, teacherID, deckID)
	if err != nil {
		return domain.Deck{}, err
	}
	i := deck.CardIndex(cardID)
	if i < 0 {
		return domain.Deck{}, domain.ErrCardNotFound
	}
	deck.Cards = append(deck.Cards[:i], deck.Cards[i+1:]...)
	return s.save(ctx, deck)
}

// Publish makes a non-empty deck visible to the course's students.
func (s *FlashcardService) Publish(ctx context.Context, teacherID, deckID string) (domain.Deck, error) {
	deck, err := s.ownDeck(ctx, teacherID, deckID)
	if err != nil {
		return domain.Deck{}, err
	}
	if len(deck.Cards) == 0 {
		return domain.Deck{}, domain.Invalid("cannot publish an empty deck")
	}
	deck.IsPublished = true
	deck.Visibility = domain.VisibilityCourse
	return s.save(ctx, deck)
}

func (s *FlashcardService) TeacherDecks(ctx context.Context, teacherID string) ([]domain.Deck, error) {
	return s.decks.ListByCreator(ctx, teacherID)
}

func (s *FlashcardService) DeckDetails(ctx context.Context, teacherID, deckID string) (domain.Deck, error) {
	return s.ownDeck(ctx, teacherID, deckID)
}

func (s *FlashcardService) DeleteDeck(ctx context.Context, teacherID, deckID string) error {
	if _, err := s.ownDeck(ctx, teacherID, deckID); err != nil {
		return err
	}
	return errors.Wrap(s.decks.Delete(ctx, deckID), "deleting deck")
}

func (s *FlashcardService) CourseDecks(ctx context.Context, courseID string) ([]domain.Deck, error) {
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		return nil, err
	}
	return s.decks.ListPublishedByCourse(ctx, courseID)
}

// StudyDeck returns a published deck; drafts are reported as missing.
func (s *FlashcardService) StudyDeck(ctx context.Context, deckID string) (domain.Deck, error) {
	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		return domain.Deck{}, err
	}
	if !deck.IsPublished {
		return domain.Deck{}, domain.ErrDeckNotFound
	}
	return deck, nil
}
