package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"lms-service/internal/domain"
)

// DeckStore keeps flashcard decks with their cards as JSONB.
type DeckStore struct {
	pool *pgxpool.Pool
}

func NewDeckStore(pool *pgxpool.Pool) *DeckStore {
	return &DeckStore{pool: pool}
}

const deckColumns = `id, course_id, created_by, title, description, cards, is_published, visibility, created_at, updated_at`

func (s *DeckStore) Create(ctx context.Context, d domain.Deck) error {
	cards, err := marshalCards(d.Cards)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO flashcard_decks (`+deckColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.CourseID, d.CreatedBy, d.Title, d.Description, cards, d.IsPublished, string(d.Visibility), d.CreatedAt, d.UpdatedAt)
	return errors.Wrap(err, "insert deck")
}

func (s *DeckStore) Get(ctx context.Context, id string) (domain.Deck, error) {
	d, err := scanDeck(s.pool.QueryRow(ctx, `SELECT `+deckColumns+` FROM flashcard_decks WHERE id=$1`, id))
	if err != nil {
		return domain.Deck{}, notFound(err, domain.ErrDeckNotFound)
	}
	return d, nil
}

func (s *DeckStore) Update(ctx context.Context, d domain.Deck) error {
	cards, err := marshalCards(d.Cards)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE flashcard_decks
SET title=$2, description=$3, cards=$4, is_published=$5, visibility=$6, updated_at=$7
WHERE id=$1`,
		d.ID, d.Title, d.Description, cards, d.IsPublished, string(d.Visibility), d.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update deck")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeckNotFound
	}
	return nil
}

func (s *DeckStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM flashcard_decks WHERE id=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete deck")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeckNotFound
	}
	return nil
}

func (s *DeckStore) ListByCreator(ctx context.Context, teacherID string) ([]domain.Deck, error) {
	return s.list(ctx, `SELECT `+deckColumns+` FROM flashcard_decks WHERE created_by=$1 ORDER BY created_at DESC, id`, teacherID)
}

func (s *DeckStore) ListPublishedByCourse(ctx context.Context, courseID string) ([]domain.Deck, error) {
	return s.list(ctx, `SELECT `+deckColumns+` FROM flashcard_decks
WHERE course_id=$1 AND is_published ORDER BY created_at DESC, id`, courseID)
}

func (s *DeckStore) list(ctx context.Context, sql, arg string) ([]domain.Deck, error) {
	rows, err := s.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrap(err, "list decks")
	}
	defer rows.Close()
	out := make([]domain.Deck, 0)
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, errors.Wrap(rows.Err(), "list decks")
}

func marshalCards(cards []domain.Flashcard) ([]byte, error) {
	if cards == nil {
		cards = []domain.Flashcard{}
	}
	raw, err := json.Marshal(cards)
	return raw, errors.Wrap(err, "marshal cards")
}

func scanDeck(row pgx.Row) (domain.Deck, error) {
	var (
		d          domain.Deck
		cards      []byte
		visibility string
	)
	if err := row.Scan(&d.ID, &d.CourseID, &d.CreatedBy, &d.Title, &d.Description, &cards, &d.IsPublished, &visibility, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return domain.Deck{}, err
	}
	d.Visibility = domain.Visibility(visibility)
	if err := json.Unmarshal(cards, &d.Cards); err != nil {
		return domain.Deck{}, errors.Wrap(err, "unmarshal cards")
	}
	return d, nil
}
