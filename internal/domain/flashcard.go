package domain

import "time"

type CardType string

const (
	CardQA    CardType = "qa"
	CardCloze CardType = "cloze"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityCourse  Visibility = "course"
	VisibilityPublic  Visibility = "public"
)

type Flashcard struct {
	ID         string     `json:"id"`
	Type       CardType   `json:"type"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	ClozeText  string     `json:"clozeText,omitempty"`
	Hints      []string   `json:"hints,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags,omitempty"`
}

// Deck is a teacher-owned set of cards for one course.
type Deck struct {
	ID          string      `json:"id"`
	CourseID    string      `json:"courseId"`
	CreatedBy   string      `json:"createdBy"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Cards       []Flashcard `json:"cards"`
	IsPublished bool        `json:"isPublished"`
	Visibility  Visibility  `json:"visibility"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (d *Deck) CardIndex(cardID string) int {
	for i, c := range d.Cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
