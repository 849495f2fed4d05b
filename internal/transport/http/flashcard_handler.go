package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"lms-service/internal/app"
	"lms-service/internal/domain"
)

type cardRequest struct {
	Type       string   `json:"type" validate:"omitempty,oneof=qa cloze"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	ClozeText  string   `json:"clozeText"`
	Hints      []string `json:"hints"`
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Tags       []string `json:"tags"`
}

func (r cardRequest) input() app.CardInput {
	return app.CardInput{
		Type:       domain.CardType(r.Type),
		Question:   r.Question,
		Answer:     r.Answer,
		ClozeText:  r.ClozeText,
		Hints:      r.Hints,
		Difficulty: domain.Difficulty(r.Difficulty),
		Tags:       r.Tags,
	}
}

func cardInputs(reqs []cardRequest) []app.CardInput {
	out := make([]app.CardInput, len(reqs))
	for i, r := range reqs {
		out[i] = r.input()
	}
	return out
}

type createDeckRequest struct {
	CourseID    string        `json:"courseId" validate:"required"`
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description"`
	Cards       []cardRequest `json:"cards" validate:"dive"`
}

type addCardsRequest struct {
	Cards []cardRequest `json:"cards" validate:"min=1,dive"`
}

func (h *Handler) createDeck(c echo.Context) error {
	var req createDeckRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	deck, err := h.svc.Flashcards.CreateDeck(c.Request().Context(), claimsFrom(c).UserID(), app.CreateDeckInput{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		Cards:       cardInputs(req.Cards),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "deck created", deck)
}

func (h *Handler) addCards(c echo.Context) error {
	var req addCardsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	deck, err := h.svc.Flashcards.AddCards(c.Request().Context(), claimsFrom(c).UserID(), c.Param("deckId"), cardInputs(req.Cards))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "cards added", deck)
}

func (h *Handler) editCard(c echo.Context) error {
	var req cardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	deck, err := h.svc.Flashcards.EditCard(c.Request().Context(), claimsFrom(c).UserID(), c.Param("deckId"), c.Param("cardId"), req.input())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "card updated", deck)
}

func (h *Handler) deleteCard(c echo.Context) error {
	deck, err := h.svc.Flashcards.DeleteCard(c.Request().Context(), claimsFrom(c).UserID(), c.Param("deckId"), c.Param("cardId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "card deleted", deck)
}

func (h *Handler) publishDeck(c echo.Context) error {
	deck, err := h.svc.Flashcards.Publish(c.Request().Context(), claimsFrom(c).UserID(), c.Param("deckId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "deck published", deck)
}

func (h *Handler) teacherDecks(c echo.Context) error {
	decks, err := h.svc.Flashcards.TeacherDecks(c.Request().Context(), claimsFrom(c).UserID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", decks)
}

func (h *Handler) deckDetails(c echo.Context) error {
	deck, err := h.svc.Flashcards.DeckDetails(c.Request().Context(), claimsFrom(c).UserID(), c.Param("deckId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", deck)
}

func (h *Handler) deleteDeck(c echo.Context) error {
	if err := h.svc.Flashcards.DeleteDeck(c.Request().Context(), claimsFrom(c).UserID(), c.Param("deckId")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "deck deleted", nil)
}

func (h *Handler) courseDecks(c echo.Context) error {
	decks, err := h.svc.Flashcards.CourseDecks(c.Request().Context(), c.Param("courseId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", decks)
}

func (h *Handler) studyDeck(c echo.Context) error {
	deck, err := h.svc.Flashcards.StudyDeck(c.Request().Context(), c.Param("deckId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", deck)
}
