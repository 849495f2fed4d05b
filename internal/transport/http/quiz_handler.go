package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"lms-service/internal/app"
	"lms-service/internal/domain"
)

type answerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	OptionID   string `json:"optionId"`
}

type submitQuizRequest struct {
	Answers []answerRequest `json:"answers" validate:"dive"`
}

func (h *Handler) submitQuiz(c echo.Context) error {
	var req submitQuizRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	answers := make([]domain.Answer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = domain.Answer(a)
	}
	ref := topicRef(c)
	res, err := h.svc.Quizzes.SubmitQuiz(c.Request().Context(), app.SubmitQuizInput{
		StudentID: claimsFrom(c).UserID(),
		CourseID:  ref.CourseID,
		ChapterID: ref.ChapterID,
		TopicID:   ref.TopicID,
		Answers:   answers,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "quiz submitted", res)
}

func (h *Handler) quizSubmissions(c echo.Context) error {
	subs, err := h.svc.Quizzes.ListSubmissions(c.Request().Context(), claimsFrom(c).UserID(), c.Param("courseId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", subs)
}

func (h *Handler) reaggregate(c echo.Context) error {
	report, err := h.svc.Quizzes.Reaggregate(c.Request().Context(), c.Param("studentId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "aggregates rebuilt", report)
}
