package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"lms-service/internal/app"
	"lms-service/internal/domain"
)

type questionRequest struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectOption string   `json:"correctOption" validate:"required"`
	Explanation   string   `json:"explanation"`
}

type topicRequest struct {
	Title string            `json:"title" validate:"required"`
	Video string            `json:"video" validate:"omitempty,url"`
	Notes string            `json:"notes"`
	Quiz  []questionRequest `json:"quiz" validate:"dive"`
}

type chapterRequest struct {
	Title  string         `json:"title" validate:"required"`
	Topics []topicRequest `json:"topics" validate:"dive"`
}

type createCourseRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Level       string           `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advance"`
	Price       float64          `json:"price" validate:"gte=0"`
	Image       string           `json:"image"`
	Chapters    []chapterRequest `json:"chapters" validate:"dive"`
}

func (r createCourseRequest) input() app.CreateCourseInput {
	in := app.CreateCourseInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Level:       domain.Level(r.Level),
		Price:       r.Price,
		Image:       r.Image,
		Chapters:    make([]app.ChapterInput, len(r.Chapters)),
	}
	for i, ch := range r.Chapters {
		chapter := app.ChapterInput{Title: ch.Title, Topics: make([]app.TopicInput, len(ch.Topics))}
		for j, t := range ch.Topics {
			topic := app.TopicInput{Title: t.Title, Video: t.Video, Notes: t.Notes, Quiz: make([]app.QuestionInput, len(t.Quiz))}
			for k, q := range t.Quiz {
				topic.Quiz[k] = app.QuestionInput(q)
			}
			chapter.Topics[j] = topic
		}
		in.Chapters[i] = chapter
	}
	return in
}

func topicRef(c echo.Context) domain.TopicRef {
	return domain.TopicRef{CourseID: c.Param("courseId"), ChapterID: c.Param("chapterId"), TopicID: c.Param("topicId")}
}

func (h *Handler) listCourses(c echo.Context) error {
	courses, err := h.svc.Courses.ListCourses(c.Request().Context(), domain.CourseFilter{
		Query:    c.QueryParam("query"),
		Category: c.QueryParam("category"),
		Level:    domain.Level(c.QueryParam("level")),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", courses)
}

func (h *Handler) getCourse(c echo.Context) error {
	course, err := h.svc.Courses.GetCourse(c.Request().Context(), c.Param("courseId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", course)
}

func (h *Handler) stats(c echo.Context) error {
	stats, err := h.svc.Admin.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", stats)
}

func (h *Handler) createCourse(c echo.Context) error {
	var req createCourseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	course, err := h.svc.Courses.CreateCourse(c.Request().Context(), claimsFrom(c).UserID(), req.input())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "course created", course)
}

func (h *Handler) teacherCourses(c echo.Context) error {
	courses, err := h.svc.Courses.TeacherCourses(c.Request().Context(), claimsFrom(c).UserID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", courses)
}

func (h *Handler) enroll(c echo.Context) error {
	enrollment, err := h.svc.Courses.Enroll(c.Request().Context(), claimsFrom(c).UserID(), c.Param("courseId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "enrolled", enrollment)
}

func (h *Handler) completeTopic(c echo.Context) error {
	enrollment, err := h.svc.Courses.CompleteTopic(c.Request().Context(), claimsFrom(c).UserID(), topicRef(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "topic completed", enrollment)
}
