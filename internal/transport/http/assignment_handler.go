package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"lms-service/internal/app"
	"lms-service/internal/domain"
)

type assignmentRequest struct {
	Title               string    `json:"title" validate:"required"`
	Description         string    `json:"description"`
	Instructions        string    `json:"instructions"`
	CourseID            string    `json:"courseId" validate:"required"`
	ChapterID           string    `json:"chapterId"`
	MaxMarks            int       `json:"maxMarks" validate:"gte=0"`
	DueDate             time.Time `json:"dueDate"`
	AllowLateSubmission bool      `json:"allowLateSubmission"`
	SubmissionType      string    `json:"submissionType" validate:"omitempty,oneof=file text both"`
	Status              string    `json:"status" validate:"omitempty,oneof=active closed draft"`
}

func (r assignmentRequest) input() app.AssignmentInput {
	return app.AssignmentInput{
		Title:               r.Title,
		Description:         r.Description,
		Instructions:        r.Instructions,
		CourseID:            r.CourseID,
		ChapterID:           r.ChapterID,
		MaxMarks:            r.MaxMarks,
		DueDate:             r.DueDate,
		AllowLateSubmission: r.AllowLateSubmission,
		SubmissionType:      domain.SubmissionType(r.SubmissionType),
		Status:              domain.AssignmentStatus(r.Status),
	}
}

type gradeRequest struct {
	Marks    *int   `json:"marks" validate:"required"`
	Feedback string `json:"feedback"`
}

type submitAssignmentRequest struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments" validate:"dive,url"`
}

func (h *Handler) createAssignment(c echo.Context) error {
	var req assignmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.Assignments.Create(c.Request().Context(), claimsFrom(c).UserID(), req.input())
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "assignment created", a)
}

func (h *Handler) teacherAssignments(c echo.Context) error {
	list, err := h.svc.Assignments.TeacherAssignments(c.Request().Context(), claimsFrom(c).UserID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", list)
}

func (h *Handler) updateAssignment(c echo.Context) error {
	var req assignmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.svc.Assignments.Update(c.Request().Context(), claimsFrom(c).UserID(), c.Param("assignmentId"), req.input())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "assignment updated", a)
}

func (h *Handler) deleteAssignment(c echo.Context) error {
	if err := h.svc.Assignments.Delete(c.Request().Context(), claimsFrom(c).UserID(), c.Param("assignmentId")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "assignment deleted", nil)
}

func (h *Handler) assignmentSubmissions(c echo.Context) error {
	subs, err := h.svc.Assignments.Submissions(c.Request().Context(), claimsFrom(c).UserID(), c.Param("assignmentId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", subs)
}

func (h *Handler) gradeSubmission(c echo.Context) error {
	var req gradeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	sub, err := h.svc.Assignments.Grade(c.Request().Context(), claimsFrom(c).UserID(), c.Param("submissionId"), *req.Marks, req.Feedback)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "submission graded", sub)
}

func (h *Handler) studentAssignments(c echo.Context) error {
	list, err := h.svc.Assignments.StudentAssignments(c.Request().Context(), claimsFrom(c).UserID(), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", list)
}

func (h *Handler) submitAssignment(c echo.Context) error {
	var req submitAssignmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	sub, err := h.svc.Assignments.Submit(c.Request().Context(), claimsFrom(c).UserID(), c.Param("assignmentId"), app.SubmitAssignmentInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "assignment submitted", sub)
}

func (h *Handler) studentSubmission(c echo.Context) error {
	sub, err := h.svc.Assignments.StudentSubmission(c.Request().Context(), claimsFrom(c).UserID(), c.Param("assignmentId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", sub)
}
