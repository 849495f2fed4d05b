// Package http exposes the LMS use cases over a JSON REST API and a
// websocket live dashboard.
package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"lms-service/internal/app"
	"lms-service/internal/domain"
)

// Handler carries the services every route delegates to.
type Handler struct {
	svc      *app.Services
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(svc *app.Services, log *zap.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// NewServer builds the echo instance with middleware, error handling and routes.
func NewServer(svc *app.Services, tokens TokenParser, log *zap.Logger) *echo.Echo {
	v := newRequestValidator()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v
	e.HTTPErrorHandler = newErrorHandler(log, v)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	NewHandler(svc, log).Register(e, authenticate(tokens, svc.Auth))
	return e
}

// Register mounts every route under /api/v1; authn guards the private ones.
func (h *Handler) Register(e *echo.Echo, authn echo.MiddlewareFunc) {
	e.GET("/healthz", func(c echo.Context) error {
		return respond(c, http.StatusOK, "ok", nil)
	})

	api := e.Group("/api/v1")

	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.POST("/auth/logout", h.logout, authn)
	api.GET("/auth/profile", h.profile, authn)
	api.PUT("/auth/profile", h.updateProfile, authn)
	api.PUT("/auth/change-password", h.changePassword, authn)

	api.GET("/courses", h.listCourses)
	api.GET("/courses/:courseId", h.getCourse)
	api.GET("/courses/:courseId/decks", h.courseDecks)
	api.GET("/decks/:deckId/study", h.studyDeck)
	api.GET("/stats", h.stats)

	student := api.Group("/student", authn, requireRole(domain.RoleStudent))
	student.POST("/courses/:courseId/enroll", h.enroll)
	student.POST("/courses/:courseId/chapters/:chapterId/topics/:topicId/quiz", h.submitQuiz)
	student.POST("/courses/:courseId/chapters/:chapterId/topics/:topicId/complete", h.completeTopic)
	student.GET("/courses/:courseId/submissions", h.quizSubmissions)
	student.GET("/streak", h.streak)
	student.POST("/progress", h.reportStudy)
	student.GET("/dashboard", h.dashboard)
	student.GET("/dashboard/live", h.liveDashboard)
	student.GET("/assignments", h.studentAssignments)
	student.POST("/assignments/:assignmentId/submit", h.submitAssignment)
	student.GET("/assignments/:assignmentId/submission", h.studentSubmission)

	teacher := api.Group("/teacher", authn, requireRole(domain.RoleTeacher))
	teacher.POST("/courses", h.createCourse)
	teacher.GET("/courses", h.teacherCourses)
	teacher.POST("/assignments", h.createAssignment)
	teacher.GET("/assignments", h.teacherAssignments)
	teacher.PUT("/assignments/:assignmentId", h.updateAssignment)
	teacher.DELETE("/assignments/:assignmentId", h.deleteAssignment)
	teacher.GET("/assignments/:assignmentId/submissions", h.assignmentSubmissions)
	teacher.POST("/submissions/:submissionId/grade", h.gradeSubmission)
	teacher.POST("/decks", h.createDeck)
	teacher.GET("/decks", h.teacherDecks)
	teacher.GET("/decks/:deckId", h.deckDetails)
	teacher.DELETE("/decks/:deckId", h.deleteDeck)
	teacher.POST("/decks/:deckId/cards", h.addCards)
	teacher.PUT("/decks/:deckId/cards/:cardId", h.editCard)
	teacher.DELETE("/decks/:deckId/cards/:cardId", h.deleteCard)
	teacher.PUT("/decks/:deckId/publish", h.publishDeck)

	admin := api.Group("/admin", authn, requireRole(domain.RoleAdmin))
	admin.GET("/teachers", h.teachers)
	admin.PUT("/teachers/:teacherId/approve", h.approveTeacher)
	admin.PUT("/teachers/:teacherId/reject", h.rejectTeacher)
	admin.POST("/students/:studentId/reaggregate", h.reaggregate)
}
