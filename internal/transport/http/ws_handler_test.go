package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lms-service/internal/app"
	"lms-service/internal/domain"
)

type liveMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readNext(t *testing.T, conn *websocket.Conn) liveMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg liveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readDashboard skips messages until a dashboard matching want arrives.
func readDashboard(t *testing.T, conn *websocket.Conn, want func(domain.Dashboard) bool) domain.Dashboard {
	t.Helper()
	for i := 0; i < 5; i++ {
		msg := readNext(t, conn)
		if msg.Type != "dashboard" {
			continue
		}
		var dash domain.Dashboard
		require.NoError(t, json.Unmarshal(msg.Payload, &dash))
		if want(dash) {
			return dash
		}
	}
	t.Fatal("expected dashboard update never arrived")
	return domain.Dashboard{}
}

func liveURL(server *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/student/dashboard/live?token=" + token
}

func TestLiveDashboardPushesUpdates(t *testing.T) {
	h := newHarness(t)
	_, course := h.seed()
	student := h.signup("sam", "student")
	h.do(http.MethodPost, "/api/v1/student/courses/"+course.ID+"/enroll", student.token, nil)

	server := httptest.NewServer(h.e)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(liveURL(server, student.token), nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readDashboard(t, conn, func(domain.Dashboard) bool { return true })
	assert.Equal(t, student.userID, first.StudentID)
	assert.Equal(t, 0, first.TotalQuizzes)

	ref := course.Chapters[0]
	_, err = h.svc.Quizzes.SubmitQuiz(context.Background(), app.SubmitQuizInput{
		StudentID: student.userID,
		CourseID:  course.ID,
		ChapterID: ref.ID,
		TopicID:   ref.Topics[0].ID,
		Answers:   []domain.Answer{{QuestionID: ref.Topics[0].Quiz[0].ID, OptionID: ref.Topics[0].Quiz[0].CorrectOptionID}},
	})
	require.NoError(t, err)

	updated := readDashboard(t, conn, func(d domain.Dashboard) bool { return d.TotalQuizzes == 1 })
	assert.Equal(t, 25, updated.AverageQuizScore)

	_, err = h.svc.Progress.ReportStudy(context.Background(), student.userID, 30)
	require.NoError(t, err)
	updated = readDashboard(t, conn, func(d domain.Dashboard) bool { return d.WeeklyMinutes == 30 })
	assert.Equal(t, 1, updated.TotalQuizzes)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "refresh"}))
	readDashboard(t, conn, func(d domain.Dashboard) bool { return d.WeeklyMinutes == 30 })

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "shout"}))
	msg := readNext(t, conn)
	assert.Equal(t, "error", msg.Type)
}

func TestLiveDashboardRequiresStudentToken(t *testing.T) {
	h := newHarness(t)
	teacher, _ := h.seed()

	server := httptest.NewServer(h.e)
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial(liveURL(server, "bogus"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(liveURL(server, teacher.token), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLiveDashboardUnsubscribesOnClose(t *testing.T) {
	h := newHarness(t)
	student := h.signup("sam", "student")

	server := httptest.NewServer(h.e)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial(liveURL(server, student.token), nil)
	require.NoError(t, err)
	readNext(t, conn)
	assert.Equal(t, 1, h.svc.Hub.Subscribers(student.userID))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return h.svc.Hub.Subscribers(student.userID) == 0
	}, 5*time.Second, 10*time.Millisecond)
}
