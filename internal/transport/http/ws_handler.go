package http

import (
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// liveDashboard upgrades to a websocket that pushes the student's dashboard
// on connect and a fresh snapshot after every progress change. Clients may
// send {"type":"refresh"} to ask for a snapshot.
func (h *Handler) liveDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	studentID := claimsFrom(c).UserID()

	// subscribe before the first read so no change falls between the two
	updates, cancel := h.svc.Hub.Subscribe(studentID)
	defer cancel()

	initial, err := h.svc.Progress.Dashboard(ctx, studentID)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.String("student_id", studentID), zap.Error(err))
		return nil
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 4)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	snapshot := func() outboundMessage[any] {
		dash, err := h.svc.Progress.Snapshot(ctx, studentID)
		if err != nil {
			h.log.Warn("dashboard snapshot failed", zap.String("student_id", studentID), zap.Error(err))
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "dashboard", Payload: dash}
	}

	// single writer; gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", zap.String("student_id", studentID), zap.Error(err))
				// unblocks the read loop below
				_ = conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case _, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- snapshot():
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "dashboard", Payload: initial}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if _, ok := err.(*json.SyntaxError); ok {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid message"}}
				continue
			}
			break
		}
		switch inbound.Type {
		case "refresh":
			send <- snapshot()
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	return nil
}
