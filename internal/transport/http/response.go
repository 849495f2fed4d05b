package http

import (
	"github.com/labstack/echo/v4"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool        `json:"success"`
	Error   bool        `json:"error"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, envelope{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, envelope{Error: true, Message: message, Data: data})
}
