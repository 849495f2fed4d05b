package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"lms-service/internal/auth"
	"lms-service/internal/domain"
)

const claimsKey = "claims"

// TokenParser verifies a raw bearer token.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// RevocationChecker reports whether a token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// authenticate requires a valid, unrevoked bearer token. Browsers cannot set
// headers on a websocket handshake, so upgrade requests may pass ?token=.
func authenticate(tokens TokenParser, revoked RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request())
			if raw == "" && websocket.IsWebSocketUpgrade(c.Request()) {
				raw = c.QueryParam("token")
			}
			if raw == "" {
				return domain.ErrInvalidToken
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				return err
			}
			gone, err := revoked.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return errors.Wrap(err, "checking token revocation")
			}
			if gone {
				return domain.ErrInvalidToken
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// requireRole runs after authenticate and rejects every other role.
func requireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := claimsFrom(c)
			if claims == nil {
				return domain.ErrInvalidToken
			}
			if claims.Role != role {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

// requestLogger writes one zap line per request. Only the path is logged so
// websocket tokens in the query string stay out of the logs.
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil && v.Status >= http.StatusInternalServerError {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
