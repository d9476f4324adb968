package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/example/lab-booking/internal/application"
)

// Claims is the bearer token payload: the subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for principal that expires ttl after now.
func IssueToken(secret string, principal application.Principal, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("http: empty signing secret")
	}
	if principal.UserID == "" || !principal.Role.Valid() {
		return "", fmt.Errorf("http: cannot issue token for %q with role %q", principal.UserID, principal.Role)
	}
	claims := Claims{
		Role: string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates raw and returns the principal it carries. A nil now
// uses the wall clock.
func ParseToken(secret, raw string, now func() time.Time) (application.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return application.Principal{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid {
		return application.Principal{}, errInvalidToken
	}

	role := application.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return application.Principal{}, fmt.Errorf("%w: missing subject or unknown role", errInvalidToken)
	}
	return application.Principal{UserID: claims.Subject, Role: role}, nil
}

// JWTAuth authenticates bearer tokens and stores the principal in the request
// context. Requests without a valid token are answered with 401.
func JWTAuth(secret string, logger *slog.Logger) echo.MiddlewareFunc {
	responder := newResponder(logger)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request())
			if raw == "" {
				return responder.writeError(c, http.StatusUnauthorized, errMissingToken)
			}

			principal, err := ParseToken(secret, raw, nil)
			if err != nil {
				responder.loggerFor(c).WarnContext(c.Request().Context(), "bearer token rejected", "error", err, "error_kind", "unauthenticated")
				return responder.writeJSON(c, http.StatusUnauthorized, errorResponse{Message: errInvalidToken.Error()})
			}

			withContext(c, ContextWithPrincipal(c.Request().Context(), principal))
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
