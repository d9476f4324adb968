package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/example/lab-booking/internal/application"
)

const testSecret = "test-secret"

var (
	adminPrincipal   = application.Principal{UserID: "admin-1", Role: application.RoleAdmin}
	teacherPrincipal = application.Principal{UserID: "prof-a", Role: application.RoleTeacher}
)

func mustToken(t *testing.T, principal application.Principal) string {
	t.Helper()
	token, err := IssueToken(testSecret, principal, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestParseToken(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, time.March, 1, 11, 0, 0, 0, time.UTC)
	token, err := IssueToken(testSecret, teacherPrincipal, issued, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		principal, err := ParseToken(testSecret, token, func() time.Time { return issued.Add(time.Minute) })
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if principal != teacherPrincipal {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		_, err := ParseToken(testSecret, token, func() time.Time { return issued.Add(2 * time.Hour) })
		if !errors.Is(err, errInvalidToken) {
			t.Fatalf("expected invalid token, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		_, err := ParseToken("other", token, func() time.Time { return issued })
		if !errors.Is(err, errInvalidToken) {
			t.Fatalf("expected invalid token, got %v", err)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		t.Parallel()
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Role:             "student",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "s-1"},
		}).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := ParseToken(testSecret, raw, nil); !errors.Is(err, errInvalidToken) {
			t.Fatalf("expected invalid token, got %v", err)
		}
	})

	t.Run("unsigned token", func(t *testing.T) {
		t.Parallel()
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			Role:             "admin",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := ParseToken(testSecret, raw, nil); !errors.Is(err, errInvalidToken) {
			t.Fatalf("expected invalid token, got %v", err)
		}
	})

	t.Run("refuses to issue for unknown roles", func(t *testing.T) {
		t.Parallel()
		if _, err := IssueToken(testSecret, application.Principal{UserID: "x"}, issued, time.Hour); err == nil {
			t.Fatalf("expected issue error")
		}
		if _, err := IssueToken("", teacherPrincipal, issued, time.Hour); err == nil {
			t.Fatalf("expected error for empty secret")
		}
	})
}

func TestJWTAuth(t *testing.T) {
	t.Parallel()

	e := echo.New()
	captured := make(chan application.Principal, 1)
	e.GET("/protected", func(c echo.Context) error {
		principal, ok := PrincipalFromContext(c.Request().Context())
		if !ok {
			t.Error("expected principal in request context")
		}
		captured <- principal
		return c.NoContent(http.StatusOK)
	}, JWTAuth(testSecret, nil))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing credentials", status: http.StatusUnauthorized},
		{name: "non bearer scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "malformed bearer", header: "Bearer malformed", status: http.StatusUnauthorized},
		{name: "valid admin", header: "Bearer " + mustToken(t, adminPrincipal), status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + mustToken(t, adminPrincipal), status: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.status == http.StatusOK {
				if got := <-captured; got != adminPrincipal {
					t.Fatalf("unexpected principal %+v", got)
				}
			}
		})
	}
}
