package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/logging"
)

type sessionValidatorStub struct {
	principals map[string]application.Principal
	errs       map[string]error
}

func (s sessionValidatorStub) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	if err, ok := s.errs[token]; ok {
		return application.Principal{}, err
	}
	if p, ok := s.principals[token]; ok {
		return p, nil
	}
	return application.Principal{}, application.ErrInvalidCredentials
}

func TestSessionMiddleware(t *testing.T) {
	t.Parallel()

	validator := sessionValidatorStub{
		principals: map[string]application.Principal{
			"good-token": {UserID: "student-1", Role: application.RoleStudent},
		},
		errs: map[string]error{
			"expired-token": application.ErrSessionExpired,
			"revoked-token": application.ErrSessionRevoked,
			"broken-token":  errors.New("database is locked"),
		},
	}

	tests := []struct {
		name           string
		cookieToken    *http.Cookie
		headerToken    string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "missing credentials",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_INVALID_CREDENTIALS",
		},
		{
			name:           "unknown bearer token",
			headerToken:    "Bearer malformed",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_INVALID_CREDENTIALS",
		},
		{
			name:           "revoked session",
			cookieToken:    &http.Cookie{Name: "session_token", Value: "revoked-token"},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_SESSION_REVOKED",
		},
		{
			name:           "expired session",
			headerToken:    "Bearer expired-token",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTH_SESSION_EXPIRED",
		},
		{
			name:           "validator failure",
			headerToken:    "Bearer broken-token",
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "valid bearer token",
			headerToken:    "bearer good-token",
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "valid cookie",
			cookieToken:    &http.Cookie{Name: "session_token", Value: "good-token"},
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var seen application.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})
			handler := RequireSession(validator, slog.New(slog.DiscardHandler))(next)

			req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
			if tc.headerToken != "" {
				req.Header.Set("Authorization", tc.headerToken)
			}
			if tc.cookieToken != nil {
				req.AddCookie(tc.cookieToken)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.expectedStatus, rec.Code, rec.Body.String())
			}
			if tc.expectedStatus == http.StatusNoContent && seen.UserID != "student-1" {
				t.Fatalf("expected principal in context, got %+v", seen)
			}
			if tc.expectedCode != "" {
				var body errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body.ErrorCode != tc.expectedCode {
					t.Fatalf("expected error code %s, got %+v", tc.expectedCode, body)
				}
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logging.New(&buf, slog.LevelInfo)

	var fromContext *slog.Logger
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rooms", nil))

	if fromContext == nil {
		t.Fatal("expected request logger in context")
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request completed" || entry["path"] != "/rooms" || entry["method"] != http.MethodGet {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if status, _ := entry["status"].(float64); int(status) != http.StatusTeapot {
		t.Fatalf("expected recorded status 418, got %v", entry["status"])
	}
	if _, ok := entry["request_id"]; !ok {
		t.Fatalf("expected request_id attribute, got %v", entry)
	}
}
