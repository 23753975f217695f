package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rheumatrack/rheumatrack/internal/platform/auth"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid == "" {
			t.Error("expected request_id to be generated")
		}
		return c.String(http.StatusOK, "ok")
	}

	mw := RequestID()
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return c.String(http.StatusOK, "ok")
	}

	mw := RequestID()
	h := mw(handler)
	h(c)

	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := Logger(logger)
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := buf.String()
	for _, field := range []string{`"method":"GET"`, `"path":"/test"`, `"status":200`} {
		if !strings.Contains(line, field) {
			t.Errorf("expected log line to contain %s, got %s", field, line)
		}
	}
	if strings.Contains(line, `"user_id"`) {
		t.Errorf("expected no user_id for anonymous request, got %s", line)
	}
}

func TestLogger_IncludesCallerAndPatient(t *testing.T) {
	patientID := "9b6b2a1e-7b4e-4a84-9a3e-1f2d3c4b5a69"
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+patientID+"/lab-orders", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, "dr-osler"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := Logger(logger)
	h := mw(handler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := buf.String()
	if !strings.Contains(line, `"user_id":"dr-osler"`) {
		t.Errorf("expected user_id in log line, got %s", line)
	}
	if !strings.Contains(line, `"patient_id":"`+patientID+`"`) {
		t.Errorf("expected patient_id in log line, got %s", line)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		panic("boom")
	}

	mw := Recovery(logger)
	h := mw(handler)
	err := h(c)

	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
	if httpErr.Message != "internal server error" {
		t.Errorf("expected generic message, got %v", httpErr.Message)
	}

	line := buf.String()
	if !strings.Contains(line, `"panic":"boom"`) {
		t.Errorf("expected panic value in log line, got %s", line)
	}
	if !strings.Contains(line, `"path":"/panic"`) {
		t.Errorf("expected path in log line, got %s", line)
	}
	if !strings.Contains(line, `"stack"`) {
		t.Errorf("expected stack in log line, got %s", line)
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := Recovery(logger)
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAudit_LogsEvent(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/9b6b2a1e-7b4e-4a84-9a3e-1f2d3c4b5a69/assessments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "req-123")

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := Audit(logger)
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAudit_ResourceFromPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/patients/9b6b2a1e-7b4e-4a84-9a3e-1f2d3c4b5a69/assessments", "assessments"},
		{"/api/v1/patients/9b6b2a1e-7b4e-4a84-9a3e-1f2d3c4b5a69/lab-orders", "lab-orders"},
		{"/api/v1/lab-tests", "lab-tests"},
		{"/api/v1/", "unknown"},
	}
	for _, tc := range cases {
		if got := resourceFromPath(tc.path); got != tc.want {
			t.Errorf("resourceFromPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestAudit_PatientIDFromPath(t *testing.T) {
	id := "9b6b2a1e-7b4e-4a84-9a3e-1f2d3c4b5a69"
	if got := patientIDFromPath("/api/v1/patients/" + id + "/assessments"); got != id {
		t.Errorf("expected %s, got %s", id, got)
	}
	if got := patientIDFromPath("/api/v1/patients/not-a-uuid/assessments"); got != "" {
		t.Errorf("expected empty for malformed id, got %s", got)
	}
	if got := patientIDFromPath("/api/v1/lab-tests"); got != "" {
		t.Errorf("expected empty for unscoped path, got %s", got)
	}
}
