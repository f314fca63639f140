package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expose     bool
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{"app_error", apperrors.ErrGoalNotFound, false, http.StatusNotFound, "GOAL_NOT_FOUND", ""},
		{"plain_error_hidden", errors.New("pq: connection refused"), false, http.StatusInternalServerError, "INTERNAL_ERROR", ""},
		{"plain_error_exposed", errors.New("pq: connection refused"), true, http.StatusInternalServerError, "INTERNAL_ERROR", "pq: connection refused"},
		{"wrapped_exposed", apperrors.Wrap(apperrors.ErrInternalServer, errors.New("disk full")), true, http.StatusInternalServerError, "INTERNAL_ERROR", "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ExposeErrorDetail(tt.expose)
			defer ExposeErrorDetail(false)

			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/fail", func(c *gin.Context) { _ = c.Error(tt.err) })

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := parseBody(t, rec)
			if body["success"] != false || body["code"] != tt.wantCode {
				t.Errorf("unexpected envelope %v", body)
			}
			detail, _ := body["detail"].(string)
			if detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", detail, tt.wantDetail)
			}
		})
	}
}

func TestRespondOK(t *testing.T) {
	r := gin.New()
	r.GET("/ok", func(c *gin.Context) { RespondOK(c, http.StatusCreated, gin.H{"id": "1"}, "created") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))

	body := parseBody(t, rec)
	if rec.Code != http.StatusCreated || body["success"] != true || body["message"] != "created" {
		t.Errorf("unexpected response %d %v", rec.Code, body)
	}
	if data, ok := body["data"].(map[string]interface{}); !ok || data["id"] != "1" {
		t.Errorf("unexpected data %v", body["data"])
	}
}

func TestRequestLogging_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected the incoming id to be reused, got %q", got)
	}
}
