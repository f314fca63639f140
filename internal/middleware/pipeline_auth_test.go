package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupJobsRouter mirrors the ops group: one POST route per job name,
// recording which job the guard let through.
func setupJobsRouter(apiKey string, reached *[]string) *gin.Engine {
	r := gin.New()
	jobs := r.Group("/jobs", PipelineAuthMiddleware(apiKey))
	jobs.POST("/:job", func(c *gin.Context) {
		*reached = append(*reached, c.Param("job"))
		c.JSON(http.StatusOK, gin.H{"job": c.Param("job")})
	})
	return r
}

func doJobRequest(r *gin.Engine, job, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/jobs/"+job, http.NoBody)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func TestPipelineAuthMiddleware(t *testing.T) {
	const key = "ops-key-1"

	tests := []struct {
		name       string
		configured string
		sent       string
		wantStatus int
		wantCode   string
	}{
		{"matching_key", key, key, http.StatusOK, ""},
		{"wrong_key", key, "ops-key-2", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"missing_key", key, "", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"prefix_of_key", key, "ops-key", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"case_differs", key, "OPS-KEY-1", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"not_configured", "", "anything", http.StatusServiceUnavailable, "PIPELINE_NOT_CONFIGURED"},
		{"not_configured_no_key", "", "", http.StatusServiceUnavailable, "PIPELINE_NOT_CONFIGURED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached []string
			rec := doJobRequest(setupJobsRouter(tt.configured, &reached), "purge-trash", tt.sent)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode == "" {
				if len(reached) != 1 || reached[0] != "purge-trash" {
					t.Errorf("expected the job handler to run once, got %v", reached)
				}
				return
			}

			if len(reached) != 0 {
				t.Errorf("handler ran despite rejection: %v", reached)
			}
			body := parseBody(t, rec)
			if success, _ := body["success"].(bool); success {
				t.Error("expected success=false")
			}
			if code, _ := body["code"].(string); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}
