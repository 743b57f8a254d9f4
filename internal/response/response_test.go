package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Fail(c, http.StatusConflict, ErrAlreadySubmitted) })

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"caller id reused", "trace-42_a.b", true},
		{"header injection replaced", "abc\r\nSet-Cookie: x", false},
		{"overlong replaced", strings.Repeat("a", maxRequestIDLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			var body Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got := w.Header().Get("X-Request-ID")
			if got == "" || body.Metadata.RequestID != got {
				t.Fatalf("header %q, metadata %q", got, body.Metadata.RequestID)
			}
			if tt.keep != (got == tt.incoming) {
				t.Errorf("request id = %q, incoming %q, keep %v", got, tt.incoming, tt.keep)
			}
			if body.Error == nil || body.Error.Code != ErrAlreadySubmitted || body.Error.Message == "" {
				t.Errorf("error body = %+v", body.Error)
			}
		})
	}
}
