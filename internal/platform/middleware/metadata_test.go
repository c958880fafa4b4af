package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nirvagold/DapoMaster/pkg/requestcontext"
)

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA string
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
	}))

	t.Run("prefers the first X-Forwarded-For hop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "203.0.113.7", gotIP)
	})

	t.Run("falls back to RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.4:52110"
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "192.0.2.4", gotIP)
	})

	t.Run("normalizes a browser user agent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Contains(t, gotUA, "Chrome")
		assert.Contains(t, gotUA, "Windows")
	})

	t.Run("keeps an unrecognized user agent verbatim", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "curl/8.5.0")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEmpty(t, gotUA)
	})
}
