package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"todoList/internal/middleware"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// TestRequestID тестирует генерацию и проброс X-Request-ID
func TestRequestID(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	})

	t.Run("from header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "abc")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "abc", seen)
		assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	})
}

// TestLogging_KeepsFlusher тестирует, что обёртка не теряет http.Flusher
func TestLogging_KeepsFlusher(t *testing.T) {
	var flushed bool
	h := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("data: x\n\n"))
		f.Flush()
		flushed = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/tasks/stream", nil))

	assert.True(t, flushed)
	assert.True(t, w.Flushed)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRateLimit тестирует ограничение числа запросов
func TestRateLimit(t *testing.T) {
	h := middleware.RateLimit(2)(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
}

// TestRateLimit_Disabled тестирует отключённый лимит
func TestRateLimit_Disabled(t *testing.T) {
	h := middleware.RateLimit(0)(http.HandlerFunc(okHandler))
	for range 5 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
