package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"todoList/internal/logger"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const RequestIdKey contextKey = "request_id"

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get("X-Request-ID")
		if requestId == "" {
			requestId = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestId)

		ctx := context.WithValue(r.Context(), RequestIdKey, requestId)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

type loggingWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (lw *loggingWriter) WriteHeader(code int) {
	if !lw.wroteHeader {
		lw.status = code
		lw.wroteHeader = true
		lw.ResponseWriter.WriteHeader(code)
	}

}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if !lw.wroteHeader {
		lw.WriteHeader(http.StatusOK)
	}

	n, err := lw.ResponseWriter.Write(b)
	lw.size += n
	return n, err
}

// Flush нужен потоку /tasks/stream.
func (lw *loggingWriter) Flush() {
	if !lw.wroteHeader {
		lw.WriteHeader(http.StatusOK)
	}
	if f, ok := lw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (lw *loggingWriter) Unwrap() http.ResponseWriter {
	return lw.ResponseWriter
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestId := GetRequestID(r.Context())

		logger.Info(
			"HTTP_IN: Начало запроса",
			zap.String("request_id", requestId),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.String("client_ip", r.RemoteAddr),
		)

		lw := &loggingWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
			size:           0,
			wroteHeader:    false,
		}
		next.ServeHTTP(lw, r)

		logLevel := zap.InfoLevel
		if lw.status >= 400 && lw.status < 500 {
			logLevel = zap.WarnLevel
		} else if lw.status >= 500 {
			logLevel = zap.ErrorLevel
		}
		logger.Log(
			logLevel,
			"HTTP_OUT: Завершение запроса",
			zap.String("request_id", requestId),
			zap.Int("status", lw.status),
			zap.Int("bytes_written", lw.size),
			zap.Duration("ms", time.Since(start)),
		)

	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIdKey).(string); ok {
		return id
	}
	return ""
}

type clientInfo struct {
	count   int
	resetAt time.Time
}

// rateLimiter считает запросы по IP в окне. Записи с истёкшим окном
// удаляются не чаще раза в окно.
type rateLimiter struct {
	rpm       int
	window    time.Duration
	now       func() time.Time
	mtx       sync.Mutex
	clients   map[string]*clientInfo
	nextSweep time.Time
}

func newRateLimiter(rpm int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		rpm:     rpm,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientInfo),
	}
}

// allow возвращает, пропускать ли запрос, остаток и время сброса окна.
func (l *rateLimiter) allow(ip string) (bool, int, time.Time) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	l.sweep(now)

	info, exists := l.clients[ip]
	switch {
	case !exists:
		info = &clientInfo{count: 1, resetAt: now.Add(l.window)}
		l.clients[ip] = info
	case now.After(info.resetAt):
		info.count = 1
		info.resetAt = now.Add(l.window)
	case info.count >= l.rpm:
		return false, 0, info.resetAt
	default:
		info.count++
	}

	return true, max(l.rpm-info.count, 0), info.resetAt
}

// sweep вызывается под l.mtx.
func (l *rateLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for ip, info := range l.clients {
		if now.After(info.resetAt) {
			delete(l.clients, ip)
		}
	}
	l.nextSweep = now.Add(l.window)
}

func (l *rateLimiter) size() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.clients)
}

// RateLimit ограничивает число запросов с одного IP в минуту. rpm <= 0 отключает лимит.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	limiter := newRateLimiter(rpm, time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rpm <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ok, remaining, resetAt := limiter.allow(getIp(r))
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Слишком много запросов. Попробуйте позже.",
					"retry_after": int(time.Until(resetAt).Seconds()),
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
