package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// statusResponseWriter обёртка для http.ResponseWriter, чтобы захватывать статус-код
// и передавать его дальше
type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader сохраняет статус и вызывает оригинальный WriteHeader
func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware пишет в zap информацию о каждом HTTP-запросе и панике
// После логирования паника пробрасывается дальше
func LoggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic while serving request",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Int("status", http.StatusInternalServerError),
						zap.Duration("duration", time.Since(start)),
						zap.Any("panic", rec),
					)
					panic(rec)
				}
			}()
			next.ServeHTTP(srw, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", srw.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// HTTPMetrics учёт HTTP-запросов
type HTTPMetrics interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// MetricsMiddleware учитывает запросы по шаблону маршрута (/workouts/{id}),
// чтобы идентификаторы не раздували число серий
func MetricsMiddleware(m HTTPMetrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(srw, r)
			m.ObserveHTTP(r.Method, routeTemplate(r), srw.status, time.Since(start))
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
