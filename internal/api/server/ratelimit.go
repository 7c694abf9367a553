package server

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/afr-platform/internal/infra"
)

// RateLimitMiddleware защищает ингест от шторма батчей со стороны адаптеров.
// Лимитер общий на процесс: источник обычно один (локальный relay),
// per-IP деление здесь не нужно.
func RateLimitMiddleware(cfg infra.IngestConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst)
	log := logger.Named("ingest-ratelimit")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Warn("ingest throttled", zap.String("remote", r.RemoteAddr))
				w.Header().Set("Retry-After", "1")
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
