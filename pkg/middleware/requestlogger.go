package middleware

import (
	"log/slog"
	"net/http"

	"github.com/anmar534/loctah-sub000/pkg/logger"
)

// RequestLogger stores a logger enriched with correlation_id, actor_id and
// trace ids in the request context. Mount it after RequestLogging and Tracing,
// and again inside authenticated groups so the actor id is picked up.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if actorID := UserIDFromContext(ctx); actorID != "" {
				ctx = logger.WithActorID(ctx, actorID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
