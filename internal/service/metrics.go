package service

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/repository"
	"github.com/anmar534/loctah-sub000/pkg/logger"
)

var guardRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_guard_rejections_total",
		Help: "Mutations refused by a guard, by operation and rejection code.",
	},
	[]string{"guard", "code"},
)

// observeRejection counts and logs err when it is a guard rejection. Other
// errors are left to the caller.
func observeRejection(ctx context.Context, l *slog.Logger, guard string, err error) {
	code, ok := domain.CodeOf(err)
	if !ok {
		return
	}
	guardRejections.WithLabelValues(guard, string(code)).Inc()
	l.WarnContext(ctx, "mutation rejected",
		slog.String("guard", guard),
		slog.String("code", string(code)),
		logger.Err(err),
	)
}

// invalidateSnapshot drops the cached category snapshot. A failure only
// leaves stale reads until the TTL expires, so it is logged.
func invalidateSnapshot(ctx context.Context, cache repository.CategoryCache, l *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		l.WarnContext(ctx, "failed to invalidate category cache", logger.Err(err))
	}
}
