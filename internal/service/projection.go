package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anmar534/loctah-sub000/internal/repository"
)

// ProjectionService keeps the local product projection in step with the
// product service. Product counts on categories come from it, so every
// change drops the cached category snapshot.
type ProjectionService struct {
	repo   repository.ProductProjectionRepository
	cache  repository.CategoryCache
	logger *slog.Logger
}

// NewProjectionService creates a projection service. cache may be nil.
func NewProjectionService(repo repository.ProductProjectionRepository, cache repository.CategoryCache, logger *slog.Logger) *ProjectionService {
	return &ProjectionService{repo: repo, cache: cache, logger: logger}
}

// ProductUpserted records the product's current category.
func (s *ProjectionService) ProductUpserted(ctx context.Context, productID string, categoryID *string) error {
	if err := s.repo.Upsert(ctx, productID, categoryID); err != nil {
		return fmt.Errorf("upsert product projection: %w", err)
	}
	invalidateSnapshot(ctx, s.cache, s.logger)
	return nil
}

// ProductDeleted forgets the product.
func (s *ProjectionService) ProductDeleted(ctx context.Context, productID string) error {
	if err := s.repo.Delete(ctx, productID); err != nil {
		return fmt.Errorf("delete product projection: %w", err)
	}
	invalidateSnapshot(ctx, s.cache, s.logger)
	return nil
}
