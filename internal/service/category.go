package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anmar534/loctah-sub000/internal/category"
	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/repository"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
	"github.com/anmar534/loctah-sub000/pkg/logger"
)

// CategoryEvents publishes category changes.
type CategoryEvents interface {
	PublishCategoryCreated(ctx context.Context, c *domain.Category) error
	PublishCategoryUpdated(ctx context.Context, c *domain.Category) error
	PublishCategoryDeleted(ctx context.Context, id string) error
}

// CategoryService implements reads and guarded mutations of the category
// hierarchy. Reads may come from the cache; mutations always validate
// against a snapshot taken under the hierarchy lock.
type CategoryService struct {
	repo   repository.CategoryRepository
	cache  repository.CategoryCache
	events CategoryEvents
	logger *slog.Logger
}

// NewCategoryService creates a category service. cache may be nil.
func NewCategoryService(repo repository.CategoryRepository, cache repository.CategoryCache, events CategoryEvents, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		cache:  cache,
		events: events,
		logger: logger,
	}
}

// ListCategories returns every category with its level.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return category.WithLevels(snapshot), nil
}

// CategoryTree returns the hierarchy as nested roots.
func (s *CategoryService) CategoryTree(ctx context.Context) ([]*domain.Category, error) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return category.BuildTree(snapshot), nil
}

// GetCategory looks a category up by id or slug.
func (s *CategoryService) GetCategory(ctx context.Context, idOrSlug string) (*domain.Category, error) {
	flat, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := category.Find(flat, idOrSlug)
	if !ok {
		return nil, apperrors.NotFound("category", idOrSlug)
	}
	return c, nil
}

// CategoryPath returns the breadcrumb from the root down to the category.
func (s *CategoryService) CategoryPath(ctx context.Context, idOrSlug string) ([]domain.Category, error) {
	flat, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := category.Find(flat, idOrSlug)
	if !ok {
		return nil, apperrors.NotFound("category", idOrSlug)
	}
	return category.PathTo(c.ID, flat), nil
}

// CategoryDescendants returns every category below the given one, in
// snapshot order.
func (s *CategoryService) CategoryDescendants(ctx context.Context, idOrSlug string) ([]domain.Category, error) {
	flat, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := category.Find(flat, idOrSlug)
	if !ok {
		return nil, apperrors.NotFound("category", idOrSlug)
	}

	ids := category.DescendantIDs(c.ID, flat)
	out := make([]domain.Category, 0, len(ids))
	for _, d := range flat {
		if _, ok := ids[d.ID]; ok && d.ID != c.ID {
			out = append(out, d)
		}
	}
	return out, nil
}

// CreateCategory validates and inserts a category.
func (s *CategoryService) CreateCategory(ctx context.Context, in domain.CreateCategoryInput) (*domain.Category, error) {
	var created *domain.Category
	err := s.repo.Mutate(ctx, func(ctx context.Context, snapshot []domain.Category, w repository.CategoryWriter) error {
		c, err := category.ValidateCreate(snapshot, in)
		if err != nil {
			return err
		}
		if err := w.Create(ctx, c); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		observeRejection(ctx, s.logger, "category.create", err)
		return nil, fmt.Errorf("create category: %w", err)
	}

	invalidateSnapshot(ctx, s.cache, s.logger)
	if err := s.events.PublishCategoryCreated(ctx, created); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish category.created event",
			slog.String("category_id", created.ID),
			logger.Err(err),
		)
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", created.ID),
		slog.String("slug", created.Slug),
	)
	return created, nil
}

// UpdateCategory applies a partial update, including moves within the tree.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, patch domain.UpdateCategoryInput) (*domain.Category, error) {
	var updated *domain.Category
	err := s.repo.Mutate(ctx, func(ctx context.Context, snapshot []domain.Category, w repository.CategoryWriter) error {
		c, err := category.ValidateUpdate(snapshot, id, patch)
		if err != nil {
			return err
		}
		if err := w.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		observeRejection(ctx, s.logger, "category.update", err)
		return nil, fmt.Errorf("update category: %w", err)
	}

	invalidateSnapshot(ctx, s.cache, s.logger)
	if err := s.events.PublishCategoryUpdated(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish category.updated event",
			slog.String("category_id", updated.ID),
			logger.Err(err),
		)
	}

	attrs := []any{slog.String("category_id", updated.ID)}
	if patch.ChangesParent() {
		attrs = append(attrs, slog.Int("level", updated.Level))
	}
	s.logger.InfoContext(ctx, "category updated", attrs...)
	return updated, nil
}

// DeleteCategory removes a leaf category that no product uses.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	err := s.repo.Mutate(ctx, func(ctx context.Context, snapshot []domain.Category, w repository.CategoryWriter) error {
		if err := category.ValidateDelete(snapshot, id); err != nil {
			return err
		}
		return w.Delete(ctx, id)
	})
	if err != nil {
		observeRejection(ctx, s.logger, "category.delete", err)
		return fmt.Errorf("delete category: %w", err)
	}

	invalidateSnapshot(ctx, s.cache, s.logger)
	if err := s.events.PublishCategoryDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish category.deleted event",
			slog.String("category_id", id),
			logger.Err(err),
		)
	}

	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))
	return nil
}

// snapshot returns the cached snapshot or reloads it from the repository.
// Cache failures degrade to a database read.
func (s *CategoryService) snapshot(ctx context.Context) ([]domain.Category, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "category cache read failed", logger.Err(err))
		}
		if ok {
			return cached, nil
		}
	}

	snapshot, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshot); err != nil {
			s.logger.WarnContext(ctx, "category cache fill failed", logger.Err(err))
		}
	}
	return snapshot, nil
}
