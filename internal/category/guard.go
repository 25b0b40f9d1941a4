package category

import (
	"strings"

	"github.com/google/uuid"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/pkg/slug"
)

// ValidateCreate checks a new category against the snapshot flat and returns
// the record to insert. An omitted slug is generated from the name.
func ValidateCreate(flat []domain.Category, in domain.CreateCategoryInput) (*domain.Category, error) {
	s, err := normalizeSlug(in.Slug, in.Name)
	if err != nil {
		return nil, err
	}
	if taken(flat, s, "") {
		return nil, domain.Reject(domain.CodeDuplicateSlug, "slug %q is already in use", s)
	}

	level := 0
	if in.ParentID != nil {
		if find(flat, *in.ParentID) == nil {
			return nil, domain.Reject(domain.CodeParentNotFound, "parent category %s does not exist", *in.ParentID)
		}
		level = LevelOf(*in.ParentID, flat) + 1
	}

	return &domain.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        s,
		ParentID:    in.ParentID,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		SortOrder:   in.SortOrder,
		Level:       level,
	}, nil
}

// ValidateUpdate applies patch to category id and re-checks whatever changed:
// slug uniqueness excluding the category itself, then parent existence, then
// cycle freedom.
func ValidateUpdate(flat []domain.Category, id string, patch domain.UpdateCategoryInput) (*domain.Category, error) {
	current := find(flat, id)
	if current == nil {
		return nil, domain.Reject(domain.CodeNotFound, "category %s not found", id)
	}
	next := *current
	next.Children = nil

	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Slug != nil {
		s, err := normalizeSlug(*patch.Slug, next.Name)
		if err != nil {
			return nil, err
		}
		if !slug.Equal(s, current.Slug) && taken(flat, s, id) {
			return nil, domain.Reject(domain.CodeDuplicateSlug, "slug %q is already in use", s)
		}
		next.Slug = s
	}
	if patch.Description != nil {
		next.Description = patch.Description
	}
	if patch.ImageURL != nil {
		next.ImageURL = patch.ImageURL
	}
	if patch.SortOrder != nil {
		next.SortOrder = *patch.SortOrder
	}

	switch {
	case patch.MoveToRoot:
		next.ParentID = nil
	case patch.ParentID != nil:
		parentID := *patch.ParentID
		if find(flat, parentID) == nil {
			return nil, domain.Reject(domain.CodeParentNotFound, "parent category %s does not exist", parentID)
		}
		if WouldCreateCycle(id, &parentID, flat) {
			return nil, domain.Reject(domain.CodeCircularReference,
				"category %s cannot be moved under %s, which is itself or one of its descendants", id, parentID)
		}
		next.ParentID = &parentID
	}

	next.Level = 0
	if next.ParentID != nil {
		next.Level = LevelOf(*next.ParentID, flat) + 1
	}
	return &next, nil
}

// ValidateDelete allows deleting id only when no product and no child
// category references it. Deletes never cascade.
func ValidateDelete(flat []domain.Category, id string) error {
	c := find(flat, id)
	if c == nil {
		return domain.Reject(domain.CodeNotFound, "category %s not found", id)
	}
	if c.ProductCount > 0 {
		return domain.Reject(domain.CodeHasProducts, "category %s still has %d products", c.Slug, c.ProductCount)
	}
	if n := countChildren(flat, id); n > 0 {
		return domain.Reject(domain.CodeHasChildren, "category %s still has %d subcategories", c.Slug, n)
	}
	return nil
}

// Find returns the category with the given id or slug from flat.
func Find(flat []domain.Category, idOrSlug string) (*domain.Category, bool) {
	if c := find(flat, idOrSlug); c != nil {
		return c, true
	}
	for i := range flat {
		if slug.Equal(flat[i].Slug, idOrSlug) {
			return &flat[i], true
		}
	}
	return nil, false
}

func normalizeSlug(raw, name string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		s = slug.Generate(name)
	}
	if !slug.Valid(s) {
		return "", domain.Reject(domain.CodeInvalidInput,
			"slug %q must be lowercase letters, digits and single hyphens", s)
	}
	// Find resolves ids before slugs, so an id-shaped slug could never be looked up.
	if _, err := uuid.Parse(s); err == nil && len(s) == len(uuid.Nil.String()) {
		return "", domain.Reject(domain.CodeInvalidInput, "slug %q must not be shaped like an id", s)
	}
	return s, nil
}

func taken(flat []domain.Category, s, exceptID string) bool {
	for _, c := range flat {
		if c.ID != exceptID && slug.Equal(c.Slug, s) {
			return true
		}
	}
	return false
}

func find(flat []domain.Category, id string) *domain.Category {
	for i := range flat {
		if flat[i].ID == id {
			return &flat[i]
		}
	}
	return nil
}

func countChildren(flat []domain.Category, id string) int {
	n := 0
	for _, c := range flat {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n
}
