package domain

import "time"

// Category is one node of the catalog taxonomy. Level and Children are
// derived on read and never persisted.
type Category struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Slug         string      `json:"slug"`
	ParentID     *string     `json:"parent_id,omitempty"`
	Description  *string     `json:"description,omitempty"`
	ImageURL     *string     `json:"image_url,omitempty"`
	SortOrder    int         `json:"sort_order"`
	ProductCount int         `json:"product_count"`
	Level        int         `json:"level"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Children     []*Category `json:"children,omitempty"`
}

// IsRoot reports whether c has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// CreateCategoryInput is the payload for creating a category. An empty slug
// is generated from the name.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Slug        string  `json:"slug" validate:"omitempty,max=120,slug"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	SortOrder   int     `json:"sort_order" validate:"gte=0"`
}

// UpdateCategoryInput is a partial update. Nil fields are left unchanged;
// MoveToRoot clears the parent and cannot be combined with ParentID.
type UpdateCategoryInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Slug        *string `json:"slug" validate:"omitempty,max=120,slug"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid,excluded_with=MoveToRoot"`
	MoveToRoot  bool    `json:"move_to_root"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	SortOrder   *int    `json:"sort_order" validate:"omitempty,gte=0"`
}

// ChangesParent reports whether the update touches the parent reference.
func (in UpdateCategoryInput) ChangesParent() bool {
	return in.ParentID != nil || in.MoveToRoot
}
