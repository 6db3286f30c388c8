package categories

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("category not found")
	ErrInvalidParent     = errors.New("invalid parent category")
	ErrCircularParent    = errors.New("parent would create a cycle")
	ErrHasChildren       = errors.New("category has active child categories")
	ErrHasProducts       = errors.New("category has associated products")
	QueryTimeoutDuration = time.Second * 5
)

type Category struct {
	ID          int64      `json:"id"`
	ParentID    *int64     `json:"parent_id,omitempty"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Node is one entry of a display tree (navigation menu, full category tree).
// Children are always sorted by name.
type Node struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Children []*Node `json:"children"`
}

type Crumb struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PickerLevels pre-selects the four level category picker; nil levels are
// empty.
type PickerLevels [4]*int64

type Location struct {
	Path       []Crumb      `json:"path"`
	Breadcrumb string       `json:"breadcrumb"`
	Levels     PickerLevels `json:"levels"`
}

type CreateInput struct {
	ParentID    *int64
	Name        string
	Description *string
}

type UpdateInput struct {
	ParentID    *int64
	Name        string
	Description *string
	IsActive    bool
}
