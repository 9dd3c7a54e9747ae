package categories

import (
	"fmt"
	"time"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
)

// Category groups products at the top level of the catalog.
type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	CreatedAt     time.Time     `json:"created_at"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory belongs to exactly one category.
type Subcategory struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRequest is the body of POST /categories and
// POST /categories/{id}/subcategories.
type CreateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

var (
	ErrNotFound  = fmt.Errorf("category not found: %w", shared.ErrNotFound)
	ErrDuplicate = fmt.Errorf("name already exists: %w", shared.ErrDuplicate)
)
