// Package attributes manages the named characteristics (Color, Material, ...)
// that products carry values for.
package attributes

import (
	"fmt"
	"time"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
)

// Attribute is a product attribute definition.
type Attribute struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the body of POST /attributes.
type CreateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

var (
	ErrNotFound  = fmt.Errorf("attribute not found: %w", shared.ErrNotFound)
	ErrDuplicate = fmt.Errorf("attribute already exists: %w", shared.ErrDuplicate)
)
