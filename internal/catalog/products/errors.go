package products

import (
	"errors"
	"fmt"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
)

// noImagesMessage is the client-facing text for ErrNoImages.
const noImagesMessage = "Please upload at least one image"

var (
	// ErrNotFound indicates the requested product does not exist.
	ErrNotFound = fmt.Errorf("product not found: %w", shared.ErrNotFound)
	// ErrNoImages is returned when a create request carries no image files.
	ErrNoImages = errors.New("please upload at least one image")
)
