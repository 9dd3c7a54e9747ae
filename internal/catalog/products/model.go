package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the root catalog entity. Image holds the URL of the first
// uploaded image for list views.
type Product struct {
	ID            int64
	CategoryID    int64
	SubcategoryID int64
	Name          string
	Description   *string
	Price         decimal.Decimal
	StockQuantity int
	ARModelPath   *string
	Image         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Image is one stored file of a product.
type Image struct {
	ID        int64
	ProductID int64
	URL       string
}

// AttributeValue ties an attribute definition to a concrete value for a product.
type AttributeValue struct {
	ID          int64
	ProductID   int64
	AttributeID int64
	Value       string
}

// Detail is the client-facing shape of a product with its attributes and images.
type Detail struct {
	ID            int64            `json:"id"`
	CategoryID    int64            `json:"category_id"`
	SubcategoryID int64            `json:"subcategory_id"`
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Price         float64          `json:"price"`
	StockQuantity int              `json:"stock_quantity"`
	Image         string           `json:"image"`
	ARModelPath   *string          `json:"ar_model_path"`
	Attributes    []AttributeEntry `json:"attributes"`
	Images        []string         `json:"images"`
	CreatedAt     time.Time        `json:"created_at"`
}

// AttributeEntry is an attribute value joined with its definition name.
type AttributeEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Summary is the list-view shape of a product.
type Summary struct {
	ID            int64     `json:"id"`
	CategoryID    int64     `json:"category_id"`
	SubcategoryID int64     `json:"subcategory_id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	Image         string    `json:"image"`
	CreatedAt     time.Time `json:"created_at"`
}

func newDetail(p Product, attrs []AttributeEntry, images []string) *Detail {
	if attrs == nil {
		attrs = []AttributeEntry{}
	}
	if images == nil {
		images = []string{}
	}
	return &Detail{
		ID:            p.ID,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.InexactFloat64(),
		StockQuantity: p.StockQuantity,
		Image:         p.Image,
		ARModelPath:   p.ARModelPath,
		Attributes:    attrs,
		Images:        images,
		CreatedAt:     p.CreatedAt,
	}
}

func newSummary(p Product) Summary {
	return Summary{
		ID:            p.ID,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		Name:          p.Name,
		Price:         p.Price.InexactFloat64(),
		StockQuantity: p.StockQuantity,
		Image:         p.Image,
		CreatedAt:     p.CreatedAt,
	}
}
