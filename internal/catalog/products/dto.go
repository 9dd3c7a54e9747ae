package products

import (
	"io"
	"net/url"

	"github.com/shopspring/decimal"
)

// ImageFile is one uploaded file as received from the client.
type ImageFile struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// CreateForm is the raw multipart submission of a new product: scalar and
// attributes[<id>] fields in Values, files in Images (in upload order).
type CreateForm struct {
	Values url.Values
	Images []ImageFile
}

// createInput holds the parsed scalars. Numeric fields are pointers so that a
// missing or malformed value is distinguishable from zero.
type createInput struct {
	CategoryID    *int64  `json:"category_id" validate:"omitempty,gt=0"`
	SubcategoryID *int64  `json:"subcategory_id" validate:"omitempty,gt=0"`
	Name          string  `json:"name" validate:"required,max=255"`
	Description   string  `json:"description" validate:"required,max=5000"`
	StockQuantity *int    `json:"stock_quantity" validate:"omitempty,gte=0"`
	ARModelPath   *string `json:"ar_model_path" validate:"omitempty,max=512"`

	Price      decimal.Decimal  `json:"-"`
	Attributes []AttributeInput `json:"-"`
	Images     []preparedImage  `json:"-"`
}

// AttributeInput is one parsed attributes[<id>]=<value> field.
type AttributeInput struct {
	AttributeID int64
	Value       string
}

type preparedImage struct {
	ImageFile
	ext string
}

func (in createInput) product(image string) Product {
	description := in.Description
	return Product{
		CategoryID:    *in.CategoryID,
		SubcategoryID: *in.SubcategoryID,
		Name:          in.Name,
		Description:   &description,
		Price:         in.Price,
		StockQuantity: *in.StockQuantity,
		ARModelPath:   in.ARModelPath,
		Image:         image,
	}
}
