package products

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
	"github.com/storefront-labs/storefront/internal/platform/uploads"
)

var (
	minPrice = decimal.RequireFromString("0.01")
	maxPrice = decimal.RequireFromString("9999999999.99")
)

// createFields is the order violations are reported in.
var createFields = []string{
	"category_id", "subcategory_id", "name", "description", "price", "stock_quantity", "ar_model_path",
}

// parseCreateForm turns the raw submission into a createInput. It has no side
// effects: image files are only opened for content sniffing. Every violated
// rule is reported in one *shared.ValidationError, including a missing image
// upload. ErrNoImages is returned when that is the only problem.
func (s *Service) parseCreateForm(form CreateForm) (createInput, error) {
	var in createInput
	problems := make(map[string]string)

	in.CategoryID = parseID(form.Values, "category_id", problems)
	in.SubcategoryID = parseID(form.Values, "subcategory_id", problems)
	in.Name = strings.TrimSpace(form.Values.Get("name"))
	in.Description = strings.TrimSpace(form.Values.Get("description"))
	in.Price = parsePrice(form.Values, problems)
	in.StockQuantity = parseQuantity(form.Values, "stock_quantity", problems)
	if path := strings.TrimSpace(form.Values.Get("ar_model_path")); path != "" {
		in.ARModelPath = &path
	}

	for _, violation := range shared.Validate(in) {
		if _, ok := problems[violation.Field]; !ok {
			problems[violation.Field] = violation.Message
		}
	}

	verr := &shared.ValidationError{}
	for _, field := range createFields {
		if msg, ok := problems[field]; ok {
			verr.Add("%s", msg)
		}
	}

	images, imageErrs := s.prepareImages(form.Images)
	for _, msg := range imageErrs {
		verr.Add("%s", msg)
	}
	if len(form.Images) == 0 && len(verr.Errors) > 0 {
		verr.Add("%s", noImagesMessage)
	}
	if err := verr.OrNil(); err != nil {
		return createInput{}, err
	}
	if len(form.Images) == 0 {
		return createInput{}, ErrNoImages
	}

	in.Images = images
	attrs, skipped := ParseAttributes(form.Values)
	if len(skipped) > 0 && s.logger != nil {
		s.logger.Warn("ignored attribute fields", "keys", skipped)
	}
	in.Attributes = attrs
	return in, nil
}

// prepareImages enforces the count and size limits and sniffs each file's
// content type.
func (s *Service) prepareImages(files []ImageFile) ([]preparedImage, []string) {
	var problems []string
	if len(files) > s.cfg.MaxFiles {
		problems = append(problems, fmt.Sprintf("at most %d images may be uploaded", s.cfg.MaxFiles))
	}
	prepared := make([]preparedImage, 0, len(files))
	for i, file := range files {
		label := fmt.Sprintf("images[%d]", i)
		if file.Filename != "" {
			label = fmt.Sprintf("%s (%s)", label, file.Filename)
		}
		if s.cfg.MaxFileSize > 0 && file.Size > s.cfg.MaxFileSize {
			problems = append(problems, fmt.Sprintf("%s exceeds the maximum size of %d bytes", label, s.cfg.MaxFileSize))
			continue
		}
		ext, err := sniff(file)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be a JPEG, PNG, GIF or WebP image", label))
			continue
		}
		prepared = append(prepared, preparedImage{ImageFile: file, ext: ext})
	}
	return prepared, problems
}

func sniff(file ImageFile) (string, error) {
	if file.Open == nil {
		return "", uploads.ErrUnsupportedType
	}
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return uploads.DetectImage(rc)
}

func parseID(values map[string][]string, field string, problems map[string]string) *int64 {
	raw := strings.TrimSpace(first(values, field))
	if raw == "" {
		problems[field] = field + " is required"
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		problems[field] = field + " must be a positive integer"
		return nil
	}
	return &id
}

func parseQuantity(values map[string][]string, field string, problems map[string]string) *int {
	raw := strings.TrimSpace(first(values, field))
	if raw == "" {
		problems[field] = field + " is required"
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		problems[field] = field + " must be an integer"
		return nil
	}
	return &n
}

func parsePrice(values map[string][]string, problems map[string]string) decimal.Decimal {
	raw := strings.TrimSpace(first(values, "price"))
	if raw == "" {
		problems["price"] = "price is required"
		return decimal.Zero
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		problems["price"] = "price must be a number"
		return decimal.Zero
	}
	price = price.Round(2)
	switch {
	case price.LessThan(minPrice):
		problems["price"] = "price must be greater than 0"
	case price.GreaterThan(maxPrice):
		problems["price"] = "price must be at most " + maxPrice.StringFixed(2)
	}
	return price
}

func first(values map[string][]string, key string) string {
	if vs := values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
