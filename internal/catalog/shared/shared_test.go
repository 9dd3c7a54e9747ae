package shared

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Count int    `json:"count" validate:"gte=0"`
	ID    int64  `json:"id" validate:"gt=0"`
}

func TestValidateMessagesInFieldOrder(t *testing.T) {
	violations := Validate(sample{Name: "", Count: -1, ID: 0})
	assert.Equal(t, []FieldViolation{
		{Field: "name", Message: "name is required"},
		{Field: "count", Message: "count must be at least 0"},
		{Field: "id", Message: "id must be a positive number"},
	}, violations)

	err := ValidateStruct(sample{Name: "toolong", ID: 1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"name must be at most 5 characters"}, verr.Messages())

	assert.Empty(t, Validate(sample{Name: "ok", ID: 1}))
	assert.NoError(t, ValidateStruct(sample{Name: "ok", ID: 1}))
}

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	verr := &ValidationError{}
	require.NoError(t, verr.OrNil())

	verr.Add("%s is required", "name")
	err := verr.OrNil()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, []string{"name is required"}, verr.Messages())
}

func TestParseListFilters(t *testing.T) {
	f := ParseListFilters(url.Values{})
	assert.Equal(t, DefaultPage, f.Page)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, SortAsc, f.SortDir)
	assert.Nil(t, f.CategoryID)
	assert.Equal(t, 0, f.Offset())

	f = ParseListFilters(url.Values{
		"page":           {"3"},
		"limit":          {"1000"},
		"dir":            {"DESC"},
		"search":         {"  chair "},
		"category_id":    {"4"},
		"subcategory_id": {"abc"},
	})
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, SortDesc, f.SortDir)
	assert.Equal(t, "chair", f.Search)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, int64(4), *f.CategoryID)
	assert.Nil(t, f.SubcategoryID)
	assert.Equal(t, 2*MaxLimit, f.Offset())
}
