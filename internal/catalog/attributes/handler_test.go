package attributes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront/internal/auth"
	"github.com/storefront-labs/storefront/internal/catalog/shared"
)

type memoryRepository struct {
	attrs []Attribute
}

func (m *memoryRepository) List(_ context.Context, _ shared.ListFilters) ([]Attribute, int, error) {
	return m.attrs, len(m.attrs), nil
}

func (m *memoryRepository) Get(_ context.Context, id int64) (Attribute, error) {
	for _, a := range m.attrs {
		if a.ID == id {
			return a, nil
		}
	}
	return Attribute{}, ErrNotFound
}

func (m *memoryRepository) Create(_ context.Context, name string) (Attribute, error) {
	for _, a := range m.attrs {
		if a.Name == name {
			return Attribute{}, ErrDuplicate
		}
	}
	a := Attribute{ID: int64(len(m.attrs) + 1), Name: name, CreatedAt: time.Now()}
	m.attrs = append(m.attrs, a)
	return a, nil
}

const testSecret = "attributes-secret"

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)
	h := NewHandler(nil, NewService(&memoryRepository{}), false)
	r := chi.NewRouter()
	r.Route("/attributes", func(r chi.Router) {
		h.MountRoutes(r, auth.Middleware{Verifier: verifier})
	})
	return r
}

func post(t *testing.T, body string) *http.Request {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role:             auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/attributes", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+signed)
	return req
}

func TestAttributesLifecycle(t *testing.T) {
	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, post(t, `{"name":" Material "}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Attribute Attribute `json:"attribute"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Material", created.Attribute.Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, post(t, `{"name":"Material"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, post(t, `{"name":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attributes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Success    bool        `json:"success"`
		Attributes []Attribute `json:"attributes"`
		Total      int         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attributes/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attributes/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRequiresToken(t *testing.T) {
	router := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attributes", bytes.NewBufferString(`{"name":"Color"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
