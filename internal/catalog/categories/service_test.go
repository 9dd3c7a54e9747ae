package categories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront/internal/auth"
	"github.com/storefront-labs/storefront/internal/catalog/shared"
)

type mockRepository struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]Category
	listErr    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{categories: map[int64]Category{}}
}

func (m *mockRepository) List(_ context.Context, filters shared.ListFilters) ([]Category, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []Category
	for _, c := range m.categories {
		if filters.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (m *mockRepository) Create(_ context.Context, name string) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name {
			return Category{}, ErrDuplicate
		}
	}
	m.nextID++
	c := Category{ID: m.nextID, Name: name, CreatedAt: time.Now(), Subcategories: []Subcategory{}}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockRepository) CreateSubcategory(_ context.Context, categoryID int64, name string) (Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok {
		return Subcategory{}, ErrNotFound
	}
	for _, s := range c.Subcategories {
		if s.Name == name {
			return Subcategory{}, ErrDuplicate
		}
	}
	m.nextID++
	sub := Subcategory{ID: m.nextID, CategoryID: categoryID, Name: name, CreatedAt: time.Now()}
	c.Subcategories = append(c.Subcategories, sub)
	m.categories[categoryID] = c
	return sub, nil
}

func TestServiceCreate(t *testing.T) {
	svc := NewService(newMockRepository())

	c, err := svc.Create(context.Background(), CreateRequest{Name: "  Furniture "})
	require.NoError(t, err)
	assert.Equal(t, "Furniture", c.Name)

	_, err = svc.Create(context.Background(), CreateRequest{Name: "Furniture"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.Create(context.Background(), CreateRequest{Name: "   "})
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"name is required"}, verr.Messages())
}

func TestServiceCreateSubcategory(t *testing.T) {
	svc := NewService(newMockRepository())
	c, err := svc.Create(context.Background(), CreateRequest{Name: "Furniture"})
	require.NoError(t, err)

	sub, err := svc.CreateSubcategory(context.Background(), c.ID, CreateRequest{Name: "Chairs"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, sub.CategoryID)

	_, err = svc.CreateSubcategory(context.Background(), 999, CreateRequest{Name: "Chairs"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateSubcategory(context.Background(), 0, CreateRequest{Name: "Chairs"})
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, got.Subcategories, 1)
	assert.Equal(t, "Chairs", got.Subcategories[0].Name)
}

const testSecret = "categories-secret"

func testRouter(t *testing.T, repo Repository) http.Handler {
	t.Helper()
	verifier, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)
	h := NewHandler(nil, NewService(repo), false)
	r := chi.NewRouter()
	r.Route("/categories", func(r chi.Router) {
		h.MountRoutes(r, auth.Middleware{Verifier: verifier})
	})
	return r
}

func adminRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role:             auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signed)
	return req
}

func TestHandlerCreateAndList(t *testing.T) {
	router := testRouter(t, newMockRepository())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, http.MethodPost, "/categories", `{"name":"Furniture"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, http.MethodPost, "/categories", `{"name":"Furniture"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, http.MethodPost, "/categories/1/subcategories", `{"name":"Chairs"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, http.MethodPost, "/categories", `{"title":"x"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success    bool       `json:"success"`
		Categories []Category `json:"categories"`
		Total      int        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Categories, 1)
	require.Len(t, body.Categories[0].Subcategories, 1)
	assert.Equal(t, "Chairs", body.Categories[0].Subcategories[0].Name)
}

func TestHandlerValidationAndAuth(t *testing.T) {
	router := testRouter(t, newMockRepository())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(t, http.MethodPost, "/categories", `{"name":""}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Success bool     `json:"success"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"name is required"}, body.Errors)

	req := httptest.NewRequest(http.MethodPost, "/categories", bytes.NewBufferString(`{"name":"Lamps"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerListFailure(t *testing.T) {
	repo := newMockRepository()
	repo.listErr = errors.New("db down")
	router := testRouter(t, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}
