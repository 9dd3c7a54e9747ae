package products

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"net/url"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
	"github.com/storefront-labs/storefront/internal/events"
	"github.com/storefront-labs/storefront/internal/platform/db"
	"github.com/storefront-labs/storefront/internal/platform/uploads"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type repoState struct {
	nextID   int64
	products map[int64]Product
	images   []Image
	values   []AttributeValue
}

func (s repoState) clone() repoState {
	products := make(map[int64]Product, len(s.products))
	for id, p := range s.products {
		products[id] = p
	}
	return repoState{
		nextID:   s.nextID,
		products: products,
		images:   append([]Image(nil), s.images...),
		values:   append([]AttributeValue(nil), s.values...),
	}
}

type repoFaults struct {
	createErr   error
	imageErr    error
	imageFailAt int // 1-based InsertImage call that fails; 0 means every call
	commitErr   error
	getErr      error
}

// mockRepository keeps rows in memory. WithTx works on a copy that replaces
// the committed state only when fn succeeds.
type mockRepository struct {
	mu         *sync.Mutex
	state      *repoState
	attributes map[int64]string
	faults     *repoFaults
	imageCalls *int
	getCalls   *int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		mu:         &sync.Mutex{},
		state:      &repoState{products: map[int64]Product{}},
		attributes: map[int64]string{1: "Color", 2: "Size", 3: "Material"},
		faults:     &repoFaults{},
		imageCalls: new(int),
		getCalls:   new(int),
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	staged := m.state.clone()
	m.mu.Unlock()

	tx := *m
	tx.mu = &sync.Mutex{}
	tx.state = &staged
	if err := fn(ctx, &tx); err != nil {
		return err
	}
	if m.faults.commitErr != nil {
		return m.faults.commitErr
	}

	m.mu.Lock()
	*m.state = staged
	m.mu.Unlock()
	return nil
}

func (m *mockRepository) CreateProduct(_ context.Context, product Product) (Product, error) {
	if m.faults.createErr != nil {
		return Product{}, m.faults.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.nextID++
	product.ID = m.state.nextID
	product.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	product.UpdatedAt = product.CreatedAt
	m.state.products[product.ID] = product
	return product, nil
}

func (m *mockRepository) InsertImage(_ context.Context, productID int64, url string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.imageCalls++
	if m.faults.imageErr != nil && (m.faults.imageFailAt == 0 || m.faults.imageFailAt == *m.imageCalls) {
		return 0, m.faults.imageErr
	}
	id := int64(len(m.state.images) + 1)
	m.state.images = append(m.state.images, Image{ID: id, ProductID: productID, URL: url})
	return id, nil
}

func (m *mockRepository) InsertAttributeValue(_ context.Context, productID, attributeID int64, value string) (int64, error) {
	if _, ok := m.attributes[attributeID]; !ok {
		return 0, &pgconn.PgError{Code: db.CodeForeignKeyViolation, Message: "attribute does not exist"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.state.values) + 1)
	m.state.values = append(m.state.values, AttributeValue{ID: id, ProductID: productID, AttributeID: attributeID, Value: value})
	return id, nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.getCalls++
	if m.faults.getErr != nil {
		return Product{}, m.faults.getErr
	}
	p, ok := m.state.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) ListImageURLs(_ context.Context, productID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var urls []string
	for _, img := range m.state.images {
		if img.ProductID == productID {
			urls = append(urls, img.URL)
		}
	}
	return urls, nil
}

func (m *mockRepository) ListAttributes(_ context.Context, productID int64) ([]AttributeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []AttributeEntry
	for _, v := range m.state.values {
		if v.ProductID == productID {
			entries = append(entries, AttributeEntry{Name: m.attributes[v.AttributeID], Value: v.Value})
		}
	}
	return entries, nil
}

func (m *mockRepository) List(_ context.Context, filters shared.ListFilters) ([]Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.state.products {
		if filters.CategoryID != nil && p.CategoryID != *filters.CategoryID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.products[id]; !ok {
		return nil, ErrNotFound
	}
	delete(m.state.products, id)
	var urls []string
	kept := m.state.images[:0]
	for _, img := range m.state.images {
		if img.ProductID == id {
			urls = append(urls, img.URL)
			continue
		}
		kept = append(kept, img)
	}
	m.state.images = kept
	return urls, nil
}

func (m *mockRepository) ReferencedImageURLs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var urls []string
	for _, img := range m.state.images {
		urls = append(urls, img.URL)
	}
	return urls, nil
}

func (m *mockRepository) counts() (products, images, values int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.products), len(m.state.images), len(m.state.values)
}

// ============================================================================
// COLLABORATOR FAKES
// ============================================================================

// failingStore wraps a real store and injects Save or Remove failures.
type failingStore struct {
	FileStore
	saveFailAt int
	saves      int
	removeErr  error
}

func (s *failingStore) Save(src io.Reader, ext string) (uploads.File, error) {
	s.saves++
	if s.saveFailAt > 0 && s.saves == s.saveFailAt {
		return uploads.File{}, errors.New("disk full")
	}
	return s.FileStore.Save(src, ext)
}

func (s *failingStore) Remove(f uploads.File) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.FileStore.Remove(f)
}

type recordingEnqueuer struct {
	productIDs []int64
	urls       [][]string
	err        error
}

func (r *recordingEnqueuer) EnqueueThumbnails(_ context.Context, productID int64, urls []string) error {
	r.productIDs = append(r.productIDs, productID)
	r.urls = append(r.urls, urls)
	return r.err
}

type recordingPublisher struct {
	events []events.ProductCreated
	err    error
}

func (r *recordingPublisher) PublishProductCreated(_ context.Context, event events.ProductCreated) error {
	r.events = append(r.events, event)
	return r.err
}

// ============================================================================
// FIXTURES
// ============================================================================

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(4, 4, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func imageFile(name string, data []byte) ImageFile {
	return ImageFile{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func validValues() url.Values {
	return url.Values{
		"category_id":    {"1"},
		"subcategory_id": {"2"},
		"name":           {"Chair"},
		"description":    {"Oak chair"},
		"price":          {"49.99"},
		"stock_quantity": {"10"},
	}
}

type fixture struct {
	repo      *mockRepository
	store     *uploads.Store
	service   *Service
	thumbs    *recordingEnqueuer
	publisher *recordingPublisher
}

func newFixture(t *testing.T, customize ...func(*ServiceParams)) *fixture {
	t.Helper()
	store, err := uploads.NewStore(t.TempDir(), "/images")
	require.NoError(t, err)
	f := &fixture{
		repo:      newMockRepository(),
		store:     store,
		thumbs:    &recordingEnqueuer{},
		publisher: &recordingPublisher{},
	}
	params := ServiceParams{
		Repo:       f.repo,
		Store:      store,
		Thumbnails: f.thumbs,
		Events:     f.publisher,
		Config:     ServiceConfig{MaxFiles: 5, MaxFileSize: 1 << 20},
	}
	for _, fn := range customize {
		fn(&params)
	}
	f.service = NewService(params)
	return f
}

func (f *fixture) storedFiles(t *testing.T) []uploads.Entry {
	t.Helper()
	entries, err := f.store.List()
	require.NoError(t, err)
	return entries
}
