package products

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
	"github.com/storefront-labs/storefront/internal/events"
	"github.com/storefront-labs/storefront/internal/platform/uploads"
)

// FileStore persists uploaded image files. *uploads.Store satisfies it.
type FileStore interface {
	Save(src io.Reader, ext string) (uploads.File, error)
	Remove(f uploads.File) error
	Resolve(url string) (uploads.File, bool)
}

// ThumbnailEnqueuer schedules thumbnail generation for stored images.
type ThumbnailEnqueuer interface {
	EnqueueThumbnails(ctx context.Context, productID int64, imageURLs []string) error
}

// EventPublisher announces catalog changes to other systems.
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, event events.ProductCreated) error
}

// ServiceConfig bounds the uploads accepted by Create.
type ServiceConfig struct {
	MaxFiles    int
	MaxFileSize int64
}

// ServiceParams wires a Service. Repo and Store are required.
type ServiceParams struct {
	Repo       Repository
	Store      FileStore
	Cache      *Cache
	Thumbnails ThumbnailEnqueuer
	Events     EventPublisher
	Metrics    *Metrics
	Logger     *slog.Logger
	Config     ServiceConfig
}

// Service implements the product workflows.
type Service struct {
	repo       Repository
	store      FileStore
	cache      *Cache
	thumbnails ThumbnailEnqueuer
	events     EventPublisher
	metrics    *Metrics
	logger     *slog.Logger
	cfg        ServiceConfig
	group      singleflight.Group
}

// NewService constructs a Service.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := p.Config
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}
	return &Service{
		repo:       p.Repo,
		store:      p.Store,
		cache:      p.Cache,
		thumbnails: p.Thumbnails,
		events:     p.Events,
		metrics:    p.Metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Create validates form, stores its images and inserts the product with its
// images and attribute values in one transaction. Files stored for a request
// that fails are removed again.
func (s *Service) Create(ctx context.Context, form CreateForm) (*Detail, error) {
	in, err := s.parseCreateForm(form)
	if err != nil {
		s.metrics.incFailure(stageValidation)
		return nil, err
	}

	stored := make([]uploads.File, 0, len(in.Images))
	for _, img := range in.Images {
		file, err := s.storeImage(img)
		if err != nil {
			s.metrics.incFailure(stageStore)
			s.compensate(stored)
			return nil, fmt.Errorf("store image %q: %w", img.Filename, err)
		}
		stored = append(stored, file)
	}

	var productID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		product, err := repo.CreateProduct(ctx, in.product(stored[0].URL))
		if err != nil {
			return err
		}
		for _, file := range stored {
			if _, err := repo.InsertImage(ctx, product.ID, file.URL); err != nil {
				return err
			}
		}
		for _, attr := range in.Attributes {
			if _, err := repo.InsertAttributeValue(ctx, product.ID, attr.AttributeID, attr.Value); err != nil {
				return err
			}
		}
		productID = product.ID
		return nil
	})
	if err != nil {
		s.metrics.incFailure(stageTx)
		s.compensate(stored)
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.metrics.incCreated()

	urls := make([]string, len(stored))
	for i, file := range stored {
		urls[i] = file.URL
	}
	s.invalidate(ctx)
	s.enqueueThumbnails(ctx, productID, urls)

	detail, err := s.loadDetail(ctx, productID)
	if err != nil {
		s.metrics.incFailure(stageRead)
		return nil, fmt.Errorf("read product %d: %w", productID, err)
	}
	s.publishCreated(ctx, detail)
	return detail, nil
}

func (s *Service) storeImage(img preparedImage) (uploads.File, error) {
	rc, err := img.Open()
	if err != nil {
		return uploads.File{}, err
	}
	defer rc.Close()
	return s.store.Save(rc, img.ext)
}

// compensate removes files written for a failed request. Failures are only
// logged so the caller keeps reporting the original error.
func (s *Service) compensate(files []uploads.File) {
	for _, file := range files {
		if err := s.store.Remove(file); err != nil {
			s.metrics.incCompensation(false)
			s.logger.Error("remove stored image", slog.String("path", file.Path), slog.Any("error", err))
			continue
		}
		s.metrics.incCompensation(true)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("invalidate product cache", slog.Any("error", err))
	}
}

func (s *Service) enqueueThumbnails(ctx context.Context, productID int64, urls []string) {
	if s.thumbnails == nil {
		return
	}
	if err := s.thumbnails.EnqueueThumbnails(ctx, productID, urls); err != nil {
		s.logger.Warn("enqueue thumbnails", slog.Int64("product_id", productID), slog.Any("error", err))
	}
}

func (s *Service) publishCreated(ctx context.Context, d *Detail) {
	if s.events == nil {
		return
	}
	event := events.ProductCreated{
		ID:            d.ID,
		CategoryID:    d.CategoryID,
		SubcategoryID: d.SubcategoryID,
		Name:          d.Name,
		Price:         d.Price,
		StockQuantity: d.StockQuantity,
		Images:        d.Images,
		CreatedAt:     d.CreatedAt,
	}
	if err := s.events.PublishProductCreated(ctx, event); err != nil {
		s.logger.Warn("publish product created", slog.Int64("product_id", d.ID), slog.Any("error", err))
	}
}

// Get returns the assembled product. Concurrent cache misses for the same id
// and cache version share one database read.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	if id <= 0 {
		return nil, shared.ErrInvalidID
	}
	cached, key, err := s.cache.Detail(ctx, id)
	if err != nil {
		s.logger.Warn("read product cache", slog.Int64("product_id", id), slog.Any("error", err))
		key = ""
	} else if cached != nil {
		return cached, nil
	}

	flight := strconv.FormatInt(id, 10)
	if key != "" {
		flight = key
	}
	v, err, _ := s.group.Do(flight, func() (interface{}, error) {
		d, err := s.loadDetail(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.StoreDetailAt(ctx, key, d); err != nil {
			s.logger.Warn("write product cache", slog.Int64("product_id", id), slog.Any("error", err))
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Detail), nil
}

func (s *Service) loadDetail(ctx context.Context, id int64) (*Detail, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	attrs, err := s.repo.ListAttributes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	images, err := s.repo.ListImageURLs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return newDetail(product, attrs, images), nil
}

// List returns one page of product summaries and the total match count.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Summary, int, error) {
	products, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	summaries := make([]Summary, len(products))
	for i, p := range products {
		summaries[i] = newSummary(p)
	}
	return summaries, total, nil
}

// Delete removes the product rows and, once committed, its image files.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	var urls []string
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		urls, err = repo.Delete(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	for _, url := range urls {
		file, ok := s.store.Resolve(url)
		if !ok {
			s.logger.Warn("unresolvable image url", slog.String("url", url))
			continue
		}
		if err := s.store.Remove(file); err != nil {
			s.logger.Error("remove product image", slog.String("path", file.Path), slog.Any("error", err))
		}
	}
	s.invalidate(ctx)
	return nil
}
