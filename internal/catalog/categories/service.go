package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/storefront-labs/storefront/internal/catalog/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(req); err != nil {
		return Category{}, err
	}
	c, err := s.repo.Create(ctx, req.Name)
	if err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Service) CreateSubcategory(ctx context.Context, categoryID int64, req CreateRequest) (Subcategory, error) {
	if categoryID <= 0 {
		return Subcategory{}, shared.ErrInvalidID
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(req); err != nil {
		return Subcategory{}, err
	}
	sub, err := s.repo.CreateSubcategory(ctx, categoryID, req.Name)
	if err != nil {
		return Subcategory{}, fmt.Errorf("create subcategory: %w", err)
	}
	return sub, nil
}
