package attributes

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Attribute, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Attribute, error) {
	if id <= 0 {
		return Attribute{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Attribute, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := shared.ValidateStruct(req); err != nil {
		return Attribute{}, err
	}
	a, err := s.repo.Create(ctx, req.Name)
	if err != nil {
		return Attribute{}, fmt.Errorf("create attribute: %w", err)
	}
	return a, nil
}
