package variants

import (
	"context"
	"fmt"

	"github.com/lumi-commerce/lumi-admin/internal/catalog/shared"
	"github.com/lumi-commerce/lumi-admin/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Variant, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Variant, error) {
	if id <= 0 {
		return Variant{}, fmt.Errorf("%w: invalid variant id", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, variant Variant) (Variant, error) {
	if err := s.validate(variant); err != nil {
		return Variant{}, err
	}
	return s.repo.Create(ctx, variant)
}

func (s *Service) Update(ctx context.Context, id int64, variant Variant) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid variant id", httpx.ErrValidation)
	}
	if err := s.validate(variant); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, variant)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid variant id", httpx.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
