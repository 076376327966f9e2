package variants

import (
	"fmt"
	"strings"

	"github.com/lumi-commerce/lumi-admin/internal/platform/httpx"
)

func (s *Service) validate(v Variant) error {
	if v.ProductID <= 0 {
		return fmt.Errorf("%w: product id is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(v.SKU) == "" {
		return fmt.Errorf("%w: sku is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if v.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", httpx.ErrValidation)
	}
	return nil
}
