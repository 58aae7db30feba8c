package products

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stockmaster/stockmaster/internal/masterdata/shared"
	"github.com/stockmaster/stockmaster/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, httpx.ErrValidation
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) RecentLines(ctx context.Context, productID int64) ([]RecentLine, error) {
	return s.repo.RecentLines(ctx, productID, 10)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	costPrice, err := parsePrice(req.CostPrice)
	if err != nil {
		return Product{}, err
	}
	sellingPrice, err := parsePrice(req.SellingPrice)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		CostPrice:    costPrice,
		SellingPrice: sellingPrice,
	})
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if req.Name != "" {
		current.Name = req.Name
	}
	if req.Category != "" {
		current.Category = req.Category
	}
	if req.CostPrice != "" {
		if current.CostPrice, err = parsePrice(req.CostPrice); err != nil {
			return Product{}, err
		}
	}
	if req.SellingPrice != "" {
		if current.SellingPrice, err = parsePrice(req.SellingPrice); err != nil {
			return Product{}, err
		}
	}
	if err := s.repo.Update(ctx, id, current); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete refuses to remove a product that appears on operation lines, since
// the ledger is immutable history.
func (s *Service) Delete(ctx context.Context, id int64) error {
	referenced, err := s.repo.HasOperationLines(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: product is referenced by operations", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: invalid price %q", httpx.ErrValidation, raw)
	}
	return price, nil
}
