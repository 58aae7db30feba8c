package warehouses

import (
	"context"
	"fmt"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Warehouse, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Warehouse, error) {
	if id <= 0 {
		return Warehouse{}, httpx.ErrValidation
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateWarehouseRequest) (Warehouse, error) {
	return s.repo.Create(ctx, Warehouse{Name: req.Name, ShortCode: req.ShortCode, Address: req.Address})
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateWarehouseRequest) (Warehouse, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Warehouse{}, err
	}
	if req.Name != "" {
		current.Name = req.Name
	}
	if req.ShortCode != "" {
		current.ShortCode = req.ShortCode
	}
	if req.Address != "" {
		current.Address = req.Address
	}
	if err := s.repo.Update(ctx, id, current); err != nil {
		return Warehouse{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete refuses to remove a warehouse that still has locations.
func (s *Service) Delete(ctx context.Context, id int64) error {
	hasLocations, err := s.repo.HasLocations(ctx, id)
	if err != nil {
		return err
	}
	if hasLocations {
		return fmt.Errorf("%w: warehouse still has locations", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}
