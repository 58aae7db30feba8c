package locations

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

func (s *Service) List(ctx context.Context, locationType string) ([]Location, error) {
	return s.repo.List(ctx, locationType)
}

func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, httpx.ErrValidation
	}
	return s.repo.Get(ctx, id)
}

// Create enforces that INTERNAL locations belong to a warehouse while
// virtual locations must not.
func (s *Service) Create(ctx context.Context, req CreateLocationRequest) (Location, error) {
	if req.Type == "INTERNAL" && req.ParentWarehouseID == nil {
		return Location{}, fmt.Errorf("%w: INTERNAL locations require parentWarehouseId", httpx.ErrValidation)
	}
	if req.Type != "INTERNAL" && req.ParentWarehouseID != nil {
		return Location{}, fmt.Errorf("%w: virtual locations cannot belong to a warehouse", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, Location{Name: req.Name, Type: req.Type, ParentWarehouseID: req.ParentWarehouseID})
}

func (s *Service) Rename(ctx context.Context, id int64, req UpdateLocationRequest) (Location, error) {
	if err := s.repo.Rename(ctx, id, req.Name); err != nil {
		return Location{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete refuses to remove a location the ledger references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: location is referenced by operations or balances", httpx.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}
