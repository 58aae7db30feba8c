package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
)

type fakeRepo struct {
	locations  map[int64]Location
	nextID     int64
	referenced bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{locations: make(map[int64]Location)}
}

func (f *fakeRepo) List(ctx context.Context, locationType string) ([]Location, error) {
	var items []Location
	for _, l := range f.locations {
		if locationType == "" || l.Type == locationType {
			items = append(items, l)
		}
	}
	return items, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return Location{}, httpx.ErrNotFound
	}
	return l, nil
}

func (f *fakeRepo) Create(ctx context.Context, location Location) (Location, error) {
	f.nextID++
	location.ID = f.nextID
	f.locations[location.ID] = location
	return location, nil
}

func (f *fakeRepo) Rename(ctx context.Context, id int64, name string) error {
	l, ok := f.locations[id]
	if !ok {
		return httpx.ErrNotFound
	}
	l.Name = name
	f.locations[id] = l
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.locations[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(f.locations, id)
	return nil
}

func (f *fakeRepo) IsReferenced(ctx context.Context, id int64) (bool, error) {
	return f.referenced, nil
}

func TestCreateLocationParentRules(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()
	warehouseID := int64(1)

	_, err := svc.Create(ctx, CreateLocationRequest{Name: "WH/Stock", Type: "INTERNAL"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, CreateLocationRequest{Name: "Vendors", Type: "VENDOR", ParentWarehouseID: &warehouseID})
	require.ErrorIs(t, err, httpx.ErrValidation)

	internal, err := svc.Create(ctx, CreateLocationRequest{Name: "WH/Stock", Type: "INTERNAL", ParentWarehouseID: &warehouseID})
	require.NoError(t, err)
	require.Equal(t, "INTERNAL", internal.Type)

	virtual, err := svc.Create(ctx, CreateLocationRequest{Name: "Vendors", Type: "VENDOR"})
	require.NoError(t, err)
	require.Nil(t, virtual.ParentWarehouseID)
}

func TestDeleteLocationReferencedByLedger(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	loc, err := svc.Create(ctx, CreateLocationRequest{Name: "Vendors", Type: "VENDOR"})
	require.NoError(t, err)

	repo.referenced = true
	require.ErrorIs(t, svc.Delete(ctx, loc.ID), httpx.ErrConflict)

	repo.referenced = false
	require.NoError(t, svc.Delete(ctx, loc.ID))
}
