package search_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stockmaster/stockmaster/internal/search"
)

type stubFinder struct {
	products   []search.ProductHit
	operations []search.OperationHit
	locations  []search.LocationHit
}

func (s *stubFinder) Products(ctx context.Context, q string) ([]search.ProductHit, error) {
	return s.products, nil
}

func (s *stubFinder) Operations(ctx context.Context, q string) ([]search.OperationHit, error) {
	return s.operations, nil
}

func (s *stubFinder) Locations(ctx context.Context, q string) ([]search.LocationHit, error) {
	return s.locations, nil
}

func newRouter(finder search.Finder) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	r := chi.NewRouter()
	search.NewHandler(logger, finder).MountRoutes(r)
	return r
}

func TestSearchGroupsResults(t *testing.T) {
	router := newRouter(&stubFinder{
		products:   []search.ProductHit{{ID: 1, SKU: "DESK-001", Name: "Standing Desk", OnHand: 12}},
		operations: []search.OperationHit{{ID: 7, Ref: "WH/IN/42", Type: "RECEIPT", Status: "DONE"}},
		locations:  []search.LocationHit{},
	})

	req := httptest.NewRequest(http.MethodGet, "/search?q=desk", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results search.Results
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results.Products, 1)
	require.Equal(t, "DESK-001", results.Products[0].SKU)
	require.Len(t, results.Operations, 1)
	require.Empty(t, results.Locations)
}

func TestSearchShortQueryReturnsEmpty(t *testing.T) {
	router := newRouter(&stubFinder{
		products: []search.ProductHit{{ID: 1, SKU: "DESK-001"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/search?q=d", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results search.Results
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Empty(t, results.Products)
}
