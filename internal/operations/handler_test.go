package operations

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

	"github.com/stockmaster/stockmaster/internal/stock"
)

type fakeStockService struct {
	movement   stock.Operation
	movementIn stock.MovementInput
	err        error
}

func (f *fakeStockService) ExecuteMovement(ctx context.Context, input stock.MovementInput) (stock.Operation, error) {
	f.movementIn = input
	return f.movement, f.err
}

func (f *fakeStockService) CreateDraft(ctx context.Context, input stock.DraftInput) (stock.Operation, error) {
	return f.movement, f.err
}

func (f *fakeStockService) UpdateDraft(ctx context.Context, operationID int64, input stock.DraftInput) (stock.Operation, error) {
	return f.movement, f.err
}

func (f *fakeStockService) TransitionOperation(ctx context.Context, operationID int64, to stock.OperationStatus, actorID int64) (stock.Operation, error) {
	return f.movement, f.err
}

func (f *fakeStockService) DeleteOperation(ctx context.Context, operationID int64) error {
	return f.err
}

type fakeReader struct {
	views []OperationView
	view  OperationView
	err   error
}

func (f *fakeReader) List(ctx context.Context, filter ListFilter) ([]OperationView, int, error) {
	return f.views, len(f.views), f.err
}

func (f *fakeReader) Get(ctx context.Context, id int64) (OperationView, error) {
	return f.view, f.err
}

func newTestRouter(svc StockService, reader Reader) *chi.Mux {
	h := NewHandler(slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil)), svc, reader)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestCreateOperation(t *testing.T) {
	svc := &fakeStockService{movement: stock.Operation{
		ID:     1,
		Ref:    "WH/IN/1234",
		Type:   stock.OperationTypeReceipt,
		Status: stock.StatusDone,
		Lines:  []stock.OperationLine{{ID: 1, ProductID: 7, DemandQty: 100, DoneQty: 100}},
	}}
	router := newTestRouter(svc, &fakeReader{})

	body := `{"productId":7,"quantity":100,"type":"RECEIPT","destinationLocationId":10}`
	req := httptest.NewRequest(http.MethodPost, "/operations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var view OperationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "WH/IN/1234", view.Ref)
	require.Equal(t, "DONE", view.Status)
	require.Equal(t, int64(100), view.Lines[0].DoneQty)
	require.Equal(t, int64(7), svc.movementIn.ProductID)
}

func TestCreateOperationRejectsZeroQuantity(t *testing.T) {
	router := newTestRouter(&fakeStockService{}, &fakeReader{})

	body := `{"productId":7,"quantity":0,"type":"RECEIPT","destinationLocationId":10}`
	req := httptest.NewRequest(http.MethodPost, "/operations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOperationRequiresProduct(t *testing.T) {
	router := newTestRouter(&fakeStockService{}, &fakeReader{})

	body := `{"quantity":5,"type":"RECEIPT","destinationLocationId":10}`
	req := httptest.NewRequest(http.MethodPost, "/operations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOperationInsufficientStock(t *testing.T) {
	svc := &fakeStockService{err: &stock.InsufficientStockError{LocationID: 10, Available: 3, Requested: 5}}
	router := newTestRouter(svc, &fakeReader{})

	body := `{"productId":7,"quantity":5,"type":"DELIVERY","sourceLocationId":10}`
	req := httptest.NewRequest(http.MethodPost, "/operations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "Insufficient Stock")
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	svc := &fakeStockService{err: stock.ErrInvalidStatus}
	router := newTestRouter(svc, &fakeReader{})

	req := httptest.NewRequest(http.MethodPatch, "/operations/4/status", bytes.NewBufferString(`{"status":"DONE"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetOperationNotFound(t *testing.T) {
	router := newTestRouter(&fakeStockService{}, &fakeReader{err: stock.ErrOperationNotFound})

	req := httptest.NewRequest(http.MethodGet, "/operations/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOperations(t *testing.T) {
	reader := &fakeReader{views: []OperationView{{ID: 1, Ref: "WH/OUT/1"}, {ID: 2, Ref: "WH/OUT/2"}}}
	router := newTestRouter(&fakeStockService{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/operations?status=DONE&page=1&limit=20", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []OperationView `json:"data"`
		Meta struct {
			Total      int `json:"total"`
			Page       int `json:"page"`
			TotalPages int `json:"totalPages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, 2, resp.Meta.Total)
	require.Equal(t, 1, resp.Meta.Page)
}

func TestDeleteOperation(t *testing.T) {
	router := newTestRouter(&fakeStockService{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodDelete, "/operations/3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}
