package operations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
	"github.com/stockmaster/stockmaster/internal/shared"
	"github.com/stockmaster/stockmaster/internal/stock"
)

// StockService is the slice of the ledger service the handler uses.
type StockService interface {
	ExecuteMovement(ctx context.Context, input stock.MovementInput) (stock.Operation, error)
	CreateDraft(ctx context.Context, input stock.DraftInput) (stock.Operation, error)
	UpdateDraft(ctx context.Context, operationID int64, input stock.DraftInput) (stock.Operation, error)
	TransitionOperation(ctx context.Context, operationID int64, to stock.OperationStatus, actorID int64) (stock.Operation, error)
	DeleteOperation(ctx context.Context, operationID int64) error
}

// Reader serves the listing queries.
type Reader interface {
	List(ctx context.Context, filter ListFilter) ([]OperationView, int, error)
	Get(ctx context.Context, id int64) (OperationView, error)
}

// Handler exposes the operation ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  StockService
	reader   Reader
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service StockService, reader Reader) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		reader:   reader,
		validate: validator.New(),
	}
}

// MountRoutes registers the operation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/operations", h.List)
	r.Get("/operations/{id}", h.Get)
	r.Post("/operations", h.Create)
	r.Post("/operations/draft", h.CreateDraft)
	r.Patch("/operations/{id}/status", h.UpdateStatus)
	r.Put("/operations/{id}", h.UpdateDraft)
	r.Delete("/operations/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.ParsePageQuery(r, 20)
	views, total, err := h.reader.List(r.Context(), ListFilter{
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.logger.Error("list operations failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.PagedResponse{Data: views, Meta: shared.NewPagination(page, limit, total)})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operation id")
		return
	}
	view, err := h.reader.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOperationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.ProductID == 0 && req.SKU == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "productId or sku is required")
		return
	}

	input := stock.MovementInput{
		ProductID:             req.ProductID,
		SKU:                   req.SKU,
		Quantity:              req.Quantity,
		Type:                  stock.OperationType(req.Type),
		SourceLocationID:      req.SourceLocationID,
		DestinationLocationID: req.DestinationLocationID,
		ContactID:             req.ContactID,
		ActorID:               actorID(r),
		Notes:                 req.Notes,
	}
	if req.ScheduledDate != nil {
		input.ScheduledDate = *req.ScheduledDate
	}

	op, err := h.service.ExecuteMovement(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(op))
}

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := stock.DraftInput{
		Type:                  stock.OperationType(req.Type),
		SourceLocationID:      req.SourceLocationID,
		DestinationLocationID: req.DestinationLocationID,
		ContactID:             req.ContactID,
		ActorID:               actorID(r),
		Notes:                 req.Notes,
	}
	if req.ScheduledDate != nil {
		input.ScheduledDate = *req.ScheduledDate
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, stock.DraftLine{ProductID: line.ProductID, SKU: line.SKU, Quantity: line.Quantity})
	}

	op, err := h.service.CreateDraft(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(op))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operation id")
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	op, err := h.service.TransitionOperation(r.Context(), id, stock.OperationStatus(req.Status), actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(op))
}

func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operation id")
		return
	}
	var req UpdateDraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := stock.DraftInput{
		SourceLocationID:      req.SourceLocationID,
		DestinationLocationID: req.DestinationLocationID,
		ContactID:             req.ContactID,
		Notes:                 req.Notes,
	}
	if req.ScheduledDate != nil {
		input.ScheduledDate = *req.ScheduledDate
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, stock.DraftLine{ProductID: line.ProductID, SKU: line.SKU, Quantity: line.Quantity})
	}

	op, err := h.service.UpdateDraft(r.Context(), id, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(op))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid operation id")
		return
	}
	if err := h.service.DeleteOperation(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondError maps ledger errors onto the problem taxonomy.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stock.ErrOperationNotFound),
		errors.Is(err, stock.ErrProductNotFound),
		errors.Is(err, stock.ErrLocationNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, stock.ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, stock.ErrInvalidStatus):
		httpx.Problem(w, http.StatusConflict, "Invalid Status", err.Error())
	case errors.Is(err, stock.ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("operation request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorID(r *http.Request) int64 {
	if user := shared.UserFromContext(r.Context()); user != nil {
		return user.ID
	}
	return 0
}

// toView converts a ledger operation into its JSON shape. Names resolved by
// joins are not available on the write path; clients re-fetch for them.
func toView(op stock.Operation) OperationView {
	view := OperationView{
		ID:            op.ID,
		Ref:           op.Ref,
		Type:          string(op.Type),
		Status:        string(op.Status),
		ScheduledDate: op.ScheduledDate,
		Notes:         op.Notes,
		CreatedAt:     op.CreatedAt,
	}
	for _, line := range op.Lines {
		view.Lines = append(view.Lines, LineView{
			ID:        line.ID,
			Product:   ProductRef{ID: line.ProductID},
			DemandQty: line.DemandQty,
			DoneQty:   line.DoneQty,
		})
	}
	return view
}
