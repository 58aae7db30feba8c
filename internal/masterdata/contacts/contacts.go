// Package contacts manages vendor and customer contact records.
package contacts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
)

// Contact represents a vendor or customer.
type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateContactRequest is the body for contact creation.
type CreateContactRequest struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Type  string  `json:"type" validate:"required,oneof=VENDOR CUSTOMER"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// Repository persists contacts.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, contactType string) ([]Contact, error) {
	query := `SELECT id, name, type, email, created_at, updated_at FROM contacts`
	args := []any{}
	if contactType != "" {
		query += ` WHERE type = $1`
		args = append(args, contactType)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Contact, error) {
	var c Contact
	err := r.db.QueryRow(ctx, `SELECT id, name, type, email, created_at, updated_at FROM contacts WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Type, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, httpx.ErrNotFound
	}
	return c, err
}

func (r *Repository) Create(ctx context.Context, contact Contact) (Contact, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO contacts (name, type, email, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		contact.Name, contact.Type, contact.Email, now).Scan(&contact.ID)
	if err != nil {
		return Contact{}, err
	}
	contact.CreatedAt = now
	contact.UpdatedAt = now
	return contact, nil
}

// Handler exposes contact endpoints.
type Handler struct {
	logger   *slog.Logger
	repo     *Repository
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings/contacts", h.List)
	r.Post("/settings/contacts", h.Create)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.logger.Error("list contacts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Contact{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	contact, err := h.repo.Create(r.Context(), Contact{Name: req.Name, Type: req.Type, Email: req.Email})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contact)
}
