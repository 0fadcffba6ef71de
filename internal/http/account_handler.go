package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/validation"
)

type AccountService interface {
	Profile(ctx context.Context) (*domain.Profile, error)
	Addresses(ctx context.Context) (*domain.AddressBook, error)
	Add(ctx context.Context, owner string, a domain.Address) (*domain.AddressBook, error)
	SetDefault(ctx context.Context, owner, id string) (*domain.AddressBook, error)
	Remove(ctx context.Context, owner, id string) (*domain.AddressBook, error)
}

type AccountHandler struct {
	account  AccountService
	timeout  time.Duration
	validate *validator.Validate
}

func NewAccountHandler(svc AccountService, timeout time.Duration) *AccountHandler {
	return &AccountHandler{account: svc, timeout: timeout, validate: validation.New()}
}

type AddressRequestDTO struct {
	ID         string `json:"id" validate:"required,max=64"`
	Label      string `json:"label" validate:"required,max=60"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	Parish     string `json:"parish"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone" validate:"required,min=7,max=15"`
	IsDefault  bool   `json:"isDefault"`
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.account.Profile(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

func (h *AccountHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	b, err := h.account.Addresses(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, b.All())
}

func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddressRequestDTO
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}
	b, err := h.account.Add(ctx, sessionFrom(r.Context()), domain.Address(req))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, b.All())
}

func (h *AccountHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	b, err := h.account.SetDefault(ctx, sessionFrom(r.Context()), chi.URLParam(r, "address_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, b.All())
}

func (h *AccountHandler) RemoveAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	b, err := h.account.Remove(ctx, sessionFrom(r.Context()), chi.URLParam(r, "address_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, b.All())
}
