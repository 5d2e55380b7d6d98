package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/adapter/http/dto"
	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

// CustomerService defines the behavior needed by CustomerHandler.
type CustomerService interface {
	CreateCustomer(ctx context.Context, input usecase.CreateCustomerInput) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	ListCustomers(ctx context.Context, input usecase.ListCustomersInput) (*usecase.Page[*domain.Customer], error)
}

// CustomerHandler handles customer-related HTTP requests.
type CustomerHandler struct {
	customerUC CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerUC CustomerService) *CustomerHandler {
	return &CustomerHandler{customerUC: customerUC}
}

// Create creates a new customer.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.customerUC.CreateCustomer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CustomerFromDomain(customer))
}

// Get retrieves a customer by ID.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	customer, err := h.customerUC.GetCustomer(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CustomerFromDomain(customer))
}

// List lists customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.customerUC.ListCustomers(r.Context(), usecase.ListCustomersInput{
		Limit:  parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListFromPage(page, dto.CustomerFromDomain))
}
