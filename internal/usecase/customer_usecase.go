package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/domain"
)

// CustomerUseCase handles customer business logic.
type CustomerUseCase struct {
	customerRepo CustomerRepository
	idGen        IDGenerator
}

// NewCustomerUseCase creates a new CustomerUseCase.
func NewCustomerUseCase(customerRepo CustomerRepository, idGen IDGenerator) *CustomerUseCase {
	return &CustomerUseCase{
		customerRepo: customerRepo,
		idGen:        idGen,
	}
}

// CreateCustomerInput represents input for creating a customer.
type CreateCustomerInput struct {
	Name    string
	Address string
}

// CreateCustomer creates a new customer.
func (uc *CustomerUseCase) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*domain.Customer, error) {
	name, err := domain.ValidateCustomerName(input.Name)
	if err != nil {
		return nil, err
	}

	address, err := domain.ValidateAddress(input.Address)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		ID:        uc.idGen.NewID(),
		Name:      name,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// GetCustomer retrieves a customer by ID.
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return uc.customerRepo.GetByID(ctx, id)
}

// ListCustomersInput represents input for listing customers.
type ListCustomersInput struct {
	Limit  int
	Offset int
}

// ListCustomers lists customers with pagination.
func (uc *CustomerUseCase) ListCustomers(ctx context.Context, input ListCustomersInput) (*Page[*domain.Customer], error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	customers, err := uc.customerRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := uc.customerRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &Page[*domain.Customer]{Items: customers, Total: total, Limit: limit, Offset: offset}, nil
}
