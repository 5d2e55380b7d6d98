package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/infrastructure/postgres/generated"
)

// CustomerRepository implements usecase.CustomerRepository.
type CustomerRepository struct {
	queries *generated.Queries
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(pool Pool) *CustomerRepository {
	return &CustomerRepository{queries: generated.New(pool)}
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	err := r.queries.CreateCustomer(ctx, generated.CreateCustomerParams{
		ID:        uuidToPg(customer.ID),
		Name:      customer.Name,
		Address:   customer.Address,
		CreatedAt: timeToPgTimestamptz(customer.CreatedAt),
	})
	return translateError("create customer", err, nil)
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	row, err := r.queries.GetCustomerByID(ctx, uuidToPg(id))
	if err != nil {
		return nil, translateError("get customer", err, domain.ErrCustomerNotFound)
	}

	return toDomainCustomer(row), nil
}

// List returns customers ordered by creation time.
func (r *CustomerRepository) List(ctx context.Context, limit, offset int) ([]*domain.Customer, error) {
	rows, err := r.queries.ListCustomers(ctx, generated.ListCustomersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, translateError("list customers", err, nil)
	}

	customers := make([]*domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, toDomainCustomer(row))
	}

	return customers, nil
}

// Count returns the number of customers.
func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountCustomers(ctx)
	return n, translateError("count customers", err, nil)
}
