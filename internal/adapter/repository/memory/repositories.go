package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

// CustomerRepository implements usecase.CustomerRepository.
type CustomerRepository struct {
	store *Store
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(_ context.Context, customer *domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customer.ID]; ok {
		return domain.Conflict("create customer", errDuplicateID)
	}

	c := *customer
	s.customers[c.ID] = &c
	s.customerOrder = append(s.customerOrder, c.ID)
	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	out := *c
	return &out, nil
}

// List returns customers in creation order.
func (r *CustomerRepository) List(_ context.Context, limit, offset int) ([]*domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := page(s.customerOrder, limit, offset)
	out := make([]*domain.Customer, 0, len(ids))
	for _, id := range ids {
		c := *s.customers[id]
		out = append(out, &c)
	}
	return out, nil
}

// Count returns the number of customers.
func (r *CustomerRepository) Count(context.Context) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.customers)), nil
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// Create inserts a new account. Numbers are unique.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[account.CustomerID]; !ok {
		return domain.ErrCustomerNotFound
	}
	if _, ok := s.accounts[account.ID]; ok {
		return domain.Conflict("create account", errDuplicateID)
	}
	if _, ok := s.byNumber[account.Number]; ok {
		return domain.Conflict("create account", errDuplicateID)
	}

	s.accounts[account.ID] = account.Clone()
	s.byNumber[account.Number] = account.ID
	s.accountOrder = append(s.accountOrder, account.ID)
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	acc, ok := r.store.account(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acc, nil
}

// GetByNumber retrieves an account by its external number.
func (r *AccountRepository) GetByNumber(_ context.Context, number string) (*domain.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNumber[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.accounts[id].Clone(), nil
}

// GetByIDsForUpdate locks the existing accounts in ascending id order and
// returns them as seen by tx.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []uuid.UUID) ([]*domain.Account, error) {
	t, err := txFor(r.store, tx)
	if err != nil {
		return nil, domain.Persistence("lock accounts", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil, domain.Persistence("lock accounts", errTxDone)
	}

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range domain.SortAccountIDs(ids) {
		if _, ok := r.store.account(id); !ok {
			continue
		}
		if err := t.lock(ctx, id); err != nil {
			return nil, err
		}
		acc, _ := t.current(id)
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

// UpdateBalance stages a new balance for an account locked by tx.
func (r *AccountRepository) UpdateBalance(
	_ context.Context,
	tx usecase.Tx,
	id uuid.UUID,
	balance decimal.Decimal,
	updatedAt time.Time,
) error {
	t, err := txFor(r.store, tx)
	if err != nil {
		return domain.Persistence("update balance", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return domain.Persistence("update balance", errTxDone)
	}
	if _, ok := t.held[id]; !ok {
		return domain.Persistence("update balance", errNotLocked)
	}

	acc, ok := t.current(id)
	if !ok {
		return domain.ErrAccountNotFound
	}

	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt
	t.staged[id] = acc
	return nil
}

// List returns accounts in creation order, optionally for one customer.
func (r *AccountRepository) List(_ context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := page(r.matching(filter.CustomerID), filter.Limit, filter.Offset)
	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.accounts[id].Clone())
	}
	return out, nil
}

// Count returns the number of accounts, optionally for one customer.
func (r *AccountRepository) Count(_ context.Context, customerID *uuid.UUID) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(r.matching(customerID))), nil
}

// matching must be called with the read lock held.
func (r *AccountRepository) matching(customerID *uuid.UUID) []uuid.UUID {
	s := r.store
	if customerID == nil {
		return s.accountOrder
	}

	var ids []uuid.UUID
	for _, id := range s.accountOrder {
		if s.accounts[id].CustomerID == *customerID {
			ids = append(ids, id)
		}
	}
	return ids
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// Create stages a transaction record inside tx.
func (r *TransactionRepository) Create(_ context.Context, tx usecase.Tx, transaction *domain.Transaction) error {
	t, err := txFor(r.store, tx)
	if err != nil {
		return domain.Persistence("record transaction", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return domain.Persistence("record transaction", errTxDone)
	}
	if _, ok := r.store.account(transaction.AccountID); !ok {
		return domain.ErrAccountNotFound
	}

	tr := *transaction
	t.appended = append(t.appended, &tr)
	return nil
}

// ListByAccount returns the account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := slices.Clone(s.transactions[accountID])
	slices.Reverse(log)

	items := page(log, limit, offset)
	out := make([]*domain.Transaction, 0, len(items))
	for _, tr := range items {
		c := *tr
		out = append(out, &c)
	}
	return out, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// AccountFlow returns the balance of one account next to its log totals.
func (r *LedgerRepository) AccountFlow(_ context.Context, accountID uuid.UUID) (*domain.AccountFlow, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	flow := &domain.AccountFlow{
		AccountID:      acc.ID,
		Balance:        acc.Balance,
		OpeningBalance: acc.OpeningBalance,
	}
	flow.Deposits, flow.Withdrawals = sums(s.transactions[accountID])
	return flow, nil
}

// Totals aggregates every account and transaction.
func (r *LedgerRepository) Totals(context.Context) (*domain.LedgerTotals, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := &domain.LedgerTotals{Accounts: int64(len(s.accounts))}
	for _, acc := range s.accounts {
		if acc.Balance.IsNegative() {
			totals.NegativeAccounts++
		}
		totals.Balance = totals.Balance.Add(acc.Balance)
		totals.OpeningBalance = totals.OpeningBalance.Add(acc.OpeningBalance)
	}

	for _, log := range s.transactions {
		deposits, withdrawals := sums(log)
		totals.Deposits = totals.Deposits.Add(deposits)
		totals.Withdrawals = totals.Withdrawals.Add(withdrawals)
	}

	return totals, nil
}

func sums(log []*domain.Transaction) (deposits, withdrawals decimal.Decimal) {
	for _, tr := range log {
		switch tr.Kind {
		case domain.TransactionDeposit:
			deposits = deposits.Add(tr.Amount)
		case domain.TransactionWithdraw:
			withdrawals = withdrawals.Add(tr.Amount)
		}
	}
	return deposits, withdrawals
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
