// Package memory is a process-local store with the same locking and
// atomicity guarantees as the SQL stores. Rows are locked with one
// single-slot channel per account so waiting honors context deadlines.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

var (
	errTxDone      = errors.New("transaction already finished")
	errForeignTx   = errors.New("transaction was not started by the memory store")
	errNotLocked   = errors.New("account is not locked by this transaction")
	errDuplicateID = errors.New("duplicate key")
)

// Store holds every customer, account and transaction in memory.
type Store struct {
	mu            sync.RWMutex
	customers     map[uuid.UUID]*domain.Customer
	customerOrder []uuid.UUID
	accounts      map[uuid.UUID]*domain.Account
	accountOrder  []uuid.UUID
	byNumber      map[string]uuid.UUID
	transactions  map[uuid.UUID][]*domain.Transaction

	lockMu sync.Mutex
	locks  map[uuid.UUID]chan struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		customers:    make(map[uuid.UUID]*domain.Customer),
		accounts:     make(map[uuid.UUID]*domain.Account),
		byNumber:     make(map[string]uuid.UUID),
		transactions: make(map[uuid.UUID][]*domain.Transaction),
		locks:        make(map[uuid.UUID]chan struct{}),
	}
}

// Customers returns the customer repository.
func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{store: s} }

// Accounts returns the account repository.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{store: s} }

// Transactions returns the transaction repository.
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{store: s} }

// Ledger returns the ledger repository.
func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{store: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:  s,
		held:   make(map[uuid.UUID]struct{}),
		staged: make(map[uuid.UUID]*domain.Account),
	}, nil
}

func (s *Store) rowLock(id uuid.UUID) chan struct{} {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

func (s *Store) account(id uuid.UUID) (*domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

// Tx stages balance updates and appended transactions until Commit.
type Tx struct {
	store *Store

	mu       sync.Mutex
	done     bool
	held     map[uuid.UUID]struct{}
	order    []uuid.UUID
	staged   map[uuid.UUID]*domain.Account
	appended []*domain.Transaction
}

func txFor(store *Store, tx usecase.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != store {
		return nil, errForeignTx
	}
	return t, nil
}

func (t *Tx) lock(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.held[id]; ok {
		return nil
	}

	select {
	case t.store.rowLock(id) <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.held[id] = struct{}{}
	t.order = append(t.order, id)
	return nil
}

func (t *Tx) current(id uuid.UUID) (*domain.Account, bool) {
	if acc, ok := t.staged[id]; ok {
		return acc.Clone(), true
	}
	return t.store.account(id)
}

// Commit publishes staged writes atomically and releases the row locks.
func (t *Tx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return domain.Persistence("commit", errTxDone)
	}
	defer t.finish()

	for _, acc := range t.staged {
		if acc.Balance.IsNegative() {
			return domain.ErrInsufficientFunds
		}
	}

	s := t.store
	s.mu.Lock()
	for id, acc := range t.staged {
		s.accounts[id] = acc
	}
	for _, tr := range t.appended {
		s.transactions[tr.AccountID] = append(s.transactions[tr.AccountID], tr)
	}
	s.mu.Unlock()

	return nil
}

// Rollback discards staged writes. Rolling back a finished transaction is
// a no-op.
func (t *Tx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	for _, id := range t.order {
		<-t.store.rowLock(id)
	}
	t.held = nil
	t.order = nil
	t.staged = nil
	t.appended = nil
}
