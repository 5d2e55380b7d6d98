package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
)

// LedgerUseCase applies deposits, withdrawals and transfers. Every operation
// is one store transaction: accounts are locked in ascending id order, the
// balance is checked under the lock, and balances and transaction records
// commit together. It keeps no state between calls and never retries.
type LedgerUseCase struct {
	txManager       TxManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	resolver        AccountResolver
	idGen           IDGenerator
	recorder        OperationRecorder
	logger          zerolog.Logger
	timeout         time.Duration
	now             func() time.Time
}

// LedgerOption configures a LedgerUseCase.
type LedgerOption func(*LedgerUseCase)

// WithOperationTimeout bounds each operation. Non-positive values are ignored.
func WithOperationTimeout(d time.Duration) LedgerOption {
	return func(uc *LedgerUseCase) {
		if d > 0 {
			uc.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder OperationRecorder) LedgerOption {
	return func(uc *LedgerUseCase) {
		if recorder != nil {
			uc.recorder = recorder
		}
	}
}

// WithAccountResolver replaces the number lookup used by Transfer.
func WithAccountResolver(resolver AccountResolver) LedgerOption {
	return func(uc *LedgerUseCase) {
		if resolver != nil {
			uc.resolver = resolver
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.now = now
	}
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TxManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	opts ...LedgerOption,
) *LedgerUseCase {
	uc := &LedgerUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		resolver:        NewRepositoryAccountResolver(accountRepo),
		idGen:           idGen,
		recorder:        nopRecorder{},
		logger:          zerolog.Nop(),
		timeout:         DefaultTransactionTimeout,
		now:             func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	FromAccountID   uuid.UUID
	ToAccountNumber string
	Amount          decimal.Decimal
}

// Deposit credits amount to the account and records a deposit.
func (uc *LedgerUseCase) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*domain.Account, error) {
	start := time.Now()
	account, err := uc.move(ctx, OperationDeposit, domain.TransactionDeposit, accountID, amount)
	uc.finish(OperationDeposit, accountID, amount, start, err)
	return account, err
}

// Withdraw debits amount from the account and records a withdrawal.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*domain.Account, error) {
	start := time.Now()
	account, err := uc.move(ctx, OperationWithdraw, domain.TransactionWithdraw, accountID, amount)
	uc.finish(OperationWithdraw, accountID, amount, start, err)
	return account, err
}

// Transfer moves amount from one account to the account with the given
// number. Both legs share one timestamp and commit together.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.TransferReceipt, error) {
	start := time.Now()
	receipt, err := uc.transfer(ctx, input)
	uc.finish(OperationTransfer, input.FromAccountID, input.Amount, start, err)
	return receipt, err
}

func (uc *LedgerUseCase) move(
	ctx context.Context,
	op string,
	kind domain.TransactionKind,
	accountID uuid.UUID,
	amount decimal.Decimal,
) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var result *domain.Account
	err := uc.atomically(ctx, op, func(ctx context.Context, tx Tx) error {
		accounts, err := uc.lockAccounts(ctx, tx, accountID)
		if err != nil {
			return err
		}

		account := accounts[accountID]
		now := uc.now()

		var balance decimal.Decimal
		if kind == domain.TransactionWithdraw {
			if err := account.ValidateDebit(amount); err != nil {
				return err
			}
			balance = account.ApplyDebit(amount)
		} else {
			balance = account.ApplyCredit(amount)
		}

		updated, err := uc.apply(ctx, tx, account, balance, now)
		if err != nil {
			return err
		}

		if _, err := uc.record(ctx, tx, account.ID, nil, kind, amount, balance, now); err != nil {
			return err
		}

		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *LedgerUseCase) transfer(ctx context.Context, input TransferInput) (*domain.TransferReceipt, error) {
	// 0. Validate inputs before touching the store
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateAccountNumber(input.ToAccountNumber); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	// 1. Resolve the destination outside the transaction; numbers never change
	toID, err := uc.resolver.ResolveAccountNumber(ctx, input.ToAccountNumber)
	if err != nil {
		return nil, classify(ctx, "resolve destination", err)
	}

	if toID == input.FromAccountID {
		return nil, domain.ErrSameAccount
	}

	var receipt *domain.TransferReceipt
	err = uc.atomically(ctx, OperationTransfer, func(ctx context.Context, tx Tx) error {
		// 2. Lock both accounts in ascending id order
		accounts, err := uc.lockAccounts(ctx, tx, input.FromAccountID, toID)
		if err != nil {
			return err
		}

		from, to := accounts[input.FromAccountID], accounts[toID]

		// 3. Check funds against the locked balance
		if err := domain.ValidateTransfer(from, to, input.Amount); err != nil {
			return err
		}

		now := uc.now()
		transferID := uc.idGen.NewID()
		fromBalance := from.ApplyDebit(input.Amount)
		toBalance := to.ApplyCredit(input.Amount)

		// 4. Apply both legs
		updatedFrom, err := uc.apply(ctx, tx, from, fromBalance, now)
		if err != nil {
			return err
		}

		updatedTo, err := uc.apply(ctx, tx, to, toBalance, now)
		if err != nil {
			return err
		}

		withdrawal, err := uc.record(ctx, tx, from.ID, &transferID, domain.TransactionWithdraw, input.Amount, fromBalance, now)
		if err != nil {
			return err
		}

		deposit, err := uc.record(ctx, tx, to.ID, &transferID, domain.TransactionDeposit, input.Amount, toBalance, now)
		if err != nil {
			return err
		}

		receipt = &domain.TransferReceipt{
			ID:         transferID,
			From:       updatedFrom,
			To:         updatedTo,
			Withdrawal: withdrawal,
			Deposit:    deposit,
			Amount:     input.Amount,
			CreatedAt:  now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// atomically runs fn inside one store transaction bounded by the operation
// timeout. Nothing fn wrote survives unless it returns nil and the commit
// succeeds.
func (uc *LedgerUseCase) atomically(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return classify(ctx, "begin "+op, err)
	}
	defer func() {
		// Rollback must still run after the deadline has fired.
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(ctx, tx); err != nil {
		return classify(ctx, op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(ctx, "commit "+op, err)
	}

	return nil
}

func (uc *LedgerUseCase) lockAccounts(ctx context.Context, tx Tx, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := domain.SortAccountIDs(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, sorted)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*domain.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}

	for _, id := range sorted {
		if _, ok := byID[id]; !ok {
			return nil, domain.ErrAccountNotFound
		}
	}

	return byID, nil
}

func (uc *LedgerUseCase) apply(
	ctx context.Context,
	tx Tx,
	account *domain.Account,
	balance decimal.Decimal,
	now time.Time,
) (*domain.Account, error) {
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, balance, now); err != nil {
		return nil, err
	}

	updated := account.Clone()
	updated.Balance = balance
	updated.Version++
	updated.UpdatedAt = now

	return updated, nil
}

func (uc *LedgerUseCase) record(
	ctx context.Context,
	tx Tx,
	accountID uuid.UUID,
	transferID *uuid.UUID,
	kind domain.TransactionKind,
	amount, balanceAfter decimal.Decimal,
	now time.Time,
) (*domain.Transaction, error) {
	t := &domain.Transaction{
		ID:           uc.idGen.NewID(),
		AccountID:    accountID,
		TransferID:   transferID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		CreatedAt:    now,
	}

	if err := uc.transactionRepo.Create(ctx, tx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (uc *LedgerUseCase) finish(op string, accountID uuid.UUID, amount decimal.Decimal, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}

	uc.recorder.RecordOperation(op, outcome, amount, elapsed)

	var event *zerolog.Event
	switch domain.KindOf(err) {
	case domain.KindUnknown:
		if err == nil {
			event = uc.logger.Debug()
		} else {
			event = uc.logger.Error().Err(err)
		}
	case domain.KindConflict, domain.KindTimeout, domain.KindPersistence:
		event = uc.logger.Error().Err(err)
	default:
		event = uc.logger.Warn().Err(err)
	}

	event.
		Str("operation", op).
		Str("account_id", accountID.String()).
		Str("amount", amount.String()).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("ledger operation")
}

// classify makes sure every error leaving the engine carries a kind.
func classify(ctx context.Context, op string, err error) error {
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.Timeout(op, err)
	}

	return domain.Persistence(op, err)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, decimal.Decimal, time.Duration) {}
