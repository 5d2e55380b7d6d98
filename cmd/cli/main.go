package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/corebanking/internal/infrastructure/logger"
	"github.com/iho/corebanking/internal/infrastructure/postgres"
)

// errLedgerInconsistent makes `ledger check` exit non-zero.
var errLedgerInconsistent = errors.New("ledger is inconsistent")

type cliOptions struct {
	baseURL        string
	timeout        time.Duration
	retries        uint64
	idempotencyKey string

	client func() *apiClient
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	opts.client = func() *apiClient {
		return newAPIClient(opts.baseURL, opts.timeout, opts.retries)
	}

	rootCmd := &cobra.Command{
		Use:           "corebank",
		Short:         "Core banking ledger CLI",
		Long:          `A command line interface for the core banking ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().Uint64Var(&opts.retries, "retries", 3, "Retries on conflict or unavailable responses")

	rootCmd.AddCommand(
		customerCmd(opts),
		accountCmd(opts),
		depositCmd(opts),
		withdrawCmd(opts),
		transferCmd(opts),
		ledgerCmd(opts),
		migrateCmd(),
	)

	return rootCmd
}

func customerCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Customer operations",
	}

	var name, address string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"name": name, "address": address}
			return request(cmd, opts, "POST", "/customers", body, "")
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Customer name")
	createCmd.Flags().StringVar(&address, "address", "", "Customer address")
	_ = createCmd.MarkFlagRequired("name")

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return request(cmd, opts, "GET", "/customers/"+url.PathEscape(args[0]), nil, "")
		},
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return request(cmd, opts, "GET", "/customers"+pageQuery(limit, offset, nil), nil, "")
		},
	}
	addPageFlags(listCmd, &limit, &offset)

	cmd.AddCommand(createCmd, getCmd, listCmd)
	return cmd
}

func accountCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var customerID, openingBalance string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := decimal.NewFromString(openingBalance); err != nil {
				return fmt.Errorf("invalid opening balance %q", openingBalance)
			}
			body := map[string]string{"customerId": customerID, "openingBalance": openingBalance}
			return request(cmd, opts, "POST", "/accounts", body, "")
		},
	}
	createCmd.Flags().StringVar(&customerID, "customer-id", "", "Owning customer ID")
	createCmd.Flags().StringVar(&openingBalance, "opening-balance", "0", "Opening balance")
	_ = createCmd.MarkFlagRequired("customer-id")

	var byNumber bool
	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/accounts/" + url.PathEscape(args[0])
			if byNumber {
				path = "/accounts/by-number/" + url.PathEscape(args[0])
			}
			return request(cmd, opts, "GET", path, nil, "")
		},
	}
	getCmd.Flags().BoolVar(&byNumber, "number", false, "Treat the argument as an account number")

	var listCustomer string
	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			extra := url.Values{}
			if listCustomer != "" {
				extra.Set("customerId", listCustomer)
			}
			return request(cmd, opts, "GET", "/accounts"+pageQuery(limit, offset, extra), nil, "")
		},
	}
	listCmd.Flags().StringVar(&listCustomer, "customer-id", "", "Only accounts of this customer")
	addPageFlags(listCmd, &limit, &offset)

	var txLimit, txOffset int
	transactionsCmd := &cobra.Command{
		Use:   "transactions ID",
		Short: "List an account's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/accounts/" + url.PathEscape(args[0]) + "/transactions" + pageQuery(txLimit, txOffset, nil)
			return request(cmd, opts, "GET", path, nil, "")
		},
	}
	addPageFlags(transactionsCmd, &txLimit, &txOffset)

	reconcileCmd := &cobra.Command{
		Use:   "reconcile ID",
		Short: "Check an account balance against its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return request(cmd, opts, "GET", "/accounts/"+url.PathEscape(args[0])+"/reconciliation", nil, "")
		},
	}

	cmd.AddCommand(createCmd, getCmd, listCmd, transactionsCmd, reconcileCmd)
	return cmd
}

func depositCmd(opts *cliOptions) *cobra.Command {
	return moveCmd(opts, "deposit", "Credit an account")
}

func withdrawCmd(opts *cliOptions) *cobra.Command {
	return moveCmd(opts, "withdraw", "Debit an account")
}

func moveCmd(opts *cliOptions, op, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op + " ACCOUNT_ID AMOUNT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			path := "/accounts/" + url.PathEscape(args[0]) + "/" + op
			return request(cmd, opts, "PUT", path, map[string]string{"amount": amount}, ledgerKey(opts))
		},
	}
	addIdempotencyFlag(cmd, opts)
	return cmd
}

func transferCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer FROM_ACCOUNT_ID TO_ACCOUNT_NUMBER AMOUNT",
		Short: "Move money between accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			body := map[string]string{"toAccountNumber": args[1], "amount": amount}
			path := "/accounts/" + url.PathEscape(args[0]) + "/transfer"
			return request(cmd, opts, "PUT", path, body, ledgerKey(opts))
		},
	}
	addIdempotencyFlag(cmd, opts)
	return cmd
}

func ledgerCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	checkCmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"consistency"},
		Short:   "Check ledger consistency",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var report map[string]any
			if err := opts.client().do(cmd.Context(), "GET", "/ledger/consistency", nil, "", &report); err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), report)

			if consistent, _ := report["consistent"].(bool); !consistent {
				return errLedgerInconsistent
			}
			return nil
		},
	}

	cmd.AddCommand(checkCmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the PostgreSQL schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL")
	cmd.PersistentFlags().StringVar(&path, "path", "internal/infrastructure/postgres/migrations", "Migrations directory")

	log := func(cmd *cobra.Command) zerolog.Logger {
		return logger.New(logger.Config{Level: "info", Format: "console", Output: cmd.ErrOrStderr()})
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RunMigrations(databaseURL, path, log(cmd))
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postgres.RunMigrationsDown(databaseURL, path, log(cmd))
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func request(cmd *cobra.Command, opts *cliOptions, method, path string, body any, key string) error {
	var out json.RawMessage
	if err := opts.client().do(cmd.Context(), method, path, body, key, &out); err != nil {
		return err
	}
	printJSON(cmd.OutOrStdout(), out)
	return nil
}

func addIdempotencyFlag(cmd *cobra.Command, opts *cliOptions) {
	cmd.Flags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency key (generated when empty)")
}

// ledgerKey is generated once per invocation so every retry reuses it.
func ledgerKey(opts *cliOptions) string {
	if opts.idempotencyKey != "" {
		return opts.idempotencyKey
	}
	return uuid.NewString()
}

func parseAmount(s string) (string, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("invalid amount %q", s)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("amount must be positive, got %s", s)
	}
	return amount.String(), nil
}

func addPageFlags(cmd *cobra.Command, limit, offset *int) {
	cmd.Flags().IntVar(limit, "limit", 0, "Page size")
	cmd.Flags().IntVar(offset, "offset", 0, "Items to skip")
}

func pageQuery(limit, offset int, extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
