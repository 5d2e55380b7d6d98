package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/corebanking/internal/adapter/http"
	"github.com/iho/corebanking/internal/adapter/http/handler"
	"github.com/iho/corebanking/internal/adapter/http/middleware"
	"github.com/iho/corebanking/internal/adapter/repository/memory"
	mysqlRepo "github.com/iho/corebanking/internal/adapter/repository/mysql"
	postgresRepo "github.com/iho/corebanking/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/corebanking/internal/adapter/repository/redis"
	"github.com/iho/corebanking/internal/infrastructure/config"
	"github.com/iho/corebanking/internal/infrastructure/idgen"
	"github.com/iho/corebanking/internal/infrastructure/logger"
	"github.com/iho/corebanking/internal/infrastructure/metrics"
	"github.com/iho/corebanking/internal/infrastructure/mysql"
	"github.com/iho/corebanking/internal/infrastructure/postgres"
	"github.com/iho/corebanking/internal/infrastructure/redis"
	"github.com/iho/corebanking/internal/usecase"
)

// store bundles the repositories of one backend.
type store struct {
	txManager    usecase.TxManager
	customers    usecase.CustomerRepository
	accounts     usecase.AccountRepository
	transactions usecase.TransactionRepository
	ledger       usecase.LedgerRepository
	ping         handler.Pinger
	close        func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ids := idgen.NewUUIDGenerator()
	checks := map[string]handler.Pinger{"store": st.ping}

	var resolver usecase.AccountResolver = usecase.NewRepositoryAccountResolver(st.accounts)
	var idempotency *middleware.IdempotencyMiddleware

	if cfg.RedisEnabled {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, cfg.ConnectRetryMax)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		cache := redisRepo.NewCache(redisClient)
		checks["redis"] = cache
		resolver = usecase.NewCachedAccountResolver(resolver, cache, cfg.AccountCacheTTL, log)
		idempotency = middleware.NewIdempotencyMiddleware(
			redisRepo.NewIdempotencyStore(redisClient), cfg.IdempotencyTTL, log, m)
	} else {
		log.Warn().Msg("redis disabled: idempotency keys are ignored")
	}

	// Initialize use cases
	customerUC := usecase.NewCustomerUseCase(st.customers, ids)
	accountUC := usecase.NewAccountUseCase(st.accounts, st.customers, ids, idgen.NewULIDNumberGenerator())
	transactionUC := usecase.NewTransactionUseCase(st.accounts, st.transactions)
	reconciliationUC := usecase.NewReconciliationUseCase(st.ledger)
	ledgerUC := usecase.NewLedgerUseCase(st.txManager, st.accounts, st.transactions, ids,
		usecase.WithOperationTimeout(cfg.LedgerOperationTimeout),
		usecase.WithAccountResolver(resolver),
		usecase.WithRecorder(m),
		usecase.WithLogger(log.With().Str("component", "ledger").Logger()),
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
		go limiter.Run(ctx, 10*time.Minute)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		CustomerHandler:       handler.NewCustomerHandler(customerUC),
		AccountHandler:        handler.NewAccountHandler(accountUC, transactionUC),
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         handler.NewHealthHandler(checks),
		Idempotency:           idempotency,
		RateLimiter:           limiter,
		Metrics:               m,
		MetricsHandler:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:                log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := memory.NewStore()
		log.Warn().Msg("using in-memory store: balances are lost on restart")
		return &store{
			txManager:    mem,
			customers:    mem.Customers(),
			accounts:     mem.Accounts(),
			transactions: mem.Transactions(),
			ledger:       mem.Ledger(),
			ping:         mem,
			close:        func() {},
		}, nil

	case config.DriverMySQL:
		db, err := mysql.Open(ctx, mysql.Config{
			DSN:             cfg.MySQLDSN,
			MaxOpenConns:    cfg.MySQLMaxOpenConns,
			MaxIdleConns:    cfg.MySQLMaxOpenConns,
			ConnMaxLifetime: time.Hour,
			LockTimeout:     cfg.LockTimeout,
			ConnectRetryMax: cfg.ConnectRetryMax,
			LogLevel:        "warn",
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect to mysql: %w", err)
		}
		log.Info().Msg("connected to mysql")

		st := mysqlRepo.NewStore(db)
		if cfg.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				mysql.Close(db)
				return nil, fmt.Errorf("migrate mysql: %w", err)
			}
		}

		return &store{
			txManager:    st,
			customers:    st.Customers(),
			accounts:     st.Accounts(),
			transactions: st.Transactions(),
			ledger:       st.Ledger(),
			ping:         st,
			close:        func() { mysql.Close(db) },
		}, nil

	default:
		if cfg.AutoMigrate {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:     cfg.DatabaseURL,
			MaxConns:        cfg.DatabaseMaxConns,
			MinConns:        cfg.DatabaseMinConns,
			LockTimeout:     cfg.LockTimeout,
			ConnectRetryMax: cfg.ConnectRetryMax,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		return &store{
			txManager:    postgresRepo.NewTxManager(pool),
			customers:    postgresRepo.NewCustomerRepository(pool),
			accounts:     postgresRepo.NewAccountRepository(pool),
			transactions: postgresRepo.NewTransactionRepository(pool),
			ledger:       postgresRepo.NewLedgerRepository(pool),
			ping:         handler.PingFunc(pool.Ping),
			close:        pool.Close,
		}, nil
	}
}
