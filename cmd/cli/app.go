package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/splitledger/internal/adapter/api"
	"github.com/iho/splitledger/internal/adapter/repository/file"
	redisRepo "github.com/iho/splitledger/internal/adapter/repository/redis"
	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/infrastructure/config"
	"github.com/iho/splitledger/internal/infrastructure/idgen"
	"github.com/iho/splitledger/internal/infrastructure/logger"
	"github.com/iho/splitledger/internal/infrastructure/metrics"
	"github.com/iho/splitledger/internal/infrastructure/redis"
	"github.com/iho/splitledger/internal/usecase"
)

// options are the persistent flags shared by every command.
type options struct {
	envFile     string
	logLevel    string
	jsonOutput  bool
	dumpMetrics bool
}

// app is the wired client for one command invocation.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
	json    bool

	auth        *usecase.AuthUseCase
	groups      *usecase.GroupUseCase
	expenses    *usecase.ExpenseUseCase
	settlements *usecase.SettlementUseCase
	reports     *usecase.ReportUseCase

	closers []func() error
}

func newApp(ctx context.Context, opts *options, stderr io.Writer) (*app, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log := logger.New(logger.Config{Level: level, Format: cfg.LogFormat, Output: stderr})

	a := &app{
		cfg:     cfg,
		logger:  log,
		metrics: metrics.New(),
		json:    opts.jsonOutput,
	}

	var (
		cache usecase.Cache           = redisRepo.NoopCache{}
		guard usecase.SubmissionGuard = redisRepo.NoopGuard{}
	)
	if cfg.RedisEnabled() {
		client, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisTimeout)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, caching and duplicate detection disabled")
		} else {
			a.closers = append(a.closers, client.Close)
			cache = redisRepo.NewCache(client)
			guard = redisRepo.NewSubmissionGuard(client)
			log.Debug().Msg("connected to redis")
		}
	}
	cache = redisRepo.NewInstrumentedCache(cache, a.metrics)
	guard = redisRepo.NewInstrumentedGuard(guard, a.metrics)

	client := api.New(api.Config{
		BaseURL:         cfg.APIURL,
		AuthURL:         cfg.AuthURL,
		Timeout:         cfg.HTTPTimeout,
		MaxRetries:      cfg.HTTPMaxRetries,
		RateLimit:       cfg.RateLimitRPS,
		RateBurst:       cfg.RateLimitBurst,
		BreakerTimeout:  cfg.BreakerTimeout,
		BreakerFailures: cfg.BreakerFailures,
	}, nil, a.metrics, log)

	authGateway := api.NewAuthGateway(client)
	groupGateway := api.NewGroupGateway(client)
	expenseGateway := api.NewExpenseGateway(client)
	settlementGateway := api.NewSettlementGateway(client)
	reportGateway := api.NewReportGateway(client)

	ids := idgen.NewULIDGenerator()
	timing := usecase.Timing{CacheTTL: cfg.CacheTTL, DuplicateWindow: cfg.DuplicateWindow}

	a.auth = usecase.NewAuthUseCase(authGateway, file.NewSessionStore(cfg.SessionFile))
	a.groups = usecase.NewGroupUseCase(groupGateway)
	a.expenses = usecase.NewExpenseUseCase(groupGateway, expenseGateway, cache, guard, ids, timing)
	a.settlements = usecase.NewSettlementUseCase(groupGateway, settlementGateway, cache, guard, ids, timing)
	a.expenses.SetLogger(log)
	a.settlements.SetLogger(log)
	a.reports = usecase.NewReportUseCase(groupGateway, expenseGateway, settlementGateway, reportGateway, cache, timing)

	return a, nil
}

// session returns the stored session or a hint to log in.
func (a *app) session(ctx context.Context) (*domain.Session, error) {
	session, err := a.auth.CurrentSession(ctx)
	switch {
	case errors.Is(err, domain.ErrNoSession):
		return nil, fmt.Errorf("%w: run 'splitledger login' first", err)
	case err != nil:
		return nil, err
	}
	return session, nil
}

func (a *app) close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// appFrom returns the app attached to the command context by the root pre-run hook.
func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

type appKey struct{}
