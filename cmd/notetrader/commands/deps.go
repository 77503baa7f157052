package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/notetrader/internal/audit"
	"github.com/wonny/notetrader/internal/external/lendingclub"
	"github.com/wonny/notetrader/internal/pipeline"
	"github.com/wonny/notetrader/internal/pricing"
	"github.com/wonny/notetrader/internal/rules"
	"github.com/wonny/notetrader/internal/strategyconfig"
	"github.com/wonny/notetrader/internal/timing"
	"github.com/wonny/notetrader/pkg/config"
	"github.com/wonny/notetrader/pkg/database"
	"github.com/wonny/notetrader/pkg/httputil"
	"github.com/wonny/notetrader/pkg/logger"
	"github.com/wonny/notetrader/pkg/redis"
)

const cachePrefix = "notetrader"

// deps holds everything a trading command needs
type deps struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	snapshot *strategyconfig.RunSnapshot
	redis    *redis.Client
	db       *database.DB
	client   *lendingclub.Client
	eval     *rules.Evaluator
}

// initDeps loads configuration and builds the service client.
// The audit database is opened only when DATABASE_URL is set.
func initDeps(ctx context.Context) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	sc, yamlData, err := loadStrategy(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range strategyconfig.Warn(sc) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	snapshot, err := strategyconfig.NewRunSnapshot(sc, yamlData)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	rc, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	d := &deps{
		cfg:      cfg,
		log:      log,
		strategy: sc,
		snapshot: snapshot,
		redis:    rc,
		eval:     rules.NewEvaluator(timing.Default(), time.Now),
	}

	fileStore, err := lendingclub.NewFileStore(cfg.LendingClub.CacheDir)
	if err != nil {
		d.Close(ctx)
		return nil, err
	}
	var store lendingclub.DocumentStore = fileStore

	httpClient := httputil.New(cfg, log).WithLocalLimit(cfg.LendingClub.RequestDelay)
	if rc.Enabled() {
		limiter := redis.NewRateLimiter(rc, cachePrefix)
		httpClient = httpClient.WithRateLimiter(limiter, redis.RateLimitEvery(redis.LendingClubRateLimit.Key, cfg.LendingClub.RequestDelay))
		store = lendingclub.NewRedisStore(redis.NewCache(rc, cachePrefix), fileStore, log)
		log.Debug("Redis cache and shared rate limit enabled")
	}
	d.client = lendingclub.NewClient(cfg, httpClient, store, log)

	if cfg.Database.Enabled() {
		db, err := database.New(cfg)
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("failed to connect audit database: %w", err)
		}
		d.db = db
	}

	return d, nil
}

// loadConfig applies the global flags on top of the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	switch env {
	case "":
	case "development", "staging", "production":
		cfg.Env = env
	default:
		return nil, fmt.Errorf("--env must be one of: development, staging, production")
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}
	return cfg, nil
}

func loadStrategy(cfg *config.Config) (*strategyconfig.Config, []byte, error) {
	if cfg.StrategyFile == "" {
		return strategyconfig.Default(), nil, nil
	}
	return strategyconfig.Load(cfg.StrategyFile)
}

// pipeline wires the pricer, the recorder and pacing into a new pipeline
func (d *deps) pipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	var est pricing.Estimator
	if d.cfg.ModelFile != "" {
		model, err := pricing.LoadModel(d.cfg.ModelFile)
		if err != nil {
			return nil, err
		}
		est = model
	}
	pricer := pricing.NewPricer(est, pricing.Params{
		Confidence: d.strategy.Pricing.Confidence,
		MinMarkup:  d.strategy.Pricing.MinMarkup,
		MaxMarkup:  d.strategy.Pricing.MaxMarkup,
		Step:       d.strategy.Pricing.Step,
	})

	opts := []pipeline.Option{
		pipeline.WithPricer(pricer),
		pipeline.WithLogger(d.log),
		pipeline.WithPacer(pipeline.NewPacer(d.strategy.Pacing.RequestDelay)),
		pipeline.WithDetailMaxAge(d.strategy.Pacing.DetailMaxAge),
		pipeline.WithConfigHash(d.snapshot.ConfigHash),
	}

	if d.db != nil {
		repo := audit.NewRepository(d.db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithRecorder(repo))
	}

	return pipeline.New(d.client, d.eval, opts...), nil
}

// Close logs out and releases connections
func (d *deps) Close(ctx context.Context) {
	if d.client != nil {
		if err := d.client.Logout(context.WithoutCancel(ctx)); err != nil {
			d.log.WithError(err).Warn("Logout failed")
		}
	}
	if d.db != nil {
		d.db.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}
