package swapengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/cache"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/config"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/flags"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/metrics"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/rpc"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/wallet"
)

// Runtime is a fully wired engine plus the resources it owns. The CLI and
// the API server both start from here.
type Runtime struct {
	Engine  *Engine
	Client  *rpc.Client
	Wallet  *wallet.Wallet
	Metrics *metrics.Recorder

	// Set only when REDIS_ADDR is configured.
	Redis  *redis.Client
	Flags  *flags.Store
	PubSub *cache.PubSubManager
}

// NewRuntime builds the engine from configuration. Redis is optional; without
// it the kill switch reads as enabled and every pair lookup searches chain.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *logrus.Logger, reg prometheus.Registerer) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("swapengine: config is nil")
	}
	if logger == nil {
		logger = cfg.NewLogger()
	}

	w, err := wallet.NewWallet(cfg.WalletPrivateKey)
	if err != nil {
		return nil, err
	}

	client := rpc.NewClient(rpc.ClientConfig{
		BaseURL:           cfg.RPCUrl,
		Timeout:           cfg.RPCTimeout,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		RequestsPerSecond: cfg.RPCRateLimit,
		Commitment:        cfg.Commitment,
		SkipPreflight:     cfg.SkipPreflight,
		Logger:            logger,
	})

	rt := &Runtime{Client: client, Wallet: w}
	if reg != nil {
		rt.Metrics = metrics.NewRecorder(reg)
	}

	risk := RiskConfig{
		DefaultSlippagePct: cfg.DefaultSlippagePct,
		MaxSlippagePct:     cfg.MaxSlippagePct,
	}
	if cfg.MaxBuySOL > 0 {
		if risk.MaxBuyLamports, err = SOLToLamports(cfg.MaxBuySOL); err != nil {
			return nil, fmt.Errorf("MAX_BUY_SOL: %w", err)
		}
	}

	engineCfg := DefaultEngineConfig()
	engineCfg.Layout = cfg.PoolLayout
	engineCfg.ComputeUnitLimit = cfg.ComputeUnitLimit
	engineCfg.ComputeUnitPrice = cfg.ComputeUnitPrice
	engineCfg.Commitment = cfg.Commitment
	engineCfg.ConfirmTimeout = cfg.ConfirmTimeout
	engineCfg.RequireSimulation = cfg.RequireSimulation
	engineCfg.Risk = risk
	engineCfg.Logger = logger

	var opts []Option
	if rt.Metrics != nil {
		opts = append(opts, WithRecorder(rt.Metrics))
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		rt.Redis = rc

		pairs, err := cache.NewRedisCache(rc, cfg.PairCacheTTL)
		if err != nil {
			_ = rc.Close()
			return nil, err
		}
		store, err := flags.NewStore(rc)
		if err != nil {
			_ = rc.Close()
			return nil, err
		}
		rt.Flags = store
		rt.PubSub = cache.NewPubSubManager(rc, logger)

		opts = append(opts, WithPairCache(pairs), WithFlags(store), WithEventPublisher(rt.PubSub))
	} else {
		logger.Warn("REDIS_ADDR not set, running without redis")
	}

	rt.Engine = NewEngine(client, w, engineCfg, opts...)

	logger.WithFields(logrus.Fields{
		"wallet":     w.Address(),
		"rpc":        cfg.RPCUrl,
		"commitment": cfg.Commitment,
		"layout":     cfg.PoolLayout,
		"redis":      rt.Redis != nil,
	}).Info("swap engine ready")

	return rt, nil
}

// Close releases the Redis connection, if any.
func (r *Runtime) Close() error {
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			return fmt.Errorf("redis close: %w", err)
		}
	}
	return nil
}
