package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/pumpswap"
)

type Config struct {
	// RPC settings
	RPCUrl         string
	RPCTimeout     time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	RPCRateLimit   float64 // requests per second, 0 disables limiting
	Commitment     string
	SkipPreflight  bool
	ConfirmTimeout time.Duration

	// Wallet
	WalletPrivateKey string

	// Transaction settings
	ComputeUnitLimit  uint32
	ComputeUnitPrice  uint64
	RequireSimulation bool
	PoolLayout        pumpswap.Layout

	// Risk
	DefaultSlippagePct float64
	MaxSlippagePct     float64
	MaxBuySOL          float64

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PairCacheTTL  time.Duration

	// HTTP API
	APIAddr   string
	APIKey    string
	DevMode   bool
	RateLimit float64 // requests per second per client

	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{
		// RPC
		RPCUrl:         getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCTimeout:     getDurationEnv("RPC_TIMEOUT", 30*time.Second),
		MaxRetries:     getIntEnv("MAX_RETRIES", 3),
		RetryBackoff:   getDurationEnv("RETRY_BACKOFF", time.Second),
		RPCRateLimit:   getFloatEnv("RPC_RATE_LIMIT", 10),
		Commitment:     getEnv("COMMITMENT", "confirmed"),
		SkipPreflight:  getBoolEnv("SKIP_PREFLIGHT", false),
		ConfirmTimeout: getDurationEnv("CONFIRM_TIMEOUT", constants.DefaultConfirmTimeout),

		WalletPrivateKey: os.Getenv("WALLET_PRIVATE_KEY"),

		// Transaction
		ComputeUnitLimit:  uint32(getIntEnv("COMPUTE_UNIT_LIMIT", constants.DefaultComputeUnitLimit)),
		ComputeUnitPrice:  uint64(getIntEnv("COMPUTE_UNIT_PRICE", constants.DefaultComputeUnitPrice)),
		RequireSimulation: getBoolEnv("REQUIRE_SIMULATION", false),

		// Risk
		DefaultSlippagePct: getFloatEnv("DEFAULT_SLIPPAGE_PCT", 5),
		MaxSlippagePct:     getFloatEnv("MAX_SLIPPAGE_PCT", 50),
		MaxBuySOL:          getFloatEnv("MAX_BUY_SOL", 0),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		PairCacheTTL:  getDurationEnv("PAIR_CACHE_TTL", 10*time.Minute),

		// HTTP
		APIAddr:   getEnv("API_ADDR", ":8080"),
		APIKey:    os.Getenv("API_KEY"),
		DevMode:   getBoolEnv("DEV_MODE", false),
		RateLimit: getFloatEnv("API_RATE_LIMIT", 20),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	layout, err := pumpswap.ParseLayout(getEnv("POOL_LAYOUT", string(pumpswap.LayoutAuto)))
	if err != nil {
		return nil, err
	}
	cfg.PoolLayout = layout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late, mid-swap.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.RPCUrl); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL must be an http(s) URL, got %q", c.RPCUrl))
	}
	if c.RPCTimeout <= 0 {
		errs = append(errs, errors.New("RPC_TIMEOUT must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must be >= 0"))
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		errs = append(errs, fmt.Errorf("COMMITMENT must be processed, confirmed or finalized, got %q", c.Commitment))
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("CONFIRM_TIMEOUT must be positive"))
	}
	if c.ComputeUnitLimit == 0 || c.ComputeUnitLimit > 1_400_000 {
		errs = append(errs, fmt.Errorf("COMPUTE_UNIT_LIMIT must be in (0, 1400000], got %d", c.ComputeUnitLimit))
	}
	if c.DefaultSlippagePct < 0 || c.DefaultSlippagePct > 100 {
		errs = append(errs, fmt.Errorf("DEFAULT_SLIPPAGE_PCT must be in [0,100], got %v", c.DefaultSlippagePct))
	}
	if c.MaxSlippagePct < c.DefaultSlippagePct || c.MaxSlippagePct > 100 {
		errs = append(errs, fmt.Errorf("MAX_SLIPPAGE_PCT must be in [DEFAULT_SLIPPAGE_PCT,100], got %v", c.MaxSlippagePct))
	}
	if c.MaxBuySOL < 0 {
		errs = append(errs, errors.New("MAX_BUY_SOL must be >= 0"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
