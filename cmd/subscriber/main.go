// Tails swap events published by the executor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/cache"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/config"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/models"
)

func main() {
	_ = godotenv.Load()

	mint := flag.String("mint", "", "only events for this base mint")
	pool := flag.String("pool", "", "only events for this pool")
	pattern := flag.String("pattern", "", "channel glob, e.g. pumpswap:swaps:mint:*")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}
	logger := cfg.NewLogger()
	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.WithError(err).Fatal("redis")
	}
	defer client.Close()

	channel := constants.PubSubChannelSwaps
	switch {
	case *pool != "":
		channel = fmt.Sprintf("%s:pool:%s", constants.PubSubChannelSwaps, *pool)
	case *mint != "":
		channel = fmt.Sprintf("%s:mint:%s", constants.PubSubChannelSwaps, *mint)
	}

	pubsub := cache.NewPubSubManager(client, logger)
	logger.WithFields(logrus.Fields{"channel": channel, "pattern": *pattern}).Info("subscriber running")

	handle := func(ev *models.SwapEvent) {
		logger.WithFields(logrus.Fields{
			"signature":    ev.Signature,
			"side":         ev.Side,
			"pair":         ev.Pair,
			"amount_in":    ev.AmountIn,
			"expected_out": ev.ExpectedOut,
			"bound":        ev.Bound,
			"wallet":       ev.Wallet,
		}).Info("swap")
	}
	if *pattern != "" {
		err = pubsub.PSubscribe(ctx, *pattern, handle)
	} else {
		err = pubsub.Subscribe(ctx, channel, handle)
	}
	if err != nil && ctx.Err() == nil {
		logger.WithError(err).Fatal("subscribe")
	}
}
