package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pumpswap-executor/internal/constants"
	"github.com/aman-zulfiqar/pumpswap-executor/internal/models"
)

type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(client *redis.Client, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// SwapChannels lists every channel a swap event is published to.
func SwapChannels(swap *models.SwapEvent) []string {
	return []string{
		constants.PubSubChannelSwaps,
		fmt.Sprintf("%s:pool:%s", constants.PubSubChannelSwaps, swap.Pool),
		fmt.Sprintf("%s:mint:%s", constants.PubSubChannelSwaps, swap.BaseMint),
	}
}

// PublishSwap publishes a swap event to all of its channels in one pipeline.
func (p *PubSubManager) PublishSwap(ctx context.Context, swap *models.SwapEvent) error {
	data, err := json.Marshal(swap)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	for _, channel := range SwapChannels(swap) {
		pipe.Publish(ctx, channel, data)
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish swap: %w", err)
	}
	return nil
}

// Subscribe delivers swap events from channel until ctx is done.
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler func(*models.SwapEvent)) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed")

	return p.consume(ctx, pubsub, handler)
}

// PSubscribe is Subscribe for a pattern such as "pumpswap:swaps:pool:*".
func (p *PubSubManager) PSubscribe(ctx context.Context, pattern string, handler func(*models.SwapEvent)) error {
	pubsub := p.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("psubscribe %s: %w", pattern, err)
	}
	p.logger.WithField("pattern", pattern).Info("subscribed")

	return p.consume(ctx, pubsub, handler)
}

func (p *PubSubManager) consume(ctx context.Context, pubsub *redis.PubSub, handler func(*models.SwapEvent)) error {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var swap models.SwapEvent
			if err := json.Unmarshal([]byte(msg.Payload), &swap); err != nil {
				p.logger.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed swap event")
				continue
			}
			handler(&swap)
		}
	}
}
