package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cheliosooo/bankineco-amm-interface/internal/models"
	"github.com/cheliosooo/bankineco-amm-interface/internal/storage"
)

// Market update channels
const (
	ChannelMarketAll    = "bankineco:market:all"
	channelMarketPrefix = "bankineco:market:"
)

// MarketChannel is the per-vault update channel
func MarketChannel(vault string) string {
	return channelMarketPrefix + vault
}

// PubSubManager publishes market updates over Redis Pub/Sub
type PubSubManager struct {
	client redis.UniversalClient
	logger *logrus.Logger
}

var _ storage.MarketPublisher = (*PubSubManager)(nil)

func NewPubSubManager(client redis.UniversalClient, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// PublishMarket sends ev to the shared channel and the vault's own channel
func (p *PubSubManager) PublishMarket(ctx context.Context, ev *models.MarketEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal market event: %w", err)
	}

	pipe := p.client.Pipeline()
	for _, channel := range []string{ChannelMarketAll, MarketChannel(ev.Vault)} {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish market event: %w", err)
	}
	return nil
}

// Subscribe delivers events from channel to handler until ctx is done
func (p *PubSubManager) Subscribe(ctx context.Context, channel string, handler storage.MarketHandler) error {
	pubsub := p.client.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed to market updates")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.MarketEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed market event")
				continue
			}
			handler(&ev)
		}
	}
}
