// Package kafkaconsumer subscribes to layer-invalidation events and
// clears the affected layers from the tile cache.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/openmaps/shptiles/internal/core/observability"
	"github.com/openmaps/shptiles/internal/invalidation"
)

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	inv    invalidation.Invalidator
}

func New(cfg Config, inv invalidation.Invalidator, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{cfg: cfg, logger: logger, inv: inv}
}

// Start joins the consumer group and processes events until ctx is
// canceled. Broker errors are retried with a short backoff.
func (c *Consumer) Start(ctx context.Context) error {
	if c.inv == nil {
		return errors.New("kafkaconsumer: invalidator is required")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("kafka invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single event message. Decode and validation
// failures are terminal for the message; invalidation failures are
// returned so the claim is retried.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncInvalidation("kafka", err)
		return fmt.Errorf("json decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		observability.IncInvalidation("kafka", err)
		return fmt.Errorf("invalid event: %w", err)
	}

	n, err := c.inv.Invalidate(ctx, ev.Layer)
	observability.IncInvalidation("kafka", err)
	if err != nil {
		return fmt.Errorf("invalidate layer %s: %w", ev.Layer, err)
	}

	c.logger.Debug("layer invalidated from kafka",
		"layer", ev.Layer, "op", ev.Op, "entries_removed", n,
		"partition", msg.Partition, "offset", msg.Offset)
	return nil
}
