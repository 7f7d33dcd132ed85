package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

const (
	// Batch size for reading messages
	batchSize = 100

	// Block duration when waiting for new messages
	blockDuration = 1 * time.Second

	retryDelay = 1 * time.Second
)

// Broadcaster receives every simulation read from the stream
type Broadcaster interface {
	Broadcast(result models.SimulationResult)
}

// StreamConsumer reads simulation results from a Redis stream through a
// consumer group and hands them to the websocket hub.
type StreamConsumer struct {
	redis      *redis.Client
	target     Broadcaster
	stream     string
	group      string
	consumerID string
	block      time.Duration
	logger     log.Logger
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(redisClient *redis.Client, target Broadcaster, stream, group, consumerID string, logger log.Logger) *StreamConsumer {
	return &StreamConsumer{
		redis:      redisClient,
		target:     target,
		stream:     stream,
		group:      group,
		consumerID: consumerID,
		block:      blockDuration,
		logger:     log.With(logger, "component", "consumer", "stream", stream),
	}
}

// Start creates the consumer group and consumes until ctx is cancelled
func (sc *StreamConsumer) Start(ctx context.Context) error {
	if err := sc.EnsureGroup(ctx); err != nil {
		return err
	}
	level.Info(sc.logger).Log("msg", "stream consumer started", "group", sc.group)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := sc.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			level.Warn(sc.logger).Log("msg", "stream read failed", "err", err)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
		}
	}
}

// EnsureGroup creates the consumer group, tolerating one that already exists
func (sc *StreamConsumer) EnsureGroup(ctx context.Context) error {
	err := sc.redis.XGroupCreateMkStream(ctx, sc.stream, sc.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("error creating consumer group %s on %s: %w", sc.group, sc.stream, err)
	}
	return nil
}

// Poll reads one batch of new entries and returns how many it processed
func (sc *StreamConsumer) Poll(ctx context.Context) (int, error) {
	streams, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    sc.group,
		Consumer: sc.consumerID,
		Streams:  []string{sc.stream, ">"},
		Count:    batchSize,
		Block:    sc.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading stream %s: %w", sc.stream, err)
	}

	processed := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			sc.processMessage(ctx, message)
			processed++
		}
	}
	return processed, nil
}

// processMessage broadcasts one entry and acks it. Malformed entries are acked and skipped.
func (sc *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	defer sc.ackMessage(ctx, msg.ID)

	data, ok := msg.Values["data"].(string)
	if !ok {
		level.Warn(sc.logger).Log("msg", "invalid message format", "id", msg.ID)
		return
	}

	var result models.SimulationResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		level.Warn(sc.logger).Log("msg", "failed to parse simulation", "id", msg.ID, "err", err)
		return
	}

	level.Debug(sc.logger).Log("msg", "broadcasting simulation", "simulation", result.ID, "kind", result.Kind)
	sc.target.Broadcast(result)
}

func (sc *StreamConsumer) ackMessage(ctx context.Context, messageID string) {
	if err := sc.redis.XAck(ctx, sc.stream, sc.group, messageID).Err(); err != nil {
		level.Warn(sc.logger).Log("msg", "failed to ack message", "id", messageID, "err", err)
	}
}
