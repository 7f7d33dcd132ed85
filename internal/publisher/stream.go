package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

// DefaultStream receives every completed simulation
const DefaultStream = "chance.simulations"

// maxStreamLen caps the stream with approximate trimming
const maxStreamLen = 10000

// StreamPublisher publishes simulation results to Redis Streams
type StreamPublisher struct {
	redis  *redis.Client
	stream string
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(redisClient *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{
		redis:  redisClient,
		stream: stream,
	}
}

// Stream returns the stream key results are written to
func (p *StreamPublisher) Stream() string {
	return p.stream
}

// Publish appends a result as data=<json> and returns the entry ID
func (p *StreamPublisher) Publish(ctx context.Context, result *models.SimulationResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("error marshaling simulation result: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("error publishing to stream %s: %w", p.stream, err)
	}

	return id, nil
}

// PublishBatch publishes several results in a single pipeline
func (p *StreamPublisher) PublishBatch(ctx context.Context, results []*models.SimulationResult) error {
	if len(results) == 0 {
		return nil
	}

	pipe := p.redis.Pipeline()
	for _, result := range results {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("error marshaling simulation %s: %w", result.ID, err)
		}

		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: maxStreamLen,
			Approx: true,
			Values: map[string]interface{}{
				"data": string(data),
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error executing batch publish: %w", err)
	}
	return nil
}
