package events

import (
	"context"
	"fmt"

	commonredis "github.com/Dkijas/EMPA-CELA-sub000/common/redis"

	"github.com/go-redis/redis/v8"
)

// StreamPublisher 发布到 Redis Stream（XADD）
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Publish(ctx context.Context, e Event) error {
	if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, e.Type, e, p.maxLen); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
