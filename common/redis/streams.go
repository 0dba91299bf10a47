package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// PublishJSONToStream 以 {type, data, timestamp} 形式发布 JSON 消息到 Redis Streams
// maxLen > 0 时对 stream 做近似裁剪
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream, msgType string, data any, maxLen int64) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"type":      msgType,
			"data":      string(payload),
			"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		},
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return client.XAdd(ctx, args).Result()
}
