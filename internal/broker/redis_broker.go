package broker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/pkg/logger"
)

const requestChannel = "ebarangay:requests"

// RedisEventBroker implements EventBroker over Redis pub/sub.
type RedisEventBroker struct {
	client *redis.Client
}

func NewRedisEventBroker(client *redis.Client) *RedisEventBroker {
	return &RedisEventBroker{client: client}
}

func (r *RedisEventBroker) Publish(ctx context.Context, evt RequestEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, requestChannel, data).Err()
}

func (r *RedisEventBroker) Subscribe(ctx context.Context) (<-chan RequestEvent, error) {
	pubsub := r.client.Subscribe(ctx, requestChannel)

	// wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan RequestEvent, 100)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var evt RequestEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					logger.Log.Warn("Dropping malformed request event", zap.Error(err))
					continue
				}

				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (r *RedisEventBroker) Close() error {
	return nil
}
