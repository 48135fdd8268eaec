package event

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Notifier signals that a scope's event list changed. Payloads are not
// carried; listeners re-read the store.
type Notifier interface {
	Notify(ctx context.Context, channel string) error
	Listen(ctx context.Context, channel string) (<-chan struct{}, error)
}

type redisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) Notifier {
	return &redisNotifier{rdb: rdb}
}

func (n *redisNotifier) Notify(ctx context.Context, channel string) error {
	return n.rdb.Publish(ctx, channel, "changed").Err()
}

// Listen subscribes to channel. The returned channel coalesces bursts and is
// closed when ctx ends.
func (n *redisNotifier) Listen(ctx context.Context, channel string) (<-chan struct{}, error) {
	sub := n.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Close(); err != nil {
				log.Warnw("closing redis subscription", "channel", channel, "error", err)
			}
		}()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
