package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Inbox marks consumed message ids per consumer group. Entries expire after TTL, which
// only needs to outlast the broker's redelivery window.
type Inbox struct {
	client   goredis.Cmdable
	consumer string
	ttl      time.Duration
}

func NewInbox(client goredis.Cmdable, consumer string, ttl time.Duration) *Inbox {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Inbox{client: client, consumer: consumer, ttl: ttl}
}

func (i *Inbox) key(eventID string) string {
	return "staydesk:inbox:" + i.consumer + ":" + eventID
}

// Seen records eventID and reports whether it had been recorded before.
func (i *Inbox) Seen(ctx context.Context, eventID string) (bool, error) {
	fresh, err := i.client.SetNX(ctx, i.key(eventID), time.Now().UTC().Unix(), i.ttl).Result()
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

func (i *Inbox) Forget(ctx context.Context, eventID string) error {
	return i.client.Del(ctx, i.key(eventID)).Err()
}
