package invalidation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisCmds is the subset of redis.UniversalClient used here.
type redisCmds interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher drops cached views from Redis and announces the signal on a pub/sub channel
// so in-process caches in other replicas can evict too.
type RedisPublisher struct {
	client  redisCmds
	prefix  string
	channel string
}

// NewRedisClient returns a single-node client, or a cluster client when more than one address is given.
func NewRedisClient(addrs []string, password string) redis.UniversalClient {
	if len(addrs) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{Addrs: addrs, Password: password})
	}
	return redis.NewClient(&redis.Options{Addr: addrs[0], Password: password})
}

// NewRedisPublisher returns a publisher writing to client. prefix namespaces keys (e.g. linkerai:view);
// the pub/sub channel is prefix + ":invalidate".
func NewRedisPublisher(client redis.UniversalClient, prefix string) *RedisPublisher {
	return newRedisPublisher(client, prefix)
}

func newRedisPublisher(client redisCmds, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "linkerai:view"
	}
	return &RedisPublisher{client: client, prefix: prefix, channel: prefix + ":invalidate"}
}

// Key returns the cache key of view for identityID.
func (p *RedisPublisher) Key(view View, identityID string) string {
	return p.prefix + ":" + string(view) + ":" + identityID
}

// Channel returns the pub/sub channel signals are announced on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Invalidate deletes the cached keys named by s.
func (p *RedisPublisher) Invalidate(ctx context.Context, s Signal) error {
	if err := s.Validate(); err != nil {
		return err
	}
	keys := make([]string, 0, len(s.Views))
	for _, v := range s.Views {
		keys = append(keys, p.Key(v, s.IdentityID))
	}
	if err := p.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidation: redis del: %w", err)
	}
	return nil
}

// Publish implements Publisher: Invalidate, then announce s on the channel.
func (p *RedisPublisher) Publish(ctx context.Context, s Signal) error {
	if err := p.Invalidate(ctx, s); err != nil {
		return err
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("invalidation: redis publish: %w", err)
	}
	return nil
}

// HandleMessage applies a JSON-encoded signal (e.g. a Kafka message value) by deleting its keys.
func (p *RedisPublisher) HandleMessage(ctx context.Context, raw []byte) error {
	var s Signal
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("invalidation: decode signal: %w", err)
	}
	return p.Invalidate(ctx, s)
}
