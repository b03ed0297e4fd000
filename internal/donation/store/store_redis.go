package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/ports"
	"bloodledger/pkg/platform/sentinel"
)

var redisTxRetries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bloodledger_redis_tx_retries_total",
	Help: "Optimistic transaction retries caused by concurrent writers",
})

const (
	defaultRedisKey        = "bloodledger:instance"
	defaultRedisMaxRetries = 5
)

// Redis keeps instance storage in one hash so a single EXPIRE covers every
// entry. Calls are serialized with WATCH/MULTI: reads go straight to the hash,
// writes are staged and committed in one EXEC, and a concurrent commit makes the
// call retry from scratch.
type Redis struct {
	client     *redis.Client
	key        string
	maxRetries int
}

var _ ports.Ledger = (*Redis)(nil)

type RedisOption func(*Redis)

// WithRedisKey namespaces the instance hash, e.g. per deployment.
func WithRedisKey(key string) RedisOption {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

func WithRedisMaxRetries(n int) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: defaultRedisKey, maxRetries: defaultRedisMaxRetries}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) RunInTx(ctx context.Context, fn func(store ports.Store) error) error {
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			staged := &redisTx{cmd: tx, key: r.key, writes: make(map[string][]byte)}
			if err := fn(newLedgerStore(staged)); err != nil {
				return err
			}
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if len(staged.writes) > 0 {
					fields := make([]any, 0, 2*len(staged.writes))
					for k, v := range staged.writes {
						fields = append(fields, k, v)
					}
					pipe.HSet(ctx, r.key, fields...)
				}
				if staged.expire > 0 {
					pipe.Expire(ctx, r.key, staged.expire)
				}
				return nil
			})
			return err
		}, r.key)
		if errors.Is(err, redis.TxFailedErr) {
			redisTxRetries.Inc()
			continue
		}
		return err
	}
	return fmt.Errorf("redis ledger: %d attempts lost to concurrent writers: %w", r.maxRetries, sentinel.ErrConflict)
}

func (r *Redis) View(ctx context.Context, fn func(store ports.Store) error) error {
	return fn(newLedgerStore(readOnly{&redisTx{cmd: r.client, key: r.key}}))
}

// Health checks the backing connection.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type redisTx struct {
	cmd    redis.Cmdable
	key    string
	writes map[string][]byte
	expire time.Duration
}

func (t *redisTx) get(ctx context.Context, field string) ([]byte, error) {
	if v, ok := t.writes[field]; ok {
		return v, nil
	}
	v, err := t.cmd.HGet(ctx, t.key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (t *redisTx) set(_ context.Context, field string, value []byte) error {
	t.writes[field] = value
	return nil
}

// extendRetention reads the remaining TTL and, if it is below the threshold,
// queues an EXPIRE to run with the staged writes. A hash made persistent by an
// operator (TTL -1) is left alone.
func (t *redisTx) extendRetention(ctx context.Context, policy models.RetentionPolicy, _ uint64) error {
	ttl, err := t.cmd.TTL(ctx, t.key).Result()
	if err != nil {
		return err
	}
	if ttl == -1 {
		return nil
	}
	if ttl < policy.ThresholdDuration() {
		t.expire = policy.ExtendDuration()
	}
	return nil
}
