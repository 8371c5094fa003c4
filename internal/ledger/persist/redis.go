package persist

import (
	"context"
	"encoding/json"
	"errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"escrow-giveaway-bot/internal/ledger"
	redisp "escrow-giveaway-bot/internal/platform/redis"
)

// RedisStore keeps the ledger as a single JSON blob under one key,
// preserving the whole-structure snapshot semantics of the file backend.
type RedisStore struct {
	client *redisp.Client
	key    string
	log    zerolog.Logger
}

func NewRedisStore(client *redisp.Client, key string, log zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, key: key, log: log}
}

func (r *RedisStore) Save(ctx context.Context, l *ledger.Ledger) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, 0).Err()
}

func (r *RedisStore) Load(ctx context.Context) (*ledger.Ledger, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ledger.NewLedger(), nil
		}
		return nil, err
	}

	l := &ledger.Ledger{}
	if err := json.Unmarshal(data, l); err != nil {
		r.log.Error().Err(err).Str("key", r.key).Msg("ledger snapshot corrupt, backing up and starting fresh")
		if serr := r.client.Set(ctx, r.key+":bak", data, 0).Err(); serr != nil {
			r.log.Error().Err(serr).Msg("failed to write ledger backup key")
		}
		return ledger.NewLedger(), nil
	}
	return l, nil
}

func (r *RedisStore) Healthy(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
