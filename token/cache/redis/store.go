// Package redis provides a shared token cache on Redis for multi-instance
// deployments.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cleanhq/cleaner/token"
)

var _ token.Cache = (*Store)(nil)

// Store caches validated token records in Redis, keyed by jti hash under a
// common prefix.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) key(jtiHash string) string {
	return s.prefix + ":token:" + jtiHash
}

func (s *Store) Get(ctx context.Context, jtiHash string) (*token.Record, bool) {
	raw, err := s.client.Get(ctx, s.key(jtiHash)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Ctx(ctx).Warn().Err(err).Msg("token cache get failed")
		}
		return nil, false
	}

	var record token.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("token cache entry unreadable")
		return nil, false
	}
	return &record, true
}

func (s *Store) Set(ctx context.Context, record *token.Record) {
	raw, err := json.Marshal(record)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("token cache marshal failed")
		return
	}
	if err := s.client.Set(ctx, s.key(record.JTIHash), raw, s.ttl).Err(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("token cache set failed")
	}
}

func (s *Store) Delete(ctx context.Context, jtiHash string) {
	if err := s.client.Del(ctx, s.key(jtiHash)).Err(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("token cache delete failed")
	}
}

// Clear scans and deletes every cached record under the prefix.
func (s *Store) Clear(ctx context.Context) {
	pattern := s.key("*")
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("token cache scan failed")
			return
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("token cache clear failed")
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
