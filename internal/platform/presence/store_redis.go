package presence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisStatusHash  = "presence:status"
	redisLastSeenSet = "presence:last_seen"
)

// RedisStore keeps presence in Redis so multiple server instances share one
// view. Statuses live in a hash keyed by "<org>:<user>"; heartbeats live in a
// sorted set scored by unix time, which makes the stale scan a single
// ZRANGEBYSCORE.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL parses a redis:// URL and verifies connectivity.
func NewRedisStoreFromURL(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func redisMember(orgID, userID uuid.UUID) string {
	return orgID.String() + ":" + userID.String()
}

func parseRedisMember(member string) (uuid.UUID, uuid.UUID, error) {
	parts := strings.SplitN(member, ":", 2)
	if len(parts) != 2 {
		return uuid.Nil, uuid.Nil, fmt.Errorf("malformed presence member %q", member)
	}
	orgID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	userID, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return orgID, userID, nil
}

func (s *RedisStore) Set(ctx context.Context, orgID, userID uuid.UUID, status Status, at time.Time) error {
	member := redisMember(orgID, userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, redisStatusHash, member, string(status))
	pipe.ZAdd(ctx, redisLastSeenSet, redis.Z{Score: float64(at.Unix()), Member: member})
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, orgID, userID uuid.UUID) (Status, bool, error) {
	val, err := s.client.HGet(ctx, redisStatusHash, redisMember(orgID, userID)).Result()
	if err == redis.Nil {
		return StatusOffline, false, nil
	}
	if err != nil {
		return StatusOffline, false, err
	}
	return Status(val), true, nil
}

func (s *RedisStore) Touch(ctx context.Context, orgID, userID uuid.UUID, at time.Time) error {
	member := redisMember(orgID, userID)
	pipe := s.client.TxPipeline()
	// First contact without an explicit status counts as online.
	pipe.HSetNX(ctx, redisStatusHash, member, string(StatusOnline))
	pipe.ZAdd(ctx, redisLastSeenSet, redis.Z{Score: float64(at.Unix()), Member: member})
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) StaleBefore(ctx context.Context, cutoff time.Time) ([]Entry, error) {
	members, err := s.client.ZRangeByScore(ctx, redisLastSeenSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	statuses, err := s.client.HMGet(ctx, redisStatusHash, members...).Result()
	if err != nil {
		return nil, err
	}

	var stale []Entry
	for i, member := range members {
		orgID, userID, err := parseRedisMember(member)
		if err != nil {
			continue
		}
		status := StatusOffline
		if i < len(statuses) {
			if str, ok := statuses[i].(string); ok {
				status = Status(str)
			}
		}
		stale = append(stale, Entry{OrgID: orgID, UserID: userID, Status: status})
	}
	return stale, nil
}

func (s *RedisStore) Delete(ctx context.Context, orgID, userID uuid.UUID) error {
	member := redisMember(orgID, userID)
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, redisStatusHash, member)
	pipe.ZRem(ctx, redisLastSeenSet, member)
	_, err := pipe.Exec(ctx)
	return err
}
