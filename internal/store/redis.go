package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 Redis 的共享存储
// 记录保存在 prefix+kind+":"+id，ID 集合在 prefix+kind+":ids"，计数器在 prefix+kind+":seq"
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	KeyPrefix string // Prefix for all keys (default: "workbench:")
}

const defaultKeyPrefix = "workbench:"

// NewRedisStore 连接 Redis 并检查连通性
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient 使用已有客户端
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(kind Kind, id int64) string {
	return s.keyPrefix + string(kind) + ":" + strconv.FormatInt(id, 10)
}

func (s *RedisStore) idsKey(kind Kind) string {
	return s.keyPrefix + string(kind) + ":ids"
}

func (s *RedisStore) seqKey(kind Kind) string {
	return s.keyPrefix + string(kind) + ":seq"
}

// advanceSeq 把计数器推进到不小于给定 ID，之后 INCR 不会分配已用的 ID
var advanceSeq = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local id = tonumber(ARGV[1])
if id > cur then
	redis.call('SET', KEYS[1], ARGV[1])
	return id
end
return cur
`)

func (s *RedisStore) Put(ctx context.Context, kind Kind, id int64, v any) (int64, error) {
	data, err := encode(v)
	if err != nil {
		return 0, err
	}

	if id == 0 {
		id, err = s.client.Incr(ctx, s.seqKey(kind)).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to allocate id: %w", err)
		}
	} else if err := advanceSeq.Run(ctx, s.client, []string{s.seqKey(kind)}, id).Err(); err != nil {
		return 0, fmt.Errorf("failed to advance id sequence: %w", err)
	}

	if err := s.client.Set(ctx, s.key(kind, id), string(data), 0).Err(); err != nil {
		return 0, fmt.Errorf("failed to save %s/%d: %w", kind, id, err)
	}
	if err := s.client.SAdd(ctx, s.idsKey(kind), strconv.FormatInt(id, 10)).Err(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, kind Kind, id int64, v any) error {
	val, err := s.client.Get(ctx, s.key(kind, id)).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s/%d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return decode([]byte(val), v)
}

func (s *RedisStore) Delete(ctx context.Context, kind Kind, id int64) error {
	n, err := s.client.Del(ctx, s.key(kind, id)).Result()
	if err != nil {
		return err
	}
	if err := s.client.SRem(ctx, s.idsKey(kind), strconv.FormatInt(id, 10)).Err(); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%d: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, kind Kind) ([]Record, error) {
	members, err := s.client.SMembers(ctx, s.idsKey(kind)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(kind, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(ids))
	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			// 集合里有 ID 但记录已过期或被外部删除
			continue
		}
		records = append(records, Record{ID: ids[i], Data: []byte(str)})
	}
	return records, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ Store = (*RedisStore)(nil)
