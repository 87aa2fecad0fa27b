// Package store 持久化项目、翻译记忆和术语库
// 每个集合用数字 ID 寻址，记录以 JSON 保存
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Kind 集合名称
type Kind string

const (
	KindProjects Kind = "projects"
	KindTM       Kind = "tm"
	KindTB       Kind = "tb"
)

// Record 原始记录
type Record struct {
	ID   int64
	Data json.RawMessage
}

// Store 存储接口
type Store interface {
	// Put 保存 v，id 为 0 时分配新 ID，返回实际 ID
	Put(ctx context.Context, kind Kind, id int64, v any) (int64, error)

	// Get 读取记录并解码到 v
	Get(ctx context.Context, kind Kind, id int64, v any) error

	// Delete 删除记录
	Delete(ctx context.Context, kind Kind, id int64) error

	// List 按 ID 升序返回集合中的所有记录
	List(ctx context.Context, kind Kind) ([]Record, error)

	Close() error
}

// Config 存储配置
type Config struct {
	// Driver sqlite 或 redis
	Driver    string
	Path      string
	RedisURL  string
	KeyPrefix string
}

// Open 根据配置选择驱动
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		path := cfg.Path
		if path == "" {
			path = "workbench.db"
		}
		return NewSQLiteStore(path)
	case "redis":
		return NewRedisStore(RedisConfig{URL: cfg.RedisURL, KeyPrefix: cfg.KeyPrefix})
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
	}
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
