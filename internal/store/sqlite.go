package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 modernc.org/sqlite 的本地存储
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore 打开数据库并建表
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// 单连接，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		kind TEXT NOT NULL,
		id INTEGER NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (kind, id)
	);

	-- sequences keeps the last allocated id per kind so deleted ids are never reused
	CREATE TABLE IF NOT EXISTS sequences (
		kind TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Put(ctx context.Context, kind Kind, id int64, v any) (int64, error) {
	data, err := encode(v)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if id == 0 {
		err = tx.QueryRowContext(ctx,
			`INSERT INTO sequences (kind, value) VALUES (?, 1)
			 ON CONFLICT(kind) DO UPDATE SET value = value + 1
			 RETURNING value`, string(kind)).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to allocate id: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sequences (kind, value) VALUES (?, ?)
			 ON CONFLICT(kind) DO UPDATE SET value = MAX(value, excluded.value)`, string(kind), id)
		if err != nil {
			return 0, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (kind, id, data) VALUES (?, ?, ?)
		 ON CONFLICT(kind, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		string(kind), id, string(data))
	if err != nil {
		return 0, fmt.Errorf("failed to save %s/%d: %w", kind, id, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, kind Kind, id int64, v any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE kind = ? AND id = ?`, string(kind), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return decode([]byte(data), v)
}

func (s *SQLiteStore) Delete(ctx context.Context, kind Kind, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%d: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, kind Kind) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM records WHERE kind = ? ORDER BY id`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var data string
		if err := rows.Scan(&r.ID, &data); err != nil {
			return nil, err
		}
		r.Data = []byte(data)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
