package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"carouspot/internal/model"
	"carouspot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ErrKeywordNotFound is returned when a keyword has no tracking record.
var ErrKeywordNotFound = errors.New("keyword not tracked")

// SQLite implements Registry backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// EnsureSubscriber creates or reactivates a subscriber record.
func (s *SQLite) EnsureSubscriber(ctx context.Context, chatID int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (chat_id, active, created_at) VALUES (?, 1, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET active = 1`,
		chatID, now,
	)
	if err != nil {
		return fmt.Errorf("ensure subscriber: %w", err)
	}
	return nil
}

// Deactivate marks a subscriber inactive. A missing record is not an error.
func (s *SQLite) Deactivate(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE subscribers SET active = 0 WHERE chat_id = ?`, chatID,
	)
	if err != nil {
		return fmt.Errorf("deactivate subscriber: %w", err)
	}
	return nil
}

// Subscribe adds the chat to a keyword's subscriber set, creating and seeding
// the tracking record on first subscription.
func (s *SQLite) Subscribe(ctx context.Context, chatID int64, keyword string, seedCursor int64) error {
	keyword = model.NormalizeKeyword(keyword)
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO subscribers (chat_id, active, created_at) VALUES (?, 1, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET active = 1`,
		chatID, now,
	); err != nil {
		return fmt.Errorf("upsert subscriber: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO keywords (keyword, cursor, created_at) VALUES (?, ?, ?)`,
		keyword, seedCursor, now,
	); err != nil {
		return fmt.Errorf("upsert keyword: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (keyword, chat_id, created_at) VALUES (?, ?, ?)`,
		keyword, chatID, now,
	); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	return tx.Commit()
}

// Unsubscribe removes the chat from the keyword's subscriber set. The
// tracking record itself is kept even when its subscriber set becomes empty.
func (s *SQLite) Unsubscribe(ctx context.Context, chatID int64, keyword string) (bool, error) {
	keyword = model.NormalizeKeyword(keyword)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE keyword = ? AND chat_id = ?`,
		keyword, chatID,
	)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// GetKeyword returns a single tracking record.
func (s *SQLite) GetKeyword(ctx context.Context, keyword string) (*model.Keyword, error) {
	keyword = model.NormalizeKeyword(keyword)
	row := s.db.QueryRowContext(ctx,
		`SELECT keyword, cursor, last_checked_at, created_at FROM keywords WHERE keyword = ?`,
		keyword,
	)
	kw, err := scanKeyword(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeywordNotFound
	}
	return kw, err
}

// ListKeywords returns every tracked keyword, including those whose
// subscriber set is currently empty.
func (s *SQLite) ListKeywords(ctx context.Context) ([]model.Keyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword, cursor, last_checked_at, created_at FROM keywords ORDER BY keyword`,
	)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanKeywords(rows)
}

// ListSubscriptions returns the tracking records the given chat subscribes to.
func (s *SQLite) ListSubscriptions(ctx context.Context, chatID int64) ([]model.Keyword, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k.keyword, k.cursor, k.last_checked_at, k.created_at
		 FROM keywords k
		 JOIN subscriptions sub ON sub.keyword = k.keyword
		 WHERE sub.chat_id = ?
		 ORDER BY k.keyword`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanKeywords(rows)
}

// AdvanceCursor moves the cursor forward atomically. max() keeps the cursor
// monotonic even if a stale value is written.
func (s *SQLite) AdvanceCursor(ctx context.Context, keyword string, cursor int64, checkedAt time.Time) error {
	keyword = model.NormalizeKeyword(keyword)
	res, err := s.db.ExecContext(ctx,
		`UPDATE keywords SET cursor = max(cursor, ?), last_checked_at = ? WHERE keyword = ?`,
		cursor, checkedAt.UTC().Format(timeLayout), keyword,
	)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrKeywordNotFound
	}
	return nil
}

// TouchChecked records the check time for a keyword without moving its cursor.
func (s *SQLite) TouchChecked(ctx context.Context, keyword string, checkedAt time.Time) error {
	keyword = model.NormalizeKeyword(keyword)
	_, err := s.db.ExecContext(ctx,
		`UPDATE keywords SET last_checked_at = ? WHERE keyword = ?`,
		checkedAt.UTC().Format(timeLayout), keyword,
	)
	if err != nil {
		return fmt.Errorf("touch checked: %w", err)
	}
	return nil
}

// ActiveSubscribers intersects the keyword's subscriber set with currently
// active subscriber records.
func (s *SQLite) ActiveSubscribers(ctx context.Context, keyword string) ([]int64, error) {
	keyword = model.NormalizeKeyword(keyword)
	rows, err := s.db.QueryContext(ctx,
		`SELECT sub.chat_id
		 FROM subscriptions sub
		 JOIN subscribers s ON s.chat_id = sub.chat_id
		 WHERE sub.keyword = ? AND s.active = 1
		 ORDER BY sub.chat_id`,
		keyword,
	)
	if err != nil {
		return nil, fmt.Errorf("query active subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chatIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chat id: %w", err)
		}
		chatIDs = append(chatIDs, id)
	}
	return chatIDs, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanKeyword(row scannable) (*model.Keyword, error) {
	var k model.Keyword
	var lastChecked, created sql.NullString
	err := row.Scan(&k.Keyword, &k.Cursor, &lastChecked, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan keyword: %w", err)
	}
	if lastChecked.Valid {
		t, err := time.Parse(timeLayout, lastChecked.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_checked_at: %w", err)
		}
		k.LastCheckedAt = &t
	}
	if created.Valid {
		t, err := time.Parse(timeLayout, created.String)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		k.CreatedAt = t
	}
	return &k, nil
}

func scanKeywords(rows *sql.Rows) ([]model.Keyword, error) {
	var keywords []model.Keyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, *k)
	}
	return keywords, rows.Err()
}
