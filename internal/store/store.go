package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NARAsimha654/MockView-Bot/internal/domain"

	_ "modernc.org/sqlite"
)

// answeredKey is the fixed record name holding the answered-ids set.
const answeredKey = "answered_ids"

// Store persists the cross-session answered question ids in a local
// sqlite database. The set survives client restarts and has no expiry.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS client_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AnsweredIDs returns the persisted set, empty if never initialized.
func (s *Store) AnsweredIDs(ctx context.Context) ([]string, error) {
	return s.readIDs(ctx, s.db.QueryRowContext)
}

// Add records id as answered. It is idempotent and ignores ephemeral
// dynamic-prefixed ids as well as empty ids.
func (s *Store) Add(ctx context.Context, id string) error {
	if id == "" || domain.IsDynamicID(id) {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids, err := s.readIDs(ctx, tx.QueryRowContext)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)

	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode answered ids: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO client_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		answeredKey, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("write answered ids: %w", err)
	}
	return tx.Commit()
}

type rowQuerier func(ctx context.Context, query string, args ...any) *sql.Row

func (s *Store) readIDs(ctx context.Context, queryRow rowQuerier) ([]string, error) {
	var value string
	err := queryRow(ctx, `SELECT value FROM client_state WHERE key = ?`, answeredKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read answered ids: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(value), &ids); err != nil {
		return nil, fmt.Errorf("decode answered ids: %w", err)
	}
	return ids, nil
}
