package sender

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tjfontaine/decision-client/config"
	"github.com/tjfontaine/decision-client/internal/trace"
	"github.com/tjfontaine/decision-client/status"
)

const createBatchesTable = `
CREATE TABLE IF NOT EXISTS event_batches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	channel TEXT NOT NULL,
	payload BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

// sqliteSender stores framed batches in a local SQLite table, giving a
// durable local capture that offline tooling can drain later.
type sqliteSender struct {
	path    string
	channel string
	tr      trace.Logger

	mu sync.Mutex
	db *sql.DB
}

func newSQLiteSender(cfg *config.Config, _ status.ErrorFn, tr trace.Logger) (Sender, error) {
	path := cfg.Get(config.SQLiteFile, "")
	if path == "" {
		return nil, fmt.Errorf("%s sender requires %s.%s", config.SenderSQLite, cfg.Section(), config.SQLiteFile)
	}
	if tr == nil {
		tr = trace.Null{}
	}
	return &sqliteSender{path: path, channel: cfg.Section(), tr: tr}, nil
}

func (s *sqliteSender) Init(cfg *config.Config) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite event store: %w", err)
	}
	if _, err := db.Exec(createBatchesTable); err != nil {
		db.Close()
		return fmt.Errorf("create event_batches table: %w", err)
	}
	s.db = db
	return nil
}

func (s *sqliteSender) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("sender is closed")
	}
	_, err := s.db.Exec(
		"INSERT INTO event_batches (channel, payload, created_at) VALUES (?, ?, ?)",
		s.channel, payload, time.Now().UTC())
	if err != nil {
		return status.New(status.HTTPResponseError, "insert event batch: %v", err)
	}
	return nil
}

func (s *sqliteSender) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
