package audit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS redaction_audit (
	id               BIGSERIAL PRIMARY KEY,
	document_hash    TEXT        NOT NULL,
	filename         TEXT        NOT NULL,
	total_pages      INTEGER     NOT NULL,
	total_redactions JSONB       NOT NULL DEFAULT '{}'::jsonb,
	cache_hit        BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS redaction_audit_created_at_idx ON redaction_audit (created_at DESC);
CREATE INDEX IF NOT EXISTS redaction_audit_document_hash_idx ON redaction_audit (document_hash);`

// Store persists audit records in PostgreSQL
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore connects to the database and ensures the audit schema exists
func NewStore(config *Config, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	store := &Store{
		db:     db,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	logger.Info("Audit store initialized",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns))

	return store, nil
}

// EnsureSchema creates the audit table and indexes if missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Record inserts an audit record and fills in its ID and timestamp
func (s *Store) Record(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO redaction_audit (document_hash, filename, total_pages, total_redactions, cache_hit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		record.DocumentHash,
		record.Filename,
		record.TotalPages,
		record.TotalRedactions,
		record.CacheHit,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	s.logger.Debug("Audit record stored",
		zap.Int64("id", record.ID),
		zap.String("document_hash", record.DocumentHash))

	return nil
}

// Recent returns the most recent audit records, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, document_hash, filename, total_pages, total_redactions, cache_hit, created_at
		FROM redaction_audit
		ORDER BY created_at DESC
		LIMIT $1`

	records := []Record{}
	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	return records, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// maskDatabaseURL hides the password of a database URL for logging
func maskDatabaseURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.User == nil {
		return databaseURL
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
