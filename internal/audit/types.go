package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Record is one processed document. It carries counts only, never text.
type Record struct {
	ID              int64     `db:"id" json:"id"`
	DocumentHash    string    `db:"document_hash" json:"document_hash"`
	Filename        string    `db:"filename" json:"filename"`
	TotalPages      int       `db:"total_pages" json:"total_pages"`
	TotalRedactions Counts    `db:"total_redactions" json:"total_redactions"`
	CacheHit        bool      `db:"cache_hit" json:"cache_hit"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Counts is a label to count mapping stored as JSONB.
type Counts map[string]int

// Value implements driver.Valuer
func (c Counts) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *Counts) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*c = Counts{}
		return nil
	default:
		return fmt.Errorf("unsupported counts type %T", src)
	}
	out := Counts{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode counts: %w", err)
	}
	*c = out
	return nil
}

// Config contains database configuration
type Config struct {
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
