package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteBackend stores the device document in the single-row device_state
// table created by the embedded migrations.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend creates a backend on an open, migrated connection.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

// Load reads the stored document.
func (b *SQLiteBackend) Load(ctx context.Context) (*Device, error) {
	var doc string
	err := b.db.QueryRowContext(ctx, `SELECT document FROM device_state WHERE id = 1`).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying device state: %w", err)
	}

	dev := &Device{}
	if err := dev.UnmarshalJSON([]byte(doc)); err != nil {
		return nil, err
	}
	return dev, nil
}

// Save upserts the document.
func (b *SQLiteBackend) Save(ctx context.Context, dev *Device) error {
	doc, err := dev.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO device_state (id, document, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(doc), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing device state: %w", err)
	}
	return nil
}
