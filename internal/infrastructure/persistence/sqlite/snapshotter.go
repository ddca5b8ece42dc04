// Package sqlite persists state-store snapshots: one row per document keyed
// by kind and number, plus the number sequences. Payloads are JSON and
// round-trip every field, timestamps and decimals included.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/application/port"
	"github.com/procurelab/procuresim/internal/domain/entity"
	"github.com/procurelab/procuresim/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	kind       TEXT NOT NULL,
	number     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (kind, number)
);
CREATE TABLE IF NOT EXISTS sequences (
	kind TEXT PRIMARY KEY,
	next INTEGER NOT NULL
);
`

// Snapshotter implements port.Snapshotter over SQLite
type Snapshotter struct {
	db     *database.DB
	logger *zap.Logger
}

// New creates the snapshotter and ensures the schema exists
func New(db *database.DB, logger *zap.Logger) (*Snapshotter, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
	}
	return &Snapshotter{db: db, logger: logger}, nil
}

// Save replaces the persisted snapshot with the given one in a single transaction
func (s *Snapshotter) Save(ctx context.Context, snap port.Snapshot) error {
	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
			return fmt.Errorf("clear documents: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sequences`); err != nil {
			return fmt.Errorf("clear sequences: %w", err)
		}

		insert, err := tx.PrepareContext(ctx, `INSERT INTO documents (kind, number, payload) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer insert.Close()

		for number, req := range snap.Requisitions {
			payload, err := json.Marshal(req)
			if err != nil {
				return fmt.Errorf("marshal requisition %s: %w", number, err)
			}
			if _, err := insert.ExecContext(ctx, string(entity.DocRequisition), number, string(payload)); err != nil {
				return fmt.Errorf("insert requisition %s: %w", number, err)
			}
		}
		for number, order := range snap.Orders {
			payload, err := json.Marshal(order)
			if err != nil {
				return fmt.Errorf("marshal order %s: %w", number, err)
			}
			if _, err := insert.ExecContext(ctx, string(entity.DocOrder), number, string(payload)); err != nil {
				return fmt.Errorf("insert order %s: %w", number, err)
			}
		}

		for kind, n := range snap.Sequences {
			if _, err := tx.ExecContext(ctx, `INSERT INTO sequences (kind, next) VALUES (?, ?)`, kind, n); err != nil {
				return fmt.Errorf("insert sequence %s: %w", kind, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Snapshot saved",
		zap.Int("requisitions", len(snap.Requisitions)),
		zap.Int("orders", len(snap.Orders)))
	return nil
}

// Load returns the persisted snapshot; found is false when nothing has been saved
func (s *Snapshotter) Load(ctx context.Context) (port.Snapshot, bool, error) {
	snap := port.Snapshot{
		Requisitions: make(map[string]entity.Requisition),
		Orders:       make(map[string]entity.Order),
		Sequences:    make(map[string]int64),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, number, payload FROM documents`)
	if err != nil {
		return port.Snapshot{}, false, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		found = true
		var kind, number, payload string
		if err := rows.Scan(&kind, &number, &payload); err != nil {
			return port.Snapshot{}, false, fmt.Errorf("scan document: %w", err)
		}
		switch entity.DocumentType(kind) {
		case entity.DocRequisition:
			var req entity.Requisition
			if err := json.Unmarshal([]byte(payload), &req); err != nil {
				return port.Snapshot{}, false, fmt.Errorf("unmarshal requisition %s: %w", number, err)
			}
			snap.Requisitions[number] = req
		case entity.DocOrder:
			var order entity.Order
			if err := json.Unmarshal([]byte(payload), &order); err != nil {
				return port.Snapshot{}, false, fmt.Errorf("unmarshal order %s: %w", number, err)
			}
			snap.Orders[number] = order
		default:
			return port.Snapshot{}, false, fmt.Errorf("unknown document kind %q", kind)
		}
	}
	if err := rows.Err(); err != nil {
		return port.Snapshot{}, false, fmt.Errorf("iterate documents: %w", err)
	}

	seqRows, err := s.db.QueryContext(ctx, `SELECT kind, next FROM sequences`)
	if err != nil {
		return port.Snapshot{}, false, fmt.Errorf("query sequences: %w", err)
	}
	defer seqRows.Close()

	for seqRows.Next() {
		found = true
		var kind string
		var n int64
		if err := seqRows.Scan(&kind, &n); err != nil {
			return port.Snapshot{}, false, fmt.Errorf("scan sequence: %w", err)
		}
		snap.Sequences[kind] = n
	}
	if err := seqRows.Err(); err != nil {
		return port.Snapshot{}, false, fmt.Errorf("iterate sequences: %w", err)
	}

	return snap, found, nil
}
