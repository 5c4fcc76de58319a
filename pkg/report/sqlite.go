package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/highwaype/highwaype/pkg/bom"
	"github.com/highwaype/highwaype/pkg/errors"
	"github.com/highwaype/highwaype/pkg/layout"
)

// Register is one run recorded in the asset register.
type Register struct {
	RunID      string
	Source     string
	Version    string
	CreatedAt  time.Time
	Placements []layout.Placement
	BOM        *bom.BOM
	Warnings   []errors.Warning
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	version    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	devices    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS devices (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	idx            INTEGER NOT NULL,
	category       TEXT NOT NULL,
	label          TEXT NOT NULL,
	block          TEXT NOT NULL,
	chainage       TEXT NOT NULL,
	station        REAL NOT NULL,
	side           TEXT NOT NULL,
	lateral_offset REAL NOT NULL,
	x              REAL NOT NULL,
	y              REAL NOT NULL,
	rotation       REAL NOT NULL,
	segment        TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);
CREATE TABLE IF NOT EXISTS bom (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	category TEXT NOT NULL,
	label    TEXT NOT NULL,
	count    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS materials (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	name     TEXT NOT NULL,
	unit     TEXT NOT NULL,
	quantity REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS warnings (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	code    TEXT NOT NULL,
	subject TEXT NOT NULL,
	message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS devices_category ON devices (run_id, category);
`

// WriteSQLite appends a run to the SQLite asset register at path, creating
// the database and its tables on first use. The run is written in one
// transaction.
func WriteSQLite(ctx context.Context, path string, reg Register) error {
	if reg.RunID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "register entry has no run id")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := reg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, source, version, created_at, devices) VALUES (?, ?, ?, ?, ?)",
		reg.RunID, reg.Source, reg.Version, created.UTC().Format(time.RFC3339), len(reg.Placements),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO devices
		(run_id, idx, category, label, block, chainage, station, side, lateral_offset, x, y, rotation, segment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare devices: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, p := range reg.Placements {
		if _, err := stmt.ExecContext(ctx, reg.RunID, p.Index, p.Category, p.Label, p.Block, p.Chainage,
			p.Station, p.Side.String(), p.Offset, p.X, p.Y, p.Rotation, p.Segment); err != nil {
			return fmt.Errorf("insert device %d: %w", p.Index, err)
		}
	}

	if reg.BOM != nil {
		for _, l := range reg.BOM.Lines {
			if _, err := tx.ExecContext(ctx, "INSERT INTO bom (run_id, category, label, count) VALUES (?, ?, ?, ?)",
				reg.RunID, l.Category, l.Label, l.Count); err != nil {
				return fmt.Errorf("insert bom line %s: %w", l.Category, err)
			}
		}
		for _, it := range reg.BOM.Items {
			if _, err := tx.ExecContext(ctx, "INSERT INTO materials (run_id, name, unit, quantity) VALUES (?, ?, ?, ?)",
				reg.RunID, it.Name, it.Unit, it.Quantity); err != nil {
				return fmt.Errorf("insert material %s: %w", it.Name, err)
			}
		}
	}
	for _, w := range reg.Warnings {
		if _, err := tx.ExecContext(ctx, "INSERT INTO warnings (run_id, code, subject, message) VALUES (?, ?, ?, ?)",
			reg.RunID, string(w.Code), w.Subject, w.Message); err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
