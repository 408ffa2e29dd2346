package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Pharaon3/bark-automation/internal/domain"
	"github.com/Pharaon3/bark-automation/internal/ledger"
)

// SQLiteLedger keeps ledger rows in the ledger_rows table, one sheet per
// distinct sheet name.
type SQLiteLedger struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteLedger)(nil)

func NewSQLiteLedger(db *DB) *SQLiteLedger {
	return &SQLiteLedger{db: db.Pool}
}

func (s *SQLiteLedger) ReadAllRows(ctx context.Context, rng string) ([][]string, error) {
	r, err := ledger.ParseRange(rng)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT cells FROM ledger_rows
WHERE sheet = ?
ORDER BY id;`, r.Sheet)
	if err != nil {
		return nil, eris.Wrap(err, "store: query ledger rows")
	}
	defer rows.Close() //nolint:errcheck

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "store: scan ledger row")
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, eris.Wrap(err, "store: decode ledger row")
		}
		out = append(out, pad(cells, r.Width()))
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate ledger rows")
	}
	return out, nil
}

func (s *SQLiteLedger) AppendRow(ctx context.Context, rng string, row []string) error {
	r, err := ledger.ParseRange(rng)
	if err != nil {
		return err
	}
	return s.insert(ctx, s.db, r, row)
}

func (s *SQLiteLedger) EnsureHeaderRow(ctx context.Context, rng string, headers []string) error {
	r, err := ledger.ParseRange(rng)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin")
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM ledger_rows WHERE sheet = ?;`, r.Sheet).Scan(&n); err != nil {
		return eris.Wrap(err, "store: count ledger rows")
	}
	if n > 0 {
		return tx.Commit()
	}
	if err := s.insert(ctx, tx, r, headers); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "store: commit header")
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteLedger) insert(ctx context.Context, db execer, r ledger.Range, row []string) error {
	cells := pad(row, r.Width())
	b, err := json.Marshal(cells)
	if err != nil {
		return eris.Wrap(err, "store: encode ledger row")
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO ledger_rows (sheet, cells, created_at, email_key, phone_key)
VALUES (?, ?, ?, ?, ?);`,
		r.Sheet, string(b), time.Now().UTC().Format(time.RFC3339),
		strings.ToLower(strings.TrimSpace(at(cells, domain.ColEmail))),
		strings.TrimSpace(at(cells, domain.ColNumber)),
	)
	return eris.Wrap(err, "store: insert ledger row")
}

// LeadRow is a stored ledger row with its metadata.
type LeadRow struct {
	ID        int64    `json:"id"`
	Cells     []string `json:"cells"`
	CreatedAt string   `json:"createdAt"`
}

type ListRowsOpts struct {
	Sheet string
	Email string // exact, case-insensitive filter; empty means all
	Limit int
}

// ListRows returns the newest data rows of a sheet, header excluded.
func (s *SQLiteLedger) ListRows(ctx context.Context, opts ListRowsOpts) ([]LeadRow, error) {
	if opts.Limit <= 0 || opts.Limit > 1000 {
		opts.Limit = 100
	}

	query := `
SELECT id, cells, created_at FROM ledger_rows
WHERE sheet = ? AND id > (SELECT MIN(id) FROM ledger_rows WHERE sheet = ?)`
	args := []any{opts.Sheet, opts.Sheet}
	if opts.Email != "" {
		query += ` AND email_key = ?`
		args = append(args, strings.ToLower(strings.TrimSpace(opts.Email)))
	}
	query += ` ORDER BY id DESC LIMIT ?;`
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list ledger rows")
	}
	defer rows.Close() //nolint:errcheck

	var out []LeadRow
	for rows.Next() {
		var lr LeadRow
		var raw string
		if err := rows.Scan(&lr.ID, &raw, &lr.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan ledger row")
		}
		_ = json.Unmarshal([]byte(raw), &lr.Cells)
		out = append(out, lr)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate ledger rows")
}

// pad returns exactly n cells of row, filling with "".
func pad(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

func at(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}

// Checkpoint folds the WAL back into the main database file.
func (s *SQLiteLedger) Checkpoint(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(FULL);`)
	return eris.Wrap(err, "store: wal checkpoint")
}
