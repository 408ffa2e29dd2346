package store

import (
	"database/sql"

	"github.com/rotisserie/eris"
)

const schemaVersion = 2

// Migrate brings the schema up to date, tracked with PRAGMA user_version.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return eris.Wrap(err, "store: begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return eris.Wrap(err, "store: read user_version")
	}

	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1: ledger rows ----

	if v < 1 {
		if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS ledger_rows (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sheet TEXT NOT NULL,
  cells TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL
);
`); err != nil {
			return eris.Wrap(err, "store: create ledger_rows")
		}

		if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_ledger_rows_sheet
ON ledger_rows(sheet, id);
`); err != nil {
			return eris.Wrap(err, "store: index ledger_rows")
		}
	}

	// ---- Schema v2: denormalised dedup keys ----

	if v < 2 {
		if _, err := tx.Exec(`ALTER TABLE ledger_rows ADD COLUMN email_key TEXT NOT NULL DEFAULT '';`); err != nil {
			return eris.Wrap(err, "store: add email_key")
		}
		if _, err := tx.Exec(`ALTER TABLE ledger_rows ADD COLUMN phone_key TEXT NOT NULL DEFAULT '';`); err != nil {
			return eris.Wrap(err, "store: add phone_key")
		}
		if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_ledger_rows_email
ON ledger_rows(sheet, email_key);
`); err != nil {
			return eris.Wrap(err, "store: index email_key")
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 2;`); err != nil {
		return eris.Wrap(err, "store: set user_version")
	}

	return tx.Commit()
}
