package store

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Pharaon3/bark-automation/internal/ledger"
)

const (
	DriverXLSX   = "xlsx"
	DriverSQLite = "sqlite"
	DriverNone   = "none"
)

// OpenLedger returns the ledger store for driver. DriverNone (or "") yields
// a nil store, which callers treat as "no ledger configured". The returned
// close func is never nil.
func OpenLedger(driver, path string) (ledger.Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverNone:
		return nil, noop, nil
	case DriverXLSX:
		if path == "" {
			return nil, noop, eris.New("store: xlsx ledger needs a path")
		}
		return NewXLSXLedger(path), noop, nil
	case DriverSQLite:
		if path == "" {
			return nil, noop, eris.New("store: sqlite ledger needs a path")
		}
		db, err := Open(path)
		if err != nil {
			return nil, noop, err
		}
		return NewSQLiteLedger(db), db.Close, nil
	default:
		return nil, noop, eris.Errorf("store: unknown ledger driver %q", driver)
	}
}
