package ledger

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Pharaon3/bark-automation/internal/domain"
)

// ErrNoLedger is returned by Rows when no store is configured.
var ErrNoLedger = eris.New("ledger: no ledger configured")

// Store is a sheet-like table of string cells addressed by a range such as
// "Contacts!A:G". ReadAllRows includes the header row when one exists.
type Store interface {
	ReadAllRows(ctx context.Context, rng string) ([][]string, error)
	AppendRow(ctx context.Context, rng string, row []string) error
	EnsureHeaderRow(ctx context.Context, rng string, headers []string) error
}

// Result is the outcome of a submission.
type Result int

const (
	Submitted Result = iota
	DuplicateEmail
	DuplicatePhone
)

func (r Result) String() string {
	switch r {
	case Submitted:
		return "submitted"
	case DuplicateEmail:
		return "duplicate_email"
	case DuplicatePhone:
		return "duplicate_phone"
	}
	return "unknown"
}

// Duplicate reports whether the submission was rejected.
func (r Result) Duplicate() bool { return r != Submitted }

// Rows appends leads to a Store, suppressing duplicates.
type Rows struct {
	Store Store
	Range string
}

// NewRows returns a Rows writing to sheet (columns A:G).
func NewRows(st Store, sheet string) *Rows {
	return &Rows{Store: st, Range: RangeFor(sheet)}
}

// EnsureHeader writes the header row when the sheet is empty.
func (r *Rows) EnsureHeader(ctx context.Context) error {
	if r == nil || r.Store == nil {
		return ErrNoLedger
	}
	if err := r.Store.EnsureHeaderRow(ctx, r.Range, domain.Headers); err != nil {
		return eris.Wrap(err, "ledger: ensure header")
	}
	return nil
}

// Submit appends lead unless an existing row already has the same email
// (case-insensitive) or the same phone (exact). Nothing is written when
// the read fails.
func (r *Rows) Submit(ctx context.Context, lead domain.Lead) (Result, error) {
	if r == nil || r.Store == nil {
		return Submitted, ErrNoLedger
	}

	rows, err := r.Store.ReadAllRows(ctx, r.Range)
	if err != nil {
		return Submitted, eris.Wrap(err, "ledger: read rows")
	}
	if res := FindDuplicate(rows, lead); res.Duplicate() {
		return res, nil
	}
	if err := r.Store.AppendRow(ctx, r.Range, lead.Row()); err != nil {
		return Submitted, eris.Wrap(err, "ledger: append row")
	}
	return Submitted, nil
}

// FindDuplicate applies the duplicate rule to existing rows. Rows are
// checked in order; within a row the email is checked before the phone and
// the first hit wins. Empty values never match. A leading header row is
// ignored.
func FindDuplicate(rows [][]string, lead domain.Lead) Result {
	email := strings.ToLower(strings.TrimSpace(domain.Str(lead.Email)))
	phone := strings.TrimSpace(domain.Str(lead.Number))

	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if email != "" {
			if c := strings.ToLower(strings.TrimSpace(cell(row, domain.ColEmail))); c == email {
				return DuplicateEmail
			}
		}
		if phone != "" {
			if c := strings.TrimSpace(cell(row, domain.ColNumber)); c == phone {
				return DuplicatePhone
			}
		}
	}
	return Submitted
}

func isHeader(row []string) bool {
	return strings.EqualFold(cell(row, domain.ColEmail), domain.Headers[domain.ColEmail]) &&
		strings.EqualFold(cell(row, domain.ColNumber), domain.Headers[domain.ColNumber])
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
