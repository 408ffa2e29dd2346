package ledger

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Range is a parsed "Sheet!A:G" address.
type Range struct {
	Sheet string
	First int // zero-based column index
	Last  int // inclusive
}

// Width is the number of columns covered.
func (r Range) Width() int { return r.Last - r.First + 1 }

// RangeFor is the range of the seven ledger columns on sheet.
func RangeFor(sheet string) string {
	return sheet + "!A:G"
}

// ParseRange parses "Sheet!A:G". A bare sheet name selects columns A:G.
func ParseRange(s string) (Range, error) {
	sheet, cols, ok := strings.Cut(s, "!")
	sheet = strings.Trim(strings.TrimSpace(sheet), "'")
	if sheet == "" {
		return Range{}, eris.Errorf("ledger: range %q has no sheet", s)
	}
	if !ok {
		return Range{Sheet: sheet, First: 0, Last: 6}, nil
	}

	from, to, ok := strings.Cut(cols, ":")
	if !ok {
		to = from
	}
	first, err := columnIndex(from)
	if err != nil {
		return Range{}, eris.Wrapf(err, "ledger: range %q", s)
	}
	last, err := columnIndex(to)
	if err != nil {
		return Range{}, eris.Wrapf(err, "ledger: range %q", s)
	}
	if last < first {
		return Range{}, eris.Errorf("ledger: range %q is reversed", s)
	}
	return Range{Sheet: sheet, First: first, Last: last}, nil
}

// columnIndex turns "A".."ZZ" into 0-based indexes. Row numbers are ignored.
func columnIndex(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	n := 0
	letters := 0
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			break
		}
		n = n*26 + int(r-'A'+1)
		letters++
	}
	if letters == 0 {
		return 0, eris.Errorf("invalid column %q", s)
	}
	return n - 1, nil
}
