package mailbox

import (
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/rotisserie/eris"
)

// ParseQuery translates a small search-query language into IMAP SEARCH
// criteria:
//
//	from:addr  to:addr  subject:word  is:unread  is:read
//	newer_than:Nd (also Nm, Ny)  "quoted phrase"  bare words (body)
//
// Terms are ANDed. now anchors newer_than.
func ParseQuery(q string, now time.Time) (*imap.SearchCriteria, error) {
	c := &imap.SearchCriteria{}
	for _, tok := range tokenize(q) {
		key, val, ok := strings.Cut(tok, ":")
		if !ok || val == "" {
			c.Body = append(c.Body, unquote(tok))
			continue
		}
		val = unquote(val)

		switch strings.ToLower(key) {
		case "from":
			c.Header = append(c.Header, imap.SearchCriteriaHeaderField{Key: "From", Value: val})
		case "to":
			c.Header = append(c.Header, imap.SearchCriteriaHeaderField{Key: "To", Value: val})
		case "subject":
			c.Header = append(c.Header, imap.SearchCriteriaHeaderField{Key: "Subject", Value: val})
		case "is":
			switch strings.ToLower(val) {
			case "unread":
				c.NotFlag = append(c.NotFlag, imap.FlagSeen)
			case "read":
				c.Flag = append(c.Flag, imap.FlagSeen)
			case "starred":
				c.Flag = append(c.Flag, imap.FlagFlagged)
			default:
				return nil, eris.Errorf("mailbox: unsupported query term %q", tok)
			}
		case "newer_than":
			since, err := sinceFor(val, now)
			if err != nil {
				return nil, eris.Wrapf(err, "mailbox: query term %q", tok)
			}
			c.Since = since
		default:
			c.Body = append(c.Body, unquote(tok))
		}
	}
	return c, nil
}

func sinceFor(v string, now time.Time) (time.Time, error) {
	if len(v) < 2 {
		return time.Time{}, eris.New("expected <n>d, <n>m or <n>y")
	}
	n, err := strconv.Atoi(v[:len(v)-1])
	if err != nil || n <= 0 {
		return time.Time{}, eris.New("expected a positive count")
	}
	switch v[len(v)-1] {
	case 'd', 'D':
		return now.AddDate(0, 0, -n), nil
	case 'm', 'M':
		return now.AddDate(0, -n, 0), nil
	case 'y', 'Y':
		return now.AddDate(-n, 0, 0), nil
	}
	return time.Time{}, eris.New("expected unit d, m or y")
}

// tokenize splits on whitespace, keeping double-quoted runs together.
func tokenize(q string) []string {
	var out []string
	var b strings.Builder
	inQuote := false
	for _, r := range q {
		switch {
		case r == '"':
			inQuote = !inQuote
			b.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == '\n'):
			if b.Len() > 0 {
				out = append(out, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
