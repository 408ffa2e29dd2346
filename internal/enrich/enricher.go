package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Enricher looks up a lead once per candidate surname and keeps the emails
// that are consistent with the lead's masked address.
type Enricher struct {
	Client       Client
	SurnamesPath string
	MaxSurnames  int

	// OnLookup, when set, observes the outcome of every lookup.
	OnLookup func(err error)
}

// Enrich returns every fully revealed email found for name at address that
// matches the masked pattern, across all surnames, in discovery order.
// The same address found under two surnames appears twice. A failing lookup
// is logged and skipped; an unreadable surname list yields no results.
func (e *Enricher) Enrich(ctx context.Context, name, address, masked string) []string {
	log := zap.L().With(zap.String("component", "enrich"))

	given := firstWord(name)
	if given == "" || strings.TrimSpace(address) == "" || masked == "" {
		log.Debug("enrichment skipped: missing input")
		return nil
	}

	surnames, err := LoadSurnames(e.SurnamesPath, e.MaxSurnames)
	if err != nil {
		log.Warn("enrichment disabled: surname list unavailable", zap.Error(err))
		return nil
	}

	var found []string
	for _, surname := range surnames {
		if ctx.Err() != nil {
			log.Warn("enrichment interrupted", zap.Error(ctx.Err()))
			break
		}

		matches, err := e.lookup(ctx, Query{FirstName: given, LastName: surname, Address: address}, masked)
		if e.OnLookup != nil {
			e.OnLookup(err)
		}
		if err != nil {
			log.Warn("lookup failed", zap.String("surname", surname), zap.Error(err))
			continue
		}
		if len(matches) > 0 {
			log.Info("lookup matched", zap.String("surname", surname), zap.Strings("emails", matches))
		}
		found = append(found, matches...)
	}
	return found
}

func (e *Enricher) lookup(ctx context.Context, q Query, masked string) ([]string, error) {
	doc, err := e.Client.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	var matches []string
	err = Walk(doc, EmailKey, func(_ string, n Node) {
		s, ok := n.Str()
		if !ok {
			return
		}
		s = strings.TrimSpace(s)
		if strings.Contains(s, "@") && MatchMasked(s, masked) {
			matches = append(matches, s)
		}
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func firstWord(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
