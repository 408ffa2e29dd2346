package pipeline

import "go.uber.org/zap"

// State is a step in the per-message state machine. Every message that is
// not already processed ends in Processed.
type State int

const (
	Unseen State = iota
	Fetched
	TextExtracted
	NoText
	FieldsExtracted
	ExtractionFailed
	Enriched
	EnrichmentSkipped
	Persisted
	DuplicateRejected
	NoLedgerConfigured
	PersistFailed
	Processed
)

var stateNames = [...]string{
	Unseen:             "unseen",
	Fetched:            "fetched",
	TextExtracted:      "text_extracted",
	NoText:             "no_text",
	FieldsExtracted:    "fields_extracted",
	ExtractionFailed:   "extraction_failed",
	Enriched:           "enriched",
	EnrichmentSkipped:  "enrichment_skipped",
	Persisted:          "persisted",
	DuplicateRejected:  "duplicate_rejected",
	NoLedgerConfigured: "no_ledger",
	PersistFailed:      "persist_failed",
	Processed:          "processed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// next lists the legal transitions.
var next = map[State][]State{
	Unseen:             {Fetched, NoText},
	Fetched:            {TextExtracted, NoText},
	TextExtracted:      {FieldsExtracted, ExtractionFailed},
	NoText:             {Processed},
	ExtractionFailed:   {Processed},
	FieldsExtracted:    {Enriched, EnrichmentSkipped},
	Enriched:           {Persisted, DuplicateRejected, NoLedgerConfigured, PersistFailed},
	EnrichmentSkipped:  {Persisted, DuplicateRejected, NoLedgerConfigured, PersistFailed},
	Persisted:          {Processed},
	DuplicateRejected:  {Processed},
	NoLedgerConfigured: {Processed},
	PersistFailed:      {Processed},
}

// CanTransition reports whether to is a legal successor of from.
func CanTransition(from, to State) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Trail records the states one message went through.
type Trail []State

func (t *Trail) move(to State) {
	if from := t.Last(); !CanTransition(from, to) {
		zap.L().DPanic("illegal state transition",
			zap.String("component", "pipeline"),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	*t = append(*t, to)
}

// Last is the most recent state, Unseen for an empty trail.
func (t Trail) Last() State {
	if len(t) == 0 {
		return Unseen
	}
	return t[len(t)-1]
}

// Has reports whether the trail passed through s.
func (t Trail) Has(s State) bool {
	for _, x := range t {
		if x == s {
			return true
		}
	}
	return false
}
