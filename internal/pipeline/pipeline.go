package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Pharaon3/bark-automation/internal/domain"
	"github.com/Pharaon3/bark-automation/internal/events"
	"github.com/Pharaon3/bark-automation/internal/extract"
	"github.com/Pharaon3/bark-automation/internal/ledger"
	"github.com/Pharaon3/bark-automation/internal/notify"
)

// Mailbox lists and fetches candidate messages.
type Mailbox interface {
	List(ctx context.Context, query string, max int) ([]string, error)
	Get(ctx context.Context, id string) (domain.Payload, error)
}

// ProcessedStore is the message-level idempotency set.
type ProcessedStore interface {
	Contains(id string) bool
	Add(id string) error
}

// Ledger persists leads with duplicate suppression. *ledger.Rows
// implements it.
type Ledger interface {
	Submit(ctx context.Context, lead domain.Lead) (ledger.Result, error)
}

// Enricher reveals masked emails. *enrich.Enricher implements it.
type Enricher interface {
	Enrich(ctx context.Context, name, address, masked string) []string
}

// Publisher receives run events. *events.Hub implements it.
type Publisher interface {
	Publish(evt string)
}

// Config is the immutable run configuration.
type Config struct {
	Query         string
	MaxResults    int
	NotifySummary bool
}

// Deps are the collaborators of a run. Mailbox and Processed are
// required; a nil Ledger means no persistence, a nil Enricher disables
// enrichment and a nil Notifier disables notifications.
type Deps struct {
	Mailbox   Mailbox
	Processed ProcessedStore
	Ledger    Ledger
	Enricher  Enricher
	Notifier  notify.Notifier
	Events    Publisher
	Metrics   *Metrics
}

// Stats are the counters of one run.
type Stats struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Listed     int           `json:"listed"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	NoText     int           `json:"no_text"`
	Failed     int           `json:"failed"`
	Submitted  int           `json:"submitted"`
	Duplicates int           `json:"duplicates"`
	Enriched   int           `json:"enriched"`
	Notified   int           `json:"notified"`

	Outcomes []Outcome `json:"outcomes,omitempty"`
}

// Outcome is the result of one handled message.
type Outcome struct {
	ID    string       `json:"id"`
	Trail Trail        `json:"-"`
	State string       `json:"state"`
	Lead  *domain.Lead `json:"-"`
	Err   string       `json:"error,omitempty"`

	Notified bool `json:"notified"`
}

// Pipeline runs fetch → extract → parse → enrich → persist → notify over a
// batch of messages, one message at a time.
type Pipeline struct {
	cfg  Config
	deps Deps
	now  func() time.Time
}

// New builds a Pipeline. Reconfiguration means building a new one.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Mailbox == nil {
		return nil, eris.New("pipeline: mailbox is required")
	}
	if deps.Processed == nil {
		return nil, eris.New("pipeline: processed store is required")
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	return &Pipeline{cfg: cfg, deps: deps, now: time.Now}, nil
}

// Run handles one batch. Per-message failures never fail the run; an
// error is returned only when listing fails or ctx ends the run early.
// Cancellation is checked between messages only: a message that has
// started is driven to Processed on a context detached from ctx.
func (p *Pipeline) Run(ctx context.Context) (st Stats, err error) {
	st = Stats{RunID: uuid.NewString(), StartedAt: p.now()}
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("run_id", st.RunID))

	defer func() {
		st.Duration = p.now().Sub(st.StartedAt)
		p.deps.Metrics.observeRun(st, err)
		p.publish(st.RunID, events.TypeRunFinished, st)
	}()

	p.publish(st.RunID, events.TypeRunStarted, map[string]any{"query": p.cfg.Query})
	log.Info("run started", zap.String("query", p.cfg.Query), zap.Int("max_results", p.cfg.MaxResults))

	ids, err := p.deps.Mailbox.List(ctx, p.cfg.Query, p.cfg.MaxResults)
	if err != nil {
		log.Error("list messages failed", zap.Error(err))
		return st, eris.Wrap(err, "pipeline: list messages")
	}
	st.Listed = len(ids)
	if len(ids) == 0 {
		log.Info("no new messages found")
		return st, nil
	}

	for _, id := range ids {
		if p.deps.Processed.Contains(id) {
			st.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", zap.Error(err))
			return st, err
		}

		out := p.handle(context.WithoutCancel(ctx), st.RunID, id, log.With(zap.String("message_id", id)))
		st.record(out)
	}

	log.Info("run finished",
		zap.Int("listed", st.Listed),
		zap.Int("processed", st.Processed),
		zap.Int("skipped", st.Skipped),
		zap.Int("no_text", st.NoText),
		zap.Int("failed", st.Failed),
		zap.Int("submitted", st.Submitted),
		zap.Int("duplicates", st.Duplicates),
		zap.Int("enriched", st.Enriched),
		zap.Int("notified", st.Notified),
	)

	if p.cfg.NotifySummary && p.deps.Notifier != nil && st.handled() > 0 {
		text := notify.FormatSummary(notify.Summary{
			Processed:  st.Processed,
			Submitted:  st.Submitted,
			Duplicates: st.Duplicates,
			Skipped:    st.Skipped,
		})
		if err := p.deps.Notifier.Notify(ctx, text); err != nil {
			log.Warn("summary notification failed", zap.Error(err))
		}
	}
	return st, nil
}

func (st *Stats) record(out Outcome) {
	st.Outcomes = append(st.Outcomes, out)
	t := out.Trail
	switch {
	case t.Has(NoText) && out.Err != "":
		st.Failed++
	case t.Has(NoText):
		st.NoText++
	case t.Has(ExtractionFailed):
		st.Failed++
	default:
		st.Processed++
	}
	if t.Has(PersistFailed) {
		st.Failed++
	}
	if t.Has(Persisted) {
		st.Submitted++
	}
	if t.Has(DuplicateRejected) {
		st.Duplicates++
	}
	if out.Lead != nil && len(out.Lead.ScannedEmails) > 0 {
		st.Enriched++
	}
	if out.Notified {
		st.Notified++
	}
}

func (st Stats) handled() int {
	return len(st.Outcomes)
}

// handle drives one unseen message to Processed. Panics from extraction
// and parsing are recovered as ExtractionFailed.
func (p *Pipeline) handle(ctx context.Context, runID, id string, log *zap.Logger) (out Outcome) {
	out.ID = id
	var trail Trail

	defer func() {
		if err := p.deps.Processed.Add(id); err != nil {
			log.Warn("could not save processed id", zap.Error(err))
		}
		p.deps.Metrics.observeMessage(trail.Last())
		trail.move(Processed)
		out.Trail = trail
		out.State = trail[len(trail)-2].String()
	}()

	payload, err := p.deps.Mailbox.Get(ctx, id)
	if err != nil {
		log.Warn("fetch failed; treating as empty", zap.Error(err))
		out.Err = err.Error()
		trail.move(NoText)
		return out
	}
	trail.move(Fetched)

	text, lead, err := parse(payload)
	switch {
	case errors.Is(err, errNoText):
		log.Info("no readable text found")
		trail.move(NoText)
		return out
	case err != nil:
		trail.move(TextExtracted)
		log.Error("failed to extract data", zap.Error(err))
		out.Err = err.Error()
		trail.move(ExtractionFailed)
		return out
	}
	trail.move(TextExtracted)
	trail.move(FieldsExtracted)
	log.Debug("extracted text", zap.Int("chars", len(text)))

	if p.deps.Enricher != nil && eligible(lead) {
		lead.ScannedEmails = p.deps.Enricher.Enrich(ctx, domain.Str(lead.Name), domain.Str(lead.Address), domain.Str(lead.Email))
		trail.move(Enriched)
	} else {
		trail.move(EnrichmentSkipped)
	}
	out.Lead = &lead

	log.Info("extracted",
		zap.String("name", domain.Str(lead.Name)),
		zap.String("field", domain.Str(lead.Field)),
		zap.String("email", domain.Str(lead.Email)),
		zap.Strings("scanned_emails", lead.ScannedEmails),
	)

	switch res, err := p.submit(ctx, lead); {
	case errors.Is(err, ledger.ErrNoLedger):
		log.Info("data extracted but not submitted (no ledger)")
		trail.move(NoLedgerConfigured)
	case err != nil:
		log.Error("ledger submission failed", zap.Error(err))
		out.Err = err.Error()
		trail.move(PersistFailed)
	case res.Duplicate():
		log.Info("duplicate lead skipped", zap.Stringer("rule", res))
		trail.move(DuplicateRejected)
	default:
		log.Info("lead submitted")
		trail.move(Persisted)
	}

	p.publish(runID, events.TypeLeadFound, leadEvent(id, lead, trail.Last()))

	if len(lead.ScannedEmails) > 0 && !trail.Has(DuplicateRejected) && p.deps.Notifier != nil {
		if err := p.deps.Notifier.Notify(ctx, notify.FormatLead(lead)); err != nil {
			log.Warn("lead notification failed", zap.Error(err))
		} else {
			out.Notified = true
		}
	}
	return out
}

var errNoText = eris.New("pipeline: no readable text")

var parseFields = extract.ParseFields

// parse turns a payload into a lead. A panic anywhere in extraction is
// returned as an error.
func parse(payload domain.Payload) (text string, lead domain.Lead, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: extraction panic: %v", r)
		}
	}()
	text = extract.ExtractText(payload)
	if text == "" {
		return "", domain.Lead{}, errNoText
	}
	return text, parseFields(text), nil
}

// eligible reports whether a lead carries what enrichment needs: a name,
// an address and an email with at least one masked character.
func eligible(l domain.Lead) bool {
	return domain.Str(l.Name) != "" && domain.Str(l.Address) != "" && l.MaskedEmail()
}

func (p *Pipeline) submit(ctx context.Context, lead domain.Lead) (ledger.Result, error) {
	if p.deps.Ledger == nil {
		return ledger.Submitted, ledger.ErrNoLedger
	}
	return p.deps.Ledger.Submit(ctx, lead)
}

func (p *Pipeline) publish(runID, typ string, data any) {
	if p.deps.Events == nil {
		return
	}
	p.deps.Events.Publish(events.MakeEvent(runID, typ, 1, data))
}

func leadEvent(id string, l domain.Lead, s State) map[string]any {
	return map[string]any{
		"message_id":     id,
		"name":           domain.Str(l.Name),
		"field":          domain.Str(l.Field),
		"address":        domain.Str(l.Address),
		"scanned_emails": len(l.ScannedEmails),
		"state":          s.String(),
	}
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s:%s", o.ID, o.State)
}
