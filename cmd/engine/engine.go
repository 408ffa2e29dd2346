package main

import (
	"context"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Pharaon3/bark-automation/internal/config"
	"github.com/Pharaon3/bark-automation/internal/enrich"
	"github.com/Pharaon3/bark-automation/internal/events"
	"github.com/Pharaon3/bark-automation/internal/httpapi"
	"github.com/Pharaon3/bark-automation/internal/ledger"
	"github.com/Pharaon3/bark-automation/internal/mailbox"
	"github.com/Pharaon3/bark-automation/internal/notify"
	"github.com/Pharaon3/bark-automation/internal/pipeline"
	"github.com/Pharaon3/bark-automation/internal/secrets"
	"github.com/Pharaon3/bark-automation/internal/store"
)

// runTimeout bounds one run, including enrichment lookups.
const runTimeout = 10 * time.Minute

var (
	errBusy   = eris.New("engine: a run is already in progress")
	errClosed = eris.New("engine: closed")
)

// engine owns the long-lived collaborators of the pipeline. A new mailbox
// connection and pipeline are built for every run from the current config.
type engine struct {
	cfgVal *atomic.Value // config.Config
	status *atomic.Value // httpapi.RunStatus

	hub        *events.Hub
	reg        *prometheus.Registry
	metrics    *pipeline.Metrics
	processed  *ledger.ProcessedSet
	store      ledger.Store
	rows       *ledger.Rows
	enricher   *enrich.Enricher
	notifier   notify.Notifier
	checkpoint func(ctx context.Context) error
	closers    []func() error

	mu     sync.Mutex // held for the duration of a run
	closed bool       // guarded by mu
}

func newEngine(ctx context.Context, c config.Config) (*engine, error) {
	log := zap.L().With(zap.String("component", "engine"))

	if err := os.MkdirAll(c.App.DataDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "engine: create data dir")
	}

	e := &engine{
		cfgVal: &atomic.Value{},
		status: &atomic.Value{},
		hub:    events.NewHub(),
		reg:    prometheus.NewRegistry(),
	}
	e.cfgVal.Store(c)
	e.status.Store(httpapi.RunStatus{})
	e.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	e.metrics = pipeline.NewMetrics(e.reg)

	processed, err := ledger.LoadProcessed(c.ProcessedPath())
	if err != nil {
		return nil, err
	}
	e.processed = processed
	log.Info("processed ids loaded", zap.Int("count", processed.Len()), zap.String("path", c.ProcessedPath()))

	st, closeStore, err := store.OpenLedger(c.Ledger.Driver, c.Path(c.Ledger.Path))
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, closeStore)
	if st != nil {
		e.store = st
		e.rows = ledger.NewRows(st, c.Ledger.Sheet)
		if err := e.rows.EnsureHeader(ctx); err != nil {
			_ = e.Close()
			return nil, err
		}
		if sq, ok := st.(*store.SQLiteLedger); ok {
			e.checkpoint = sq.Checkpoint
		}
		log.Info("ledger ready", zap.String("driver", c.Ledger.Driver), zap.String("path", c.Path(c.Ledger.Path)))
	} else {
		log.Warn("no ledger configured; leads will only be logged")
	}

	if c.Enrichment.Enabled {
		e.enricher = newEnricher(c)
		e.enricher.OnLookup = e.metrics.ObserveLookup
	}

	if err := e.buildNotifier(c); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func newEnricher(c config.Config) *enrich.Enricher {
	client := enrich.NewClient(enrich.ClientConfig{
		Endpoint:       c.Enrichment.BaseURL,
		APName:         c.Enrichment.APName,
		APPassword:     c.Enrichment.APPassword,
		SearchType:     c.Enrichment.SearchType,
		Timeout:        time.Duration(c.Enrichment.TimeoutSecs) * time.Second,
		RequestsPerSec: c.Enrichment.RequestsPerSec,
	})
	return &enrich.Enricher{
		Client:       client,
		SurnamesPath: c.Path(c.Enrichment.SurnamesFile),
		MaxSurnames:  c.Enrichment.MaxSurnames,
	}
}

func (e *engine) buildNotifier(c config.Config) error {
	var multi notify.Multi

	if c.Telegram.Enabled {
		tg, err := newTelegram(c)
		if err != nil {
			return err
		}
		multi = append(multi, tg)
	}
	if c.SMTP.Enabled {
		sm, err := notify.NewSMTP(notify.SMTPConfig{
			Host:     c.SMTP.Host,
			Port:     c.SMTP.Port,
			Username: c.SMTP.Username,
			Password: c.SMTP.Password,
			From:     c.SMTP.From,
			To:       c.SMTP.To,
			Subject:  c.SMTP.Subject,
		})
		if err != nil {
			return err
		}
		multi = append(multi, sm)
	}
	if c.AMQP.Enabled {
		mq, err := notify.DialAMQP(notify.AMQPConfig{
			URL:        c.AMQP.URL,
			Exchange:   c.AMQP.Exchange,
			RoutingKey: c.AMQP.RoutingKey,
		})
		if err != nil {
			return err
		}
		e.closers = append(e.closers, mq.Close)
		multi = append(multi, mq)
	}

	if len(multi) > 0 {
		e.notifier = multi
	}
	return nil
}

func newTelegram(c config.Config) (*notify.Telegram, error) {
	return notify.NewTelegram(notify.TelegramConfig{
		BotToken: c.Telegram.BotToken,
		ChatID:   c.Telegram.ChatID,
		BaseURL:  c.Telegram.BaseURL,
	})
}

// RunOnce runs the pipeline unless a run is already in progress.
func (e *engine) RunOnce(ctx context.Context) (pipeline.Stats, error) {
	if !e.mu.TryLock() {
		return pipeline.Stats{}, errBusy
	}
	defer e.mu.Unlock()
	if e.closed {
		return pipeline.Stats{}, errClosed
	}
	return e.run(ctx)
}

// Trigger starts a run in the background and reports whether it started.
func (e *engine) Trigger() bool {
	if !e.mu.TryLock() {
		return false
	}
	if e.closed {
		e.mu.Unlock()
		return false
	}
	go func() {
		defer e.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		_, _ = e.run(ctx)
	}()
	return true
}

// run must be called with e.mu held.
func (e *engine) run(ctx context.Context) (pipeline.Stats, error) {
	c := e.cfgVal.Load().(config.Config)
	started := time.Now().Format(time.RFC3339)

	prev := e.status.Load().(httpapi.RunStatus)
	prev.Running = true
	prev.LastRunAt = started
	e.status.Store(prev)

	mb := mailbox.NewIMAP(mailbox.Config{
		Addr:     net.JoinHostPort(c.Mail.IMAPHost, strconv.Itoa(c.Mail.IMAPPort)),
		Username: c.Mail.Username,
		Password: c.Mail.Password,
		Mailbox:  c.Mail.Mailbox,
		Timeout:  time.Duration(c.Mail.TimeoutSecs) * time.Second,
	})
	defer mb.Close() //nolint:errcheck

	deps := pipeline.Deps{
		Mailbox:   mb,
		Processed: e.processed,
		Notifier:  e.notifier,
		Events:    e.hub,
		Metrics:   e.metrics,
	}
	if e.rows != nil {
		deps.Ledger = e.rows
	}
	if e.enricher != nil {
		deps.Enricher = e.enricher
	}

	st, err := func() (pipeline.Stats, error) {
		p, err := pipeline.New(pipeline.Config{
			Query:         c.Mail.Query,
			MaxResults:    c.Mail.MaxResults,
			NotifySummary: c.Notify.Summary,
		}, deps)
		if err != nil {
			return pipeline.Stats{}, err
		}
		return p.Run(ctx)
	}()

	next := httpapi.RunStatus{
		LastRunAt: started,
		LastOkAt:  prev.LastOkAt,
		Last:      &st,
	}
	if err != nil {
		next.LastError = err.Error()
	} else {
		next.LastOkAt = time.Now().Format(time.RFC3339)
	}
	e.status.Store(next)
	return st, err
}

func (e *engine) httpDeps(userCfgPath string) httpapi.Deps {
	d := httpapi.Deps{
		Hub:         e.hub,
		CfgVal:      e.cfgVal,
		RunStatus:   e.status,
		UserCfgPath: userCfgPath,
		LoadCfg: func() (config.Config, error) {
			c, err := config.Load(userCfgPath)
			if err != nil {
				return config.Config{}, err
			}
			secrets.Resolve(c)
			return *c, nil
		},
		Ledger:     e.store,
		TriggerRun: e.Trigger,
		Checkpoint: e.checkpoint,
		Gatherer:   e.reg,
	}
	return d
}

// Close waits for an in-flight run, then releases the ledger and notifiers.
// Later runs are refused.
func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true

	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return first
}
