package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/Pharaon3/bark-automation/internal/config"
	"github.com/Pharaon3/bark-automation/internal/domain"
	"github.com/Pharaon3/bark-automation/internal/events"
	"github.com/Pharaon3/bark-automation/internal/ledger"
	"github.com/Pharaon3/bark-automation/internal/pipeline"
	"github.com/Pharaon3/bark-automation/internal/secrets"
	"github.com/Pharaon3/bark-automation/internal/store"
)

type fixture struct {
	deps    Deps
	handler http.Handler
	runs    atomic.Int32
	busy    atomic.Bool
}

func newFixture(t *testing.T, st ledger.Store) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.App.DataDir = dir
	cfg.Mail.Username = "leads@example.com"
	cfg.Mail.Password = "hunter2"

	cfgVal := &atomic.Value{}
	cfgVal.Store(cfg)
	status := &atomic.Value{}
	status.Store(RunStatus{})

	reg := prometheus.NewRegistry()
	pipeline.NewMetrics(reg)

	f := &fixture{}
	f.deps = Deps{
		Hub:         events.NewHub(),
		CfgVal:      cfgVal,
		RunStatus:   status,
		UserCfgPath: filepath.Join(dir, "config.yaml"),
		LoadCfg: func() (config.Config, error) {
			c, err := config.Load(filepath.Join(dir, "config.yaml"))
			if err != nil {
				return config.Config{}, err
			}
			return *c, nil
		},
		Ledger: st,
		TriggerRun: func() bool {
			if f.busy.Load() {
				return false
			}
			f.runs.Add(1)
			return true
		},
		Gatherer: reg,
	}
	f.handler = NewRouter(f.deps)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return f.doFrom(t, "127.0.0.1:40000", method, path, body)
}

func (f *fixture) doFrom(t *testing.T, remote, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndRequestID(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRunAndStatus(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, int32(1), f.runs.Load())

	f.busy.Store(true)
	rec = f.do(t, http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.deps.RunStatus.Store(RunStatus{Running: true, LastRunAt: "2026-10-18T10:00:00Z", Last: &pipeline.Stats{Processed: 3}})
	rec = f.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Running)
	require.NotNil(t, st.Last)
	assert.Equal(t, 3, st.Last.Processed)

	rec = f.do(t, http.MethodGet, "/run", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func seedLedger(t *testing.T, st ledger.Store) {
	t.Helper()
	rows := ledger.NewRows(st, "Contacts")
	ctx := context.Background()
	require.NoError(t, rows.EnsureHeader(ctx))
	for _, email := range []string{"a***@x.com", "b***@x.com", "c***@x.com"} {
		e := email
		res, err := rows.Submit(ctx, domain.Lead{Email: &e})
		require.NoError(t, err)
		require.Equal(t, ledger.Submitted, res)
	}
}

func TestLeads(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	stores := map[string]ledger.Store{
		"xlsx":   store.NewXLSXLedger(filepath.Join(t.TempDir(), "leads.xlsx")),
		"sqlite": store.NewSQLiteLedger(db),
	}
	for name, st := range stores {
		t.Run(name, func(t *testing.T) {
			seedLedger(t, st)
			f := newFixture(t, st)

			rec := f.do(t, http.MethodGet, "/leads?limit=2", "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var got []LeadView
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Len(t, got, 2)
			assert.Equal(t, "c***@x.com", got[0].Fields["Email"])
			assert.Equal(t, "b***@x.com", got[1].Fields["Email"])

			rec = f.do(t, http.MethodGet, "/leads?email=A***@X.COM", "")
			require.Equal(t, http.StatusOK, rec.Code)
			got = nil
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			require.Len(t, got, 1)
			assert.Equal(t, "a***@x.com", got[0].Fields["Email"])
		})
	}
}

func TestLeads_NoLedger(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/leads", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_ledger")
}

func TestConfig(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
	assert.Contains(t, rec.Body.String(), "leads@example.com")

	rec = f.do(t, http.MethodPut, "/config", `{"Nope":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cfg := f.deps.CfgVal.Load().(config.Config)
	cfg.Ledger.Driver = "postgres"
	b, _ := json.Marshal(cfg)
	rec = f.do(t, http.MethodPut, "/config", string(b))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledger.driver")

	cfg.Ledger.Driver = "sqlite"
	cfg.Ledger.Path = "leads.db"
	b, _ = json.Marshal(cfg)
	rec = f.do(t, http.MethodPut, "/config", string(b))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sqlite", f.deps.CfgVal.Load().(config.Config).Ledger.Driver)
	assert.FileExists(t, f.deps.UserCfgPath)
	assert.Equal(t, "", f.deps.CfgVal.Load().(config.Config).Mail.Password)

	rec = f.do(t, http.MethodGet, "/config/validate", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warnings")
}

func TestSecrets(t *testing.T) {
	keyring.MockInit()
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/secrets/imap", `{"secret":"app-password"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cfg := f.deps.CfgVal.Load().(config.Config)
	got, err := secrets.Get(secrets.Account(cfg, secrets.IMAP))
	require.NoError(t, err)
	assert.Equal(t, "app-password", got)

	rec = f.do(t, http.MethodPost, "/api/secrets/bogus", `{"secret":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.doFrom(t, "10.0.0.8:1234", http.MethodPost, "/api/secrets/imap", `{"secret":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMutationsAreLocalOnly(t *testing.T) {
	f := newFixture(t, nil)
	const remote = "10.0.0.8:1234"

	cfg := f.deps.CfgVal.Load().(config.Config)
	cfg.Mail.IMAPHost = "imap.attacker.example"
	b, err := json.Marshal(cfg)
	require.NoError(t, err)

	rec := f.doFrom(t, remote, http.MethodPut, "/config", string(b))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
	assert.NotEqual(t, "imap.attacker.example", f.deps.CfgVal.Load().(config.Config).Mail.IMAPHost)
	assert.NoFileExists(t, f.deps.UserCfgPath)

	rec = f.doFrom(t, remote, http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, int32(0), f.runs.Load())

	rec = f.doFrom(t, remote, http.MethodGet, "/config", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.doFrom(t, "[::1]:5000", http.MethodPost, "/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bark_last_run_timestamp_seconds")
}

func TestEventsSSE(t *testing.T) {
	f := newFixture(t, nil)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	readData := func() events.Event {
		for {
			line, err := br.ReadString('\n')
			require.NoError(t, err)
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var evt events.Event
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &evt))
				return evt
			}
		}
	}

	assert.Equal(t, "ping", readData().Type)
	f.deps.Hub.Publish(events.MakeEvent("r1", events.TypeRunStarted, 1, nil))
	evt := readData()
	assert.Equal(t, events.TypeRunStarted, evt.Type)
	assert.Equal(t, "r1", evt.RunID)
}
