package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/Pharaon3/bark-automation/internal/config"
	"github.com/Pharaon3/bark-automation/internal/domain"
	"github.com/Pharaon3/bark-automation/internal/ledger"
	"github.com/Pharaon3/bark-automation/internal/store"
)

type rowLister interface {
	ListRows(ctx context.Context, opts store.ListRowsOpts) ([]store.LeadRow, error)
}

type LeadsHandler struct {
	Ledger ledger.Store
	CfgVal *atomic.Value // config.Config
}

// List returns the newest ledger rows. Query params: limit (default 100),
// email (exact, case-insensitive).
func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		WriteError(w, r, http.StatusNotFound, "no_ledger", "no ledger configured")
		return
	}
	cfg := h.CfgVal.Load().(config.Config)

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	email := strings.TrimSpace(q.Get("email"))

	if l, ok := h.Ledger.(rowLister); ok {
		rows, err := l.ListRows(r.Context(), store.ListRowsOpts{Sheet: cfg.Ledger.Sheet, Email: email, Limit: limit})
		if err != nil {
			WriteFailure(w, r, "ledger_error", err)
			return
		}
		out := make([]LeadView, 0, len(rows))
		for _, row := range rows {
			out = append(out, LeadView{ID: row.ID, CreatedAt: row.CreatedAt, Fields: fields(row.Cells)})
		}
		WriteJSON(w, http.StatusOK, out)
		return
	}

	rows, err := h.Ledger.ReadAllRows(r.Context(), ledger.RangeFor(cfg.Ledger.Sheet))
	if err != nil {
		WriteFailure(w, r, "ledger_error", err)
		return
	}
	out := make([]LeadView, 0, limit)
	for i := len(rows) - 1; i >= 1 && len(out) < limit; i-- {
		if email != "" && !strings.EqualFold(cell(rows[i], domain.ColEmail), email) {
			continue
		}
		out = append(out, LeadView{Fields: fields(rows[i])})
	}
	WriteJSON(w, http.StatusOK, out)
}

func fields(cells []string) map[string]string {
	m := make(map[string]string, len(domain.Headers))
	for i, h := range domain.Headers {
		m[h] = cell(cells, i)
	}
	return m
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

type CheckpointHandler struct {
	CheckpointFn func(ctx context.Context) error
}

func (h CheckpointHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.CheckpointFn(r.Context()); err != nil {
		WriteFailure(w, r, "checkpoint_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
