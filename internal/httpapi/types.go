package httpapi

import "github.com/Pharaon3/bark-automation/internal/pipeline"

type RunStatus struct {
	LastRunAt string          `json:"last_run_at"`
	LastOkAt  string          `json:"last_ok_at"`
	LastError string          `json:"last_error"`
	Running   bool            `json:"running"`
	Last      *pipeline.Stats `json:"last,omitempty"`
}

// LeadView is one ledger row keyed by column header.
type LeadView struct {
	ID        int64             `json:"id,omitempty"`
	CreatedAt string            `json:"created_at,omitempty"`
	Fields    map[string]string `json:"fields"`
}
