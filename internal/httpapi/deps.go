package httpapi

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Pharaon3/bark-automation/internal/config"
	"github.com/Pharaon3/bark-automation/internal/events"
	"github.com/Pharaon3/bark-automation/internal/ledger"
)

type Deps struct {
	Hub *events.Hub

	// Atomic stores
	CfgVal    *atomic.Value // stores config.Config
	RunStatus *atomic.Value // stores httpapi.RunStatus

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Ledger is nil when no ledger is configured.
	Ledger ledger.Store

	// TriggerRun starts a run in the background. It reports false when a
	// run is already in progress.
	TriggerRun func() bool

	// Checkpoint is set for sqlite ledgers.
	Checkpoint func(ctx context.Context) error

	Gatherer prometheus.Gatherer
}
