package httpapi

import (
	"net/http"
	"sync/atomic"
)

type RunHandler struct {
	RunStatus *atomic.Value // RunStatus
	Trigger   func() bool
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, _ := h.RunStatus.Load().(RunStatus)
	WriteJSON(w, http.StatusOK, st)
}

func (h RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Trigger == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "runs_disabled", "runs cannot be triggered from this process")
		return
	}
	if !h.Trigger() {
		WriteJSON(w, http.StatusConflict, map[string]any{"ok": false, "msg": "already running"})
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
