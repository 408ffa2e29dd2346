package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/Pharaon3/bark-automation/internal/config"
	"github.com/Pharaon3/bark-automation/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setSecretReq struct {
	Secret string `json:"secret"`
}

// Set stores a secret in the OS keychain under the account derived from
// the current config.
func (h SecretsHandler) Set(w http.ResponseWriter, r *http.Request) {
	kind := secrets.Kind(chi.URLParam(r, "kind"))
	cfg := h.CfgVal.Load().(config.Config)
	account := secrets.Account(cfg, kind)
	if account == "" {
		WriteError(w, r, http.StatusNotFound, "unknown_secret", "unknown secret kind")
		return
	}

	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := secrets.Set(account, req.Secret); err != nil {
		WriteError(w, r, http.StatusBadRequest, "store_failed", "failed to store secret: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
