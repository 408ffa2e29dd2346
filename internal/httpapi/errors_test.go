package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriteErrorAndFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	req := httptest.NewRequest(http.MethodGet, "/leads", nil)
	req = req.WithContext(withRequestID(context.Background(), "req-1"))

	rec := httptest.NewRecorder()
	WriteError(rec, req, http.StatusNotFound, "no_ledger", "no ledger configured")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorBody{Code: "no_ledger", Message: "no ledger configured", RequestID: "req-1"}, body.Error)
	assert.Equal(t, 0, logs.Len())

	rec = httptest.NewRecorder()
	WriteFailure(rec, req, "ledger_error", eris.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ledger_error", body.Error.Code)
	assert.Contains(t, body.Error.Message, "disk full")

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "ledger_error", fields["code"])
	assert.Equal(t, int64(http.StatusInternalServerError), fields["status"])
	assert.Equal(t, "/leads", fields["path"])
}
