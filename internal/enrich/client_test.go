package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "ap-name", r.Header.Get("galaxy-ap-name"))
		assert.Equal(t, "ap-secret", r.Header.Get("galaxy-ap-password"))
		assert.Equal(t, "Person", r.Header.Get("galaxy-search-type"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Caryn", body["FirstName"])
		assert.Equal(t, "Robert", body["LastName"])
		assert.Equal(t, map[string]any{"addressLine2": "Baton Rouge, LA, 70817"}, body["Address"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"persons":[]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL, APName: "ap-name", APPassword: "ap-secret"})
	doc, err := c.Search(context.Background(), Query{FirstName: "Caryn", LastName: "Robert", Address: "Baton Rouge, LA, 70817"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"persons":[]}`, string(doc))
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL})
	doc, err := c.Search(context.Background(), Query{LastName: "Robert"})
	assert.Error(t, err)
	assert.Nil(t, doc)
	assert.Contains(t, err.Error(), "401")
}

func TestSearch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Search(context.Background(), Query{LastName: "Robert"})
	assert.Error(t, err)
}
