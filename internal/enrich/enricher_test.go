package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSurnames(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "surnames.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEnrich_OneFailingLookup(t *testing.T) {
	path := writeSurnames(t, "Robert\nSmith\nJones\n")

	var queries []Query
	client := SearchFunc(func(_ context.Context, q Query) ([]byte, error) {
		queries = append(queries, q)
		switch q.LastName {
		case "Robert":
			return []byte(`{"persons":[{"emailAddresses":[{"emailAddress":"caryn11r@bellsouth.net"},{"emailAddress":"other@aol.com"}]}]}`), nil
		case "Smith":
			return nil, errors.New("connection reset")
		default:
			return []byte(`{"persons":[{"email":"cs0000nr@bellsouth.net"}]}`), nil
		}
	})

	var failures int
	e := &Enricher{
		Client:       client,
		SurnamesPath: path,
		OnLookup: func(err error) {
			if err != nil {
				failures++
			}
		},
	}
	got := e.Enrich(context.Background(), "Caryn", "Baton Rouge, LA, 70817", "c******r@b*******h.net")

	assert.Equal(t, []string{"caryn11r@bellsouth.net", "cs0000nr@bellsouth.net"}, got)
	assert.Equal(t, 1, failures)
	require.Len(t, queries, 3)
	assert.Equal(t, Query{FirstName: "Caryn", LastName: "Robert", Address: "Baton Rouge, LA, 70817"}, queries[0])
}

func TestEnrich_DuplicatesAcrossSurnamesKept(t *testing.T) {
	path := writeSurnames(t, "A\nB\n")
	client := SearchFunc(func(context.Context, Query) ([]byte, error) {
		return []byte(`[{"Email":"ab@x.io"}]`), nil
	})
	e := &Enricher{Client: client, SurnamesPath: path}
	assert.Equal(t, []string{"ab@x.io", "ab@x.io"}, e.Enrich(context.Background(), "Ann Marie", "Austin", "a*@x.io"))
}

func TestEnrich_MalformedBodySkipped(t *testing.T) {
	path := writeSurnames(t, "A\nB\n")
	client := SearchFunc(func(_ context.Context, q Query) ([]byte, error) {
		if q.LastName == "A" {
			return []byte(`<html>oops`), nil
		}
		return []byte(`{"email":"ab@x.io"}`), nil
	})
	e := &Enricher{Client: client, SurnamesPath: path}
	assert.Equal(t, []string{"ab@x.io"}, e.Enrich(context.Background(), "Ann", "Austin", "a*@x.io"))
}

func TestEnrich_MissingSurnameList(t *testing.T) {
	called := false
	client := SearchFunc(func(context.Context, Query) ([]byte, error) {
		called = true
		return nil, nil
	})
	e := &Enricher{Client: client, SurnamesPath: filepath.Join(t.TempDir(), "missing.txt")}
	assert.Empty(t, e.Enrich(context.Background(), "Ann", "Austin", "a*@x.io"))
	assert.False(t, called)
}

func TestEnrich_MissingInput(t *testing.T) {
	path := writeSurnames(t, "A\n")
	client := SearchFunc(func(context.Context, Query) ([]byte, error) {
		t.Fatal("no lookup expected")
		return nil, nil
	})
	e := &Enricher{Client: client, SurnamesPath: path}
	assert.Empty(t, e.Enrich(context.Background(), " ", "Austin", "a*@x.io"))
	assert.Empty(t, e.Enrich(context.Background(), "Ann", "", "a*@x.io"))
	assert.Empty(t, e.Enrich(context.Background(), "Ann", "Austin", ""))
}

func TestLoadSurnames(t *testing.T) {
	path := writeSurnames(t, "# common\nSmith\n\n  Jones \nsmith\nBrown\nTaylor\n")

	all, err := LoadSurnames(path, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Smith", "Jones", "Brown", "Taylor"}, all)

	capped, err := LoadSurnames(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Smith", "Jones"}, capped)

	_, err = LoadSurnames(filepath.Join(t.TempDir(), "nope"), 0)
	assert.Error(t, err)
}
