package jsonl

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtax-adapter/internal/storage"
)

func writeArchive(t *testing.T, dataDir, day string, lines ...string) {
	t.Helper()
	dir := storage.ObjectionDir(dataDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	var body []byte
	for _, l := range lines {
		body = append(body, l...)
		body = append(body, '\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "objections_"+day+".jsonl"), body, 0o644))
}

func seeded(t *testing.T) *QueryService {
	dataDir := t.TempDir()
	writeArchive(t, dataDir, "2026-03-13", `{"id":"a","schemaRef":"bezwaar"}`, `not json`, `{"id":"b"}`)
	writeArchive(t, dataDir, "2026-03-14", `{"id":"c"}`)
	return NewQueryService(dataDir)
}

func ids(list []storage.ArchivedObjection) []string {
	out := []string{}
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}

func TestList(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	all, err := s.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(all))

	page, err := s.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(page))
}

func TestListEmptyArchive(t *testing.T) {
	list, err := NewQueryService(t.TempDir()).List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGet(t *testing.T) {
	s := seeded(t)
	o, err := s.Get(context.Background(), "b")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "b", o.ID)

	o, err = s.Get(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestRoutes(t *testing.T) {
	r := mux.NewRouter()
	seeded(t).RegisterRoutes(r, nil)

	get := func(target string) (int, map[string]any) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		gr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.NewDecoder(gr).Decode(&body))
		return rec.Code, body
	}

	code, body := get("/api/objections?limit=2")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 2)

	code, body = get("/api/objections/a")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bezwaar", body["data"].(map[string]any)["schemaRef"])

	code, body = get("/api/objections/missing")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
}
