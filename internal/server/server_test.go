package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monitoria/schedconv/internal/schedule"
	"github.com/monitoria/schedconv/internal/schema"
	"github.com/monitoria/schedconv/internal/table"
)

func sampleFeed(t *testing.T) schedule.Feed {
	t.Helper()
	doc, err := schedule.NewParser(schedule.DefaultWeekdays()).Parse(table.Table{
		{"title"},
		{"", "", "Segunda", "Terça"},
		{"", "9h0", "Ana (Sala 203)", "Zé**"},
	})
	require.NoError(t, err)
	return schedule.Feed{Subject: "fisica", Document: doc}
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, schedule.Feed) {
	t.Helper()
	feed := sampleFeed(t)
	s, err := New(feed, opts)
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts, feed
}

func get(t *testing.T, ts *httptest.Server, path string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRoot(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, body := get(t, ts, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Olá", body)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestMonitores(t *testing.T) {
	ts, feed := newTestServer(t, Options{})

	resp, body := get(t, ts, "/monitores", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	want, err := schedule.EncodeString(feed, 0)
	require.NoError(t, err)
	assert.Equal(t, want, body)
	assert.Contains(t, body, `"Zé"`)
}

func TestSchemaRoute(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	resp, _ := get(t, ts, "/schema", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ts, _ = newTestServer(t, Options{
		Schema: schema.Generate("fisica", schedule.DefaultWeekdays().Codes()),
	})
	resp, body := get(t, ts, "/schema", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, []any{"fisica"}, doc["required"])
}

func TestCORS(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	resp, _ := get(t, ts, "/monitores", http.Header{"Origin": {"https://example.org"}})
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	ts, _ = newTestServer(t, Options{AllowedOrigins: []string{"https://monitoria.example"}})

	resp, _ = get(t, ts, "/monitores", http.Header{"Origin": {"https://monitoria.example"}})
	assert.Equal(t, "https://monitoria.example", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = get(t, ts, "/monitores", http.Header{"Origin": {"https://other.example"}})
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	resp, _ := get(t, ts, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, err := New(sampleFeed(t), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
