package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitkit/splitkit/pkg/graph"
	"github.com/splitkit/splitkit/pkg/manifest"
	"github.com/splitkit/splitkit/pkg/pipeline"
)

func newTestServer() *Server {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return New(pipeline.NewRunner(nil, nil, logger), manifest.NewMemoryStore(), logger)
}

func sharedGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{Key: "shared", Content: `{"v":42}`},
			{Key: "app", Content: `{"s":${r0}}`, Refs: []graph.Ref{{Path: "s", To: "shared"}}},
			{Key: "admin", Content: `{"s":${r0}}`, Refs: []graph.Ref{{Path: "s", To: "shared"}}},
		},
		Entries: []graph.Entry{
			{Name: "app", Node: "app"},
			{Name: "admin", Node: "admin"},
		},
	}
}

func postSplit(t *testing.T, h http.Handler, req SplitRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/split", bytes.NewReader(body))
	h.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer()
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSplitEndpoint(t *testing.T) {
	srv := newTestServer()
	router := srv.Router()

	w := postSplit(t, router, SplitRequest{Graph: sharedGraph()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SplitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Manifest)
	assert.Len(t, resp.Manifest.Files, 3)
	assert.Equal(t, 3, resp.Stats.Nodes)
	assert.Equal(t, 3, resp.Stats.Chunks)
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.GraphHash)

	// The run is archived and retrievable by ID.
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/v1/runs/"+resp.Manifest.RunID, nil))
	require.Equal(t, http.StatusOK, w2.Code)

	var got manifest.Manifest
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &got))
	assert.Equal(t, resp.Manifest.RunID, got.RunID)
	assert.Len(t, got.Files, 3)

	// And shows up in the run list.
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	require.Equal(t, http.StatusOK, w3.Code)

	var list struct {
		Runs []*manifest.Manifest `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w3.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, resp.Manifest.RunID, list.Runs[0].RunID)
}

func TestSplitEndpoint_BadJSON(t *testing.T) {
	srv := newTestServer()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/split", bytes.NewReader([]byte(`{not json`)))
	srv.Router().ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_FORMAT", resp.Error.Code)
}

func TestSplitEndpoint_NoEntries(t *testing.T) {
	srv := newTestServer()
	w := postSplit(t, srv.Router(), SplitRequest{
		Graph: graph.Graph{Nodes: []graph.Node{{Key: "a", Content: "1"}}},
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NO_ENTRIES", resp.Error.Code)
}

func TestSplitEndpoint_OptionsApply(t *testing.T) {
	srv := newTestServer()
	w := postSplit(t, srv.Router(), SplitRequest{
		Graph:   sharedGraph(),
		Options: pipeline.Options{CommonPattern: "c/[name].[hash].js"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SplitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var common int
	for _, f := range resp.Manifest.Files {
		if f.Kind == "common" {
			common++
			assert.Regexp(t, `^c/`, f.Filename)
		}
	}
	assert.Equal(t, 1, common)
}

func TestGetRun_NotFound(t *testing.T) {
	srv := newTestServer()
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/runs/nope", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "RUN_NOT_FOUND", resp.Error.Code)
}

func TestListRuns_InvalidLimit(t *testing.T) {
	srv := newTestServer()
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/runs?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
