package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/splitkit/splitkit/pkg/errors"
	"github.com/splitkit/splitkit/pkg/graph"
	"github.com/splitkit/splitkit/pkg/manifest"
	"github.com/splitkit/splitkit/pkg/pipeline"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// SplitRequest is the body of POST /v1/split.
type SplitRequest struct {
	Graph   graph.Graph      `json:"graph"`
	Options pipeline.Options `json:"options"`
}

// SplitResponse is the body returned by POST /v1/split.
type SplitResponse struct {
	Manifest  *manifest.Manifest `json:"manifest"`
	GraphHash string             `json:"graph_hash"`
	Cached    bool               `json:"cached"`
	Stats     SplitStats         `json:"stats"`
}

// SplitStats is the subset of pipeline stats exposed over the API.
type SplitStats struct {
	Nodes  int `json:"nodes"`
	Chunks int `json:"chunks"`
	Pruned int `json:"pruned"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SplitRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}

	result, err := s.Runner.Execute(r.Context(), req.Graph, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}

	// Archive failures don't fail the request; the manifest is already built.
	if err := s.Store.Save(r.Context(), result.Manifest); err != nil {
		s.Logger.Warn("archive run", "run_id", result.Manifest.RunID, "err", err)
	}

	writeJSON(w, http.StatusOK, SplitResponse{
		Manifest:  result.Manifest,
		GraphHash: result.GraphHash,
		Cached:    result.CacheInfo.ManifestHit,
		Stats: SplitStats{
			Nodes:  result.Stats.NodeCount,
			Chunks: result.Stats.ChunkCount,
			Pruned: result.Stats.PrunedCount,
		},
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.Store.Get(r.Context(), id)
	if err != nil {
		if stderrors.Is(err, manifest.ErrNotFound) {
			writeError(w, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id))
			return
		}
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load run"))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit: %q", raw))
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := s.Store.List(r.Context(), limit)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "list runs"))
		return
	}
	if runs == nil {
		runs = []*manifest.Manifest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}
