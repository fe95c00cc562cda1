// Package pipeline provides the core splitting pipeline for splitkit.
//
// This package implements the complete import → split → emit → name pipeline
// that can be used by CLI, API, and worker components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid
// code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Split: analyze reachability and assign every node to a chunk
//  2. Emit: render each chunk to module text with token-form imports
//  3. Name: resolve filenames, finalize import specifiers, build the manifest
//
// The whole run is cached as one unit: a manifest is a pure function of the
// input graph and the options.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SplitPattern: "chunks/[name].[hash].js",
//	    SourceMap:    "external",
//	}
//	result, err := runner.Execute(ctx, g, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result.Manifest.WriteDir("dist")
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/splitkit/splitkit/pkg/cache"
	"github.com/splitkit/splitkit/pkg/core/naming"
	"github.com/splitkit/splitkit/pkg/core/split"
	"github.com/splitkit/splitkit/pkg/errors"
	"github.com/splitkit/splitkit/pkg/manifest"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

// Source-map modes.
const (
	SourceMapOff      = string(naming.SourceMapOff)
	SourceMapInline   = string(naming.SourceMapInline)
	SourceMapExternal = string(naming.SourceMapExternal)
)

// DefaultSourceMap is the default source-map mode.
const DefaultSourceMap = SourceMapOff

// ValidSourceMaps is the set of supported source-map modes.
var ValidSourceMaps = map[string]bool{
	SourceMapOff:      true,
	SourceMapInline:   true,
	SourceMapExternal: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the splitting pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Naming patterns per chunk kind. Empty fields use the defaults.
	EntryPattern  string `json:"entry_pattern,omitempty"`
	SplitPattern  string `json:"split_pattern,omitempty"`
	CommonPattern string `json:"common_pattern,omitempty"`

	// SourceMap is the active source-map mode (affects hashing only).
	SourceMap string `json:"source_map,omitempty"`

	// Refresh bypasses the cache and recomputes the manifest.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Manifest is the complete output file set.
	Manifest *manifest.Manifest

	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Chunks is the finalized chunk graph. Nil when the manifest was served
	// from cache; the chunk graph is not archived.
	Chunks *split.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the run hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	ChunkCount  int
	PrunedCount int
	SplitTime   time.Duration
	EmitTime    time.Duration
	NameTime    time.Duration
}

// CacheInfo tracks cache hits for the run.
type CacheInfo struct {
	ManifestHit bool // Whether the manifest came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateSourceMap checks that a source-map mode is valid.
func ValidateSourceMap(mode string) error {
	if !ValidSourceMaps[mode] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid source_map: %q (must be one of: off, inline, external)", mode)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	for _, pat := range []string{o.EntryPattern, o.SplitPattern, o.CommonPattern} {
		if pat == "" {
			continue
		}
		if err := errors.ValidatePattern(pat); err != nil {
			return err
		}
	}

	if o.SourceMap == "" {
		o.SourceMap = DefaultSourceMap
	}
	if err := ValidateSourceMap(o.SourceMap); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// Patterns returns the naming patterns with defaults applied.
func (o *Options) Patterns() naming.Patterns {
	return naming.Patterns{
		Entry:  o.EntryPattern,
		Split:  o.SplitPattern,
		Common: o.CommonPattern,
	}
}

// SourceMapMode returns the typed source-map mode.
func (o *Options) SourceMapMode() naming.SourceMapMode {
	if o.SourceMap == "" {
		return naming.SourceMapOff
	}
	return naming.SourceMapMode(o.SourceMap)
}

// ManifestKeyOpts returns cache key options for manifest caching.
func (o *Options) ManifestKeyOpts() cache.ManifestKeyOpts {
	p := o.Patterns()
	_ = p.ValidateAndSetDefaults()
	return cache.ManifestKeyOpts{
		EntryPattern:  p.Entry,
		SplitPattern:  p.Split,
		CommonPattern: p.Common,
		SourceMap:     string(o.SourceMapMode()),
	}
}
