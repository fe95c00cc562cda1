package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/splitkit/splitkit/pkg/cache"
	"github.com/splitkit/splitkit/pkg/core/emit"
	"github.com/splitkit/splitkit/pkg/core/naming"
	"github.com/splitkit/splitkit/pkg/core/split"
	"github.com/splitkit/splitkit/pkg/errors"
	"github.com/splitkit/splitkit/pkg/graph"
	"github.com/splitkit/splitkit/pkg/manifest"
	"github.com/splitkit/splitkit/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete split → emit → name pipeline with caching.
func (r *Runner) Execute(ctx context.Context, g graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid options")
	}
	r.applyLogger(&opts)

	result := &Result{}

	// The manifest is a pure function of graph + options, so the cache key
	// covers the whole run.
	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "serialize graph")
	}
	result.GraphHash = cache.Hash(graphData)
	cacheKey := r.Keyer.ManifestKey(result.GraphHash, opts.ManifestKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var m manifest.Manifest
			if err := json.Unmarshal(data, &m); err == nil {
				observability.Cache().OnCacheHit(ctx, "manifest")
				result.Manifest = &m
				result.CacheInfo.ManifestHit = true
				result.Stats.ChunkCount = len(m.Files)
				r.Logger.Info("manifest from cache",
					"files", len(m.Files),
					"graph_hash", result.GraphHash[:8])
				return result, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "manifest")
	}

	// Stage 1: Split
	splitStart := time.Now()
	observability.Pipeline().OnSplitStart(ctx, result.GraphHash, len(g.Nodes))
	res, err := r.Split(g, opts)
	observability.Pipeline().OnSplitComplete(ctx, result.GraphHash, chunkCount(res), time.Since(splitStart), err)
	if err != nil {
		return nil, err
	}
	result.Chunks = res
	result.Stats.SplitTime = time.Since(splitStart)
	result.Stats.NodeCount = res.Registry.Len()
	result.Stats.ChunkCount = len(res.Chunks)
	result.Stats.PrunedCount = len(res.Pruned)

	r.Logger.Info("split value graph",
		"nodes", result.Stats.NodeCount,
		"chunks", result.Stats.ChunkCount,
		"pruned", result.Stats.PrunedCount,
		"duration", result.Stats.SplitTime)

	// Stage 2: Emit
	emitStart := time.Now()
	texts, err := emit.Chunks(res, nil)
	result.Stats.EmitTime = time.Since(emitStart)
	observability.Pipeline().OnEmitComplete(ctx, len(texts), result.Stats.EmitTime, err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "emit chunks")
	}

	// Stage 3: Name and finalize
	nameStart := time.Now()
	filenames, err := naming.Resolve(res, texts, opts.Patterns(), opts.SourceMapMode())
	result.Stats.NameTime = time.Since(nameStart)
	observability.Pipeline().OnNameComplete(ctx, len(filenames), result.Stats.NameTime, err)
	if err != nil {
		code := errors.ErrCodeInvalidConfig
		if stderrors.Is(err, naming.ErrNameConflict) {
			code = errors.ErrCodeNameConflict
		}
		return nil, errors.Wrap(code, err, "resolve filenames")
	}
	finalized := emit.Finalize(texts, filenames)

	files := make([]manifest.File, len(res.Chunks))
	for i, c := range res.Chunks {
		files[i] = manifest.File{
			Filename: filenames[i],
			Content:  finalized[i],
			Kind:     c.Kind.String(),
			Name:     c.Name,
		}
	}
	var pruned []string
	for _, root := range res.Pruned {
		if root.Name != "" {
			pruned = append(pruned, root.Name)
			continue
		}
		if n, ok := res.Registry.Node(root.Node); ok {
			pruned = append(pruned, n.Key)
		}
	}
	result.Manifest = manifest.New(files, pruned)

	r.Logger.Info("emitted manifest",
		"run_id", result.Manifest.RunID,
		"files", len(files),
		"duration", result.Stats.EmitTime+result.Stats.NameTime)

	if data, err := json.Marshal(result.Manifest); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLManifest); err == nil {
			observability.Cache().OnCacheSet(ctx, "manifest", len(data))
		}
	}

	return result, nil
}

// chunkCount tolerates a nil result for hook reporting.
func chunkCount(res *split.Result) int {
	if res == nil {
		return 0
	}
	return len(res.Chunks)
}

// Split runs only the chunking core, without emission or caching. Used by
// inspection commands that need the chunk graph itself.
func (r *Runner) Split(g graph.Graph, opts Options) (*split.Result, error) {
	r.applyLogger(&opts)

	reg, err := graph.ToRegistry(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "import graph")
	}
	res, err := split.Run(reg, opts.Logger)
	if err != nil {
		switch {
		case stderrors.Is(err, split.ErrNoEntries):
			return nil, errors.Wrap(errors.ErrCodeNoEntries, err, "split graph")
		case stderrors.Is(err, split.ErrUnresolvableCycle):
			return nil, errors.Wrap(errors.ErrCodeCycle, err, "split graph")
		default:
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "split graph")
		}
	}
	return res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
