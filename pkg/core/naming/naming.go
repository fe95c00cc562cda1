// Package naming resolves chunk filenames from configurable patterns and a
// content+identity hash. Hashing runs over the chunk's rendered text in
// cross-reference token form, so filenames can be resolved for all chunks
// before any import specifier is finalized.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/splitkit/splitkit/pkg/core/split"
)

// Pattern substitution tokens.
const (
	TokenName = "[name]"
	TokenHash = "[hash]"
)

// Default name tokens for anonymous chunks. Explicit names always win.
const (
	DefaultSplitName  = "split"
	DefaultCommonName = "common"
)

// SourceMapMode selects how source maps would be emitted. It participates in
// hashing only: different modes change what is ultimately written, so
// identical code must still hash differently across modes.
type SourceMapMode string

const (
	SourceMapOff      SourceMapMode = "off"
	SourceMapInline   SourceMapMode = "inline"
	SourceMapExternal SourceMapMode = "external"
)

// hashLen is the number of hex characters kept from the SHA-256 digest.
const hashLen = 8

var (
	// ErrNameConflict is returned when two chunks resolve to the same
	// filename. Surfaced before any file is written.
	ErrNameConflict = errors.New("filename conflict")

	// ErrBadPattern is returned for a pattern that cannot distinguish
	// anonymous chunks (no name and no hash token).
	ErrBadPattern = errors.New("pattern has neither name nor hash token")
)

// Patterns holds the filename pattern per chunk kind.
type Patterns struct {
	Entry  string
	Split  string
	Common string
}

// DefaultPatterns returns the stock naming scheme: entries keep their stable
// caller-facing name, generated chunks carry the hash.
func DefaultPatterns() Patterns {
	return Patterns{
		Entry:  "[name].js",
		Split:  "[name].[hash].js",
		Common: "[name].[hash].js",
	}
}

// ValidateAndSetDefaults fills empty patterns from [DefaultPatterns] and
// rejects patterns without substitution tokens.
func (p *Patterns) ValidateAndSetDefaults() error {
	d := DefaultPatterns()
	if p.Entry == "" {
		p.Entry = d.Entry
	}
	if p.Split == "" {
		p.Split = d.Split
	}
	if p.Common == "" {
		p.Common = d.Common
	}
	for _, pat := range []string{p.Entry, p.Split, p.Common} {
		if !strings.Contains(pat, TokenName) && !strings.Contains(pat, TokenHash) {
			return fmt.Errorf("%w: %q", ErrBadPattern, pat)
		}
	}
	return nil
}

// For returns the pattern used for the given chunk kind.
func (p Patterns) For(kind split.Kind) string {
	switch kind {
	case split.KindEntry:
		return p.Entry
	case split.KindSplit:
		return p.Split
	default:
		return p.Common
	}
}

// ChunkHash computes the identity-salted content hash for one chunk: SHA-256
// over the rendered text, the chunk kind, the source-map mode and the salt,
// truncated to a short hex prefix. The salt is derived from the discovery
// index of the chunk's members, so two chunks with byte-identical text still
// hash apart.
func ChunkHash(text string, kind split.Kind, mode SourceMapMode, salt int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", text, kind, mode, salt)
	return hex.EncodeToString(h.Sum(nil))[:hashLen]
}

// baseName returns the name token value for a chunk: the explicit name when
// present, otherwise the kind default.
func baseName(c *split.Chunk) string {
	if c.Name != "" {
		return c.Name
	}
	if c.Kind == split.KindSplit {
		return DefaultSplitName
	}
	return DefaultCommonName
}

// Resolve assigns a filename to every chunk. texts holds each chunk's
// rendered content in token form, indexed like res.Chunks. A resolved
// filename colliding with another chunk's is fatal.
func Resolve(res *split.Result, texts []string, patterns Patterns, mode SourceMapMode) ([]string, error) {
	if err := patterns.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if len(texts) != len(res.Chunks) {
		return nil, fmt.Errorf("have %d rendered texts for %d chunks", len(texts), len(res.Chunks))
	}

	names := make([]string, len(res.Chunks))
	owner := make(map[string]int)
	for i, c := range res.Chunks {
		hash := ChunkHash(texts[i], c.Kind, mode, res.Salt(i))
		fn := strings.ReplaceAll(patterns.For(c.Kind), TokenName, baseName(c))
		fn = strings.ReplaceAll(fn, TokenHash, hash)
		if prev, taken := owner[fn]; taken {
			return nil, fmt.Errorf("%w: chunks %s %q and %s %q both resolve to %q",
				ErrNameConflict,
				res.Chunks[prev].Kind, baseName(res.Chunks[prev]),
				c.Kind, baseName(c), fn)
		}
		owner[fn] = i
		names[i] = fn
	}
	return names, nil
}
