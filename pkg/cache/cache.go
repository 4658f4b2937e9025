// Package cache stores routing results keyed by a hash of their inputs.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// the HTTP server and [NullCache] when caching is off. Keys come from a
// [Keyer] so callers never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired key is a miss
	// (ok false), not an error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Default lifetimes of cached entries.
const (
	TTLResult = 7 * 24 * time.Hour
	TTLRender = 7 * 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey identifies the routing result of a scenario.
	ResultKey(scenarioHash string, opts ResultKeyOpts) string

	// RenderKey identifies a rendering of a routing result.
	RenderKey(resultHash string, opts RenderKeyOpts) string
}

// ResultKeyOpts are the router settings that change a routing result.
type ResultKeyOpts struct {
	Axis           string  `json:"axis"`
	SlotUnit       float64 `json:"slot_unit"`
	MatchTolerance float64 `json:"match_tolerance"`
}

// RenderKeyOpts are the settings that change a rendering.
type RenderKeyOpts struct {
	Format        string `json:"format"`
	SegmentLabels bool   `json:"segment_labels"`
}

// DefaultKeyer hashes key inputs under fixed prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(scenarioHash string, opts ResultKeyOpts) string {
	return hashKey("result", scenarioHash, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(resultHash string, opts RenderKeyOpts) string {
	return hashKey("render", resultHash, opts)
}
