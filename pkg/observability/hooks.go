// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about routing passes, cache operations, and API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the routing packages
// never import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRouteHooks(&myRouteHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Route().OnRouteStart(ctx, source, len(links))
//	// ... route the bundle ...
//	observability.Route().OnRouteComplete(ctx, source, segments, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Route Hooks
// =============================================================================

// RouteHooks receives events from the riser/runner router.
type RouteHooks interface {
	// OnRouteStart fires before a bundle of links from one source is routed.
	OnRouteStart(ctx context.Context, source string, links int)

	// OnRouteComplete fires after the bundle is routed (or failed).
	OnRouteComplete(ctx context.Context, source string, segments int, duration time.Duration, err error)

	// OnWidenedMatch fires when a just-created split point could only be
	// found again with the widened tolerance. distance is the near miss.
	OnWidenedMatch(ctx context.Context, source, link string, distance float64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the status written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRouteHooks is a no-op implementation of RouteHooks.
type NoopRouteHooks struct{}

func (NoopRouteHooks) OnRouteStart(context.Context, string, int)                          {}
func (NoopRouteHooks) OnRouteComplete(context.Context, string, int, time.Duration, error) {}
func (NoopRouteHooks) OnWidenedMatch(context.Context, string, string, float64)            {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	routeHooks RouteHooks = NoopRouteHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetRouteHooks registers custom route hooks.
// This should be called once at application startup before any routing.
func SetRouteHooks(h RouteHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		routeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Route returns the registered route hooks.
func Route() RouteHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return routeHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	routeHooks = NoopRouteHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
