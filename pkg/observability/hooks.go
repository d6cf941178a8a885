// Package observability lets a host watch flowchart rendering without the
// libraries depending on a metrics backend.
//
// The pipeline, the artifact cache and the viewer server report events
// through three hook interfaces. Each starts out as a no-op; main may swap in
// a real implementation before serving:
//
//	observability.SetServerHooks(promServerHooks{})
//
// Library code only reads the current hooks:
//
//	observability.Pipeline().OnLayoutStart(ctx, "auto", len(nodes))
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives load, layout and render events. A failed stage
// reports its error in the Complete call.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, nodeCount int, duration time.Duration, err error)

	// mode is "auto" or "manual".
	OnLayoutStart(ctx context.Context, mode string, nodeCount int)
	OnLayoutComplete(ctx context.Context, mode string, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives artifact cache lookups and writes. keyType names the
// kind of entry, currently always "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// ServerHooks receives viewer server events.
type ServerHooks interface {
	// OnRequest is called after a request was served. route is the chi route
	// pattern, not the raw path.
	OnRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration)

	// OnGesture reports a pointer event forwarded to a session diagram.
	OnGesture(ctx context.Context, gesture string, handled bool)

	// OnSession reports "created", "expired" or "deleted" with the number of
	// sessions left.
	OnSession(ctx context.Context, event string, active int)
}

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                              {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                       {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)   {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks ignores every event.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}
func (NoopServerHooks) OnGesture(context.Context, string, bool)                       {}
func (NoopServerHooks) OnSession(context.Context, string, int)                        {}

var (
	mu            sync.RWMutex
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	serverHooks   ServerHooks   = NoopServerHooks{}
)

// SetPipelineHooks installs h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	mu.Lock()
	pipelineHooks = h
	mu.Unlock()
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	mu.Lock()
	cacheHooks = h
	mu.Unlock()
}

// SetServerHooks installs h. A nil h is ignored.
func SetServerHooks(h ServerHooks) {
	if h == nil {
		return
	}
	mu.Lock()
	serverHooks = h
	mu.Unlock()
}

func Pipeline() PipelineHooks {
	mu.RLock()
	defer mu.RUnlock()
	return pipelineHooks
}

func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}

func Server() ServerHooks {
	mu.RLock()
	defer mu.RUnlock()
	return serverHooks
}

// Reset puts the no-op hooks back. Tests call it in t.Cleanup.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	serverHooks = NoopServerHooks{}
}
