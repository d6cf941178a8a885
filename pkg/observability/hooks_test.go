package observability

import (
	"context"
	"testing"
	"time"
)

type countingServerHooks struct {
	NoopServerHooks
	gestures int
}

func (h *countingServerHooks) OnGesture(context.Context, string, bool) { h.gestures++ }

type recordingPipelineHooks struct{ NoopPipelineHooks }
type recordingCacheHooks struct{ NoopCacheHooks }

func TestRegistry(t *testing.T) {
	t.Cleanup(Reset)

	tests := []struct {
		name    string
		install func()
		check   func() bool
	}{
		{
			name:    "pipeline",
			install: func() { SetPipelineHooks(&recordingPipelineHooks{}) },
			check:   func() bool { _, ok := Pipeline().(*recordingPipelineHooks); return ok },
		},
		{
			name:    "cache",
			install: func() { SetCacheHooks(&recordingCacheHooks{}) },
			check:   func() bool { _, ok := Cache().(*recordingCacheHooks); return ok },
		},
		{
			name:    "server",
			install: func() { SetServerHooks(&countingServerHooks{}) },
			check:   func() bool { _, ok := Server().(*countingServerHooks); return ok },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			if tt.check() {
				t.Fatal("hooks installed before Set")
			}
			tt.install()
			if !tt.check() {
				t.Error("Set did not install hooks")
			}
			Reset()
			if tt.check() {
				t.Error("Reset kept custom hooks")
			}
		})
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	t.Cleanup(Reset)

	h := &countingServerHooks{}
	SetServerHooks(h)
	SetServerHooks(nil)
	SetPipelineHooks(nil)
	SetCacheHooks(nil)

	Server().OnGesture(context.Background(), "drag", true)
	if h.gestures != 1 {
		t.Errorf("gestures = %d, want 1", h.gestures)
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("SetPipelineHooks(nil) replaced the no-op hooks")
	}
}

func TestNoopHooks(t *testing.T) {
	ctx := context.Background()

	var p PipelineHooks = NoopPipelineHooks{}
	p.OnLoadStart(ctx, "login.yaml")
	p.OnLoadComplete(ctx, "login.yaml", 7, time.Millisecond, nil)
	p.OnLayoutStart(ctx, "manual", 7)
	p.OnLayoutComplete(ctx, "manual", time.Millisecond, nil)
	p.OnRenderStart(ctx, []string{"svg", "dot"})
	p.OnRenderComplete(ctx, []string{"svg", "dot"}, time.Millisecond, nil)

	var c CacheHooks = NoopCacheHooks{}
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 2048)
	c.OnCacheHit(ctx, "artifact")

	var s ServerHooks = NoopServerHooks{}
	s.OnRequest(ctx, "POST", "/api/sessions/{id}/events", 200, time.Millisecond)
	s.OnSession(ctx, "expired", 0)
}
