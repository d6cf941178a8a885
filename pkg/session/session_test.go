package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/flowchart/pkg/diagram"
	ferrors "github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

func newSession(t *testing.T, ttl time.Duration) *Session {
	t.Helper()
	sc, err := scene.New(400, 300)
	if err != nil {
		t.Fatal(err)
	}
	d, err := diagram.New(sc, []graph.NodeSpec{
		{ID: 1, Type: "start", Text: "Begin", To: []graph.Edge{{To: 2}}},
		{ID: 2, Type: "end", Text: "Done"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(d, sc, ttl)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSession(t, time.Minute)

	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
	if err := store.Set(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, s.ID)
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, s.ID); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after delete = %d", store.Len())
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := newSession(t, time.Millisecond)
	live := newSession(t, time.Hour)
	_ = store.Set(ctx, s)
	_ = store.Set(ctx, live)
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, s.ID)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Get(expired) error = %v, want ErrExpired", err)
	}
	if !ferrors.Is(err, ferrors.ErrCodeSessionNotFound) {
		t.Errorf("code = %v", ferrors.GetCode(err))
	}

	expired := newSession(t, time.Millisecond)
	_ = store.Set(ctx, expired)
	time.Sleep(5 * time.Millisecond)
	n, err := store.Cleanup(ctx)
	if err != nil || n != 1 {
		t.Errorf("Cleanup() = %d, %v, want 1", n, err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want the live session only", store.Len())
	}
}

func TestDoExtendsLifetime(t *testing.T) {
	s := newSession(t, time.Hour)
	before := s.ExpiresAt()
	time.Sleep(2 * time.Millisecond)
	err := s.Do(func(d *diagram.Diagram, sc *scene.Scene) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	if !s.ExpiresAt().After(before) {
		t.Error("Do did not extend the session")
	}

	want := errors.New("boom")
	if err := s.Do(func(*diagram.Diagram, *scene.Scene) error { return want }); err != want {
		t.Errorf("Do() error = %v, want %v", err, want)
	}
}

func TestEventsBacklog(t *testing.T) {
	s := newSession(t, time.Hour)
	_ = s.Do(func(*diagram.Diagram, *scene.Scene) error {
		for i := range maxEvents + 10 {
			s.Record(Event{Kind: "click", Node: i})
		}
		return nil
	})
	var got []Event
	_ = s.Do(func(*diagram.Diagram, *scene.Scene) error {
		got = s.Drain()
		return nil
	})
	if len(got) != maxEvents || got[0].Node != 10 {
		t.Errorf("backlog = %d events starting at %d", len(got), got[0].Node)
	}
	_ = s.Do(func(*diagram.Diagram, *scene.Scene) error {
		if len(s.Drain()) != 0 {
			t.Error("Drain did not clear the backlog")
		}
		return nil
	})
}

func TestSnapshot(t *testing.T) {
	s := newSession(t, time.Hour)
	_ = s.Do(func(d *diagram.Diagram, _ *scene.Scene) error {
		d.Shift(15, 25)
		return nil
	})
	nodes := s.Snapshot()
	if len(nodes) != 2 {
		t.Fatalf("Snapshot() = %d nodes", len(nodes))
	}
	var want []float64
	_ = s.Do(func(d *diagram.Diagram, _ *scene.Scene) error {
		for _, n := range d.Nodes() {
			want = append(want, n.X(), n.Y())
		}
		return nil
	})
	for i, n := range nodes {
		x, y, ok := n.Position()
		if !ok || x != want[2*i] || y != want[2*i+1] {
			t.Errorf("node %d position = %v,%v,%v want %v,%v", n.ID, x, y, ok, want[2*i], want[2*i+1])
		}
	}
	if len(nodes[0].To) != 1 {
		t.Error("Snapshot dropped edges")
	}
}

func TestConcurrentDo(t *testing.T) {
	s := newSession(t, time.Hour)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(d *diagram.Diagram, _ *scene.Scene) error {
				d.Shift(1, 0)
				s.Record(Event{Kind: "drag"})
				return nil
			})
		}()
	}
	wg.Wait()
	_ = s.Do(func(*diagram.Diagram, *scene.Scene) error {
		if n := len(s.Drain()); n != 8 {
			t.Errorf("recorded %d events, want 8", n)
		}
		return nil
	})
}

func TestJanitor(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(context.Background(), newSession(t, time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	removed := make(chan int, 1)
	go Janitor(ctx, store, 5*time.Millisecond, func(n int) {
		select {
		case removed <- n:
		default:
		}
	})
	select {
	case n := <-removed:
		if n != 1 {
			t.Errorf("removed %d, want 1", n)
		}
	case <-ctx.Done():
		t.Fatal("janitor never removed the expired session")
	}
}
