package statestore

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(0, 0)
	t.Cleanup(func() { _ = s.Close() })
	testStoreContract(t, s)
}

func TestMemoryStore_TTLExpires(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(20*time.Millisecond, 0)
	ctx := context.Background()

	if err := s.Save(ctx, "conv", sampleState()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	got, err := s.Load(ctx, "conv")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Destination != "" {
		t.Errorf("expired state still returned: %+v", got)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(0, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := "conv-" + string(rune('a'+i))
			st := sampleState()
			for range 50 {
				if err := s.Save(ctx, id, st); err != nil {
					t.Errorf("Save: %v", err)
					return
				}
				if _, err := s.Load(ctx, id); err != nil {
					t.Errorf("Load: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := s.Len(); got != 16 {
		t.Errorf("Len = %d, want 16", got)
	}
}

func TestMemoryStore_CloseFlushes(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(0, 0)
	_ = s.Save(context.Background(), "conv", sampleState())
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := s.Len(); got != 0 {
		t.Errorf("Len after Close = %d, want 0", got)
	}
}
