package commandstream

import (
	"sync"
	"testing"
	"time"
)

func TestFIFOOrderWithinOneFlush(t *testing.T) {
	s := New(DefaultConfig())

	var got []string
	var mu sync.Mutex
	record := func(tag string) func() {
		return func() {
			mu.Lock()
			got = append(got, tag)
			mu.Unlock()
		}
	}

	s.Alloc(8, 8, record("a"))
	s.Alloc(8, 8, record("b"))
	s.Alloc(8, 8, record("c"))
	s.Flush()

	ranges := s.WaitForCommands()
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d", len(ranges))
	}
	ranges[0].Execute()

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestProducerConsumerHandoff(t *testing.T) {
	s := New(Config{MinCommandBufferBytes: 1024, CommandBufferBytes: 2048, PerFrameCommandBytes: 1024})

	done := make(chan struct{})
	var executed int
	go func() {
		defer close(done)
		for {
			ranges := s.WaitForCommands()
			if ranges == nil {
				return
			}
			for _, r := range ranges {
				executed += r.Len()
				r.Execute()
				s.ReleaseBuffer(r)
			}
		}
	}()

	for i := 0; i < 5; i++ {
		s.Alloc(8, 8, func() {})
		s.Flush()
	}
	s.RequestExit()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer goroutine did not exit after RequestExit")
	}

	if executed != 5 {
		t.Fatalf("executed %d commands, want 5", executed)
	}
}

func TestAllocPanicsPastPerFrameBudget(t *testing.T) {
	s := New(Config{MinCommandBufferBytes: 64, CommandBufferBytes: 128, PerFrameCommandBytes: 16})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when exceeding per-frame command budget")
		}
	}()
	for i := 0; i < 100; i++ {
		s.Alloc(8, 8, func() {})
	}
}

func TestRequestExitDrainsPublishedBeforeEmpty(t *testing.T) {
	s := New(DefaultConfig())

	var ran bool
	s.Alloc(8, 8, func() { ran = true })
	s.Flush()
	s.RequestExit()

	ranges := s.WaitForCommands()
	if len(ranges) != 1 {
		t.Fatalf("expected the already-published range to still be drained, got %d ranges", len(ranges))
	}
	ranges[0].Execute()
	if !ran {
		t.Fatal("command was not executed")
	}

	ranges = s.WaitForCommands()
	if ranges != nil {
		t.Fatalf("expected nil after drain+exit, got %v", ranges)
	}
}

func TestNewPanicsOnInvalidConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on invalid config")
		}
	}()
	New(Config{MinCommandBufferBytes: 0})
}
