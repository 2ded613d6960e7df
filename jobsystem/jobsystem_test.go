package jobsystem

import (
	"sync/atomic"
	"testing"
)

func TestNewPanicsOnNonPositiveWorkerCount(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a non-positive worker count")
		}
	}()
	New(0)
}

func TestRunExecutesEveryIndexExactlyOnce(t *testing.T) {
	j := New(4)
	const n = 50
	var seen [n]atomic.Bool

	Run(j, n, func(i int) {
		seen[i].Store(true)
	})

	for i := range seen {
		if !seen[i].Load() {
			t.Errorf("index %d was never run", i)
		}
	}
}

func TestRunWithZeroElementsIsNoop(t *testing.T) {
	j := New(2)
	called := false
	Run(j, 0, func(i int) { called = true })
	if called {
		t.Error("expected Run with n=0 to never invoke do")
	}
}

func TestWorkerCountReportsConstructorValue(t *testing.T) {
	j := New(3)
	if j.WorkerCount() != 3 {
		t.Errorf("WorkerCount() = %d, want 3", j.WorkerCount())
	}
}
