// Package jobsystem wraps github.com/Carmen-Shannon/automation's worker
// pool for the embarrassingly-parallel CPU work the engine offloads
// off the main/render thread, currently material variant pre-caching
// (spec §5's "job system" collaborator). This mirrors engine/scene.go's own use of
// worker.DynamicWorkerPool for the per-frame animator-prep phase: a
// long-lived pool, tasks submitted per unit of work, a WaitGroup
// barrier because Pool.Wait() blocks until the pool idles out rather
// than completing just the submitted batch.
package jobsystem

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// defaultQueueSize mirrors scene.go's choice of headroom for typical
// per-frame task counts; job-system batches here are comparable in
// size (one task per variant to pre-cache).
const defaultQueueSize = 256

// JobSystem runs a fixed pool of worker goroutines that persist for
// the engine's lifetime, avoiding per-batch goroutine spawn/teardown
// overhead.
type JobSystem struct {
	pool        worker.DynamicWorkerPool
	workerCount int
}

// New creates a JobSystem with workerCount persistent workers. A
// workerCount <= 0 is not valid; callers pick a count (e.g.
// runtime.NumCPU()-1) the way scene.go's NewScene does for its
// compute pool.
func New(workerCount int) *JobSystem {
	if workerCount <= 0 {
		panic("jobsystem: New requires a positive workerCount")
	}
	return &JobSystem{
		pool:        worker.NewDynamicWorkerPool(workerCount, defaultQueueSize, time.Second),
		workerCount: workerCount,
	}
}

// WorkerCount reports how many persistent workers this JobSystem was
// constructed with.
func (j *JobSystem) WorkerCount() int {
	return j.workerCount
}

// Run submits one task per element of work and blocks until every task
// has completed, via the WaitGroup-barrier pattern scene.go uses for
// its per-frame animator prep: Pool.Wait() is unsuitable here since it
// blocks until the pool itself idles out, not until a batch drains.
func Run(j *JobSystem, n int, do func(i int)) {
	if n <= 0 {
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		idx := i
		j.pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				do(idx)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
