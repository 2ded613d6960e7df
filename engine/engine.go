// Package engine is the orchestrator: it owns the backend thread,
// command stream, job-system, material cache, default resources, and
// the UBO manager, and drives the per-frame prepare/submit_frame/flush
// sequence. The goroutine lifecycle is a dedicated backend thread
// joined through a WaitGroup, with shutdown guarded by sync.Once.
package engine

import (
	"fmt"
	"log"
	"sync"

	"github.com/anthrosphere/lumen/commandstream"
	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/engine/profiler"
	"github.com/anthrosphere/lumen/jobsystem"
	"github.com/anthrosphere/lumen/material"
)

// Engine owns every long-lived subsystem the rest of the package wires
// frame graphs and materials through: the open driver session, the
// command stream producer/consumer pair, the job-system pool, the
// material cache, the UBO manager, and the set of default resources
// created during startup.
type Engine struct {
	cfg Config

	driver driverapi.Driver
	gpu    driverapi.GPU
	stream *commandstream.Stream
	jobs   *jobsystem.JobSystem

	materials *material.MaterialCache
	ubo       *UBOManager

	profiler         *profiler.Profiler
	profilingEnabled bool

	threaded bool
	barrier  chan struct{}
	wg       sync.WaitGroup
	quitOnce sync.Once

	initMu                sync.Mutex
	initialized           bool
	effectiveFeatureLevel driverapi.FeatureLevel

	// default resources, created once during init() (§4.8.1) and torn
	// down in reverse dependency order during Shutdown (§4.8.3). A
	// default Material needs a compiled material package to build a
	// Definition from; the engine has none embedded, so callers acquire
	// their own default/error material through Materials() instead.
	defaultTexture      driverapi.Handle
	defaultCubeMap      driverapi.Handle
	dummyUBO            driverapi.Handle
	defaultRenderTarget driverapi.Handle

	resMu   sync.Mutex
	fences  []driverapi.Handle
	syncs   []driverapi.Handle
}

// New resolves cfg's backend, constructs the job-system, material
// cache, and command stream, then runs startup with threading. Use
// NewUnthreaded for the inline variant described in §4.8.1.
func New(opts ...Option) (*Engine, error) {
	return newEngine(true, opts...)
}

// NewUnthreaded builds an Engine without a dedicated backend thread:
// the driver is opened inline and commands execute synchronously
// through Flush, per §4.8.1's "without threading" path.
func NewUnthreaded(opts ...Option) (*Engine, error) {
	return newEngine(false, opts...)
}

func newEngine(threaded bool, opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	drv, ok := driverapi.Lookup(cfg.Backend)
	if !ok {
		drivers := driverapi.Drivers()
		if cfg.Backend != "" || len(drivers) == 0 {
			return nil, fmt.Errorf("engine: no registered driver named %q", cfg.Backend)
		}
		drv = drivers[0]
	}

	e := &Engine{
		cfg:      cfg,
		driver:   drv,
		stream:   commandstream.New(cfg.Stream),
		jobs:     jobsystem.New(cfg.resolveJobSystemThreadCount()),
		threaded: threaded,
		barrier:  make(chan struct{}),
		profiler: profiler.NewProfiler(),
	}
	e.stream.SetPaused(cfg.Paused)

	if err := e.startup(); err != nil {
		return nil, err
	}
	return e, nil
}

// startup follows §4.8.1: with threading, spawn the backend thread
// (opens the driver, latches the barrier, then drains the command
// stream until RequestExit); the main goroutine waits on the barrier
// and then runs init(). Without threading, the driver is opened
// inline and init()'s commands are flushed once via drainPublished().
func (e *Engine) startup() error {
	if !e.threaded {
		gpu, err := e.driver.Open()
		if err != nil {
			return fmt.Errorf("engine: open driver %q: %w", e.driver.Name(), err)
		}
		e.gpu = gpu
		e.init()
		e.drainPublished()
		return nil
	}

	e.wg.Add(1)
	openErrCh := make(chan error, 1)
	go func() {
		defer e.wg.Done()
		gpu, err := e.driver.Open()
		if err != nil {
			openErrCh <- err
			close(e.barrier)
			return
		}
		e.gpu = gpu
		openErrCh <- nil
		close(e.barrier)
		e.consumeLoop()
	}()

	<-e.barrier
	if err := <-openErrCh; err != nil {
		return fmt.Errorf("engine: open driver %q: %w", e.driver.Name(), err)
	}
	e.init()
	return nil
}

// consumeLoop is the backend thread's body: pull published command
// ranges and execute them in order until the stream reports exit.
func (e *Engine) consumeLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: backend thread recovered from panic: %v", r)
		}
	}()
	for {
		ranges := e.stream.WaitForCommands()
		if ranges == nil {
			return
		}
		for _, r := range ranges {
			r.Execute()
			e.stream.ReleaseBuffer(r)
		}
	}
}

// drainPublished synchronously executes whatever the last Flush
// published, for the unthreaded path where there is no backend thread
// to consume the stream. DrainAvailable never blocks, so a frame that
// flushed nothing is simply a no-op here instead of a deadlock.
func (e *Engine) drainPublished() {
	for _, r := range e.stream.DrainAvailable() {
		r.Execute()
		e.stream.ReleaseBuffer(r)
	}
}

// init creates the engine's default resources through the driver API
// and records the effective feature level, guarded by the initialized
// flag so repeat calls are no-ops, per §4.8.1.
func (e *Engine) init() {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	if e.initialized {
		return
	}

	e.effectiveFeatureLevel = e.cfg.FeatureLevel
	if e.gpu.FeatureLevel() < e.effectiveFeatureLevel {
		e.effectiveFeatureLevel = e.gpu.FeatureLevel()
	}

	e.defaultTexture = e.gpu.CreateTexture(driverapi.TextureDescriptor{
		Width: 1, Height: 1, Depth: 1, Levels: 1, Samples: 1,
		Format: driverapi.FormatRGBA8, Usage: driverapi.UsageSampleable,
	})
	e.defaultCubeMap = e.gpu.CreateTexture(driverapi.TextureDescriptor{
		Width: 1, Height: 1, Depth: 6, Levels: 1, Samples: 1,
		Format: driverapi.FormatRGBA8, Usage: driverapi.UsageSampleable,
	})
	e.dummyUBO = e.gpu.CreateBuffer(driverapi.BufferDesc{Size: 256, Usage: driverapi.BufferUsageUniform})
	e.defaultRenderTarget = e.gpu.CreateRenderTarget(driverapi.RenderTargetDescriptor{})

	e.materials = material.NewMaterialCache(e.gpu)
	e.ubo = NewUBOManager(e.gpu, 3, 64*1024)

	e.initialized = true
}

// JobSystem returns the engine's worker pool, for material precaching
// and other embarrassingly-parallel producer-side work.
func (e *Engine) JobSystem() *jobsystem.JobSystem { return e.jobs }

// Materials returns the engine's shared material cache.
func (e *Engine) Materials() *material.MaterialCache { return e.materials }

// UBOManager returns the engine's per-instance uniform-buffer ring.
func (e *Engine) UBOManager() *UBOManager { return e.ubo }

// GPU returns the open driver session frame graphs execute against.
func (e *Engine) GPU() driverapi.GPU { return e.gpu }

// Stream returns the command stream producer/consumer pair.
func (e *Engine) Stream() *commandstream.Stream { return e.stream }

// FeatureLevel returns the effective feature level recorded at init:
// min(requested, driver's).
func (e *Engine) FeatureLevel() driverapi.FeatureLevel { return e.effectiveFeatureLevel }

// DefaultTexture, DefaultCubeMap, and DummyUBO return the 1x1 default
// resources created during init, for materials/passes that need a
// placeholder binding.
func (e *Engine) DefaultTexture() driverapi.Handle      { return e.defaultTexture }
func (e *Engine) DefaultCubeMap() driverapi.Handle      { return e.defaultCubeMap }
func (e *Engine) DummyUBO() driverapi.Handle            { return e.dummyUBO }
func (e *Engine) DefaultRenderTarget() driverapi.Handle { return e.defaultRenderTarget }

// TrackFence and TrackSync register a fence/sync handle for teardown
// at Shutdown, matching the concurrency model's note that fences and
// syncs are touched from any thread and protected by their own mutex.
func (e *Engine) TrackFence(h driverapi.Handle) {
	e.resMu.Lock()
	defer e.resMu.Unlock()
	e.fences = append(e.fences, h)
}

func (e *Engine) TrackSync(h driverapi.Handle) {
	e.resMu.Lock()
	defer e.resMu.Unlock()
	e.syncs = append(e.syncs, h)
}

// Prepare is the per-frame producer step (§4.8.2): if UBO batching is
// enabled it reclaims/allocates a UBO slot via ubo_manager.BeginFrame,
// lets each material commit its uniform writes, then drains the staged
// batch via FinishBeginFrame.
func (e *Engine) Prepare(commitAll func(ubo *UBOManager)) {
	if e.ubo != nil {
		e.ubo.BeginFrame()
	}
	if commitAll != nil {
		commitAll(e.ubo)
	}
	if e.ubo != nil {
		e.ubo.FinishBeginFrame()
	}
}

// SubmitFrame is the per-frame producer step that retires this
// frame's UBO slot by placing a fence (§4.8.2).
func (e *Engine) SubmitFrame() {
	if e.ubo != nil {
		e.ubo.EndFrame()
	}
	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
}

// EnableProfiler turns on periodic FPS/heap logging via SubmitFrame.
func (e *Engine) EnableProfiler() { e.profilingEnabled = true }

// DisableProfiler turns off periodic FPS/heap logging.
func (e *Engine) DisableProfiler() { e.profilingEnabled = false }

// Flush publishes this frame's recorded commands to the backend
// thread (§4.8.2's flush()).
func (e *Engine) Flush() {
	e.stream.Flush()
	if !e.threaded {
		e.drainPublished()
	}
}

// FlushAndWait enqueues a finish command, creates a fence, and blocks
// until it signals, per §4.8.2's flush_and_wait.
func (e *Engine) FlushAndWait(timeoutNanos uint64) bool {
	fence := e.gpu.CreateFence()
	e.stream.Alloc(0, 0, func() { e.gpu.Finish() })
	e.Flush()
	ok := e.gpu.Wait(fence, timeoutNanos)
	e.gpu.DestroyFence(fence)
	return ok
}

// Shutdown asserts idempotency, destroys resources in reverse
// dependency order (§4.8.3: materials, UBO manager, default RT,
// dummy textures/UBO, fences/syncs), requests the backend thread's
// exit, joins it, and tears down the command stream.
func (e *Engine) Shutdown() {
	e.quitOnce.Do(func() {
		if e.materials != nil {
			e.materials.Shutdown()
		}
		if e.ubo != nil {
			e.ubo.Shutdown()
		}
		if e.gpu != nil {
			if e.defaultRenderTarget.IsValid() {
				e.gpu.DestroyRenderTarget(e.defaultRenderTarget)
			}
			if e.defaultCubeMap.IsValid() {
				e.gpu.DestroyTexture(e.defaultCubeMap)
			}
			if e.defaultTexture.IsValid() {
				e.gpu.DestroyTexture(e.defaultTexture)
			}
			if e.dummyUBO.IsValid() {
				e.gpu.DestroyBuffer(e.dummyUBO)
			}

			e.resMu.Lock()
			for _, f := range e.fences {
				e.gpu.DestroyFence(f)
			}
			for _, s := range e.syncs {
				e.gpu.DestroySync(s)
			}
			e.fences = nil
			e.syncs = nil
			e.resMu.Unlock()
		}

		e.stream.RequestExit()
		e.wg.Wait()

		if e.driver != nil {
			e.driver.Close()
		}
	})
}
