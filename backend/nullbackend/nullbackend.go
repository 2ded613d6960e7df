// Package nullbackend is the reference driverapi.Driver implementation:
// an in-process, synchronous backend that allocates nothing on a real
// GPU. It exists so the frame graph, command stream, and material
// system can be exercised end to end (and so cmd/lumen-null has
// something to run against) without a window or a graphics API.
package nullbackend

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/anthrosphere/lumen/driverapi"
)

func init() {
	driverapi.Register(&driver{})
}

const driverName = "null"

type driver struct {
	mu  sync.Mutex
	gpu *gpu
}

var _ driverapi.Driver = (*driver)(nil)

func (d *driver) Name() string { return driverName }

func (d *driver) Open() (driverapi.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu == nil {
		d.gpu = newGPU()
	}
	return d.gpu, nil
}

func (d *driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu != nil {
		d.gpu.reportLeaks()
		d.gpu = nil
	}
}

// gpu is the null backend's driverapi.GPU: one counter issues handles
// for every resource kind, and "resources" are just bookkeeping entries tracked so
// Close can flag anything the caller forgot to destroy, mirroring the
// teacher's shutdown leak reporting.
type gpu struct {
	next atomic.Uint32

	mu        sync.Mutex
	live      map[driverapi.Handle]string // handle -> kind, for leak reporting
	programs  map[driverapi.Handle]driverapi.Program
	renderPass struct {
		active bool
		target driverapi.Handle
	}
	markers []string

	featureLevel driverapi.FeatureLevel
}

var _ driverapi.GPU = (*gpu)(nil)

func newGPU() *gpu {
	return &gpu{
		live:         make(map[driverapi.Handle]string),
		programs:     make(map[driverapi.Handle]driverapi.Program),
		featureLevel: driverapi.FeatureLevel2,
	}
}

func (g *gpu) alloc(kind string) driverapi.Handle {
	h := driverapi.Handle(g.next.Add(1))
	g.mu.Lock()
	g.live[h] = kind
	g.mu.Unlock()
	return h
}

func (g *gpu) free(h driverapi.Handle, kind string) {
	if !h.IsValid() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	got, ok := g.live[h]
	if !ok {
		panic(fmt.Sprintf("nullbackend: double-destroy of %s handle %v", kind, h))
	}
	if got != kind {
		panic(fmt.Sprintf("nullbackend: handle %v destroyed as %s, created as %s", h, kind, got))
	}
	delete(g.live, h)
}

func (g *gpu) reportLeaks() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.live) == 0 {
		return
	}
	for h, kind := range g.live {
		log.Printf("nullbackend: leaked %s handle %v at shutdown", kind, h)
	}
}

// --- handle factories / destroyers ---

func (g *gpu) CreateTexture(driverapi.TextureDescriptor) driverapi.Handle {
	return g.alloc("texture")
}
func (g *gpu) DestroyTexture(h driverapi.Handle) { g.free(h, "texture") }

func (g *gpu) CreateBuffer(driverapi.BufferDesc) driverapi.Handle {
	return g.alloc("buffer")
}
func (g *gpu) DestroyBuffer(h driverapi.Handle) { g.free(h, "buffer") }

func (g *gpu) CreateRenderTarget(driverapi.RenderTargetDescriptor) driverapi.Handle {
	return g.alloc("rendertarget")
}
func (g *gpu) DestroyRenderTarget(h driverapi.Handle) { g.free(h, "rendertarget") }

func (g *gpu) CreateDescriptorSetLayout(name string) driverapi.Handle {
	return g.alloc("descriptorsetlayout")
}
func (g *gpu) DestroyDescriptorSetLayout(h driverapi.Handle) { g.free(h, "descriptorsetlayout") }

func (g *gpu) CreateDescriptorSet(driverapi.Handle) driverapi.Handle {
	return g.alloc("descriptorset")
}
func (g *gpu) DestroyDescriptorSet(h driverapi.Handle) { g.free(h, "descriptorset") }

func (g *gpu) CreateFence() driverapi.Handle { return g.alloc("fence") }
func (g *gpu) DestroyFence(h driverapi.Handle) { g.free(h, "fence") }

func (g *gpu) CreateSync() driverapi.Handle { return g.alloc("sync") }
func (g *gpu) DestroySync(h driverapi.Handle) { g.free(h, "sync") }

func (g *gpu) CreateSwapChain() driverapi.Handle { return g.alloc("swapchain") }
func (g *gpu) DestroySwapChain(h driverapi.Handle) { g.free(h, "swapchain") }

// --- update / upload ---

func (g *gpu) UpdateBuffer(h driverapi.Handle, offset uint32, bd driverapi.BufferDescriptor) {
	if bd.OnRelease != nil {
		bd.OnRelease()
	}
}

func (g *gpu) UpdateImage(h driverapi.Handle, level uint32, bd driverapi.BufferDescriptor) {
	if bd.OnRelease != nil {
		bd.OnRelease()
	}
}

// --- program creation & compile hints ---

func (g *gpu) CreateProgram(p driverapi.Program) driverapi.Handle {
	h := g.alloc("program")
	g.mu.Lock()
	g.programs[h] = p
	g.mu.Unlock()
	return h
}

// CompilePrograms is synchronous here: there is no async compile queue
// to drain, so the callback runs immediately, posted through handler
// if one was given.
func (g *gpu) CompilePrograms(priority driverapi.Priority, handler driverapi.CompileHandler, callback func(userData any), userData any) {
	if callback == nil {
		return
	}
	if handler != nil {
		handler.Post(func() { callback(userData) })
		return
	}
	callback(userData)
}

// --- frame lifecycle ---

func (g *gpu) BeginFrame() {}
func (g *gpu) EndFrame()   {}
func (g *gpu) Finish()     {}

func (g *gpu) MakeCurrent(drawSC, readSC driverapi.Handle) {}
func (g *gpu) Commit(sc driverapi.Handle)                  {}

// --- render pass bracket ---

func (g *gpu) BeginRenderPass(rt driverapi.Handle, desc driverapi.RenderTargetDescriptor) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.renderPass.active {
		panic("nullbackend: BeginRenderPass called while a pass is already active")
	}
	g.renderPass.active = true
	g.renderPass.target = rt
}

func (g *gpu) EndRenderPass() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.renderPass.active {
		panic("nullbackend: EndRenderPass called with no active pass")
	}
	g.renderPass.active = false
}

func (g *gpu) PushGroupMarker(name string) {
	g.mu.Lock()
	g.markers = append(g.markers, name)
	g.mu.Unlock()
}

func (g *gpu) PopGroupMarker() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.markers) == 0 {
		panic("nullbackend: PopGroupMarker with no matching Push")
	}
	g.markers = g.markers[:len(g.markers)-1]
}

// --- fences ---

// Wait always returns true immediately: the null backend has no
// asynchronous GPU timeline for a fence to actually wait on.
func (g *gpu) Wait(fence driverapi.Handle, timeoutNanos uint64) bool { return true }

// --- feature queries ---

func (g *gpu) FeatureLevel() driverapi.FeatureLevel        { return g.featureLevel }
func (g *gpu) SupportsStereo() bool                        { return false }
func (g *gpu) SupportsParallelShaderCompile() bool         { return true }
func (g *gpu) UBOOffsetAlignment() uint32                  { return 16 }
