package framegraph

import "github.com/anthrosphere/lumen/driverapi"

// allocKey groups resources that can alias the same backing storage:
// two resources with identical keys and non-overlapping lifetimes may
// share one concrete handle.
type allocKey struct {
	kind    ResourceKind
	width   uint32
	height  uint32
	depth   uint32
	format  driverapi.TextureFormat
	usage   driverapi.TextureUsage
	samples uint32
	size    uint32 // buffers only
}

func keyFor(r *VirtualResource) allocKey {
	switch r.Kind {
	case ResourceBuffer:
		return allocKey{kind: ResourceBuffer, size: r.BufferDesc.Size, usage: driverapi.TextureUsage(r.BufferDesc.Usage)}
	default:
		d := r.TextureDesc
		return allocKey{
			kind:    ResourceTexture,
			width:   d.Width,
			height:  d.Height,
			depth:   d.Depth,
			format:  d.Format,
			usage:   r.Usage | d.Usage,
			samples: d.Samples,
		}
	}
}

// ResourceAllocator is the frame graph's transient resource pool: a
// free-list keyed by (usage, width, height, format, samples) so passes
// whose lifetimes don't overlap alias the same backend handle instead
// of each paying for a dedicated allocation. This completes the
// "ask the ResourceAllocator" step the frame graph's devirtualize and
// destroy steps depend on.
type ResourceAllocator struct {
	gpu  driverapi.GPU
	free map[allocKey][]driverapi.Handle
}

// NewResourceAllocator returns an allocator that creates backend
// objects through gpu. gpu may be nil for tests that only exercise
// frame graph culling and compile, never execute.
func NewResourceAllocator(gpu driverapi.GPU) *ResourceAllocator {
	return &ResourceAllocator{
		gpu:  gpu,
		free: make(map[allocKey][]driverapi.Handle),
	}
}

// Acquire returns a handle compatible with r's shape, reusing one from
// the free list if available, otherwise creating a new backend object.
func (a *ResourceAllocator) Acquire(r *VirtualResource) driverapi.Handle {
	k := keyFor(r)
	if pool := a.free[k]; len(pool) > 0 {
		h := pool[len(pool)-1]
		a.free[k] = pool[:len(pool)-1]
		return h
	}
	if a.gpu == nil {
		return driverapi.Invalid
	}
	switch r.Kind {
	case ResourceBuffer:
		return a.gpu.CreateBuffer(r.BufferDesc)
	default:
		d := r.TextureDesc
		d.Usage |= r.Usage
		return a.gpu.CreateTexture(d)
	}
}

// Release returns r's concrete handle to the free list for reuse by a
// later, non-overlapping resource of the same shape.
func (a *ResourceAllocator) Release(r *VirtualResource) {
	if !r.concreteHandle.IsValid() {
		return
	}
	k := keyFor(r)
	a.free[k] = append(a.free[k], r.concreteHandle)
}

// Reset drops every pooled handle, destroying the underlying backend
// objects. Called between frames that don't want transient storage
// carried forward (e.g. after a resolution change).
func (a *ResourceAllocator) Reset() {
	if a.gpu == nil {
		a.free = make(map[allocKey][]driverapi.Handle)
		return
	}
	for k, pool := range a.free {
		for _, h := range pool {
			if k.kind == ResourceBuffer {
				a.gpu.DestroyBuffer(h)
			} else {
				a.gpu.DestroyTexture(h)
			}
		}
	}
	a.free = make(map[allocKey][]driverapi.Handle)
}
