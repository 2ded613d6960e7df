package framegraph

import (
	"fmt"

	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/internal/dependencygraph"
)

// Mode records whether the frame is protected. It is stored on the
// FrameGraph only: the ResourceAllocator never receives it, so
// transient resources are allocated the same way in both modes and
// ModeProtected does not request protected-memory storage.
type Mode int

const (
	ModeUnprotected Mode = iota
	ModeProtected
)

// FrameGraph is the per-frame DAG of passes and virtual resources. A
// FrameGraph is built once per frame: add passes through AddPass,
// Compile exactly once, then Execute.
type FrameGraph struct {
	gpu   driverapi.GPU
	mode  Mode
	alloc *ResourceAllocator

	graph *dependencygraph.Graph

	resources     []*VirtualResource
	resourceNodes []resourceNode
	slots         []resourceSlot

	// currentSlot tracks, per resource index, the slot holding that
	// resource's latest handle — used to find a subresource's parent's
	// current slot when a write needs to propagate upward.
	currentSlot []int

	passes []*PassNode

	compiled bool
}

// New constructs an empty FrameGraph bound to gpu (used at execute time
// to devirtualize resources and run pass bodies) and alloc (the
// transient resource pool). gpu and alloc may be nil in tests that only
// exercise compile-time culling.
func New(gpu driverapi.GPU, alloc *ResourceAllocator, mode Mode) *FrameGraph {
	if alloc == nil {
		alloc = NewResourceAllocator(gpu)
	}
	fg := &FrameGraph{
		gpu:   gpu,
		mode:  mode,
		alloc: alloc,
		graph: dependencygraph.New(),
	}
	// Reserve slot 0 so the zero FrameGraphHandle (Index 0) is never a
	// real resource and always reads as invalid.
	fg.slots = append(fg.slots, resourceSlot{subresourceNodeIndex: -1})
	return fg
}

// AddPass registers a new pass: setup runs synchronously now and
// declares the pass's resource usage through the returned Builder;
// execute runs later, during Execute, and only for passes that survive
// compile.
func AddPass(fg *FrameGraph, name string, setup func(*Builder), execute func(*Resources, driverapi.GPU)) {
	if fg.compiled {
		panic("framegraph: AddPass called after Compile")
	}
	pass := &PassNode{
		Kind:     PassRender,
		Name:     name,
		nodeID:   fg.graph.NewNode(),
		declared: make(map[int]driverapi.TextureUsage),
		execute:  execute,
	}
	fg.passes = append(fg.passes, pass)
	b := &Builder{fg: fg, passIndex: len(fg.passes) - 1}
	setup(b)
}

// Mode reports the allocator policy this FrameGraph was constructed
// with.
func (fg *FrameGraph) Mode() Mode {
	return fg.mode
}

func (fg *FrameGraph) checkValid(h FrameGraphHandle) {
	if !fg.IsValid(h) {
		panic(fmt.Sprintf("framegraph: use of stale or invalid handle %+v", h))
	}
}

// IsValid reports whether h still names its slot's current version.
func (fg *FrameGraph) IsValid(h FrameGraphHandle) bool {
	if !h.IsValid() || int(h.Index) >= len(fg.slots) {
		return false
	}
	return fg.slots[h.Index].version == h.Version
}

// Forward retires oldID by pointing its slot at newID's resource, per
// §4.3.5. A "forward" dependency edge is added from the old resource
// node to the new one so that any pass that had already written oldID
// is kept alive by whatever keeps newID alive.
func (fg *FrameGraph) Forward(newID, oldID FrameGraphHandle) {
	fg.checkValid(newID)
	fg.checkValid(oldID)

	oldSlot := &fg.slots[oldID.Index]
	newSlot := fg.slots[newID.Index]

	oldNode := fg.resourceNodes[oldSlot.nodeIndex]
	newNode := fg.resourceNodes[newSlot.nodeIndex]
	fg.graph.Link(oldNode.nodeID, newNode.nodeID)

	oldSlot.resourceIndex = newSlot.resourceIndex
	oldSlot.nodeIndex = newSlot.nodeIndex
	oldSlot.subresourceNodeIndex = newSlot.subresourceNodeIndex
	oldSlot.version = 255 // retire: no future handle can ever match this sentinel
}
