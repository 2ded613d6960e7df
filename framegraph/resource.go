package framegraph

import (
	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/internal/dependencygraph"
)

// ResourceKind tags the concrete shape of a VirtualResource, replacing
// the source's Resource<T>/ImportedResource<T>/ImportedRenderTarget
// inheritance chain with a single sum type (see DESIGN NOTES on deep
// inheritance hierarchies).
type ResourceKind int

const (
	ResourceTexture ResourceKind = iota
	ResourceBuffer
	ResourceImportedRenderTarget
)

// VirtualResource is one resource as declared through the Builder:
// not yet a concrete GPU object, just a description plus the
// bookkeeping compile needs to decide whether it survives culling and
// when to devirtualize/destroy it.
type VirtualResource struct {
	Kind        ResourceKind
	Name        string
	ParentIndex int // -1 if this resource has no parent

	TextureDesc    driverapi.TextureDescriptor
	BufferDesc     driverapi.BufferDesc
	Imported       bool
	ImportedTarget driverapi.RenderTargetDescriptor

	Usage driverapi.TextureUsage

	// RefCount, FirstPass and LastPass are populated by compile's
	// "attribute references" step (§4.3.3 step 3), not by culling
	// directly; they drive devirtualize/destroy list assignment.
	RefCount  uint32
	FirstPass int
	LastPass  int

	concreteHandle driverapi.Handle
}

func newVirtualResource(kind ResourceKind, name string, parentIndex int) *VirtualResource {
	return &VirtualResource{
		Kind:        kind,
		Name:        name,
		ParentIndex: parentIndex,
		FirstPass:   -1,
		LastPass:    -1,
	}
}

// neededByPass is resource.needed_by_pass from §4.3.3 step 3: called
// once per surviving pass that references this resource as either an
// edge endpoint.
func (r *VirtualResource) neededByPass(passIndex int) {
	r.RefCount++
	if r.FirstPass == -1 || passIndex < r.FirstPass {
		r.FirstPass = passIndex
	}
	if passIndex > r.LastPass {
		r.LastPass = passIndex
	}
}

// ConcreteHandle returns the backend handle devirtualize assigned to
// this resource, or driverapi.Invalid before that has happened.
func (r *VirtualResource) ConcreteHandle() driverapi.Handle {
	return r.concreteHandle
}

// resourceNode is one version of a VirtualResource: each Write creates
// a fresh resourceNode and a new dependencygraph node, per the
// versioning contract in §4.3.2.
type resourceNode struct {
	resourceIndex int
	version       uint8
	nodeID        dependencygraph.NodeID

	// prevNodeIndex is the resourceNode this one superseded, or -1 for
	// the version-0 node a bare Create produces. writerPass is the
	// index of the pass whose Write produced this node, or -1 when
	// this node has no writer (again, the version-0 Create node).
	// Render-target resolution (§4.3.4) needs to ask "did the content
	// entering this pass come from a real prior write", which is a
	// question about the PREVIOUS node, not the one this pass itself
	// just wrote — hence tracking the chain instead of only the
	// current node's own writer.
	prevNodeIndex int
	writerPass    int
}

// resourceSlot is the thing a FrameGraphHandle's Index actually
// addresses: the resource it names, the resourceNode currently
// representing its latest write, and — for a parent resource whose
// subresource has been written without the parent itself being
// rewritten — the node index reads of the parent should route to
// instead, preserving the pre-write snapshot.
type resourceSlot struct {
	resourceIndex        int
	nodeIndex            int
	subresourceNodeIndex int // -1 if not applicable
	version              uint8
}
