package framegraph

import (
	"fmt"

	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/internal/dependencygraph"
)

// PassKind tags whether a PassNode is an ordinary render pass or the
// terminal present pass, replacing the source's
// PassNode/RenderPassNode/PresentPassNode inheritance chain.
type PassKind int

const (
	PassRender PassKind = iota
	PassPresent
)

// renderTargetData holds one pass's declared attachments, exactly the
// "render-target data" row of the §3.2 entity table, prior to
// discard/readonly resolution.
type renderTargetData struct {
	desc        driverapi.RenderTargetDescriptor
	colorHandle [8]FrameGraphHandle
	depthHandle FrameGraphHandle
}

// PassNode is one authored pass: its name, the resource slot indices
// it declared access to (for the undeclared-access assertion in
// execute), the devirtualize/destroy lists compile assigns it, and —
// for render passes — its resolved render-target data.
type PassNode struct {
	Kind PassKind
	Name string

	nodeID dependencygraph.NodeID

	declared map[int]driverapi.TextureUsage // slot index -> usage, for the access check in execute
	reads    []int                          // resource node indices this pass depends on (for attribute-references)
	writes   []int

	isTarget bool

	renderTarget *renderTargetData

	devirtualize []int // resource indices
	destroy      []int

	execute func(*Resources, driverapi.GPU)

	culled bool
}

// Resources is the view an execute closure receives: it may only
// resolve handles the owning pass declared access to during setup.
type Resources struct {
	fg   *FrameGraph
	pass *PassNode
}

// Texture resolves h to the concrete backend handle devirtualize
// assigned it. Panics if pass never declared access to h — "the
// execute closure only sees the handles of resources it declared
// access to; any undeclared access asserts" (§4.3.6 step 2).
func (r *Resources) Texture(h FrameGraphHandle) driverapi.Handle {
	if _, ok := r.pass.declared[int(h.Index)]; !ok {
		panic(fmt.Sprintf("framegraph: pass %q accessed undeclared resource %d", r.pass.Name, h.Index))
	}
	res := r.fg.resources[r.fg.slots[h.Index].resourceIndex]
	return res.concreteHandle
}

// RenderTarget returns the backend render-target handle this pass's
// declared render target resolved to.
func (r *Resources) RenderTarget() driverapi.Handle {
	if r.pass.renderTarget == nil {
		panic(fmt.Sprintf("framegraph: pass %q has no declared render target", r.pass.Name))
	}
	return r.pass.renderTarget.desc.BackendHandle
}

// RenderTargetDescriptor returns the fully resolved render-target
// descriptor (attachments, viewport, discard/clear flags) for this
// pass.
func (r *Resources) RenderTargetDescriptor() driverapi.RenderTargetDescriptor {
	if r.pass.renderTarget == nil {
		panic(fmt.Sprintf("framegraph: pass %q has no declared render target", r.pass.Name))
	}
	return r.pass.renderTarget.desc
}
