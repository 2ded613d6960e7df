package framegraph

import "github.com/anthrosphere/lumen/driverapi"

// Builder is the synchronous setup-time handle a pass uses to declare
// its resource usage. It is only valid for the duration of the setup
// callback passed to AddPass.
type Builder struct {
	fg        *FrameGraph
	passIndex int
}

func (b *Builder) pass() *PassNode { return b.fg.passes[b.passIndex] }

// newResourceNode allocates a fresh version node for resourceIndex and
// returns its index into fg.resourceNodes. prevNodeIndex/writerPass
// are -1 for the version-0 node a bare Create produces.
func (fg *FrameGraph) newResourceNode(resourceIndex int, version uint8, prevNodeIndex, writerPass int) int {
	n := resourceNode{
		resourceIndex: resourceIndex,
		version:       version,
		nodeID:        fg.graph.NewNode(),
		prevNodeIndex: prevNodeIndex,
		writerPass:    writerPass,
	}
	fg.resourceNodes = append(fg.resourceNodes, n)
	return len(fg.resourceNodes) - 1
}

func (fg *FrameGraph) newSlot(resourceIndex, nodeIndex int) uint16 {
	fg.slots = append(fg.slots, resourceSlot{
		resourceIndex:        resourceIndex,
		nodeIndex:            nodeIndex,
		subresourceNodeIndex: -1,
		version:              0,
	})
	return uint16(len(fg.slots) - 1)
}

// Create registers a new virtual texture resource and returns the
// handle to its initial (unwritten) version.
func (b *Builder) Create(name string, desc driverapi.TextureDescriptor) FrameGraphHandle {
	fg := b.fg
	res := newVirtualResource(ResourceTexture, name, -1)
	res.TextureDesc = desc
	fg.resources = append(fg.resources, res)
	resIdx := len(fg.resources) - 1

	nodeIdx := fg.newResourceNode(resIdx, 0, -1, -1)
	slotIdx := fg.newSlot(resIdx, nodeIdx)
	fg.currentSlot = append(fg.currentSlot, int(slotIdx))

	return FrameGraphHandle{Index: slotIdx, Version: 0}
}

// CreateBuffer registers a new virtual buffer resource.
func (b *Builder) CreateBuffer(name string, desc driverapi.BufferDesc) FrameGraphHandle {
	fg := b.fg
	res := newVirtualResource(ResourceBuffer, name, -1)
	res.BufferDesc = desc
	fg.resources = append(fg.resources, res)
	resIdx := len(fg.resources) - 1

	nodeIdx := fg.newResourceNode(resIdx, 0, -1, -1)
	slotIdx := fg.newSlot(resIdx, nodeIdx)
	fg.currentSlot = append(fg.currentSlot, int(slotIdx))

	return FrameGraphHandle{Index: slotIdx, Version: 0}
}

// ImportRenderTarget registers an application-owned render target: the
// frame graph may only annotate its usage, not devirtualize or destroy
// it.
func (b *Builder) ImportRenderTarget(name string, desc driverapi.RenderTargetDescriptor) FrameGraphHandle {
	fg := b.fg
	res := newVirtualResource(ResourceImportedRenderTarget, name, -1)
	res.Imported = true
	res.ImportedTarget = desc
	res.concreteHandle = desc.BackendHandle
	fg.resources = append(fg.resources, res)
	resIdx := len(fg.resources) - 1

	nodeIdx := fg.newResourceNode(resIdx, 0, -1, -1)
	slotIdx := fg.newSlot(resIdx, nodeIdx)
	fg.currentSlot = append(fg.currentSlot, int(slotIdx))

	return FrameGraphHandle{Index: slotIdx, Version: 0}
}

// CreateSubresource registers a texture view (mip level / array layer)
// of parent, co-managed with it in the graph per the subresource
// scheme in §4.3.2.
func (b *Builder) CreateSubresource(parent FrameGraphHandle, name string, desc driverapi.TextureDescriptor) FrameGraphHandle {
	fg := b.fg
	fg.checkValid(parent)
	parentResIdx := fg.slots[parent.Index].resourceIndex

	res := newVirtualResource(ResourceTexture, name, parentResIdx)
	res.TextureDesc = desc
	fg.resources = append(fg.resources, res)
	resIdx := len(fg.resources) - 1

	nodeIdx := fg.newResourceNode(resIdx, 0, -1, -1)
	slotIdx := fg.newSlot(resIdx, nodeIdx)
	fg.currentSlot = append(fg.currentSlot, int(slotIdx))

	return FrameGraphHandle{Index: slotIdx, Version: 0}
}

// Write declares a write to h, returning a new handle for the bumped
// version that subsequent reads must use. This implements transitions
// 1 and 2 of the subresource state machine (first-write,
// subsequent-write): a brand new resourceNode is created either way,
// the difference is purely how many prior versions exist, which this
// code does not need to branch on since both cases append a node and
// relink the slot identically. Writing a subresource additionally
// propagates an implicit bump to its parent (transition propagation
// described in §4.3.2), recorded in the parent's subresourceNodeIndex
// rather than its version, so outstanding parent handles keep reading
// the pre-write snapshot (transition 4, read-of-subresource-parent).
func (b *Builder) Write(h FrameGraphHandle, usage driverapi.TextureUsage) FrameGraphHandle {
	fg := b.fg
	fg.checkValid(h)
	pass := b.pass()

	slot := &fg.slots[h.Index]
	resIdx := slot.resourceIndex
	res := fg.resources[resIdx]

	prevNodeIdx := slot.nodeIndex
	newNodeIdx := fg.newResourceNode(resIdx, slot.version+1, prevNodeIdx, b.passIndex)
	fg.graph.Link(pass.nodeID, fg.resourceNodes[newNodeIdx].nodeID)

	slot.nodeIndex = newNodeIdx
	slot.subresourceNodeIndex = -1
	slot.version++

	if res.ParentIndex != -1 {
		parentSlotIdx := fg.currentSlot[res.ParentIndex]
		parentSlot := &fg.slots[parentSlotIdx]
		// Preserve the parent's current node as the pre-write read
		// snapshot before advancing it.
		parentSlot.subresourceNodeIndex = parentSlot.nodeIndex
		parentPrevNodeIdx := parentSlot.nodeIndex
		parentNewNodeIdx := fg.newResourceNode(res.ParentIndex, parentSlot.version+1, parentPrevNodeIdx, b.passIndex)
		fg.graph.Link(pass.nodeID, fg.resourceNodes[parentNewNodeIdx].nodeID)
		parentSlot.nodeIndex = parentNewNodeIdx
		// Note: parentSlot.version intentionally does not advance here;
		// see the read-of-subresource-parent transition in Read.
	}

	fg.currentSlot[resIdx] = int(h.Index)
	b.declare(h.Index, usage)
	pass.writes = append(pass.writes, newNodeIdx)

	return FrameGraphHandle{Index: h.Index, Version: slot.version}
}

// Read declares a read of h. If h names a resource whose most recent
// event was a child subresource's write (subresourceNodeIndex set),
// the read is routed to that pre-write snapshot instead of the node a
// direct write to h would have produced — transition 4,
// read-of-subresource-parent. Otherwise this is the ordinary
// first-read-after-write transition (3): route to the slot's current
// node.
func (b *Builder) Read(h FrameGraphHandle, usage driverapi.TextureUsage) FrameGraphHandle {
	fg := b.fg
	fg.checkValid(h)
	pass := b.pass()

	slot := fg.slots[h.Index]
	nodeIdx := slot.nodeIndex
	if slot.subresourceNodeIndex != -1 {
		nodeIdx = slot.subresourceNodeIndex
	}

	fg.graph.Link(fg.resourceNodes[nodeIdx].nodeID, pass.nodeID)
	b.declare(h.Index, usage)
	pass.reads = append(pass.reads, nodeIdx)

	return h
}

// Sample is sugar for Read(id, UsageSampleable).
func (b *Builder) Sample(h FrameGraphHandle) FrameGraphHandle {
	return b.Read(h, driverapi.UsageSampleable)
}

// SideEffect marks the pass as a target: it survives culling
// unconditionally, matching PassNode.isTarget from §3.2.
func (b *Builder) SideEffect() {
	pass := b.pass()
	pass.isTarget = true
	b.fg.graph.MakeTarget(pass.nodeID)
}

// DeclareRenderPass registers desc as the render target this pass
// writes into. Each color/depth attachment handle passed through desc
// must already have been obtained via Create/Write on this builder;
// DeclareRenderPass itself records the write dependency for each
// attachment, so the handles in desc are stale afterwards; the written
// versions are kept in the pass's renderTargetData.
func (b *Builder) DeclareRenderPass(name string, desc RenderPassSetup) {
	pass := b.pass()
	rt := &renderTargetData{}

	for i, c := range desc.Color {
		if !c.Handle.IsValid() {
			continue
		}
		h := b.Write(c.Handle, driverapi.UsageColorAttachment)
		rt.colorHandle[i] = h
		rt.desc.Color[i] = driverapi.AttachmentDescriptor{Level: c.Level, Layer: c.Layer}
		rt.desc.TargetBufferFlags |= driverapi.ColorAttachmentFlag(i)
	}
	if desc.Depth.Handle.IsValid() {
		h := b.Write(desc.Depth.Handle, driverapi.UsageDepthAttachment)
		rt.depthHandle = h
		rt.desc.TargetBufferFlags |= driverapi.TargetBufferDepth
	}

	rt.desc.Viewport = desc.Viewport
	rt.desc.ClearColor = desc.ClearColor
	rt.desc.Samples = desc.Samples
	rt.desc.Flags.Clear = desc.ClearFlags

	pass.renderTarget = rt
}

// declare records that the owning pass has been granted access to the
// resource at slotIndex, so Resources.Texture can assert on any
// access the pass never declared.
func (b *Builder) declare(slotIndex uint16, usage driverapi.TextureUsage) {
	pass := b.pass()
	pass.declared[int(slotIndex)] |= usage
}

// RenderPassAttachment names one attachment slot's handle plus the
// mip/layer it targets.
type RenderPassAttachment struct {
	Handle FrameGraphHandle
	Level  uint32
	Layer  uint32
}

// RenderPassSetup is the descriptor DeclareRenderPass consumes; it
// mirrors the render-target data row of §3.2 at authoring time, before
// discard/readonly resolution fills in the rest.
type RenderPassSetup struct {
	Color      [8]RenderPassAttachment
	Depth      RenderPassAttachment
	Viewport   [4]int32
	ClearColor [4]float32
	ClearFlags driverapi.TargetBufferFlags
	Samples    uint32
}
