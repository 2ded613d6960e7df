package framegraph

import "github.com/anthrosphere/lumen/driverapi"

// Compile performs the §4.3.3 pipeline exactly once: cull, partition,
// attribute references, assign lifetime, resolve usage, render-pass
// resolution. Calling Compile a second time on an already-compiled
// graph is a no-op, satisfying the round-trip law "compile();
// compile(); equals compile();".
func (fg *FrameGraph) Compile() {
	if fg.compiled {
		return
	}
	fg.cull()
	fg.partition()
	fg.attributeReferences()
	fg.assignLifetime()
	fg.resolveRenderPasses()
	fg.compiled = true
}

// cull runs the dependency graph's culling algorithm (§4.2) then marks
// each PassNode culled or not from the graph's verdict.
func (fg *FrameGraph) cull() {
	fg.graph.Cull()
	for _, p := range fg.passes {
		p.culled = fg.graph.IsCulled(p.nodeID)
	}
}

// partition stable-partitions fg.passes so surviving passes precede
// culled ones, preserving authored order within each group (§4.3.3
// step 2).
func (fg *FrameGraph) partition() {
	surviving := make([]*PassNode, 0, len(fg.passes))
	culled := make([]*PassNode, 0, len(fg.passes))
	for _, p := range fg.passes {
		if p.culled {
			culled = append(culled, p)
		} else {
			surviving = append(surviving, p)
		}
	}
	fg.passes = append(surviving, culled...)
}

// attributeReferences walks each surviving pass's read/write edges and
// calls VirtualResource.neededByPass for every endpoint, propagating
// to parents for subresources (§4.3.3 step 3). It also unions the
// usage each surviving pass declared through Read/Sample/Write into
// the resource's Usage (step 5, via resolveUsage).
func (fg *FrameGraph) attributeReferences() {
	for passIdx, p := range fg.passes {
		if p.culled {
			continue
		}
		seen := make(map[int]bool)
		touch := func(nodeIdx int) {
			resIdx := fg.resourceNodes[nodeIdx].resourceIndex
			for resIdx != -1 && !seen[resIdx] {
				seen[resIdx] = true
				fg.resources[resIdx].neededByPass(passIdx)
				resIdx = fg.resources[resIdx].ParentIndex
			}
		}
		for _, n := range p.reads {
			touch(n)
		}
		for _, n := range p.writes {
			touch(n)
		}
		for slotIdx, usage := range p.declared {
			fg.resolveUsage(fg.slots[slotIdx].resourceIndex, usage)
		}
	}
}

// assignLifetime pushes every resource with RefCount > 0 onto its
// first pass's devirtualize list and its last pass's destroy list
// (§4.3.3 step 4).
func (fg *FrameGraph) assignLifetime() {
	for resIdx, r := range fg.resources {
		if r.RefCount == 0 || r.Imported {
			continue
		}
		fg.passes[r.FirstPass].devirtualize = append(fg.passes[r.FirstPass].devirtualize, resIdx)
		fg.passes[r.LastPass].destroy = append(fg.passes[r.LastPass].destroy, resIdx)
	}
}

// resolveUsage unions all read/write usage bits reaching resIdx into
// its Usage field (§4.3.3 step 5). attributeReferences calls it with
// the usage each surviving pass declared, and render-pass resolution
// below calls it again for every attachment.
func (fg *FrameGraph) resolveUsage(resIdx int, usage driverapi.TextureUsage) {
	fg.resources[resIdx].Usage |= usage
}

// resolveRenderPasses performs §4.3.4's discard/readonly inference for
// every surviving render pass's declared target.
func (fg *FrameGraph) resolveRenderPasses() {
	for _, p := range fg.passes {
		if p.culled || p.renderTarget == nil {
			continue
		}
		fg.resolveRenderPass(p)
	}
}

func (fg *FrameGraph) resolveRenderPass(p *PassNode) {
	rt := p.renderTarget
	desc := &rt.desc

	for i := 0; i < 8; i++ {
		h := rt.colorHandle[i]
		if !h.IsValid() {
			continue
		}
		fg.resolveAttachment(p, desc, h, driverapi.ColorAttachmentFlag(i), false)
	}
	if rt.depthHandle.IsValid() {
		fg.resolveAttachment(p, desc, rt.depthHandle, driverapi.TargetBufferDepth, true)
	}
}

// resolveAttachment applies the §4.3.4 table to one attachment slot.
func (fg *FrameGraph) resolveAttachment(p *PassNode, desc *driverapi.RenderTargetDescriptor, h FrameGraphHandle, bit driverapi.TargetBufferFlags, isDepth bool) {
	slot := fg.slots[h.Index]
	resIdx := slot.resourceIndex
	nodeIdx := slot.nodeIndex
	// The slot may already point at a later pass's write; use the node
	// this pass's own Write produced.
	for _, n := range p.writes {
		if fg.resourceNodes[n].resourceIndex == resIdx {
			nodeIdx = n
		}
	}
	node := fg.resourceNodes[nodeIdx]

	hasActiveReader := false
	for _, e := range fg.graph.Outgoing(node.nodeID) {
		if fg.graph.EdgeValid(e) {
			hasActiveReader = true
			break
		}
	}
	if !hasActiveReader {
		desc.Flags.DiscardEnd |= bit
		if isDepth {
			desc.Flags.ReadOnlyDepthStencil |= bit
		}
	}

	// A render pass's own write always contributes one incoming edge to
	// node (from itself), so "does node have a writer" is trivially
	// true here and the wrong question. What the table actually asks is
	// whether content entering this pass came from a prior write still
	// live in the culled graph — a question about the PREVIOUS node.
	hasActiveWriter := false
	if node.prevNodeIndex != -1 {
		prev := fg.resourceNodes[node.prevNodeIndex]
		if prev.writerPass != -1 && !fg.passes[prev.writerPass].culled {
			hasActiveWriter = true
		}
	}
	if !hasActiveWriter {
		desc.Flags.DiscardStart |= bit
	}
	if desc.Flags.Clear&bit != 0 {
		desc.Flags.DiscardStart |= bit
	}

	fg.resolveUsage(resIdx, usageForBit(bit, isDepth))
}

func usageForBit(bit driverapi.TargetBufferFlags, isDepth bool) driverapi.TextureUsage {
	if isDepth {
		return driverapi.UsageDepthAttachment
	}
	return driverapi.UsageColorAttachment
}
