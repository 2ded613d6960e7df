package framegraph

import "github.com/anthrosphere/lumen/driverapi"

// Execute runs every surviving pass in authored order, devirtualizing
// and destroying resources at the boundaries compile assigned them
// (§4.3.6). Compile must have already run; Execute panics otherwise.
func (fg *FrameGraph) Execute() {
	if !fg.compiled {
		panic("framegraph: Execute called before Compile")
	}
	for _, p := range fg.passes {
		if p.culled {
			continue
		}

		for _, resIdx := range p.devirtualize {
			fg.devirtualize(resIdx)
		}
		if p.renderTarget != nil {
			fg.resolveRenderTargetHandle(p)
		}

		if fg.gpu != nil {
			fg.gpu.PushGroupMarker(p.Name)
		}
		if p.execute != nil {
			p.execute(&Resources{fg: fg, pass: p}, fg.gpu)
		}
		if fg.gpu != nil {
			fg.gpu.PopGroupMarker()
		}

		for _, resIdx := range p.destroy {
			fg.destroy(resIdx)
		}
	}
}

func (fg *FrameGraph) devirtualize(resIdx int) {
	res := fg.resources[resIdx]
	if res.Imported || res.concreteHandle.IsValid() {
		return
	}
	res.concreteHandle = fg.alloc.Acquire(res)
}

func (fg *FrameGraph) destroy(resIdx int) {
	res := fg.resources[resIdx]
	if res.Imported {
		return
	}
	fg.alloc.Release(res)
	res.concreteHandle = driverapi.Invalid
}

// resolveRenderTargetHandle materializes the backend render-target
// object for p once its attachments have been devirtualized. An
// imported attachment (by convention, the only way a render target
// declared through Builder.ImportRenderTarget enters a pass) makes the
// whole render target imported: its pre-existing BackendHandle is
// reused as-is instead of allocating a new one, following
// PassNode::resolve in the original implementation.
func (fg *FrameGraph) resolveRenderTargetHandle(p *PassNode) {
	rt := p.renderTarget

	var importedRes *VirtualResource
	for i := range rt.desc.Color {
		if !rt.colorHandle[i].IsValid() {
			continue
		}
		resIdx := fg.slots[rt.colorHandle[i].Index].resourceIndex
		res := fg.resources[resIdx]
		if res.Imported {
			importedRes = res
			continue
		}
		rt.desc.Color[i].Texture = res.concreteHandle
	}
	if rt.depthHandle.IsValid() {
		resIdx := fg.slots[rt.depthHandle.Index].resourceIndex
		res := fg.resources[resIdx]
		if res.Imported {
			importedRes = res
		} else {
			rt.desc.Depth.Texture = res.concreteHandle
		}
	}

	if importedRes != nil {
		imported := &importedRes.ImportedTarget
		rt.desc.Imported = true
		rt.desc.BackendHandle = importedRes.concreteHandle
		rt.desc.Viewport = imported.Viewport
		rt.desc.ClearColor = imported.ClearColor
		rt.desc.Samples = imported.Samples

		// Copy the clear flags the importer asked for, then consume
		// them: if this same imported target is reused by a later
		// pass this frame, that pass must not clear it again.
		rt.desc.Flags.Clear = imported.Flags.Clear
		imported.Flags.Clear = driverapi.TargetBufferNone

		// Never discard an attachment the importer told us to keep,
		// regardless of what compile's own discard inference decided.
		rt.desc.Flags.DiscardStart &^= imported.KeepOverrideStart
		rt.desc.Flags.DiscardEnd &^= imported.KeepOverrideEnd
		return
	}

	if fg.gpu != nil {
		rt.desc.BackendHandle = fg.gpu.CreateRenderTarget(rt.desc)
	}
}
