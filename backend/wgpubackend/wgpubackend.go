// Package wgpubackend implements driverapi.Driver/driverapi.GPU on top
// of github.com/cogentcore/webgpu. It translates opaque driverapi.Handle
// values to concrete *wgpu.Texture/*wgpu.Buffer/*wgpu.ShaderModule
// objects, wrapping the instance/adapter/device/queue quadruple.
package wgpubackend

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/materialpkg"
	"github.com/cogentcore/webgpu/wgpu"
)

func init() {
	driverapi.Register(&driver{})
}

const driverName = "wgpu"

type driver struct {
	mu                   sync.Mutex
	gpu                  *backend
	forceFallbackAdapter bool
}

var _ driverapi.Driver = (*driver)(nil)

func (d *driver) Name() string { return driverName }

// Open creates the instance/adapter/device/queue quadruple, following
// newWGPURendererBackend's sequence, but against no surface: a
// headless device suffices for the Driver-API contract until
// ConfigureSurface is called by a windowing collaborator.
func (d *driver) Open() (driverapi.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu != nil {
		return d.gpu, nil
	}

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: request adapter: %w", err)
	}

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "lumen device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: request device: %w", err)
	}

	g := &backend{
		instance:             instance,
		adapter:              adapter,
		device:               device,
		queue:                device.GetQueue(),
		textures:             make(map[driverapi.Handle]*textureEntry),
		buffers:               make(map[driverapi.Handle]*wgpu.Buffer),
		renderTargets:        make(map[driverapi.Handle]driverapi.RenderTargetDescriptor),
		descriptorSetLayouts: make(map[driverapi.Handle]*wgpu.BindGroupLayout),
		descriptorSets:       make(map[driverapi.Handle]*wgpu.BindGroup),
		programs:             make(map[driverapi.Handle]*programEntry),
		fences:               make(map[driverapi.Handle]struct{}),
		syncs:                make(map[driverapi.Handle]struct{}),
		swapChains:           make(map[driverapi.Handle]struct{}),
	}
	d.gpu = g
	return g, nil
}

func (d *driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu == nil {
		return
	}
	d.gpu.queue.Release()
	d.gpu.device.Release()
	d.gpu.adapter.Release()
	d.gpu.instance.Release()
	d.gpu = nil
}

type textureEntry struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
	desc driverapi.TextureDescriptor
}

type programEntry struct {
	vertex   *wgpu.ShaderModule
	fragment *wgpu.ShaderModule
	compute  *wgpu.ShaderModule
	desc     driverapi.Program
}

// backend is the wgpu-backed driverapi.GPU. Every handle kind keeps
// its own map rather than a single polymorphic table.
type backend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surface       *wgpu.Surface
	surfaceFormat wgpu.TextureFormat

	next atomic.Uint32

	textures             map[driverapi.Handle]*textureEntry
	buffers              map[driverapi.Handle]*wgpu.Buffer
	renderTargets        map[driverapi.Handle]driverapi.RenderTargetDescriptor
	descriptorSetLayouts map[driverapi.Handle]*wgpu.BindGroupLayout
	descriptorSets       map[driverapi.Handle]*wgpu.BindGroup
	programs             map[driverapi.Handle]*programEntry
	fences               map[driverapi.Handle]struct{}
	syncs                map[driverapi.Handle]struct{}
	swapChains           map[driverapi.Handle]struct{}

	frameEncoder          *wgpu.CommandEncoder
	framePass             *wgpu.RenderPassEncoder
	currentSurfaceTexture *wgpu.Texture
	currentSurfaceView    *wgpu.TextureView
}

var _ driverapi.GPU = (*backend)(nil)

func (b *backend) nextHandle() driverapi.Handle {
	return driverapi.Handle(b.next.Add(1))
}

// ConfigureSurface attaches a presentation surface (built by a
// windowing collaborator, e.g. platform/glfwplatform) and configures
// it for width x height, following ConfigureSurface's sequence of
// GetCapabilities -> surface.Configure.
func (b *backend) ConfigureSurface(surface *wgpu.Surface, width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return fmt.Errorf("wgpubackend: surface reports no supported formats")
	}
	format := capabilities.Formats[0]

	if err := surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   capabilities.AlphaModes[0],
	}); err != nil {
		return fmt.Errorf("wgpubackend: configure surface: %w", err)
	}

	b.surface = surface
	b.surfaceFormat = format
	return nil
}

// AttachSurfaceDescriptor builds a *wgpu.Surface from a platform
// SurfaceDescriptor (e.g. platform/glfwplatform's Window.SurfaceDescriptor)
// via instance.CreateSurface, then configures it the same way
// ConfigureSurface does. This is the entry point a windowing
// collaborator calls instead of reaching into the backend's instance
// directly.
func (b *backend) AttachSurfaceDescriptor(desc *wgpu.SurfaceDescriptor, width, height int) error {
	b.mu.Lock()
	instance := b.instance
	b.mu.Unlock()

	surface := instance.CreateSurface(desc)
	return b.ConfigureSurface(surface, width, height)
}

func textureFormat(f driverapi.TextureFormat) wgpu.TextureFormat {
	switch f {
	case driverapi.FormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	case driverapi.FormatRGBA16F:
		return wgpu.TextureFormatRGBA16Float
	case driverapi.FormatDepth24:
		return wgpu.TextureFormatDepth24Plus
	case driverapi.FormatDepth32F:
		return wgpu.TextureFormatDepth32Float
	case driverapi.FormatDepth24Stencil8:
		return wgpu.TextureFormatDepth24PlusStencil8
	default:
		panic(fmt.Sprintf("wgpubackend: unknown texture format %v", f))
	}
}

func textureUsage(u driverapi.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&driverapi.UsageSampleable != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&driverapi.UsageColorAttachment != 0 || u&driverapi.UsageDepthAttachment != 0 || u&driverapi.UsageStencilAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&driverapi.UsageStorage != 0 {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u&driverapi.UsageBlitSrc != 0 {
		out |= wgpu.TextureUsageCopySrc
	}
	if u&driverapi.UsageBlitDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	// Every texture may be the target of an UpdateImage call.
	out |= wgpu.TextureUsageCopyDst
	return out
}

func bufferUsage(u driverapi.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&driverapi.BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&driverapi.BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&driverapi.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&driverapi.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	out |= wgpu.BufferUsageCopyDst
	return out
}

// --- handle factories / destroyers ---

func (b *backend) CreateTexture(desc driverapi.TextureDescriptor) driverapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: max32(desc.Depth, 1),
		},
		MipLevelCount: max32(desc.Levels, 1),
		SampleCount:   max32(desc.Samples, 1),
		Dimension:     wgpu.TextureDimension2D,
		Format:        textureFormat(desc.Format),
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		panic(fmt.Sprintf("wgpubackend: create texture: %v", err))
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		panic(fmt.Sprintf("wgpubackend: create texture view: %v", err))
	}

	h := b.nextHandle()
	b.textures[h] = &textureEntry{tex: tex, view: view, desc: desc}
	return h
}

func max32(v, floor uint32) uint32 {
	if v < floor {
		return floor
	}
	return v
}

func (b *backend) DestroyTexture(h driverapi.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.textures[h]
	if !ok {
		return
	}
	e.view.Release()
	e.tex.Release()
	delete(b.textures, h)
}

func (b *backend) CreateBuffer(desc driverapi.BufferDesc) driverapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  uint64(desc.Size),
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		panic(fmt.Sprintf("wgpubackend: create buffer: %v", err))
	}
	h := b.nextHandle()
	b.buffers[h] = buf
	return h
}

func (b *backend) DestroyBuffer(h driverapi.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[h]
	if !ok {
		return
	}
	buf.Release()
	delete(b.buffers, h)
}

// CreateRenderTarget records desc for later use by BeginRenderPass;
// wgpu has no standalone render-target object, only the view
// references a render pass descriptor carries, so there is nothing to
// allocate here beyond the bookkeeping handle.
func (b *backend) CreateRenderTarget(desc driverapi.RenderTargetDescriptor) driverapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.nextHandle()
	b.renderTargets[h] = desc
	return h
}

func (b *backend) DestroyRenderTarget(h driverapi.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.renderTargets, h)
}

// CreateDescriptorSetLayout allocates an empty-entries bind group
// layout keyed by name. The Driver-API contract doesn't carry binding
// reflection data (that lives in the material package's parsed
// package), so the layout is created with no entries and nothing in
// this package adds entries to it later.
func (b *backend) CreateDescriptorSetLayout(name string) driverapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: name})
	if err != nil {
		panic(fmt.Sprintf("wgpubackend: create bind group layout %q: %v", name, err))
	}
	h := b.nextHandle()
	b.descriptorSetLayouts[h] = layout
	return h
}

func (b *backend) DestroyDescriptorSetLayout(h driverapi.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.descriptorSetLayouts[h]
	if !ok {
		return
	}
	l.Release()
	delete(b.descriptorSetLayouts, h)
}

func (b *backend) CreateDescriptorSet(layout driverapi.Handle) driverapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.descriptorSetLayouts[layout]
	if !ok {
		panic(fmt.Sprintf("wgpubackend: CreateDescriptorSet on unknown layout handle %v", layout))
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Layout: l})
	if err != nil {
		panic(fmt.Sprintf("wgpubackend: create bind group: %v", err))
	}
	h := b.nextHandle()
	b.descriptorSets[h] = bg
	return h
}

func (b *backend) DestroyDescriptorSet(h driverapi.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bg, ok := b.descriptorSets[h]
	if !ok {
		return
	}
	bg.Release()
	delete(b.descriptorSets, h)
}

// CreateFence/CreateSync allocate bookkeeping handles only: wgpu's
// synchronization model is Device.Poll-based rather than explicit
// fence objects, so there is no underlying wgpu object to create; see
// Wait below.
func (b *backend) CreateFence() driverapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.nextHandle()
	b.fences[h] = struct{}{}
	return h
}

func (b *backend) DestroyFence(h driverapi.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.fences, h)
}

func (b *backend) CreateSync() driverapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.nextHandle()
	b.syncs[h] = struct{}{}
	return h
}

func (b *backend) DestroySync(h driverapi.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.syncs, h)
}

// CreateSwapChain allocates a bookkeeping handle standing in for the
// configured presentation surface; cogentcore/webgpu models
// presentation through Surface.GetCurrentTexture/Surface.Present
// rather than a separate swap-chain object (the wgpu-native
// SwapChain type used by older bindings was removed), so ConfigureSurface
// is what actually does the work; this handle exists only so
// Commit(sc) has something to validate against.
func (b *backend) CreateSwapChain() driverapi.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.nextHandle()
	b.swapChains[h] = struct{}{}
	return h
}

func (b *backend) DestroySwapChain(h driverapi.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.swapChains, h)
}

// --- update / upload ---

func (b *backend) UpdateBuffer(h driverapi.Handle, offset uint32, bd driverapi.BufferDescriptor) {
	b.mu.Lock()
	buf, ok := b.buffers[h]
	b.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("wgpubackend: UpdateBuffer on unknown handle %v", h))
	}
	b.queue.WriteBuffer(buf, uint64(offset), bd.Data)
	if bd.OnRelease != nil {
		bd.OnRelease()
	}
}

func (b *backend) UpdateImage(h driverapi.Handle, level uint32, bd driverapi.BufferDescriptor) {
	b.mu.Lock()
	e, ok := b.textures[h]
	b.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("wgpubackend: UpdateImage on unknown handle %v", h))
	}
	width := e.desc.Width >> level
	height := e.desc.Height >> level
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: e.tex, MipLevel: level, Aspect: wgpu.TextureAspectAll},
		bd.Data,
		&wgpu.TextureDataLayout{BytesPerRow: width * 4, RowsPerImage: height},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	if bd.OnRelease != nil {
		bd.OnRelease()
	}
}

// --- program creation & compile hints ---

// CreateProgram compiles each non-empty stage's WGSL source. This
// backend only accepts materialpkg.LanguageWGSL-tagged stages: wgpu's
// native shader ingestion path (as exposed by cogentcore/webgpu) only
// takes WGSL text, not SPIR-V bytes.
func (b *backend) CreateProgram(p driverapi.Program) driverapi.Handle {
	compile := func(stage driverapi.ProgramStage, label string) *wgpu.ShaderModule {
		if len(stage.Code) == 0 {
			return nil
		}
		if materialpkg.ShaderLanguage(stage.Language) != materialpkg.LanguageWGSL {
			panic(fmt.Sprintf("wgpubackend: CreateProgram(%q): only WGSL stages are supported, got language %d", p.Name, stage.Language))
		}
		mod, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label:          label,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: string(stage.Code)},
		})
		if err != nil {
			panic(fmt.Sprintf("wgpubackend: create shader module %q: %v", label, err))
		}
		return mod
	}

	entry := &programEntry{
		vertex:   compile(p.Vertex, p.Name+" vertex"),
		fragment: compile(p.Fragment, p.Name+" fragment"),
		compute:  compile(p.Compute, p.Name+" compute"),
		desc:     p,
	}

	b.mu.Lock()
	h := b.nextHandle()
	b.programs[h] = entry
	b.mu.Unlock()
	return h
}

// CompilePrograms is a synchronous no-op hint: CreateProgram above
// already compiles eagerly, so there is no pending work to flush.
// callback still runs (through handler, if given) so callers that
// depend on the completion signal continue to work unmodified against
// either backend.
func (b *backend) CompilePrograms(priority driverapi.Priority, handler driverapi.CompileHandler, callback func(userData any), userData any) {
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

func (b *backend) BeginFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.surface == nil {
		return
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		panic(fmt.Sprintf("wgpubackend: acquire surface texture: %v", err))
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		panic(fmt.Sprintf("wgpubackend: create surface view: %v", err))
	}
	b.currentSurfaceTexture = surfaceTexture
	b.currentSurfaceView = view

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(fmt.Sprintf("wgpubackend: create command encoder: %v", err))
	}
	b.frameEncoder = encoder
}

func (b *backend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameEncoder == nil {
		return
	}
	cmd, err := b.frameEncoder.Finish(nil)
	if err != nil {
		panic(fmt.Sprintf("wgpubackend: finish command encoder: %v", err))
	}
	b.queue.Submit(cmd)
	cmd.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil

	if b.currentSurfaceView != nil {
		b.currentSurfaceView.Release()
		b.currentSurfaceView = nil
	}
	if b.currentSurfaceTexture != nil {
		b.currentSurfaceTexture.Release()
		b.currentSurfaceTexture = nil
	}
}

func (b *backend) Finish() {
	b.device.Poll(true, nil)
}

func (b *backend) MakeCurrent(drawSC, readSC driverapi.Handle) {
	// wgpu has no analogue of a GL-style current-context switch: the
	// device is already bound at Open. Validate the handles exist so
	// callers get the same misuse signal either backend gives.
	b.mu.Lock()
	defer b.mu.Unlock()
	if drawSC != driverapi.Invalid {
		if _, ok := b.swapChains[drawSC]; !ok {
			panic(fmt.Sprintf("wgpubackend: MakeCurrent with unknown draw swap chain %v", drawSC))
		}
	}
	if readSC != driverapi.Invalid {
		if _, ok := b.swapChains[readSC]; !ok {
			panic(fmt.Sprintf("wgpubackend: MakeCurrent with unknown read swap chain %v", readSC))
		}
	}
}

func (b *backend) Commit(sc driverapi.Handle) {
	b.mu.Lock()
	_, ok := b.swapChains[sc]
	surface := b.surface
	b.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("wgpubackend: Commit on unknown swap chain %v", sc))
	}
	if surface != nil {
		surface.Present()
	}
}

// --- render pass bracket, used by the frame graph's execute step ---

func (b *backend) BeginRenderPass(rt driverapi.Handle, desc driverapi.RenderTargetDescriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameEncoder == nil {
		panic("wgpubackend: BeginRenderPass called outside BeginFrame/EndFrame")
	}
	if b.framePass != nil {
		panic("wgpubackend: BeginRenderPass called while a pass is already active")
	}

	colorAttachments := make([]wgpu.RenderPassColorAttachment, 0, 8)
	for i := 0; i < 8; i++ {
		if desc.TargetBufferFlags&driverapi.ColorAttachmentFlag(i) == 0 {
			continue
		}
		view := b.viewForAttachment(desc.Color[i].Texture, desc.Imported, desc.BackendHandle, i == 0)
		loadOp := wgpu.LoadOpLoad
		if desc.Flags.Clear&driverapi.ColorAttachmentFlag(i) != 0 {
			loadOp = wgpu.LoadOpClear
		}
		storeOp := wgpu.StoreOpStore
		if desc.Flags.DiscardEnd&driverapi.ColorAttachmentFlag(i) != 0 {
			storeOp = wgpu.StoreOpDiscard
		}
		colorAttachments = append(colorAttachments, wgpu.RenderPassColorAttachment{
			View:    view,
			LoadOp:  loadOp,
			StoreOp: storeOp,
			ClearValue: wgpu.Color{
				R: float64(desc.ClearColor[0]), G: float64(desc.ClearColor[1]),
				B: float64(desc.ClearColor[2]), A: float64(desc.ClearColor[3]),
			},
		})
	}

	passDesc := &wgpu.RenderPassDescriptor{ColorAttachments: colorAttachments}
	if desc.TargetBufferFlags&driverapi.TargetBufferDepth != 0 {
		e, ok := b.textures[desc.Depth.Texture]
		if !ok {
			panic(fmt.Sprintf("wgpubackend: depth attachment handle %v not a known texture", desc.Depth.Texture))
		}
		depthLoadOp := wgpu.LoadOpLoad
		if desc.Flags.Clear&driverapi.TargetBufferDepth != 0 {
			depthLoadOp = wgpu.LoadOpClear
		}
		depthStoreOp := wgpu.StoreOpStore
		if desc.Flags.DiscardEnd&driverapi.TargetBufferDepth != 0 {
			depthStoreOp = wgpu.StoreOpDiscard
		}
		passDesc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            e.view,
			DepthLoadOp:     depthLoadOp,
			DepthStoreOp:    depthStoreOp,
			DepthClearValue: 1.0,
			DepthReadOnly:   desc.Flags.ReadOnlyDepthStencil&driverapi.TargetBufferDepth != 0,
		}
	}

	b.framePass = b.frameEncoder.BeginRenderPass(passDesc)
}

// viewForAttachment resolves the wgpu.TextureView backing a color
// attachment slot: either a devirtualized frame-graph texture, or, for
// the imported swapchain-backed target, the surface's current view.
func (b *backend) viewForAttachment(h driverapi.Handle, imported bool, backendHandle driverapi.Handle, isSlot0 bool) *wgpu.TextureView {
	if imported && isSlot0 && backendHandle == driverapi.Invalid {
		if b.currentSurfaceView == nil {
			panic("wgpubackend: imported render target resolved before BeginFrame acquired a surface view")
		}
		return b.currentSurfaceView
	}
	e, ok := b.textures[h]
	if !ok {
		panic(fmt.Sprintf("wgpubackend: color attachment handle %v not a known texture", h))
	}
	return e.view
}

func (b *backend) EndRenderPass() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		panic("wgpubackend: EndRenderPass called with no active pass")
	}
	b.framePass.End()
	b.framePass = nil
}

func (b *backend) PushGroupMarker(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameEncoder != nil {
		b.frameEncoder.PushDebugGroup(name)
	}
}

func (b *backend) PopGroupMarker() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameEncoder != nil {
		b.frameEncoder.PopDebugGroup()
	}
}

// --- fences ---

// Wait polls the device until it is idle. timeoutNanos is ignored:
// wgpu-native has no per-operation fence object, and Device.Poll(true, ...)
// blocks until all submitted work completes, which is the closest
// analogue available through this binding.
func (b *backend) Wait(fence driverapi.Handle, timeoutNanos uint64) bool {
	b.mu.Lock()
	_, ok := b.fences[fence]
	b.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("wgpubackend: Wait on unknown fence handle %v", fence))
	}
	return b.device.Poll(true, nil)
}

// --- feature queries ---

func (b *backend) FeatureLevel() driverapi.FeatureLevel { return driverapi.FeatureLevel3 }
func (b *backend) SupportsStereo() bool                 { return false }
func (b *backend) SupportsParallelShaderCompile() bool  { return false }

// UBOOffsetAlignment returns the WebGPU spec's minimum uniform buffer
// offset alignment (256 bytes); every conformant adapter supports at
// least this much, and cogentcore/webgpu's default limit set does not
// report a tighter bound worth querying here.
func (b *backend) UBOOffsetAlignment() uint32 {
	return 256
}
