package driverapi

// BufferDescriptor wraps a block of data destined for the GPU plus an
// optional callback invoked once the backend has released the pointer
// (after it has been copied or uploaded). Core code never blocks
// waiting for OnRelease; it exists purely for pool/arena reuse by the
// caller.
type BufferDescriptor struct {
	Data      []byte
	OnRelease func()
}

// TextureUsage is a bitmask describing how a texture will be used; it
// drives both backend allocation strategy and the frame graph's
// render-target resolution (§4.3.4).
type TextureUsage uint32

const (
	UsageNone TextureUsage = 0
	// UsageSampleable marks a texture as bindable for sampling.
	UsageSampleable TextureUsage = 1 << iota
	UsageColorAttachment
	UsageDepthAttachment
	UsageStencilAttachment
	UsageStorage
	UsageBlitSrc
	UsageBlitDst
)

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Width, Height, Depth uint32
	Levels               uint32
	Samples               uint32
	Format                TextureFormat
	Usage                 TextureUsage
}

// TextureFormat is a backend-agnostic pixel format selector.
type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatRGBA16F
	FormatDepth24
	FormatDepth32F
	FormatDepth24Stencil8
)

// BufferUsage is a bitmask describing how a buffer will be bound.
type BufferUsage uint32

const (
	BufferUsageUniform BufferUsage = 1 << iota
	BufferUsageStorage
	BufferUsageVertex
	BufferUsageIndex
)

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	Size  uint32
	Usage BufferUsage
}

// ProgramStage is one shader stage's compiled bytes plus the language
// they're written in.
type ProgramStage struct {
	Language int
	Code     []byte
}

// Program is everything a backend needs to link a GPU program: shader
// bytes per stage, descriptor bindings, specialization constants,
// push-constant layout, and a cache id for opaque backend-side binary
// caching.
type Program struct {
	Name              string
	Vertex            ProgramStage
	Fragment          ProgramStage
	Compute           ProgramStage
	SpecConstantIDs   []uint32
	SpecConstantVals  []any
	PushConstantBytes uint32
	Multiview         bool
	CacheID           uint64
}

// AttachmentDescriptor is one render-target attachment slot.
type AttachmentDescriptor struct {
	Texture    Handle
	Level      uint32
	Layer      uint32
}

// TargetBufferFlags marks which attachment slots a render pass touches.
type TargetBufferFlags uint32

const (
	TargetBufferNone TargetBufferFlags = 0
	// Color0..Color7 occupy the low 8 bits.
	TargetBufferDepth   TargetBufferFlags = 1 << 8
	TargetBufferStencil TargetBufferFlags = 1 << 9
)

// ColorAttachmentFlag returns the flag bit for color attachment index i
// (0..7).
func ColorAttachmentFlag(i int) TargetBufferFlags {
	return TargetBufferFlags(1 << uint(i))
}

// RenderPassFlags carries the discard/clear/readonly inference results
// computed by the frame graph's render-target resolution step.
type RenderPassFlags struct {
	DiscardStart         TargetBufferFlags
	DiscardEnd           TargetBufferFlags
	Clear                TargetBufferFlags
	ReadOnlyDepthStencil TargetBufferFlags
}

// RenderTargetDescriptor describes a render pass's attachments and
// viewport as resolved by the frame graph.
type RenderTargetDescriptor struct {
	Color               [8]AttachmentDescriptor
	Depth               AttachmentDescriptor
	Stencil             AttachmentDescriptor
	TargetBufferFlags    TargetBufferFlags
	Viewport             [4]int32 // x, y, width, height
	ClearColor           [4]float32
	Samples              uint32
	LayerCount            uint32
	Flags                RenderPassFlags
	Imported              bool
	BackendHandle         Handle // only set when Imported

	// KeepOverrideStart and KeepOverrideEnd let an importer veto the
	// frame graph's own discard inference: bits set here are cleared
	// from Flags.DiscardStart/DiscardEnd no matter what compile would
	// otherwise have inferred, so the application never loses content
	// it told the frame graph to preserve.
	KeepOverrideStart TargetBufferFlags
	KeepOverrideEnd   TargetBufferFlags
}

// CompileHandler, if non-nil, is invoked on the thread the backend
// chooses to run compilation completion on; if nil, the callback is
// invoked directly on the backend thread.
type CompileHandler interface {
	Post(func())
}

// GPU is the per-session handle factory, resource-update surface, and
// frame-lifecycle contract a backend must satisfy. The frame graph,
// material system, and command stream all depend only on this
// interface.
type GPU interface {
	// --- handle factories / destroyers ---
	CreateTexture(desc TextureDescriptor) Handle
	DestroyTexture(h Handle)
	CreateBuffer(desc BufferDesc) Handle
	DestroyBuffer(h Handle)
	CreateRenderTarget(desc RenderTargetDescriptor) Handle
	DestroyRenderTarget(h Handle)
	CreateDescriptorSetLayout(name string) Handle
	DestroyDescriptorSetLayout(h Handle)
	CreateDescriptorSet(layout Handle) Handle
	DestroyDescriptorSet(h Handle)
	CreateFence() Handle
	DestroyFence(h Handle)
	CreateSync() Handle
	DestroySync(h Handle)
	CreateSwapChain() Handle
	DestroySwapChain(h Handle)

	// --- update / upload ---
	UpdateBuffer(h Handle, offset uint32, bd BufferDescriptor)
	UpdateImage(h Handle, level uint32, bd BufferDescriptor)

	// --- program creation & compile hints ---
	CreateProgram(p Program) Handle
	CompilePrograms(priority Priority, handler CompileHandler, callback func(userData any), userData any)

	// --- frame lifecycle ---
	BeginFrame()
	EndFrame()
	Finish()
	MakeCurrent(drawSC, readSC Handle)
	Commit(sc Handle)

	// --- render pass bracket, used by the frame graph's execute step ---
	BeginRenderPass(rt Handle, desc RenderTargetDescriptor)
	EndRenderPass()
	PushGroupMarker(name string)
	PopGroupMarker()

	// --- fences ---
	Wait(fence Handle, timeoutNanos uint64) bool

	// --- feature queries ---
	FeatureLevel() FeatureLevel
	SupportsStereo() bool
	SupportsParallelShaderCompile() bool
	UBOOffsetAlignment() uint32
}
