package framegraph

import "github.com/anthrosphere/lumen/driverapi"

// fakeGPU is a minimal driverapi.GPU stand-in for frame graph tests:
// it hands out incrementing handles and records render-target/texture
// creation calls, but performs no real backend work.
type fakeGPU struct {
	nextHandle uint32

	texturesCreated      int
	buffersCreated       int
	renderTargetsCreated int
	markers              []string
}

var _ driverapi.GPU = (*fakeGPU)(nil)

func (f *fakeGPU) alloc() driverapi.Handle {
	f.nextHandle++
	return driverapi.Handle(f.nextHandle)
}

func (f *fakeGPU) CreateTexture(driverapi.TextureDescriptor) driverapi.Handle {
	f.texturesCreated++
	return f.alloc()
}
func (f *fakeGPU) DestroyTexture(driverapi.Handle) {}
func (f *fakeGPU) CreateBuffer(driverapi.BufferDesc) driverapi.Handle {
	f.buffersCreated++
	return f.alloc()
}
func (f *fakeGPU) DestroyBuffer(driverapi.Handle) {}
func (f *fakeGPU) CreateRenderTarget(driverapi.RenderTargetDescriptor) driverapi.Handle {
	f.renderTargetsCreated++
	return f.alloc()
}
func (f *fakeGPU) DestroyRenderTarget(driverapi.Handle)                   {}
func (f *fakeGPU) CreateDescriptorSetLayout(string) driverapi.Handle     { return f.alloc() }
func (f *fakeGPU) DestroyDescriptorSetLayout(driverapi.Handle)           {}
func (f *fakeGPU) CreateDescriptorSet(driverapi.Handle) driverapi.Handle { return f.alloc() }
func (f *fakeGPU) DestroyDescriptorSet(driverapi.Handle)                 {}
func (f *fakeGPU) CreateFence() driverapi.Handle                        { return f.alloc() }
func (f *fakeGPU) DestroyFence(driverapi.Handle)                        {}
func (f *fakeGPU) CreateSync() driverapi.Handle                         { return f.alloc() }
func (f *fakeGPU) DestroySync(driverapi.Handle)                         {}
func (f *fakeGPU) CreateSwapChain() driverapi.Handle                    { return f.alloc() }
func (f *fakeGPU) DestroySwapChain(driverapi.Handle)                    {}

func (f *fakeGPU) UpdateBuffer(driverapi.Handle, uint32, driverapi.BufferDescriptor) {}
func (f *fakeGPU) UpdateImage(driverapi.Handle, uint32, driverapi.BufferDescriptor)  {}

func (f *fakeGPU) CreateProgram(driverapi.Program) driverapi.Handle { return f.alloc() }
func (f *fakeGPU) CompilePrograms(driverapi.Priority, driverapi.CompileHandler, func(any), any) {}

func (f *fakeGPU) BeginFrame()                                    {}
func (f *fakeGPU) EndFrame()                                      {}
func (f *fakeGPU) Finish()                                        {}
func (f *fakeGPU) MakeCurrent(driverapi.Handle, driverapi.Handle) {}
func (f *fakeGPU) Commit(driverapi.Handle)                        {}

func (f *fakeGPU) BeginRenderPass(driverapi.Handle, driverapi.RenderTargetDescriptor) {}
func (f *fakeGPU) EndRenderPass()                                                     {}
func (f *fakeGPU) PushGroupMarker(name string)                                        { f.markers = append(f.markers, "push:"+name) }
func (f *fakeGPU) PopGroupMarker()                                                    { f.markers = append(f.markers, "pop") }

func (f *fakeGPU) Wait(driverapi.Handle, uint64) bool { return true }

func (f *fakeGPU) FeatureLevel() driverapi.FeatureLevel { return driverapi.FeatureLevel1 }
func (f *fakeGPU) SupportsStereo() bool                 { return false }
func (f *fakeGPU) SupportsParallelShaderCompile() bool  { return false }
func (f *fakeGPU) UBOOffsetAlignment() uint32           { return 256 }
