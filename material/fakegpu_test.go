package material

import "github.com/anthrosphere/lumen/driverapi"

// fakeGPU is a minimal driverapi.GPU stand-in that hands out
// incrementing handles and counts calls relevant to the material
// package's tests. It does no real backend work.
type fakeGPU struct {
	nextHandle uint32

	layoutsCreated   int
	layoutsDestroyed int
	programsCreated  int
}

var _ driverapi.GPU = (*fakeGPU)(nil)

func (f *fakeGPU) alloc() driverapi.Handle {
	f.nextHandle++
	return driverapi.Handle(f.nextHandle)
}

func (f *fakeGPU) CreateTexture(driverapi.TextureDescriptor) driverapi.Handle { return f.alloc() }
func (f *fakeGPU) DestroyTexture(driverapi.Handle)                            {}
func (f *fakeGPU) CreateBuffer(driverapi.BufferDesc) driverapi.Handle         { return f.alloc() }
func (f *fakeGPU) DestroyBuffer(driverapi.Handle)                             {}
func (f *fakeGPU) CreateRenderTarget(driverapi.RenderTargetDescriptor) driverapi.Handle {
	return f.alloc()
}
func (f *fakeGPU) DestroyRenderTarget(driverapi.Handle) {}
func (f *fakeGPU) CreateDescriptorSetLayout(name string) driverapi.Handle {
	f.layoutsCreated++
	return f.alloc()
}
func (f *fakeGPU) DestroyDescriptorSetLayout(driverapi.Handle) { f.layoutsDestroyed++ }
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

func (f *fakeGPU) CreateProgram(driverapi.Program) driverapi.Handle {
	f.programsCreated++
	return f.alloc()
}
func (f *fakeGPU) CompilePrograms(driverapi.Priority, driverapi.CompileHandler, func(any), any) {}

func (f *fakeGPU) BeginFrame()                                   {}
func (f *fakeGPU) EndFrame()                                     {}
func (f *fakeGPU) Finish()                                       {}
func (f *fakeGPU) MakeCurrent(driverapi.Handle, driverapi.Handle) {}
func (f *fakeGPU) Commit(driverapi.Handle)                        {}

func (f *fakeGPU) BeginRenderPass(driverapi.Handle, driverapi.RenderTargetDescriptor) {}
func (f *fakeGPU) EndRenderPass()                                                     {}
func (f *fakeGPU) PushGroupMarker(string)                                             {}
func (f *fakeGPU) PopGroupMarker()                                                    {}

func (f *fakeGPU) Wait(driverapi.Handle, uint64) bool { return true }

func (f *fakeGPU) FeatureLevel() driverapi.FeatureLevel    { return driverapi.FeatureLevel1 }
func (f *fakeGPU) SupportsStereo() bool                    { return false }
func (f *fakeGPU) SupportsParallelShaderCompile() bool     { return false }
func (f *fakeGPU) UBOOffsetAlignment() uint32              { return 256 }
