// Command lumen-null exercises the frame graph, command stream, and
// material system end to end against the null backend: no window, no
// graphics API, just the Driver-API contract being driven the way a
// real backend would be.
package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log"

	_ "github.com/anthrosphere/lumen/backend/nullbackend"
	"github.com/anthrosphere/lumen/common"
	"github.com/anthrosphere/lumen/driverapi"
	"github.com/anthrosphere/lumen/engine"
	"github.com/anthrosphere/lumen/framegraph"
	"github.com/anthrosphere/lumen/internal/texutil"
)

// frameUniforms mirrors the kind of small per-frame constant block a
// material's UBO batching would stage: just enough fields to exercise
// common.SliceToBytes's reinterpret-as-bytes path end to end.
type frameUniforms struct {
	FrameIndex uint32
	_          [3]uint32 // pad to a 16-byte std140-style stride
}

func main() {
	e, err := engine.New(engine.WithBackend("null"), engine.WithJobSystemThreadCount(2))
	if err != nil {
		log.Fatalf("lumen-null: construct engine: %v", err)
	}
	defer e.Shutdown()

	log.Printf("lumen-null: opened %q backend at feature level %v", "null", e.FeatureLevel())

	checker, err := loadCheckerTexture(e.GPU())
	if err != nil {
		log.Fatalf("lumen-null: load checker texture: %v", err)
	}
	defer e.GPU().DestroyTexture(checker)

	const frameCount = 3
	for frame := 0; frame < frameCount; frame++ {
		runFrame(e, frame)
	}

	if !e.FlushAndWait(driverapi.FenceWaitForever) {
		log.Fatal("lumen-null: flush_and_wait timed out")
	}
	log.Printf("lumen-null: ran %d frames", frameCount)
}

// runFrame builds one frame graph with a single pass that creates a
// scratch color target and clears it as a render pass, the minimal
// shape that exercises Create/DeclareRenderPass/Compile/Execute plus
// the producer-side
// prepare/submit_frame/flush sequence from the engine orchestrator.
func runFrame(e *engine.Engine, frameIndex int) {
	e.Prepare(func(ubo *engine.UBOManager) {
		uniforms := []frameUniforms{{FrameIndex: uint32(frameIndex)}}
		ubo.Stage(0, common.SliceToBytes(uniforms))
	})

	alloc := framegraph.NewResourceAllocator(e.GPU())
	fg := framegraph.New(e.GPU(), alloc, framegraph.ModeUnprotected)

	framegraph.AddPass(fg, "clear-and-copy",
		func(b *framegraph.Builder) {
			color := b.Create("scratch-color", driverapi.TextureDescriptor{
				Width: 256, Height: 256, Depth: 1, Levels: 1, Samples: 1,
				Format: driverapi.FormatRGBA8, Usage: driverapi.UsageColorAttachment,
			})
			b.DeclareRenderPass("clear-and-copy.target", framegraph.RenderPassSetup{
				Color:      [8]framegraph.RenderPassAttachment{{Handle: color}},
				Viewport:   [4]int32{0, 0, 256, 256},
				ClearColor: [4]float32{0, 0, 0, 1},
				ClearFlags: driverapi.ColorAttachmentFlag(0),
				Samples:    1,
			})
			b.SideEffect()
		},
		func(res *framegraph.Resources, gpu driverapi.GPU) {
			gpu.BeginRenderPass(res.RenderTarget(), res.RenderTargetDescriptor())
			gpu.PushGroupMarker("clear-and-copy")
			gpu.PopGroupMarker()
			gpu.EndRenderPass()
		},
	)

	fg.Compile()
	fg.Execute()

	e.SubmitFrame()
	e.Flush()
}

// loadCheckerTexture encodes a small checkerboard as a PNG in memory,
// then decodes it right back through texutil the way a real asset
// pipeline would decode bytes read from disk or an embed.FS, and
// creates+uploads the resulting texture. The frame graph's own
// resources are transient and GPU-allocated per frame; this is the
// sampled-asset path alongside it, staged once at startup.
func loadCheckerTexture(gpu driverapi.GPU) (driverapi.Handle, error) {
	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return driverapi.Invalid, err
	}

	staged, err := texutil.DecodeBytes(buf.Bytes())
	if err != nil {
		return driverapi.Invalid, err
	}

	handle := gpu.CreateTexture(staged.TextureDescriptor())
	gpu.UpdateImage(handle, 0, staged.BufferDescriptor(nil))
	return handle, nil
}
