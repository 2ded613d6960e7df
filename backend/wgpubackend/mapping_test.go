package wgpubackend

import (
	"testing"

	"github.com/anthrosphere/lumen/driverapi"
	"github.com/cogentcore/webgpu/wgpu"
)

// These exercise the pure descriptor-mapping helpers only: everything
// else in this package needs a real adapter and isn't covered here.

func TestTextureFormatMapping(t *testing.T) {
	cases := map[driverapi.TextureFormat]wgpu.TextureFormat{
		driverapi.FormatRGBA8:         wgpu.TextureFormatRGBA8Unorm,
		driverapi.FormatRGBA16F:       wgpu.TextureFormatRGBA16Float,
		driverapi.FormatDepth24:       wgpu.TextureFormatDepth24Plus,
		driverapi.FormatDepth32F:      wgpu.TextureFormatDepth32Float,
		driverapi.FormatDepth24Stencil8: wgpu.TextureFormatDepth24PlusStencil8,
	}
	for in, want := range cases {
		if got := textureFormat(in); got != want {
			t.Errorf("textureFormat(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestTextureFormatUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unknown texture format")
		}
	}()
	textureFormat(driverapi.TextureFormat(99))
}

func TestTextureUsageAlwaysIncludesCopyDst(t *testing.T) {
	got := textureUsage(driverapi.UsageNone)
	if got&wgpu.TextureUsageCopyDst == 0 {
		t.Error("expected every mapped texture usage to include CopyDst for UpdateImage")
	}
}

func TestTextureUsageMapsColorAttachment(t *testing.T) {
	got := textureUsage(driverapi.UsageColorAttachment)
	if got&wgpu.TextureUsageRenderAttachment == 0 {
		t.Error("expected UsageColorAttachment to map to RenderAttachment")
	}
}

func TestBufferUsageAlwaysIncludesCopyDst(t *testing.T) {
	got := bufferUsage(driverapi.BufferUsageVertex)
	if got&wgpu.BufferUsageCopyDst == 0 {
		t.Error("expected every mapped buffer usage to include CopyDst for UpdateBuffer")
	}
	if got&wgpu.BufferUsageVertex == 0 {
		t.Error("expected BufferUsageVertex to map through")
	}
}

func TestMax32(t *testing.T) {
	if max32(0, 1) != 1 {
		t.Error("expected max32 to raise a zero value to the floor")
	}
	if max32(4, 1) != 4 {
		t.Error("expected max32 to leave a value above the floor unchanged")
	}
}
