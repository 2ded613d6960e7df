package texutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBytesReturnsExpectedDimensions(t *testing.T) {
	data := encodeTestPNG(t, 8, 4)
	staged, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if staged.Width != 8 || staged.Height != 4 {
		t.Fatalf("dimensions = %dx%d, want 8x4", staged.Width, staged.Height)
	}
	if len(staged.Pixels) != 8*4*4 {
		t.Fatalf("pixel buffer len = %d, want %d", len(staged.Pixels), 8*4*4)
	}
}

func TestDecodeBytesInvalidDataErrors(t *testing.T) {
	if _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Error("expected an error decoding non-image bytes")
	}
}

func TestResizeProducesRequestedDimensions(t *testing.T) {
	data := encodeTestPNG(t, 16, 16)
	staged, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	resized := Resize(staged, 4, 4)
	if resized.Width != 4 || resized.Height != 4 {
		t.Fatalf("resized dimensions = %dx%d, want 4x4", resized.Width, resized.Height)
	}
	if len(resized.Pixels) != 4*4*4 {
		t.Fatalf("resized pixel buffer len = %d, want %d", len(resized.Pixels), 4*4*4)
	}
}

func TestTextureDescriptorMatchesStagedDimensions(t *testing.T) {
	staged := Staged{Width: 32, Height: 16}
	desc := staged.TextureDescriptor()
	if desc.Width != 32 || desc.Height != 16 {
		t.Fatalf("descriptor dims = %dx%d, want 32x16", desc.Width, desc.Height)
	}
	if desc.Levels != 1 || desc.Samples != 1 || desc.Depth != 1 {
		t.Fatalf("expected single-level/sample/depth descriptor, got %+v", desc)
	}
}

func TestBufferDescriptorInvokesOnRelease(t *testing.T) {
	released := false
	staged := Staged{Pixels: []byte{1, 2, 3, 4}}
	bd := staged.BufferDescriptor(func() { released = true })
	if bd.OnRelease == nil {
		t.Fatal("expected a non-nil OnRelease")
	}
	bd.OnRelease()
	if !released {
		t.Error("expected OnRelease to be invoked")
	}
}
