// Package texutil decodes source image bytes into the raw RGBA staging
// data a frame-graph imported texture resource is created from. It
// follows the same decode-then-convert-to-RGBA flow as
// common/types.go's ImportedTexture.Decode, generalized to hand back a
// driverapi.BufferDescriptor ready for UpdateImage instead of a bare
// pixel slice.
package texutil

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	ximagedraw "golang.org/x/image/draw"

	"github.com/anthrosphere/lumen/driverapi"
)

// Staged is a decoded image ready to back a texture resource: RGBA
// pixels plus the dimensions a driverapi.TextureDescriptor needs.
type Staged struct {
	Pixels []byte
	Width  uint32
	Height uint32
}

// DecodeBytes decodes an embedded image (PNG, JPEG, or BMP; the BMP
// decoder is registered by golang.org/x/image/bmp, extending the
// standard library's image.Decode format registry via a blank import)
// into RGBA pixels.
func DecodeBytes(data []byte) (Staged, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Staged{}, fmt.Errorf("texutil: decode embedded image: %w", err)
	}
	return toRGBA(img), nil
}

// DecodeFile decodes an image from disk the same way.
func DecodeFile(path string) (Staged, error) {
	f, err := os.Open(path)
	if err != nil {
		return Staged{}, fmt.Errorf("texutil: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Staged{}, fmt.Errorf("texutil: decode %s: %w", path, err)
	}
	return toRGBA(img), nil
}

func toRGBA(img image.Image) Staged {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return Staged{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}

// Resize produces a new Staged image scaled to width x height using
// a high-quality Catmull-Rom kernel from golang.org/x/image/draw, for
// callers that need to generate a mip chain's coarser levels from a
// decoded base image before uploading each level with UpdateImage.
func Resize(src Staged, width, height uint32) Staged {
	srcImg := &image.RGBA{
		Pix:    src.Pixels,
		Stride: 4 * int(src.Width),
		Rect:   image.Rect(0, 0, int(src.Width), int(src.Height)),
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	ximagedraw.CatmullRom.Scale(dst, dst.Bounds(), srcImg, srcImg.Bounds(), ximagedraw.Over, nil)
	return Staged{Pixels: dst.Pix, Width: width, Height: height}
}

// TextureDescriptor builds the driverapi.TextureDescriptor a decoded
// image should be created with: a single level, single sample, RGBA8,
// sampleable 2D texture.
func (s Staged) TextureDescriptor() driverapi.TextureDescriptor {
	return driverapi.TextureDescriptor{
		Width:   s.Width,
		Height:  s.Height,
		Depth:   1,
		Levels:  1,
		Samples: 1,
		Format:  driverapi.FormatRGBA8,
		Usage:   driverapi.UsageSampleable,
	}
}

// BufferDescriptor wraps the pixel data for an UpdateImage call.
// onRelease, if non-nil, is invoked once the backend has consumed the
// bytes (see driverapi.BufferDescriptor's contract).
func (s Staged) BufferDescriptor(onRelease func()) driverapi.BufferDescriptor {
	return driverapi.BufferDescriptor{Data: s.Pixels, OnRelease: onRelease}
}
