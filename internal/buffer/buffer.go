package buffer

import (
	"image"
	"image/color"
)

// Buffer is a dense H×W×3 buffer of linear-referred RGB samples stored as
// float32. It is the working representation for every pipeline stage.
//
// A Buffer is treated as immutable once ingestion has finished: all pipeline
// stages only read from it, so a single Buffer may be shared across
// concurrent audits without locking.
//
// Values are nominally in [0, 1] but may exceed 1.0 for HDR sources; nothing
// in this package rejects or clips out-of-range samples. Color-space
// linearization is the responsibility of an upstream color-management step;
// this package performs no transfer-function math beyond the 16-bit integer
// scaling done in FromImage.
type Buffer struct {
	// Width and Height of the buffer in pixels.
	Width  int
	Height int

	// Pix holds samples in row-major order, three float32 per pixel (R, G, B).
	// Length is Width*Height*3.
	Pix []float32
}

// New allocates a zero-filled buffer of the given dimensions.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}
}

// FromImage converts a decoded image into a float buffer.
//
// Component values come from color.Color.RGBA(), which yields 16-bit
// alpha-premultiplied samples; they are scaled to [0, 1] by dividing by
// 65535. This keeps full precision for 16-bit sources (TIFF, PNG-16) while
// 8-bit sources land on the usual 257-step lattice.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	buf := New(bounds.Dx(), bounds.Dy())

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			buf.Pix[i] = float32(r) / 65535.0
			buf.Pix[i+1] = float32(g) / 65535.0
			buf.Pix[i+2] = float32(b) / 65535.0
			i += 3
		}
	}
	return buf
}

// At returns the RGB triple at (x, y). Coordinates outside the buffer are
// clamped to the nearest edge pixel, matching the replicated-border handling
// used by the convolution stages.
func (b *Buffer) At(x, y int) [3]float32 {
	if b.Width == 0 || b.Height == 0 {
		return [3]float32{}
	}
	if x < 0 {
		x = 0
	} else if x >= b.Width {
		x = b.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= b.Height {
		y = b.Height - 1
	}
	i := (y*b.Width + x) * 3
	return [3]float32{b.Pix[i], b.Pix[i+1], b.Pix[i+2]}
}

// Set writes the RGB triple at (x, y). It is intended for construction only;
// callers hand-building a Buffer must finish all writes before sharing it.
func (b *Buffer) Set(x, y int, rgb [3]float32) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	i := (y*b.Width + x) * 3
	b.Pix[i] = rgb[0]
	b.Pix[i+1] = rgb[1]
	b.Pix[i+2] = rgb[2]
}

// Max returns the largest component value in the buffer. Used to flag HDR
// and near-black signals during ingestion.
func (b *Buffer) Max() float32 {
	var max float32
	for _, v := range b.Pix {
		if v > max {
			max = v
		}
	}
	return max
}

// Gray renders an 8-bit grayscale proxy of the buffer using ITU-R BT.601
// luminance weights. HDR values are clipped to 1.0 first; the proxy feeds
// edge detection, which only cares about local contrast.
func (b *Buffer) Gray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	i := 0
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			lum := 0.299*clip01(b.Pix[i]) + 0.587*clip01(b.Pix[i+1]) + 0.114*clip01(b.Pix[i+2])
			out.SetGray(x, y, color.Gray{Y: uint8(lum*255 + 0.5)})
			i += 3
		}
	}
	return out
}

// ToImage renders the buffer as an 8-bit NRGBA image for overlay and
// artifact output. Values are clipped to [0, 1]; this is a display
// conversion, not part of the audit path.
func (b *Buffer) ToImage() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	i := 0
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(clip01(b.Pix[i])*255 + 0.5),
				G: uint8(clip01(b.Pix[i+1])*255 + 0.5),
				B: uint8(clip01(b.Pix[i+2])*255 + 0.5),
				A: 255,
			})
			i += 3
		}
	}
	return out
}

func clip01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
