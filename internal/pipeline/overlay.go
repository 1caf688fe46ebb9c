package pipeline

import (
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/cinelab/chart-audit/internal/buffer"
	"github.com/cinelab/chart-audit/internal/geometry"
	"github.com/cinelab/chart-audit/internal/sample"
)

var (
	overlayGreen = color.NRGBA{0, 220, 60, 255}
	overlayRed   = color.NRGBA{235, 40, 40, 255}
	labelFg      = color.NRGBA{255, 255, 255, 255}
	labelBg      = color.NRGBA{0, 0, 0, 180}
)

// writeAlignmentOverlay renders the rectified frame with every sampling
// window outlined and its patch index stamped beside it.
func writeAlignmentOverlay(rectified *buffer.Buffer, patches []sample.Patch, window int, path string) error {
	img := rectified.ToImage()
	half := window / 2
	for _, p := range patches {
		x, y := int(p.X), int(p.Y)
		drawBox(img, x-half, y-half, x+half, y+half, overlayGreen)
		drawLabel(img, x+half+3, y-half, strconv.Itoa(p.Index), labelFg, labelBg)
	}
	return imaging.Save(img, path)
}

// maxOverlayWidth caps detection-check artifacts; full-resolution camera
// plates make multi-megabyte PNGs nobody zooms into.
const maxOverlayWidth = 2000

// writeDetectionOverlay renders the source frame with the oracle's raw
// polygon in red and the resolved corner quad in green.
func writeDetectionOverlay(src *buffer.Buffer, points [][2]float64, corners geometry.CornerSet, path string) error {
	img := src.ToImage()
	drawPolyline(img, points, overlayRed, true)
	drawPolyline(img, corners[:], overlayGreen, true)
	for i, c := range corners {
		drawCross(img, int(c[0]), int(c[1]), 6, overlayGreen)
		drawLabel(img, int(c[0])+8, int(c[1])-8, strconv.Itoa(i), labelFg, labelBg)
	}
	if img.Bounds().Dx() > maxOverlayWidth {
		return imaging.Save(imaging.Resize(img, maxOverlayWidth, 0, imaging.Lanczos), path)
	}
	return imaging.Save(img, path)
}

func drawPolyline(img *image.NRGBA, pts [][2]float64, col color.NRGBA, closed bool) {
	if len(pts) < 2 {
		return
	}
	for i := 0; i < len(pts)-1; i++ {
		drawLine(img, pts[i], pts[i+1], col)
	}
	if closed && len(pts) > 2 {
		drawLine(img, pts[len(pts)-1], pts[0], col)
	}
}

// drawLine steps along the longer axis, one pixel per step.
func drawLine(img *image.NRGBA, a, b [2]float64, col color.NRGBA) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	steps := int(max(abs(dx), abs(dy)))
	if steps == 0 {
		setPixel(img, int(a[0]), int(a[1]), col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		setPixel(img, int(a[0]+dx*t+0.5), int(a[1]+dy*t+0.5), col)
	}
}

func drawBox(img *image.NRGBA, x1, y1, x2, y2 int, col color.NRGBA) {
	for x := x1; x <= x2; x++ {
		setPixel(img, x, y1, col)
		setPixel(img, x, y2, col)
	}
	for y := y1; y <= y2; y++ {
		setPixel(img, x1, y, col)
		setPixel(img, x2, y, col)
	}
}

func drawCross(img *image.NRGBA, x, y, arm int, col color.NRGBA) {
	for d := -arm; d <= arm; d++ {
		setPixel(img, x+d, y, col)
		setPixel(img, x, y+d, col)
	}
}

// glyphs is a 3x5 pixel font covering the characters the overlays stamp.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel stamps text at (x, y) on an opaque backing strip so the label
// survives busy backgrounds.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	const charWidth = 4
	labelWidth := len(text) * charWidth
	for py := y - 1; py < y+6; py++ {
		for px := x - 1; px < x+labelWidth; px++ {
			setPixel(img, px, py, bg)
		}
	}
	for idx, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			continue
		}
		for row, line := range glyph {
			for colIdx, bit := range line {
				if bit == '1' {
					setPixel(img, x+idx*charWidth+colIdx, y+row, fg)
				}
			}
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, col color.NRGBA) {
	if !(image.Point{x, y}).In(img.Bounds()) {
		return
	}
	img.SetNRGBA(x, y, col)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
