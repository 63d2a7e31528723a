package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gradeworks/omr-engine/internal/detection"
)

// OverlayResult contains the annotated sheet image encoded as base64 PNG.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// AnnotateRows renders the located answer regions onto a copy of the source
// image, outlining every region with a color distinct per row. Useful for
// inspecting what the localizer actually found when a sheet decodes oddly.
func AnnotateRows(img image.Image, rows []detection.Row) (*OverlayResult, error) {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	palette := colorful.FastHappyPalette(len(rows))
	for i, row := range rows {
		r, g, b := palette[i].RGB255()
		outline := color.RGBA{R: r, G: g, B: b, A: 255}

		for _, region := range row.Regions {
			switch shape := region.(type) {
			case detection.Circle:
				drawCircleOutline(result, shape.X, shape.Y, shape.Radius, outline)
			case detection.Cell:
				drawRectOutline(result, shape.Rect, outline)
			default:
				drawRectOutline(result, region.Bounds(), outline)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode overlay image: %w", err)
	}

	return &OverlayResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// drawCircleOutline draws a circle outline using the midpoint algorithm.
func drawCircleOutline(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	set := func(x, y int) {
		if image.Pt(x, y).In(img.Bounds()) {
			img.SetRGBA(x, y, c)
		}
	}

	x := radius
	y := 0
	err := 0
	for x >= y {
		set(cx+x, cy+y)
		set(cx+y, cy+x)
		set(cx-y, cy+x)
		set(cx-x, cy+y)
		set(cx-x, cy-y)
		set(cx-y, cy-x)
		set(cx+y, cy-x)
		set(cx+x, cy-y)

		if err <= 0 {
			y++
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
}

// drawRectOutline draws the one-pixel border of rect, clipped to the image.
func drawRectOutline(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	clipped := rect.Intersect(img.Bounds())
	if clipped.Empty() {
		return
	}
	for x := clipped.Min.X; x < clipped.Max.X; x++ {
		img.SetRGBA(x, clipped.Min.Y, c)
		img.SetRGBA(x, clipped.Max.Y-1, c)
	}
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		img.SetRGBA(clipped.Min.X, y, c)
		img.SetRGBA(clipped.Max.X-1, y, c)
	}
}
