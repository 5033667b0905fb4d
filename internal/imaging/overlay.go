package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// LabeledBox is a COCO box [x, y, width, height] with the label drawn above it.
type LabeledBox struct {
	BBox  [4]int `json:"bbox"`
	Label string `json:"label"`
}

// OverlayStyle controls how DrawAnnotations draws boxes.
type OverlayStyle struct {
	BoxColor   color.Color
	LabelColor color.Color
	LineWidth  float64
}

// DefaultOverlayStyle draws 2px red boxes with yellow labels.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		BoxColor:   color.RGBA{255, 0, 0, 255},
		LabelColor: color.RGBA{255, 255, 0, 255},
		LineWidth:  2,
	}
}

// DrawAnnotations returns a copy of img with every box outlined and labeled. Labels
// that would leave the top edge are drawn inside the box instead.
func DrawAnnotations(img image.Image, boxes []LabeledBox, style OverlayStyle) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(style.LineWidth)

	for _, b := range boxes {
		x, y := float64(b.BBox[0]), float64(b.BBox[1])
		w, h := float64(b.BBox[2]), float64(b.BBox[3])

		dc.SetColor(style.BoxColor)
		dc.DrawRectangle(x, y, w, h)
		dc.Stroke()

		if b.Label == "" {
			continue
		}
		tw, th := dc.MeasureString(b.Label)
		ty := y - 4
		if ty-th < 0 {
			ty = y + th + 2
		}
		dc.SetRGBA(0, 0, 0, 0.7)
		dc.DrawRectangle(x, ty-th, tw+2, th+2)
		dc.Fill()
		dc.SetColor(style.LabelColor)
		dc.DrawString(b.Label, x+1, ty)
	}
	return dc.Image()
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA" (leading '#' optional).
func ParseHexColor(hex string) (color.RGBA, error) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255
	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		r, g, b = uint8(val>>16), uint8(val>>8), uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		r, g, b, a = uint8(val>>24), uint8(val>>16), uint8(val>>8), uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length: %q", hex)
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
