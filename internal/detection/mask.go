package detection

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/segment"

	"github.com/ironsheep/shape-dataset-gen/internal/imaging"
)

const (
	// cornerPatch is the side of the square sampled at each canvas corner.
	cornerPatch = 2

	// maskLevel is the gray level separating foreground from background.
	maskLevel = 128
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// BBox returns the bounds as a COCO [x, y, width, height] box.
func (b Bounds) BBox() [4]int {
	return [4]int{b.X1, b.Y1, b.Width(), b.Height()}
}

// Within reports whether b lies inside the COCO box bbox grown by tolerance pixels on
// every side.
func (b Bounds) Within(bbox [4]int, tolerance int) bool {
	return b.X1 >= bbox[0]-tolerance &&
		b.Y1 >= bbox[1]-tolerance &&
		b.X2 <= bbox[0]+bbox[2]+tolerance &&
		b.Y2 <= bbox[1]+bbox[3]+tolerance
}

// Foreground summarizes the set pixels of a mask.
type Foreground struct {
	Mask *image.Gray `json:"-"`

	// Bounds encloses every foreground pixel.
	Bounds Bounds `json:"bounds"`

	// CenterX and CenterY are the centroid of the foreground pixel centers.
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`

	// Pixels is the number of foreground pixels.
	Pixels int `json:"pixels"`
}

// EstimateBackground returns the most common color among small patches at the four
// corners of img. Ties go to the top-left patch.
func EstimateBackground(img image.Image) color.Color {
	b := img.Bounds()
	origins := []image.Point{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X - cornerPatch, Y: b.Min.Y},
		{X: b.Min.X, Y: b.Max.Y - cornerPatch},
		{X: b.Max.X - cornerPatch, Y: b.Max.Y - cornerPatch},
	}

	counts := make(map[imaging.RGBColor]int)
	var order []imaging.RGBColor
	for _, o := range origins {
		for y := o.Y; y < o.Y+cornerPatch; y++ {
			for x := o.X; x < o.X+cornerPatch; x++ {
				if !(image.Point{X: x, Y: y}).In(b) {
					continue
				}
				c := imaging.ToRGB(img.At(x, y))
				if counts[c] == 0 {
					order = append(order, c)
				}
				counts[c]++
			}
		}
	}

	var best imaging.RGBColor
	bestCount := 0
	for _, c := range order {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

// ForegroundMask marks every pixel whose Lab distance to bg is at least tolerance.
//
// Returns a mask with the same bounds as img: 255 for foreground, 0 for background.
func ForegroundMask(img image.Image, bg color.Color, tolerance float64) *image.Gray {
	b := img.Bounds()
	dist := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := imaging.ColorDistance(img.At(x, y), bg)
			dist.SetGray(x, y, color.Gray{Y: scaleDistance(d, tolerance)})
		}
	}
	return segment.Threshold(dist, maskLevel)
}

// scaleDistance maps d to gray so that distances below tolerance stay under
// maskLevel and the rest land clearly above it.
func scaleDistance(d, tolerance float64) uint8 {
	if tolerance <= 0 {
		return 255
	}
	if d >= tolerance {
		return uint8(min(255, max(maskLevel+4, d/tolerance*maskLevel)))
	}
	return uint8(d / tolerance * maskLevel)
}

// maxDistance returns the largest Lab distance between any pixel of img and bg.
func maxDistance(img image.Image, bg color.Color) float64 {
	b := img.Bounds()
	maxD := 0.0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			maxD = math.Max(maxD, imaging.ColorDistance(img.At(x, y), bg))
		}
	}
	return maxD
}

// AnalyzeMask computes the bounds and centroid of the set pixels of mask.
//
// # Errors
//
// Returns an error if the mask has no set pixels.
func AnalyzeMask(mask *image.Gray) (*Foreground, error) {
	b := mask.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	var sumX, sumY float64
	n := 0

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y < maskLevel {
				continue
			}
			n++
			sumX += float64(x) + 0.5
			sumY += float64(y) + 0.5
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if n == 0 {
		return nil, fmt.Errorf("no foreground pixels found")
	}

	return &Foreground{
		Mask:    mask,
		Bounds:  Bounds{X1: minX, Y1: minY, X2: maxX + 1, Y2: maxY + 1},
		CenterX: sumX / float64(n),
		CenterY: sumY / float64(n),
		Pixels:  n,
	}, nil
}

// FindForeground estimates the background of img and returns its foreground.
//
// The mask threshold is half the largest distance from the background, so the result
// does not depend on how strongly the shape contrasts with it.
//
// # Errors
//
// Returns an error if the image is a single flat color.
func FindForeground(img image.Image) (*Foreground, color.Color, error) {
	bg := EstimateBackground(img)
	maxD := maxDistance(img, bg)
	if maxD == 0 {
		return nil, bg, fmt.Errorf("image is a single flat color")
	}

	fg, err := AnalyzeMask(ForegroundMask(img, bg, maxD/2))
	if err != nil {
		return nil, bg, err
	}
	return fg, bg, nil
}
