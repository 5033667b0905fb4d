package detection

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/shape-dataset-gen/internal/imaging"
	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// ErrTooSmall is returned when a shape covers too few pixels to profile.
var ErrTooSmall = errors.New("shape too small to profile")

// ProfileBins is the number of angular bins in a radial profile (5 degrees each).
const ProfileBins = 72

// Radius-ratio cut points between neighboring categories.
const (
	circleMinRatio   = 0.93
	starMaxRatio     = 0.60
	squareMaxRatio   = 0.76
	pentagonHexSplit = 0.8375
)

// idealRatio is the inradius over circumradius of each shape as rendered.
var idealRatio = map[shapes.Category]float64{
	shapes.Circle:   1.0,
	shapes.Square:   math.Cos(math.Pi / 4),
	shapes.Star:     0.5,
	shapes.Pentagon: math.Cos(math.Pi / 5),
	shapes.Hexagon:  math.Cos(math.Pi / 6),
}

// expectedPeaks is the number of profile lobes per category: one per outer vertex.
// Circles have none and star outlines alternate outer and inner vertices.
var expectedPeaks = map[shapes.Category]int{
	shapes.Square:   shapes.Sides(shapes.Square),
	shapes.Star:     shapes.Sides(shapes.Star) / 2,
	shapes.Pentagon: shapes.Sides(shapes.Pentagon),
	shapes.Hexagon:  shapes.Sides(shapes.Hexagon),
}

// Classification describes the shape found in an image.
type Classification struct {
	// Category is the best-matching shape class.
	Category shapes.Category `json:"category"`

	// Bounds encloses every foreground pixel.
	Bounds Bounds `json:"bounds"`

	// Background is the estimated background color as "#RRGGBB".
	Background string `json:"background"`

	// FillRatio is the share of the bounding box covered by foreground pixels.
	FillRatio float64 `json:"fill_ratio"`

	// RadiusRatio is the smallest over the largest radial profile radius.
	RadiusRatio float64 `json:"radius_ratio"`

	// Peaks is the number of profile lobes above the profile midline.
	Peaks int `json:"peaks"`

	// Confidence is 1.0 when RadiusRatio equals the category's ideal ratio and the
	// lobe count matches, falling toward 0.0 as either drifts.
	Confidence float64 `json:"confidence"`
}

// Classify finds the single shape in img and guesses its category.
//
// Parameters:
//   - img: A rendered image with one filled shape on a flat background.
//
// Returns:
//   - *Classification: The guessed category plus the measurements behind it.
//   - error: If the image is flat or the shape is too small to profile.
//
// # Decision Rules
//
//  1. RadiusRatio >= 0.93: circle
//  2. RadiusRatio < 0.60: star
//  3. RadiusRatio < 0.76: square
//  4. Otherwise pentagon with 5 lobes, hexagon with 6, and the nearer ideal ratio
//     when the lobe count is inconclusive.
func Classify(img image.Image) (*Classification, error) {
	fg, bg, err := FindForeground(img)
	if err != nil {
		return nil, fmt.Errorf("failed to find shape: %w", err)
	}
	return ClassifyForeground(fg, bg)
}

// ClassifyForeground classifies an already extracted foreground. bg is only reported.
func ClassifyForeground(fg *Foreground, bg color.Color) (*Classification, error) {
	profile, err := RadialProfile(fg, ProfileBins)
	if err != nil {
		return nil, err
	}

	rMin, rMax := profileRange(profile)
	ratio := rMin / rMax
	peaks := CountPeaks(profile)
	category := decide(ratio, peaks)

	area := fg.Bounds.Width() * fg.Bounds.Height()
	return &Classification{
		Category:    category,
		Bounds:      fg.Bounds,
		Background:  imaging.ToRGB(bg).Hex(),
		FillRatio:   float64(fg.Pixels) / float64(area),
		RadiusRatio: ratio,
		Peaks:       peaks,
		Confidence:  confidence(category, ratio, peaks),
	}, nil
}

func decide(ratio float64, peaks int) shapes.Category {
	switch {
	case ratio >= circleMinRatio:
		return shapes.Circle
	case ratio < starMaxRatio:
		return shapes.Star
	case ratio < squareMaxRatio:
		return shapes.Square
	case peaks == expectedPeaks[shapes.Pentagon]:
		return shapes.Pentagon
	case peaks == expectedPeaks[shapes.Hexagon]:
		return shapes.Hexagon
	case ratio < pentagonHexSplit:
		return shapes.Pentagon
	default:
		return shapes.Hexagon
	}
}

func confidence(c shapes.Category, ratio float64, peaks int) float64 {
	conf := 1 - math.Abs(ratio-idealRatio[c])*10
	if want, ok := expectedPeaks[c]; ok && want != peaks {
		conf /= 2
	}
	return math.Max(0, math.Min(1, conf))
}

// RadialProfile returns, for each of bins equal angular sectors around the foreground
// centroid, the distance to the farthest foreground pixel center in that sector.
// Bin 0 starts at angle -pi (pointing left) and bins advance clockwise on screen.
//
// # Errors
//
// Returns an error if any sector is empty, which happens when the shape is too small
// for the requested resolution.
func RadialProfile(fg *Foreground, bins int) ([]float64, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bins must be positive, got %d", bins)
	}

	profile := make([]float64, bins)
	seen := make([]bool, bins)
	b := fg.Mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if fg.Mask.GrayAt(x, y).Y < maskLevel {
				continue
			}
			dx := float64(x) + 0.5 - fg.CenterX
			dy := float64(y) + 0.5 - fg.CenterY
			bin := int((math.Atan2(dy, dx) + math.Pi) / (2 * math.Pi) * float64(bins))
			bin %= bins
			seen[bin] = true
			profile[bin] = math.Max(profile[bin], math.Hypot(dx, dy))
		}
	}

	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: sector %d of %d is empty", ErrTooSmall, i, bins)
		}
	}
	return profile, nil
}

// CountPeaks counts the lobes of a circular profile: runs of bins above the midline
// between its minimum and maximum after a 3-bin circular moving average.
//
// Returns 0 for a flat profile.
func CountPeaks(profile []float64) int {
	n := len(profile)
	if n < 3 {
		return 0
	}

	smooth := make([]float64, n)
	for i := range profile {
		smooth[i] = (profile[(i+n-1)%n] + profile[i] + profile[(i+1)%n]) / 3
	}

	lo, hi := profileRange(smooth)
	if hi-lo < 1e-9 {
		return 0
	}
	mid := (lo + hi) / 2

	peaks := 0
	for i := range smooth {
		prev := smooth[(i+n-1)%n]
		if smooth[i] > mid && prev <= mid {
			peaks++
		}
	}
	return peaks
}

func profileRange(profile []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range profile {
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	return lo, hi
}
