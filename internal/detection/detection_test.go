package detection

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// renderShape draws one shape on a fresh canvas, the way the generator does.
func renderShape(c shapes.Category, x, y, size, rotation float64) image.Image {
	canvas := shapes.NewCanvas(256, shapes.Color{R: 60, G: 90, B: 200})
	shapes.ShapeFor(c).Draw(canvas, x, y, size, shapes.Color{R: 240, G: 220, B: 80}, rotation)
	return canvas.Image()
}

func TestEstimateBackground(t *testing.T) {
	img := renderShape(shapes.Circle, 0, 0, 256, 0)

	got := EstimateBackground(img)
	r, g, b, _ := got.RGBA()
	if r>>8 != 60 || g>>8 != 90 || b>>8 != 200 {
		t.Errorf("background: got (%d,%d,%d), want (60,90,200)", r>>8, g>>8, b>>8)
	}
}

func TestFindForeground_WithinBox(t *testing.T) {
	for _, c := range shapes.AllCategories() {
		for _, rot := range []float64{0, 0.7, 2.2} {
			t.Run(fmt.Sprintf("%s/%.1f", c, rot), func(t *testing.T) {
				img := renderShape(c, 40, 30, 120, rot)

				fg, _, err := FindForeground(img)
				if err != nil {
					t.Fatalf("FindForeground failed: %v", err)
				}
				box := [4]int{40, 30, 120, 120}
				if !fg.Bounds.Within(box, 1) {
					t.Errorf("foreground %+v escapes box %v", fg.Bounds, box)
				}
				if fg.CenterX < 98 || fg.CenterX > 102 || fg.CenterY < 88 || fg.CenterY > 92 {
					t.Errorf("centroid (%.1f,%.1f), want near (100,90)", fg.CenterX, fg.CenterY)
				}
			})
		}
	}
}

func TestFindForeground_Flat(t *testing.T) {
	canvas := shapes.NewCanvas(32, shapes.Color{R: 100, G: 100, B: 100})
	if _, _, err := FindForeground(canvas.Image()); err == nil {
		t.Error("expected error for a flat image")
	}
}

func TestForegroundMask(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x >= 3 && x < 6 && y >= 4 && y < 8 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}

	mask := ForegroundMask(img, color.Black, 0.5)
	fg, err := AnalyzeMask(mask)
	if err != nil {
		t.Fatalf("AnalyzeMask failed: %v", err)
	}

	want := Bounds{X1: 3, Y1: 4, X2: 6, Y2: 8}
	if fg.Bounds != want {
		t.Errorf("bounds: got %+v, want %+v", fg.Bounds, want)
	}
	if fg.Pixels != 12 {
		t.Errorf("pixels: got %d, want 12", fg.Pixels)
	}
	if fg.Bounds.BBox() != [4]int{3, 4, 3, 4} {
		t.Errorf("BBox: got %v", fg.Bounds.BBox())
	}
}

func TestAnalyzeMask_Empty(t *testing.T) {
	if _, err := AnalyzeMask(image.NewGray(image.Rect(0, 0, 8, 8))); err == nil {
		t.Error("expected error for an empty mask")
	}
}

func TestBounds_Within(t *testing.T) {
	b := Bounds{X1: 10, Y1: 10, X2: 50, Y2: 50}

	tests := []struct {
		name      string
		bbox      [4]int
		tolerance int
		want      bool
	}{
		{"exact", [4]int{10, 10, 40, 40}, 0, true},
		{"larger", [4]int{0, 0, 100, 100}, 0, true},
		{"one short", [4]int{11, 10, 39, 40}, 0, false},
		{"one short with tolerance", [4]int{11, 10, 39, 40}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Within(tt.bbox, tt.tolerance); got != tt.want {
				t.Errorf("Within(%v, %d) = %v, want %v", tt.bbox, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestCountPeaks(t *testing.T) {
	tests := []struct {
		name    string
		profile []float64
		want    int
	}{
		{"flat", []float64{5, 5, 5, 5, 5, 5}, 0},
		{"too short", []float64{1, 2}, 0},
		{"two lobes", []float64{1, 1, 1, 9, 9, 9, 1, 1, 1, 9, 9, 9}, 2},
		{"lobe across wrap", []float64{9, 9, 1, 1, 1, 1, 1, 1, 1, 1, 9, 9}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountPeaks(tt.profile); got != tt.want {
				t.Errorf("CountPeaks = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRadialProfile_TooSmall(t *testing.T) {
	img := renderShape(shapes.Square, 100, 100, 6, 0)

	fg, _, err := FindForeground(img)
	if err != nil {
		t.Fatalf("FindForeground failed: %v", err)
	}
	_, err = RadialProfile(fg, ProfileBins)
	if !errors.Is(err, ErrTooSmall) {
		t.Errorf("expected ErrTooSmall, got %v", err)
	}
}

func TestClassify_LargeShapes(t *testing.T) {
	for _, c := range shapes.AllCategories() {
		for _, rot := range []float64{0, 0.4, 1.3, 2.9, 5.1} {
			t.Run(fmt.Sprintf("%s/%.1f", c, rot), func(t *testing.T) {
				img := renderShape(c, 28, 28, 200, rot)

				got, err := Classify(img)
				if err != nil {
					t.Fatalf("Classify failed: %v", err)
				}
				if got.Category != c {
					t.Errorf("category: got %s, want %s (ratio %.3f, peaks %d)",
						got.Category, c, got.RadiusRatio, got.Peaks)
				}
				if got.Background != "#3C5AC8" {
					t.Errorf("background: got %s, want #3C5AC8", got.Background)
				}
			})
		}
	}
}

func TestClassify_RadiusRatios(t *testing.T) {
	tests := []struct {
		category shapes.Category
		lo, hi   float64
	}{
		{shapes.Circle, 0.95, 1.0},
		{shapes.Hexagon, 0.84, 0.90},
		{shapes.Pentagon, 0.78, 0.84},
		{shapes.Square, 0.68, 0.74},
		{shapes.Star, 0.45, 0.56},
	}

	for _, tt := range tests {
		t.Run(tt.category.Name(), func(t *testing.T) {
			got, err := Classify(renderShape(tt.category, 28, 28, 200, 0.25))
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if got.RadiusRatio < tt.lo || got.RadiusRatio > tt.hi {
				t.Errorf("radius ratio %.3f outside [%.2f, %.2f]", got.RadiusRatio, tt.lo, tt.hi)
			}
			if got.FillRatio <= 0 || got.FillRatio > 1 {
				t.Errorf("fill ratio %.3f outside (0, 1]", got.FillRatio)
			}
		})
	}
}

func TestClassify_Flat(t *testing.T) {
	canvas := shapes.NewCanvas(64, shapes.Color{R: 50, G: 50, B: 50})
	if _, err := Classify(canvas.Image()); err == nil {
		t.Error("expected error for a flat image")
	}
}

func TestExpectedPeaks(t *testing.T) {
	want := map[shapes.Category]int{
		shapes.Square:   4,
		shapes.Star:     5,
		shapes.Pentagon: 5,
		shapes.Hexagon:  6,
	}
	for c, n := range want {
		if got := expectedPeaks[c]; got != n {
			t.Errorf("expectedPeaks[%v] = %d, want %d", c, got, n)
		}
	}
	if _, ok := expectedPeaks[shapes.Circle]; ok {
		t.Error("circles have no lobes")
	}
}
