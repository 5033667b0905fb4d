package shapes

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Canvas is a square raster filled with a background color that shapes are drawn onto.
type Canvas struct {
	dc         *gg.Context
	size       int
	background Color
}

// NewCanvas creates a size×size canvas filled with bg.
func NewCanvas(size int, bg Color) *Canvas {
	dc := gg.NewContext(size, size)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc, size: size, background: bg}
}

// Size returns the side length of the canvas in pixels.
func (c *Canvas) Size() int { return c.size }

// Background returns the fill color the canvas was created with.
func (c *Canvas) Background() Color { return c.background }

// Image returns the rendered raster. The returned image shares memory with the canvas.
func (c *Canvas) Image() image.Image { return c.dc.Image() }

// FillPolygon fills the closed polygon through points with col. No outline is drawn.
// Fewer than three points draw nothing.
func (c *Canvas) FillPolygon(points []Point, col Color) {
	if len(points) < 3 {
		return
	}
	c.dc.NewSubPath()
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.ClosePath()
	c.dc.SetColor(col)
	c.dc.Fill()
}

// FillEllipse fills the axis-aligned ellipse inscribed in the box at (x, y) with the
// given width and height.
func (c *Canvas) FillEllipse(x, y, width, height float64, col Color) {
	c.dc.DrawEllipse(x+width/2, y+height/2, width/2, height/2)
	c.dc.SetColor(col)
	c.dc.Fill()
}

// Save writes the canvas to path as PNG. The parent directory must exist.
func (c *Canvas) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	if err := c.EncodePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// EncodePNG writes the canvas to w as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := imaging.Encode(w, c.dc.Image(), imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
