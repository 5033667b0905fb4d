// Package dataset generates the shape images and assembles their annotations.
//
// Generation is split in two steps. A Plan holds every random draw for one image and is
// sampled sequentially from the Generator's seeded source; rendering a plan is
// deterministic. Keeping the draws in program order on one goroutine is what makes a
// run reproducible for a fixed seed, even when rendering is spread over workers.
package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"

	"github.com/ironsheep/shape-dataset-gen/internal/coco"
	"github.com/ironsheep/shape-dataset-gen/internal/config"
	"github.com/ironsheep/shape-dataset-gen/internal/logger"
	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// Plan is the full set of random choices for one image.
type Plan struct {
	Category   shapes.Category `json:"category"`
	Background shapes.Color    `json:"background"`
	Foreground shapes.Color    `json:"foreground"`
	Size       int             `json:"size"`
	X          int             `json:"x"`
	Y          int             `json:"y"`
	Rotation   float64         `json:"rotation"`
}

// Render draws the plan on a fresh canvasSize×canvasSize canvas.
func (p Plan) Render(canvasSize int) *shapes.Canvas {
	canvas := shapes.NewCanvas(canvasSize, p.Background)
	if s := shapes.ShapeFor(p.Category); s != nil {
		s.Draw(canvas, float64(p.X), float64(p.Y), float64(p.Size), p.Foreground, p.Rotation)
	}
	return canvas
}

// BBox returns the annotation box (x, y, width, height).
func (p Plan) BBox() [4]int {
	return [4]int{p.X, p.Y, p.Size, p.Size}
}

// Generator samples and renders images for one configuration.
type Generator struct {
	cfg        *config.Config
	categories []shapes.Category
	rng        *rand.Rand
	seed       uint64
	log        *logger.Logger
}

// NewGenerator validates cfg and seeds a PCG source with seed.
func NewGenerator(cfg *config.Config, seed uint64, log *logger.Logger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cats, err := cfg.Categories()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{
		cfg:        cfg,
		categories: cats,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed:       seed,
		log:        log,
	}, nil
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() uint64 { return g.seed }

// SampleCategory draws a category uniformly from the configured shapes.
func (g *Generator) SampleCategory() shapes.Category {
	return g.categories[g.rng.IntN(len(g.categories))]
}

// SamplePlan draws the random choices for one image. The draw order is fixed:
// background, category (skipped when forced), size, x, y, foreground, rotation.
func (g *Generator) SamplePlan(forced *shapes.Category) (Plan, error) {
	canvas := g.cfg.ImageSize
	lo, hi := g.cfg.SizeRange()
	if lo < 1 || hi < lo || hi > canvas {
		return Plan{}, fmt.Errorf("shape size range [%d,%d] does not fit a %dpx canvas", lo, hi, canvas)
	}

	var p Plan
	p.Background = shapes.SampleColor(g.rng)

	if forced != nil {
		if !forced.Valid() {
			return Plan{}, fmt.Errorf("invalid forced category %d", int(*forced))
		}
		p.Category = *forced
	} else {
		p.Category = g.SampleCategory()
	}

	p.Size = lo + g.rng.IntN(hi-lo+1)
	p.X = g.rng.IntN(canvas - p.Size + 1)
	p.Y = g.rng.IntN(canvas - p.Size + 1)
	p.Foreground = shapes.SampleContrastingColor(g.rng, p.Background)
	p.Rotation = g.rng.Float64() * 2 * math.Pi
	return p, nil
}

// ImageRequest describes one image to generate.
type ImageRequest struct {
	ImageID  int
	FileName string
	Dir      string
	Record   bool
	Forced   *shapes.Category
}

// Path returns the destination file path.
func (r ImageRequest) Path() string {
	return filepath.Join(r.Dir, r.FileName)
}

// GenerateImage samples a plan, renders it and writes it to req.Path(). When req.Record
// is set it returns the image record and an annotation with id annotationID; the caller
// owns the annotation counter. Otherwise both records are nil.
func (g *Generator) GenerateImage(req ImageRequest, annotationID int) (*coco.Annotation, *coco.Image, error) {
	plan, err := g.SamplePlan(req.Forced)
	if err != nil {
		return nil, nil, err
	}
	if err := g.write(plan, req.Path()); err != nil {
		return nil, nil, err
	}
	if !req.Record {
		return nil, nil, nil
	}
	ann, img := g.records(plan, req, annotationID)
	return &ann, &img, nil
}

func (g *Generator) write(plan Plan, path string) error {
	canvas := plan.Render(g.cfg.ImageSize)
	if err := canvas.Save(path); err != nil {
		return err
	}
	g.log.Debug("image written", "path", path, "category", plan.Category.Name(), "bbox", plan.BBox())
	return nil
}

func (g *Generator) records(plan Plan, req ImageRequest, annotationID int) (coco.Annotation, coco.Image) {
	img := coco.Image{
		ID:       req.ImageID,
		FileName: req.Path(),
		Width:    g.cfg.ImageSize,
		Height:   g.cfg.ImageSize,
	}
	ann := coco.NewAnnotation(annotationID, req.ImageID, plan.Category, plan.X, plan.Y, plan.Size)
	return ann, img
}
