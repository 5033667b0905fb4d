package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/shape-dataset-gen/internal/coco"
	"github.com/ironsheep/shape-dataset-gen/internal/config"
	"github.com/ironsheep/shape-dataset-gen/internal/logger"
	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// TestFile is one image of the unannotated test split. The category is also encoded in
// the file name.
type TestFile struct {
	Path     string          `json:"path"`
	Category shapes.Category `json:"category"`
	Index    int             `json:"index"`
}

// Result is everything a run produced.
type Result struct {
	Dataset      *coco.Dataset `json:"-"`
	TestFiles    []TestFile    `json:"test_files"`
	Seed         uint64        `json:"seed"`
	Summary      *coco.Summary `json:"summary"`
	Verification *Report       `json:"verification,omitempty"`
}

// TrainFileName returns the training image name for zero-based index i.
func TrainFileName(i int) string {
	return fmt.Sprintf("img_%05d.png", i)
}

// TestFileName returns the test image name for zero-based index i showing category c.
func TestFileName(c shapes.Category, i int) string {
	return fmt.Sprintf("%s_%05d.png", c.Name(), i)
}

// ParseTestFileName recovers the category and index from a test image name or path.
func ParseTestFileName(name string) (shapes.Category, int, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	sep := strings.LastIndex(stem, "_")
	if sep <= 0 || sep == len(stem)-1 {
		return 0, 0, fmt.Errorf("test file name %q is not <shape>_<index>", base)
	}
	cat, err := shapes.ParseCategory(stem[:sep])
	if err != nil {
		return 0, 0, fmt.Errorf("test file name %q: %w", base, err)
	}
	idx, err := strconv.Atoi(stem[sep+1:])
	if err != nil || idx < 0 {
		return 0, 0, fmt.Errorf("test file name %q has invalid index", base)
	}
	return cat, idx, nil
}

// Run generates the training and test splits described by cfg and writes the
// annotation file. Any error aborts the run; rerunning overwrites previous output.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Result, error) {
	if log == nil {
		log = logger.Nop()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gen, err := NewGenerator(cfg, seed, log)
	if err != nil {
		return nil, err
	}
	log.Info("starting generation",
		"seed", gen.Seed(),
		"train", cfg.TrainCount,
		"test", cfg.TestCount,
		"workers", cfg.Workers,
		"image_size", cfg.ImageSize)

	for _, dir := range []string{cfg.TrainDir, cfg.TestDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	var (
		ds        *coco.Dataset
		testFiles []TestFile
	)
	if cfg.Workers > 1 {
		ds, testFiles, err = gen.runParallel(ctx)
	} else {
		ds, testFiles, err = gen.runSequential(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := coco.Write(cfg.AnnotationsFile, ds); err != nil {
		return nil, err
	}
	log.Info("COCO annotations saved", "path", cfg.AnnotationsFile, "images", len(ds.Images))

	res := &Result{
		Dataset:   ds,
		TestFiles: testFiles,
		Seed:      gen.Seed(),
		Summary:   coco.Summarize(ds),
	}

	if cfg.Verify {
		report, err := Verify(ctx, ds, testFiles, VerifyOptions{CanvasSize: cfg.ImageSize})
		if err != nil {
			return nil, err
		}
		res.Verification = report
		log.Info("verification finished",
			"checked", report.Checked,
			"accuracy", report.Accuracy(),
			"misclassified", len(report.Misclassified))
	}

	log.Info("all images generated", "train_dir", cfg.TrainDir, "test_dir", cfg.TestDir)
	return res, nil
}

// runSequential generates one image at a time, threading the annotation counter
// through the training loop.
func (g *Generator) runSequential(ctx context.Context) (*coco.Dataset, []TestFile, error) {
	cfg := g.cfg
	ds := coco.NewDataset()

	nextAnnotationID := 1
	for i := 0; i < cfg.TrainCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		req := ImageRequest{ImageID: i + 1, FileName: TrainFileName(i), Dir: cfg.TrainDir, Record: true}
		ann, img, err := g.GenerateImage(req, nextAnnotationID)
		if err != nil {
			return nil, nil, err
		}
		ds.Add(*img, *ann)
		nextAnnotationID++
		g.progress("training", i+1, cfg.TrainCount, cfg.TrainProgressEvery)
	}

	testFiles := make([]TestFile, 0, cfg.TestCount)
	for i := 0; i < cfg.TestCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		cat := g.SampleCategory()
		req := ImageRequest{ImageID: i + 1, FileName: TestFileName(cat, i), Dir: cfg.TestDir, Forced: &cat}
		if _, _, err := g.GenerateImage(req, 0); err != nil {
			return nil, nil, err
		}
		testFiles = append(testFiles, TestFile{Path: req.Path(), Category: cat, Index: i})
		g.progress("test", i+1, cfg.TestCount, cfg.TestProgressEvery)
	}

	return ds, testFiles, nil
}

type job struct {
	plan Plan
	req  ImageRequest
	pass string
}

// runParallel samples every plan up front on the calling goroutine, in the same draw
// order as runSequential, then renders and encodes on cfg.Workers goroutines. Records
// are assembled in generation order afterwards, so ids and file contents match a
// sequential run with the same seed.
func (g *Generator) runParallel(ctx context.Context) (*coco.Dataset, []TestFile, error) {
	cfg := g.cfg
	jobs := make([]job, 0, cfg.TrainCount+cfg.TestCount)

	for i := 0; i < cfg.TrainCount; i++ {
		plan, err := g.SamplePlan(nil)
		if err != nil {
			return nil, nil, err
		}
		req := ImageRequest{ImageID: i + 1, FileName: TrainFileName(i), Dir: cfg.TrainDir, Record: true}
		jobs = append(jobs, job{plan: plan, req: req, pass: "training"})
	}
	for i := 0; i < cfg.TestCount; i++ {
		cat := g.SampleCategory()
		plan, err := g.SamplePlan(&cat)
		if err != nil {
			return nil, nil, err
		}
		req := ImageRequest{ImageID: i + 1, FileName: TestFileName(cat, i), Dir: cfg.TestDir, Forced: &cat}
		jobs = append(jobs, job{plan: plan, req: req, pass: "test"})
	}

	var trainDone, testDone atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Workers)
	for _, j := range jobs {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := g.write(j.plan, j.req.Path()); err != nil {
				return err
			}
			if j.pass == "training" {
				g.progress(j.pass, int(trainDone.Add(1)), cfg.TrainCount, cfg.TrainProgressEvery)
			} else {
				g.progress(j.pass, int(testDone.Add(1)), cfg.TestCount, cfg.TestProgressEvery)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ds := coco.NewDataset()
	testFiles := make([]TestFile, 0, cfg.TestCount)
	nextAnnotationID := 1
	for _, j := range jobs {
		if j.req.Record {
			ann, img := g.records(j.plan, j.req, nextAnnotationID)
			ds.Add(img, ann)
			nextAnnotationID++
			continue
		}
		testFiles = append(testFiles, TestFile{Path: j.req.Path(), Category: j.plan.Category, Index: j.req.ImageID - 1})
	}
	return ds, testFiles, nil
}

func (g *Generator) progress(pass string, done, total, every int) {
	if every <= 0 {
		return
	}
	if done%every == 0 || done == total {
		g.log.Info("images created", "pass", pass, "done", done, "total", total)
	}
}
