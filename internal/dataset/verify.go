package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/shape-dataset-gen/internal/coco"
	"github.com/ironsheep/shape-dataset-gen/internal/detection"
	"github.com/ironsheep/shape-dataset-gen/internal/imaging"
	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// VerifyOptions controls Verify.
type VerifyOptions struct {
	// CanvasSize is the expected width and height of every image.
	CanvasSize int

	// BoxTolerance is how many pixels the foreground may extend past its box.
	// Zero means 1, which absorbs antialiasing.
	BoxTolerance int
}

// Mismatch is an image whose heuristic classification disagrees with its label.
type Mismatch struct {
	Path        string          `json:"path"`
	Want        shapes.Category `json:"want"`
	Got         shapes.Category `json:"got"`
	RadiusRatio float64         `json:"radius_ratio"`
	Peaks       int             `json:"peaks"`
}

// Report is the outcome of a verification pass. Structural problems are returned as
// errors; disagreements with the classifier are only counted here since it is a
// heuristic.
type Report struct {
	Checked       int        `json:"checked"`
	TrainChecked  int        `json:"train_checked"`
	TestChecked   int        `json:"test_checked"`
	Agreed        int        `json:"agreed"`
	Misclassified []Mismatch `json:"misclassified"`

	// Unprofiled counts shapes too small for the classifier.
	Unprofiled int `json:"unprofiled"`
}

// Accuracy returns the share of classified images that agreed with their label.
func (r *Report) Accuracy() float64 {
	n := r.Agreed + len(r.Misclassified)
	if n == 0 {
		return 0
	}
	return float64(r.Agreed) / float64(n)
}

// Verify reads a generated dataset back from disk and checks it:
//   - the annotation file passes coco.Dataset.Validate
//   - every image decodes at CanvasSize×CanvasSize
//   - every training image's foreground lies inside its annotated box
//   - every test image's file name parses and matches the recorded category
//
// Each image is also classified from its pixels and compared with its label.
func Verify(ctx context.Context, ds *coco.Dataset, testFiles []TestFile, opts VerifyOptions) (*Report, error) {
	if opts.BoxTolerance <= 0 {
		opts.BoxTolerance = 1
	}
	if err := ds.Validate(opts.CanvasSize); err != nil {
		return nil, fmt.Errorf("invalid annotations: %w", err)
	}

	report := &Report{Misclassified: []Mismatch{}}
	cache := imaging.NewImageCache()

	for _, s := range ds.Samples() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(s.Labels) == 0 {
			continue
		}
		want, err := shapes.ParseCategory(s.Labels[0])
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", s.ImageID, err)
		}
		box := unionBox(s.Boxes)
		if err := verifyImage(cache, s.FilePath, want, &box, opts, report); err != nil {
			return nil, err
		}
		report.TrainChecked++
	}

	for _, tf := range testFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cat, idx, err := ParseTestFileName(tf.Path)
		if err != nil {
			return nil, err
		}
		if cat != tf.Category || idx != tf.Index {
			return nil, fmt.Errorf("test file %s is named %s_%05d but was generated as %s_%05d",
				tf.Path, cat, idx, tf.Category, tf.Index)
		}
		if err := verifyImage(cache, tf.Path, cat, nil, opts, report); err != nil {
			return nil, err
		}
		report.TestChecked++
	}

	report.Checked = report.TrainChecked + report.TestChecked
	return report, nil
}

// verifyImage checks one image file. When box is set the foreground must fit in it.
func verifyImage(cache *imaging.ImageCache, path string, want shapes.Category, box *[4]int, opts VerifyOptions, report *Report) error {
	img, err := cache.Load(path)
	if err != nil {
		return err
	}
	defer cache.Evict(path)

	b := img.Bounds()
	if b.Dx() != opts.CanvasSize || b.Dy() != opts.CanvasSize {
		return fmt.Errorf("image %s is %dx%d, want %dx%d", path, b.Dx(), b.Dy(), opts.CanvasSize, opts.CanvasSize)
	}

	fg, bg, err := detection.FindForeground(img)
	if err != nil {
		return fmt.Errorf("image %s: %w", path, err)
	}
	if box != nil {
		if !fg.Bounds.Within(*box, opts.BoxTolerance) {
			return fmt.Errorf("image %s: shape pixels %v extend outside box %v", path, fg.Bounds.BBox(), *box)
		}
	}

	cls, err := detection.ClassifyForeground(fg, bg)
	if errors.Is(err, detection.ErrTooSmall) {
		report.Unprofiled++
		return nil
	}
	if err != nil {
		return fmt.Errorf("image %s: %w", path, err)
	}
	if cls.Category == want {
		report.Agreed++
		return nil
	}
	report.Misclassified = append(report.Misclassified, Mismatch{
		Path:        path,
		Want:        want,
		Got:         cls.Category,
		RadiusRatio: cls.RadiusRatio,
		Peaks:       cls.Peaks,
	})
	return nil
}

// unionBox returns the COCO box enclosing every corner box.
func unionBox(corners [][4]int) [4]int {
	u := corners[0]
	for _, c := range corners[1:] {
		u[0], u[1] = min(u[0], c[0]), min(u[1], c[1])
		u[2], u[3] = max(u[2], c[2]), max(u[3], c[3])
	}
	return [4]int{u[0], u[1], u[2] - u[0], u[3] - u[1]}
}

// ListTestFiles scans dir for test images named <shape>_<index>.png, ordered by index.
// Other files are ignored.
func ListTestFiles(dir string) ([]TestFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test directory: %w", err)
	}

	files := make([]TestFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		cat, idx, err := ParseTestFileName(e.Name())
		if err != nil {
			continue
		}
		files = append(files, TestFile{Path: filepath.Join(dir, e.Name()), Category: cat, Index: idx})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Index < files[j].Index })
	return files, nil
}
