package dataset

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shape-dataset-gen/internal/coco"
	"github.com/ironsheep/shape-dataset-gen/internal/config"
	"github.com/ironsheep/shape-dataset-gen/internal/logger"
	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// testConfig returns a seeded configuration writing under a fresh temp dir.
func testConfig(t *testing.T, train, test int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.TrainCount = train
	cfg.TestCount = test
	cfg.TrainDir = filepath.Join(dir, "train_images")
	cfg.TestDir = filepath.Join(dir, "test_images")
	cfg.AnnotationsFile = filepath.Join(dir, "coco_annotations.json")
	cfg.Seed = 42
	return cfg
}

func TestRun_ThreeTrainingImages(t *testing.T) {
	cfg := testConfig(t, 3, 0)

	res, err := Run(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)

	ds, err := coco.Load(cfg.AnnotationsFile)
	require.NoError(t, err)
	require.Len(t, ds.Images, 3)
	require.Len(t, ds.Annotations, 3)

	for i := 0; i < 3; i++ {
		img, ann := ds.Images[i], ds.Annotations[i]
		assert.Equal(t, i+1, img.ID)
		assert.Equal(t, i+1, ann.ID)
		assert.Equal(t, img.ID, ann.ImageID)
		assert.Equal(t, filepath.Join(cfg.TrainDir, fmt.Sprintf("img_%05d.png", i)), img.FileName)
		assert.Equal(t, 256, img.Width)
		assert.Equal(t, 256, img.Height)
		assert.FileExists(t, img.FileName)
	}
	assert.Equal(t, coco.Categories(), ds.Categories)
	assert.Empty(t, res.TestFiles)
	assert.Equal(t, uint64(42), res.Seed)
}

func TestRun_AnnotationInvariants(t *testing.T) {
	cfg := testConfig(t, 40, 0)

	res, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, res.Dataset.Validate(cfg.ImageSize))

	lo, hi := cfg.SizeRange()
	for _, ann := range res.Dataset.Annotations {
		x, y, w, h := ann.BBox[0], ann.BBox[1], ann.BBox[2], ann.BBox[3]
		assert.Equal(t, w, h, "boxes are square")
		assert.GreaterOrEqual(t, w, lo)
		assert.LessOrEqual(t, w, hi)
		assert.GreaterOrEqual(t, x, 0)
		assert.GreaterOrEqual(t, y, 0)
		assert.LessOrEqual(t, x+w, cfg.ImageSize)
		assert.LessOrEqual(t, y+h, cfg.ImageSize)
		assert.Equal(t, w*h, ann.Area)
		assert.Equal(t, 0, ann.IsCrowd)
	}
}

func TestSamplePlan_Invariants(t *testing.T) {
	cfg := testConfig(t, 0, 0)
	gen, err := NewGenerator(cfg, 7, nil)
	require.NoError(t, err)

	lo, hi := cfg.SizeRange()
	for i := 0; i < 2000; i++ {
		p, err := gen.SamplePlan(nil)
		require.NoError(t, err)

		require.True(t, p.Category.Valid())
		require.GreaterOrEqual(t, p.Size, lo)
		require.LessOrEqual(t, p.Size, hi)
		require.GreaterOrEqual(t, p.X, 0)
		require.LessOrEqual(t, p.X+p.Size, cfg.ImageSize)
		require.GreaterOrEqual(t, p.Y, 0)
		require.LessOrEqual(t, p.Y+p.Size, cfg.ImageSize)
		require.NotEqual(t, p.Background, p.Foreground)
		require.GreaterOrEqual(t, p.Rotation, 0.0)
		require.Less(t, p.Rotation, 2*math.Pi)
		for _, ch := range []uint8{p.Background.R, p.Background.G, p.Background.B, p.Foreground.R, p.Foreground.G, p.Foreground.B} {
			require.GreaterOrEqual(t, ch, uint8(shapes.MinChannel))
		}
	}
}

func TestSamplePlan_ShapesSubset(t *testing.T) {
	cfg := testConfig(t, 0, 0)
	cfg.Shapes = []string{"star", "hexagon"}
	gen, err := NewGenerator(cfg, 3, nil)
	require.NoError(t, err)

	seen := map[shapes.Category]int{}
	for i := 0; i < 200; i++ {
		p, err := gen.SamplePlan(nil)
		require.NoError(t, err)
		seen[p.Category]++
	}
	assert.Len(t, seen, 2)
	assert.Positive(t, seen[shapes.Star])
	assert.Positive(t, seen[shapes.Hexagon])
}

func TestSamplePlan_Forced(t *testing.T) {
	cfg := testConfig(t, 0, 0)
	gen, err := NewGenerator(cfg, 1, nil)
	require.NoError(t, err)

	for _, c := range shapes.AllCategories() {
		p, err := gen.SamplePlan(&c)
		require.NoError(t, err)
		assert.Equal(t, c, p.Category)
	}

	bad := shapes.Category(9)
	_, err = gen.SamplePlan(&bad)
	assert.Error(t, err)
}

func TestSamplePlan_SameSeedSamePlans(t *testing.T) {
	cfg := testConfig(t, 0, 0)
	a, err := NewGenerator(cfg, 99, nil)
	require.NoError(t, err)
	b, err := NewGenerator(cfg, 99, nil)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		pa, err := a.SamplePlan(nil)
		require.NoError(t, err)
		pb, err := b.SamplePlan(nil)
		require.NoError(t, err)
		require.Equal(t, pa, pb)
	}
}

func TestNewGenerator_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown shape", func(c *config.Config) { c.Shapes = []string{"triangle"} }},
		{"size range inverted", func(c *config.Config) { c.MinSizeRatio, c.MaxSizeRatio = 0.6, 0.4 }},
		{"shape larger than canvas", func(c *config.Config) { c.MaxSizeRatio = 1.5 }},
		{"zero workers", func(c *config.Config) { c.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, 1, 1)
			tt.mutate(cfg)
			_, err := NewGenerator(cfg, 1, nil)
			assert.Error(t, err)
		})
	}
}

func TestGenerateImage_Records(t *testing.T) {
	cfg := testConfig(t, 0, 0)
	require.NoError(t, os.MkdirAll(cfg.TrainDir, 0o755))
	gen, err := NewGenerator(cfg, 5, nil)
	require.NoError(t, err)

	req := ImageRequest{ImageID: 7, FileName: TrainFileName(6), Dir: cfg.TrainDir, Record: true}
	ann, img, err := gen.GenerateImage(req, 12)
	require.NoError(t, err)
	require.NotNil(t, ann)
	require.NotNil(t, img)

	assert.Equal(t, 12, ann.ID)
	assert.Equal(t, 7, ann.ImageID)
	assert.Equal(t, 7, img.ID)
	assert.Equal(t, req.Path(), img.FileName)
	assert.FileExists(t, req.Path())

	unrecorded := ImageRequest{ImageID: 8, FileName: TrainFileName(7), Dir: cfg.TrainDir}
	ann, img, err = gen.GenerateImage(unrecorded, 13)
	require.NoError(t, err)
	assert.Nil(t, ann)
	assert.Nil(t, img)
	assert.FileExists(t, unrecorded.Path())
}

func TestGenerateImage_WriteFailure(t *testing.T) {
	cfg := testConfig(t, 0, 0)
	gen, err := NewGenerator(cfg, 5, nil)
	require.NoError(t, err)

	req := ImageRequest{ImageID: 1, FileName: "img.png", Dir: filepath.Join(cfg.TrainDir, "missing"), Record: true}
	_, _, err = gen.GenerateImage(req, 1)
	assert.Error(t, err)
}

// TestRun_TestSplitMatchesRender replays the run's draws with the same seed and checks
// every test file's name against the category actually rendered into it.
func TestRun_TestSplitMatchesRender(t *testing.T) {
	cfg := testConfig(t, 5, 12)

	res, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, res.TestFiles, 12)

	replay, err := NewGenerator(cfg, res.Seed, nil)
	require.NoError(t, err)
	for i := 0; i < cfg.TrainCount; i++ {
		_, err := replay.SamplePlan(nil)
		require.NoError(t, err)
	}

	for i, tf := range res.TestFiles {
		cat := replay.SampleCategory()
		plan, err := replay.SamplePlan(&cat)
		require.NoError(t, err)

		name := filepath.Base(tf.Path)
		assert.Equal(t, TestFileName(plan.Category, i), name)
		assert.True(t, strings.HasPrefix(name, plan.Category.Name()+"_"))

		parsed, idx, err := ParseTestFileName(name)
		require.NoError(t, err)
		assert.Equal(t, plan.Category, parsed)
		assert.Equal(t, i, idx)

		var want bytes.Buffer
		require.NoError(t, plan.Render(cfg.ImageSize).EncodePNG(&want))
		got, err := os.ReadFile(tf.Path)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(want.Bytes(), got), "%s differs from its re-render", name)
	}
}

func TestRun_RoundTripCounts(t *testing.T) {
	cfg := testConfig(t, 8, 2)

	res, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	loaded, err := coco.Load(cfg.AnnotationsFile)
	require.NoError(t, err)
	assert.Len(t, loaded.Images, cfg.TrainCount)
	assert.Len(t, loaded.Annotations, cfg.TrainCount)
	assert.Equal(t, res.Dataset, loaded)

	perImage := map[int]int{}
	for _, a := range loaded.Annotations {
		perImage[a.ImageID]++
	}
	for _, img := range loaded.Images {
		assert.Equal(t, 1, perImage[img.ID], "image %d", img.ID)
	}

	// Test images never appear in the annotation file.
	for _, img := range loaded.Images {
		assert.NotContains(t, img.FileName, cfg.TestDir)
	}
}

func TestRun_WorkersProduceIdenticalOutput(t *testing.T) {
	seq := testConfig(t, 12, 6)
	par := testConfig(t, 12, 6)
	par.Workers = 4

	a, err := Run(context.Background(), seq, nil)
	require.NoError(t, err)
	b, err := Run(context.Background(), par, nil)
	require.NoError(t, err)

	require.Len(t, b.Dataset.Images, len(a.Dataset.Images))
	assert.Equal(t, a.Dataset.Annotations, b.Dataset.Annotations)
	for i := range a.Dataset.Images {
		ia, ib := a.Dataset.Images[i], b.Dataset.Images[i]
		assert.Equal(t, ia.ID, ib.ID)
		assert.Equal(t, filepath.Base(ia.FileName), filepath.Base(ib.FileName))
		assertSameFile(t, ia.FileName, ib.FileName)
	}

	require.Len(t, b.TestFiles, len(a.TestFiles))
	for i := range a.TestFiles {
		ta, tb := a.TestFiles[i], b.TestFiles[i]
		assert.Equal(t, ta.Category, tb.Category)
		assert.Equal(t, ta.Index, tb.Index)
		assert.Equal(t, filepath.Base(ta.Path), filepath.Base(tb.Path))
		assertSameFile(t, ta.Path, tb.Path)
	}
}

func assertSameFile(t *testing.T, a, b string) {
	t.Helper()
	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(da, db), "%s and %s differ", a, b)
}

func TestRun_ClockSeed(t *testing.T) {
	cfg := testConfig(t, 1, 1)
	cfg.Seed = 0

	res, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NotZero(t, res.Seed)
}

func TestRun_Canceled(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			cfg := testConfig(t, 5, 5)
			cfg.Workers = workers
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := Run(ctx, cfg, nil)
			assert.ErrorIs(t, err, context.Canceled)
			assert.NoFileExists(t, cfg.AnnotationsFile)
		})
	}
}

func TestRun_Overwrites(t *testing.T) {
	cfg := testConfig(t, 2, 1)

	_, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	res, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	loaded, err := coco.Load(cfg.AnnotationsFile)
	require.NoError(t, err)
	assert.Len(t, loaded.Images, 2)
	assert.Equal(t, res.Dataset, loaded)
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "img_00000.png", TrainFileName(0))
	assert.Equal(t, "img_12345.png", TrainFileName(12345))
	assert.Equal(t, "star_00003.png", TestFileName(shapes.Star, 3))
	assert.Equal(t, "hexagon_00019.png", TestFileName(shapes.Hexagon, 19))
}

func TestParseTestFileName(t *testing.T) {
	tests := []struct {
		name    string
		want    shapes.Category
		wantIdx int
		wantErr bool
	}{
		{"circle_00000.png", shapes.Circle, 0, false},
		{"/data/test_images/pentagon_00042.png", shapes.Pentagon, 42, false},
		{"square_7.png", shapes.Square, 7, false},
		{"img_00000.png", 0, 0, true},
		{"circle.png", 0, 0, true},
		{"circle_.png", 0, 0, true},
		{"circle_abc.png", 0, 0, true},
		{"_00001.png", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, idx, err := ParseTestFileName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat)
			assert.Equal(t, tt.wantIdx, idx)
		})
	}
}
