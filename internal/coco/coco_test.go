package coco

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

func sampleDataset(n int) *Dataset {
	d := NewDataset()
	cats := shapes.AllCategories()
	for i := 0; i < n; i++ {
		id := i + 1
		d.Add(
			Image{ID: id, FileName: filepath.Join("/data/train", "img.png"), Width: 256, Height: 256},
			NewAnnotation(id, id, cats[i%len(cats)], i, 2*i, 80+i),
		)
	}
	return d
}

func TestCategories_FixedTable(t *testing.T) {
	want := []Category{
		{ID: 1, Name: "circle"},
		{ID: 2, Name: "square"},
		{ID: 3, Name: "star"},
		{ID: 4, Name: "pentagon"},
		{ID: 5, Name: "hexagon"},
	}
	assert.Equal(t, want, Categories())
	assert.Equal(t, want, NewDataset().Categories)
}

func TestNewDataset_EmptyArraysNotNull(t *testing.T) {
	enc, err := json.Marshal(NewDataset())
	require.NoError(t, err)
	assert.Contains(t, string(enc), `"images":[]`)
	assert.Contains(t, string(enc), `"annotations":[]`)
}

func TestNewAnnotation(t *testing.T) {
	a := NewAnnotation(7, 3, shapes.Star, 10, 20, 90)
	assert.Equal(t, Annotation{
		ID:         7,
		ImageID:    3,
		CategoryID: 3,
		BBox:       [4]int{10, 20, 90, 90},
		Area:       8100,
		IsCrowd:    0,
	}, a)
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	d := sampleDataset(12)
	path := filepath.Join(t.TempDir(), "nested", "coco.json")

	require.NoError(t, Write(path, d))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, got.Images, 12)
	assert.Len(t, got.Annotations, 12)
	assert.Equal(t, d, got)
}

func TestWrite_FieldOrderAndIndent(t *testing.T) {
	d := sampleDataset(1)
	path := filepath.Join(t.TempDir(), "coco.json")
	require.NoError(t, Write(path, d))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	imagesAt := strings.Index(text, `"images"`)
	annotationsAt := strings.Index(text, `"annotations"`)
	categoriesAt := strings.Index(text, `"categories"`)
	assert.True(t, imagesAt < annotationsAt && annotationsAt < categoriesAt, "top-level key order")
	assert.True(t, strings.HasPrefix(text, "{\n    \"images\""), "4-space indent")

	for _, key := range []string{`"id"`, `"image_id"`, `"category_id"`, `"bbox"`, `"area"`, `"iscrowd"`} {
		assert.Contains(t, text, key)
	}
	assert.Less(t, strings.Index(text, `"image_id"`), strings.Index(text, `"iscrowd"`))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, sampleDataset(20).Validate(256))
	assert.NoError(t, NewDataset().Validate(256))

	tests := []struct {
		name   string
		mutate func(d *Dataset)
	}{
		{"image id gap", func(d *Dataset) { d.Images[1].ID = 5 }},
		{"annotation id not increasing", func(d *Dataset) { d.Annotations[2].ID = 1 }},
		{"first annotation id", func(d *Dataset) { d.Annotations[0].ID = 0 }},
		{"unknown image", func(d *Dataset) { d.Annotations[0].ImageID = 99 }},
		{"unknown category", func(d *Dataset) { d.Annotations[0].CategoryID = 6 }},
		{"bbox outside canvas", func(d *Dataset) { d.Annotations[0].BBox = [4]int{200, 0, 80, 80} }},
		{"negative origin", func(d *Dataset) { d.Annotations[0].BBox[0] = -1 }},
		{"wrong area", func(d *Dataset) { d.Annotations[0].Area++ }},
		{"crowd flag", func(d *Dataset) { d.Annotations[0].IsCrowd = 1 }},
		{"category table", func(d *Dataset) { d.Categories = d.Categories[:4] }},
		{"image size", func(d *Dataset) { d.Images[0].Width = 128 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDataset(5)
			tt.mutate(d)
			assert.Error(t, d.Validate(256))
		})
	}
}

func TestSamples(t *testing.T) {
	d := sampleDataset(3)
	samples := d.Samples()
	require.Len(t, samples, 3)

	for i, s := range samples {
		assert.Equal(t, i+1, s.ImageID)
		require.Len(t, s.Boxes, 1)
		b := d.Annotations[i].BBox
		assert.Equal(t, [4]int{b[0], b[1], b[0] + b[2], b[1] + b[3]}, s.Boxes[0])
	}
	assert.Equal(t, []string{"circle"}, samples[0].Labels)
	assert.Equal(t, []string{"square"}, samples[1].Labels)
}

func TestSamples_SkipsDanglingAnnotations(t *testing.T) {
	d := sampleDataset(2)
	d.Annotations = append(d.Annotations, Annotation{ID: 3, ImageID: 42, CategoryID: 1, BBox: [4]int{0, 0, 1, 1}, Area: 1})
	assert.Len(t, d.Samples(), 2)
}

func TestSummarize(t *testing.T) {
	d := NewDataset()
	d.Add(Image{ID: 1, Width: 256, Height: 256}, NewAnnotation(1, 1, shapes.Circle, 0, 0, 80))
	d.Add(Image{ID: 2, Width: 256, Height: 256}, NewAnnotation(2, 2, shapes.Circle, 0, 0, 100))
	d.Add(Image{ID: 3, Width: 256, Height: 256}, NewAnnotation(3, 3, shapes.Star, 0, 0, 90))

	s := Summarize(d)
	assert.Equal(t, 3, s.Images)
	assert.Equal(t, 3, s.Annotations)
	require.Len(t, s.Categories, 5)

	circle := s.Categories[0]
	assert.Equal(t, 2, circle.Count)
	assert.InDelta(t, 90.0, circle.MeanSide, 1e-9)
	assert.InDelta(t, 8200.0, circle.MeanArea, 1e-9)
	assert.Greater(t, circle.StdDevSide, 0.0)

	star := s.Categories[2]
	assert.Equal(t, 1, star.Count)
	assert.Equal(t, 0.0, star.StdDevSide)

	assert.Equal(t, 0, s.Categories[4].Count)

	_, err := json.Marshal(s)
	assert.NoError(t, err)
}
