// Package coco holds the COCO-style annotation model written for the training split.
//
// Only the subset of the COCO object-detection schema used by the dataset is modeled:
// one axis-aligned box per image, a fixed five-entry category table and no
// segmentation data. Field order in the JSON output follows struct declaration order.
package coco

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// Image describes one rendered training image.
type Image struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"` // Full path to the written raster.
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Annotation is a single labeled bounding box.
type Annotation struct {
	ID         int    `json:"id"`
	ImageID    int    `json:"image_id"`
	CategoryID int    `json:"category_id"`
	BBox       [4]int `json:"bbox"` // x, y, width, height
	Area       int    `json:"area"`
	IsCrowd    int    `json:"iscrowd"`
}

// Category is an entry of the category table.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Dataset is the whole annotation document.
type Dataset struct {
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}

// Categories returns the fixed category table, one entry per shape in declaration order.
func Categories() []Category {
	all := shapes.AllCategories()
	table := make([]Category, len(all))
	for i, c := range all {
		table[i] = Category{ID: c.ID(), Name: c.Name()}
	}
	return table
}

// NewDataset returns an empty dataset carrying the fixed category table.
func NewDataset() *Dataset {
	return &Dataset{
		// Must not be nil as that becomes JSON null.
		Images:      make([]Image, 0),
		Annotations: make([]Annotation, 0),
		Categories:  Categories(),
	}
}

// Add appends an image record and its annotation.
func (d *Dataset) Add(img Image, ann Annotation) {
	d.Images = append(d.Images, img)
	d.Annotations = append(d.Annotations, ann)
}

// NewAnnotation builds the record for a square box of side size at (x, y).
func NewAnnotation(id, imageID int, category shapes.Category, x, y, size int) Annotation {
	return Annotation{
		ID:         id,
		ImageID:    imageID,
		CategoryID: category.ID(),
		BBox:       [4]int{x, y, size, size},
		Area:       size * size,
		IsCrowd:    0,
	}
}

// Write serializes the dataset to path with 4-space indentation, creating the parent
// directory if needed.
func Write(path string, d *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	enc, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode annotations: %w", err)
	}
	if err := os.WriteFile(path, enc, 0o644); err != nil {
		return fmt.Errorf("failed to write annotations %s: %w", path, err)
	}
	return nil
}

// Load reads and parses the dataset at path.
func Load(path string) (*Dataset, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	var d Dataset
	if err := json.Unmarshal(enc, &d); err != nil {
		return nil, fmt.Errorf("failed to parse annotations from %s: %w", path, err)
	}
	return &d, nil
}

// CategoryName returns the name registered for id in the dataset's table.
func (d *Dataset) CategoryName(id int) (string, bool) {
	for _, c := range d.Categories {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}
