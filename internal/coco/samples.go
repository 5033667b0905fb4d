package coco

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sample is the per-image view a detector training loop consumes: the image path, the
// label of every box and the boxes as corner coordinates.
type Sample struct {
	ImageID  int      `json:"image_id"`
	FilePath string   `json:"file_path"`
	Labels   []string `json:"labels"`
	Boxes    [][4]int `json:"boxes"` // x1, y1, x2, y2
}

// Samples groups annotations by image in image order. Annotations whose image or
// category is missing are skipped; images without annotations are omitted.
func (d *Dataset) Samples() []Sample {
	paths := make(map[int]string, len(d.Images))
	for _, img := range d.Images {
		paths[img.ID] = img.FileName
	}

	byImage := make(map[int]*Sample)
	order := make([]int, 0, len(d.Images))
	for _, a := range d.Annotations {
		path, ok := paths[a.ImageID]
		if !ok {
			continue
		}
		label, ok := d.CategoryName(a.CategoryID)
		if !ok {
			continue
		}
		s, ok := byImage[a.ImageID]
		if !ok {
			s = &Sample{ImageID: a.ImageID, FilePath: path}
			byImage[a.ImageID] = s
			order = append(order, a.ImageID)
		}
		s.Labels = append(s.Labels, label)
		s.Boxes = append(s.Boxes, Corners(a.BBox))
	}

	sort.Ints(order)
	samples := make([]Sample, 0, len(order))
	for _, id := range order {
		samples = append(samples, *byImage[id])
	}
	return samples
}

// Corners converts an (x, y, width, height) box to (x1, y1, x2, y2).
func Corners(b [4]int) [4]int {
	return [4]int{b[0], b[1], b[0] + b[2], b[1] + b[3]}
}

// CategoryStats summarizes the boxes of one category.
type CategoryStats struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	MeanSide   float64 `json:"mean_side"`
	StdDevSide float64 `json:"stddev_side"`
	MeanArea   float64 `json:"mean_area"`
}

// Summary is an overview of a dataset.
type Summary struct {
	Images      int             `json:"images"`
	Annotations int             `json:"annotations"`
	Categories  []CategoryStats `json:"categories"`
}

// Summarize counts annotations per category and computes box size statistics. Every
// entry of the category table is reported, including those with no annotations.
func Summarize(d *Dataset) *Summary {
	sides := make(map[int][]float64, len(d.Categories))
	areas := make(map[int][]float64, len(d.Categories))
	for _, a := range d.Annotations {
		side := float64(a.BBox[2]+a.BBox[3]) / 2
		sides[a.CategoryID] = append(sides[a.CategoryID], side)
		areas[a.CategoryID] = append(areas[a.CategoryID], float64(a.Area))
	}

	summary := &Summary{
		Images:      len(d.Images),
		Annotations: len(d.Annotations),
		Categories:  make([]CategoryStats, 0, len(d.Categories)),
	}
	for _, c := range d.Categories {
		cs := CategoryStats{ID: c.ID, Name: c.Name, Count: len(sides[c.ID])}
		if cs.Count > 0 {
			cs.MeanSide, cs.StdDevSide = stat.MeanStdDev(sides[c.ID], nil)
			cs.MeanArea = stat.Mean(areas[c.ID], nil)
		}
		if cs.Count < 2 {
			cs.StdDevSide = 0
		}
		summary.Categories = append(summary.Categories, cs)
	}
	return summary
}
