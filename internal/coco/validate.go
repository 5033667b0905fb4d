package coco

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a generated dataset:
//   - image ids are 1..N in order
//   - annotation ids start at 1 and strictly increase
//   - every annotation references an existing image and category
//   - boxes lie inside a canvasSize×canvasSize image, area is width×height, iscrowd is 0
//   - the category table matches the fixed shape table
//
// All violations are collected and returned joined.
func (d *Dataset) Validate(canvasSize int) error {
	var errs []error

	want := Categories()
	if len(d.Categories) != len(want) {
		errs = append(errs, fmt.Errorf("category table has %d entries, want %d", len(d.Categories), len(want)))
	} else {
		for i, c := range d.Categories {
			if c != want[i] {
				errs = append(errs, fmt.Errorf("category %d: got %+v, want %+v", i, c, want[i]))
			}
		}
	}

	images := make(map[int]Image, len(d.Images))
	for i, img := range d.Images {
		if img.ID != i+1 {
			errs = append(errs, fmt.Errorf("image %d: id %d, want %d", i, img.ID, i+1))
		}
		if img.Width != canvasSize || img.Height != canvasSize {
			errs = append(errs, fmt.Errorf("image %d: size %dx%d, want %dx%d", img.ID, img.Width, img.Height, canvasSize, canvasSize))
		}
		images[img.ID] = img
	}

	prevID := 0
	for i, a := range d.Annotations {
		if i == 0 && a.ID != 1 {
			errs = append(errs, fmt.Errorf("first annotation id %d, want 1", a.ID))
		}
		if a.ID <= prevID {
			errs = append(errs, fmt.Errorf("annotation %d: id %d not greater than %d", i, a.ID, prevID))
		}
		prevID = a.ID

		img, ok := images[a.ImageID]
		if !ok {
			errs = append(errs, fmt.Errorf("annotation %d: unknown image_id %d", a.ID, a.ImageID))
		}
		if _, ok := d.CategoryName(a.CategoryID); !ok {
			errs = append(errs, fmt.Errorf("annotation %d: unknown category_id %d", a.ID, a.CategoryID))
		}
		if err := checkBox(a.BBox, canvasSize); err != nil {
			errs = append(errs, fmt.Errorf("annotation %d: %w", a.ID, err))
		} else if ok && (a.BBox[0]+a.BBox[2] > img.Width || a.BBox[1]+a.BBox[3] > img.Height) {
			errs = append(errs, fmt.Errorf("annotation %d: bbox %v outside image %d", a.ID, a.BBox, img.ID))
		}
		if a.Area != a.BBox[2]*a.BBox[3] {
			errs = append(errs, fmt.Errorf("annotation %d: area %d, want %d", a.ID, a.Area, a.BBox[2]*a.BBox[3]))
		}
		if a.IsCrowd != 0 {
			errs = append(errs, fmt.Errorf("annotation %d: iscrowd %d, want 0", a.ID, a.IsCrowd))
		}
	}

	return errors.Join(errs...)
}

func checkBox(b [4]int, canvasSize int) error {
	x, y, w, h := b[0], b[1], b[2], b[3]
	if w <= 0 || h <= 0 {
		return fmt.Errorf("bbox %v has non-positive size", b)
	}
	if x < 0 || y < 0 || x+w > canvasSize || y+h > canvasSize {
		return fmt.Errorf("bbox %v outside %dx%d canvas", b, canvasSize, canvasSize)
	}
	return nil
}
