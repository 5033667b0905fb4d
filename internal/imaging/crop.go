package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// EncodedImage is a PNG image ready to hand to a client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNGBase64 encodes img as base64 PNG.
func EncodePNGBase64(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG writes img to path as PNG, creating the parent directory.
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// CropBox extracts the COCO box [x, y, width, height] grown by padding pixels on every
// side (clamped to the image) and scales the result by scale.
//
// # Errors
//
// Returns an error if the box has no area or lies outside the image.
func CropBox(img image.Image, bbox [4]int, padding int, scale float64) (image.Image, error) {
	bounds := img.Bounds()
	x, y, w, h := bbox[0], bbox[1], bbox[2], bbox[3]
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid crop box %v: width and height must be positive", bbox)
	}

	rect := image.Rect(x, y, x+w, y+h)
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop box %v outside image bounds (%d,%d)-(%d,%d)",
			bbox, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if padding > 0 {
		rect = rect.Inset(-padding).Intersect(bounds)
	}

	var cropped image.Image = imaging.Crop(img, rect)
	if scale > 0 && scale != 1.0 {
		newWidth := int(float64(rect.Dx()) * scale)
		newHeight := int(float64(rect.Dy()) * scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %g shrinks crop box %v to nothing", scale, bbox)
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}
