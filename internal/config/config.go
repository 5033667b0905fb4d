// Package config holds the generator settings, their defaults and how they are loaded.
//
// Settings come from three layers, later ones winning:
//
//  1. Default() values, matching the reference dataset layout
//  2. an optional YAML file (path taken from SHAPEGEN_CONFIG by the binaries)
//  3. environment overrides applied by ApplyEnv
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// Environment variables read by ApplyEnv.
const (
	EnvSeed      = "SHAPEGEN_SEED"
	EnvWorkers   = "SHAPEGEN_WORKERS"
	EnvOutputDir = "SHAPEGEN_OUTPUT_DIR"
)

// Config describes one dataset generation run.
type Config struct {
	// ImageSize is the side length of every square image in pixels. Default 256.
	ImageSize int `yaml:"image_size"`

	// TrainCount is the number of annotated training images. Default 200.
	TrainCount int `yaml:"train_count"`

	// TestCount is the number of unannotated, filename-labeled test images. Default 20.
	TestCount int `yaml:"test_count"`

	// Shapes lists the category names sampled for each image. The COCO category table
	// always carries all five categories regardless of this list.
	Shapes []string `yaml:"shapes"`

	// MinSizeRatio and MaxSizeRatio bound the shape side as a fraction of ImageSize.
	// Defaults 0.3 and 0.5.
	MinSizeRatio float64 `yaml:"min_size_ratio"`
	MaxSizeRatio float64 `yaml:"max_size_ratio"`

	TrainDir        string `yaml:"train_dir"`
	TestDir         string `yaml:"test_dir"`
	AnnotationsFile string `yaml:"annotations_file"`

	// Seed makes a run reproducible. Zero means derive one from the clock; the chosen
	// seed is logged and reported.
	Seed uint64 `yaml:"seed"`

	// Workers is the number of goroutines rendering and encoding images. Output is
	// identical for any value.
	Workers int `yaml:"workers"`

	// TrainProgressEvery and TestProgressEvery set how often progress is logged.
	TrainProgressEvery int `yaml:"train_progress_every"`
	TestProgressEvery  int `yaml:"test_progress_every"`

	// Verify reloads the written images after generation and checks them.
	Verify bool `yaml:"verify"`
}

// Default returns the reference configuration.
func Default() *Config {
	names := make([]string, 0, 5)
	for _, c := range shapes.AllCategories() {
		names = append(names, c.Name())
	}
	return &Config{
		ImageSize:          256,
		TrainCount:         200,
		TestCount:          20,
		Shapes:             names,
		MinSizeRatio:       0.3,
		MaxSizeRatio:       0.5,
		TrainDir:           filepath.Join("output-1", "train_images"),
		TestDir:            filepath.Join("output-1", "test_images"),
		AnnotationsFile:    filepath.Join("output-1", "coco_annotations.json"),
		Workers:            1,
		TrainProgressEvery: 1000,
		TestProgressEvery:  100,
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the defaults.
// Keys that do not name a setting are rejected, so a misspelled key cannot silently
// fall back to its default. An empty file leaves the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SHAPEGEN_* environment variables. SHAPEGEN_OUTPUT_DIR
// relocates the train/test directories and the annotation file under a new root,
// keeping their base names.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvSeed)); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSeed, v, err)
		}
		c.Seed = seed
	}
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputDir)); v != "" {
		c.SetOutputDir(v)
	}
	return nil
}

// SetOutputDir moves the train/test directories and the annotation file under dir,
// keeping their base names.
func (c *Config) SetOutputDir(dir string) {
	c.TrainDir = filepath.Join(dir, filepath.Base(c.TrainDir))
	c.TestDir = filepath.Join(dir, filepath.Base(c.TestDir))
	c.AnnotationsFile = filepath.Join(dir, filepath.Base(c.AnnotationsFile))
}

// Resolve turns the output paths absolute so image records carry full paths.
func (c *Config) Resolve() error {
	for _, p := range []*string{&c.TrainDir, &c.TestDir, &c.AnnotationsFile} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

// SizeRange returns the inclusive range of shape side lengths in pixels.
func (c *Config) SizeRange() (lo, hi int) {
	return int(float64(c.ImageSize) * c.MinSizeRatio), int(float64(c.ImageSize) * c.MaxSizeRatio)
}

// Categories parses Shapes. Duplicates are kept, which weights sampling toward them.
func (c *Config) Categories() ([]shapes.Category, error) {
	cats := make([]shapes.Category, 0, len(c.Shapes))
	for _, name := range c.Shapes {
		cat, err := shapes.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("shapes: %w", err)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

// Validate rejects configurations that cannot produce a dataset. Errors name the field.
func (c *Config) Validate() error {
	var errs []error

	if c.ImageSize <= 0 {
		errs = append(errs, fmt.Errorf("image_size must be positive, got %d", c.ImageSize))
	}
	if c.TrainCount < 0 {
		errs = append(errs, fmt.Errorf("train_count must not be negative, got %d", c.TrainCount))
	}
	if c.TestCount < 0 {
		errs = append(errs, fmt.Errorf("test_count must not be negative, got %d", c.TestCount))
	}
	if len(c.Shapes) == 0 {
		errs = append(errs, errors.New("shapes must list at least one category"))
	} else if _, err := c.Categories(); err != nil {
		errs = append(errs, err)
	}
	if c.MinSizeRatio <= 0 || c.MaxSizeRatio <= 0 {
		errs = append(errs, fmt.Errorf("size ratios must be positive, got min=%g max=%g", c.MinSizeRatio, c.MaxSizeRatio))
	} else if c.MinSizeRatio > c.MaxSizeRatio {
		errs = append(errs, fmt.Errorf("min_size_ratio %g exceeds max_size_ratio %g", c.MinSizeRatio, c.MaxSizeRatio))
	} else if c.ImageSize > 0 {
		lo, hi := c.SizeRange()
		if lo < 1 {
			errs = append(errs, fmt.Errorf("min_size_ratio %g gives a shape smaller than one pixel on a %dpx image", c.MinSizeRatio, c.ImageSize))
		}
		if hi > c.ImageSize {
			errs = append(errs, fmt.Errorf("max_size_ratio %g gives a %dpx shape that cannot fit a %dpx image", c.MaxSizeRatio, hi, c.ImageSize))
		}
	}
	if c.TrainDir == "" {
		errs = append(errs, errors.New("train_dir must be set"))
	}
	if c.TestDir == "" {
		errs = append(errs, errors.New("test_dir must be set"))
	}
	if c.AnnotationsFile == "" {
		errs = append(errs, errors.New("annotations_file must be set"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.TrainProgressEvery < 0 || c.TestProgressEvery < 0 {
		errs = append(errs, errors.New("progress intervals must not be negative"))
	}

	return errors.Join(errs...)
}
