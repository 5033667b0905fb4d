package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/shape-dataset-gen/internal/coco"
	"github.com/ironsheep/shape-dataset-gen/internal/config"
	"github.com/ironsheep/shape-dataset-gen/internal/dataset"
	"github.com/ironsheep/shape-dataset-gen/internal/detection"
	"github.com/ironsheep/shape-dataset-gen/internal/imaging"
	"github.com/ironsheep/shape-dataset-gen/internal/shapes"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "dataset_generate", "shape_render").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the dataset/shapes/imaging/detection function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Dataset Operations
	case "dataset_generate":
		return s.handleDatasetGenerate(ctx, args)
	case "dataset_inspect":
		return s.handleDatasetInspect(args)
	case "dataset_verify":
		return s.handleDatasetVerify(ctx, args)

	// Shape Operations
	case "shape_render":
		return s.handleShapeRender(args)
	case "shape_classify":
		return s.handleShapeClassify(args)

	// Image Operations
	case "image_load":
		return s.handleImageLoad(args)
	case "image_annotate":
		return s.handleImageAnnotate(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_dominant_colors":
		return s.handleImageDominantColors(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// forgetImages drops every decoded image so reads after a tool wrote files see the new
// pixels. The cache is keyed by the path string as given, so evicting single paths
// would miss other spellings of the same file.
func (s *Server) forgetImages() {
	if n := s.cache.Len(); n > 0 {
		s.cache.Clear()
		s.log.Debug("image cache cleared", "images", n)
	}
}

func shapeNames() []string {
	names := make([]string, 0, len(shapes.AllCategories()))
	for _, c := range shapes.AllCategories() {
		names = append(names, c.Name())
	}
	return names
}

// === Dataset Handlers ===

type datasetGenerateArgs struct {
	ConfigPath string   `json:"config_path"`
	OutputDir  string   `json:"output_dir"`
	TrainCount *int     `json:"train_count"`
	TestCount  *int     `json:"test_count"`
	ImageSize  int      `json:"image_size"`
	Shapes     []string `json:"shapes"`
	Seed       uint64   `json:"seed"`
	Workers    int      `json:"workers"`
	Verify     bool     `json:"verify"`
}

type datasetGenerateResult struct {
	TrainDir        string `json:"train_dir"`
	TestDir         string `json:"test_dir"`
	AnnotationsFile string `json:"annotations_file"`
	Images          int    `json:"images"`
	*dataset.Result
}

func (s *Server) handleDatasetGenerate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a datasetGenerateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputDir == "" {
		return nil, fmt.Errorf("output_dir is required")
	}

	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.SetOutputDir(a.OutputDir)
	if a.TrainCount != nil {
		cfg.TrainCount = *a.TrainCount
	}
	if a.TestCount != nil {
		cfg.TestCount = *a.TestCount
	}
	if a.ImageSize > 0 {
		cfg.ImageSize = a.ImageSize
	}
	if len(a.Shapes) > 0 {
		cfg.Shapes = a.Shapes
	}
	if a.Seed != 0 {
		cfg.Seed = a.Seed
	}
	if a.Workers > 0 {
		cfg.Workers = a.Workers
	}
	cfg.Verify = cfg.Verify || a.Verify
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}

	res, err := dataset.Run(ctx, cfg, s.log)
	// A rerun into the same directory overwrites images under their old names.
	s.forgetImages()
	if err != nil {
		return nil, err
	}
	return &datasetGenerateResult{
		TrainDir:        cfg.TrainDir,
		TestDir:         cfg.TestDir,
		AnnotationsFile: cfg.AnnotationsFile,
		Images:          len(res.Dataset.Images),
		Result:          res,
	}, nil
}

type datasetInspectArgs struct {
	AnnotationsFile string `json:"annotations_file"`
	Limit           int    `json:"limit"`
}

type datasetInspectResult struct {
	Images      int           `json:"images"`
	Annotations int           `json:"annotations"`
	Categories  []string      `json:"categories"`
	Summary     *coco.Summary `json:"summary"`
	Samples     []coco.Sample `json:"samples"`
	Valid       bool          `json:"valid"`
	Problems    string        `json:"problems,omitempty"`
}

func (s *Server) handleDatasetInspect(args json.RawMessage) (interface{}, error) {
	var a datasetInspectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 10
	}

	ds, err := coco.Load(a.AnnotationsFile)
	if err != nil {
		return nil, err
	}

	samples := ds.Samples()
	if len(samples) > a.Limit {
		samples = samples[:a.Limit]
	}
	names := make([]string, len(ds.Categories))
	for i, c := range ds.Categories {
		names[i] = c.Name
	}

	res := &datasetInspectResult{
		Images:      len(ds.Images),
		Annotations: len(ds.Annotations),
		Categories:  names,
		Summary:     coco.Summarize(ds),
		Samples:     samples,
		Valid:       true,
	}
	if len(ds.Images) > 0 {
		if err := ds.Validate(ds.Images[0].Width); err != nil {
			res.Valid = false
			res.Problems = err.Error()
		}
	}
	return res, nil
}

type datasetVerifyArgs struct {
	AnnotationsFile string `json:"annotations_file"`
	TestDir         string `json:"test_dir"`
	ImageSize       int    `json:"image_size"`
}

func (s *Server) handleDatasetVerify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a datasetVerifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ImageSize <= 0 {
		a.ImageSize = config.Default().ImageSize
	}

	ds, err := coco.Load(a.AnnotationsFile)
	if err != nil {
		return nil, err
	}
	var testFiles []dataset.TestFile
	if a.TestDir != "" {
		testFiles, err = dataset.ListTestFiles(a.TestDir)
		if err != nil {
			return nil, err
		}
	}
	return dataset.Verify(ctx, ds, testFiles, dataset.VerifyOptions{CanvasSize: a.ImageSize})
}

// === Shape Handlers ===

type shapeRenderArgs struct {
	Shape      string  `json:"shape"`
	CanvasSize int     `json:"canvas_size"`
	Size       int     `json:"size"`
	X          *int    `json:"x"`
	Y          *int    `json:"y"`
	Rotation   float64 `json:"rotation"`
	Foreground string  `json:"foreground"`
	Background string  `json:"background"`
	OutputPath string  `json:"output_path"`
}

type shapeRenderResult struct {
	Shape      string `json:"shape"`
	BBox       [4]int `json:"bbox"`
	CanvasSize int    `json:"canvas_size"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Path       string `json:"path,omitempty"`
	*imaging.EncodedImage
}

func (s *Server) handleShapeRender(args json.RawMessage) (interface{}, error) {
	var a shapeRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cat, err := shapes.ParseCategory(a.Shape)
	if err != nil {
		return nil, err
	}
	if a.CanvasSize <= 0 {
		a.CanvasSize = 256
	}
	if a.Size <= 0 {
		a.Size = a.CanvasSize / 2
	}
	x, y := (a.CanvasSize-a.Size)/2, (a.CanvasSize-a.Size)/2
	if a.X != nil {
		x = *a.X
	}
	if a.Y != nil {
		y = *a.Y
	}
	if a.Size > a.CanvasSize || x < 0 || y < 0 || x+a.Size > a.CanvasSize || y+a.Size > a.CanvasSize {
		return nil, fmt.Errorf("box [%d %d %d %d] does not fit a %dpx canvas", x, y, a.Size, a.Size, a.CanvasSize)
	}

	fg, err := parseShapeColor(a.Foreground, "#F0DC50")
	if err != nil {
		return nil, fmt.Errorf("foreground: %w", err)
	}
	bg, err := parseShapeColor(a.Background, "#3C5AC8")
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	canvas := shapes.NewCanvas(a.CanvasSize, bg)
	shapes.ShapeFor(cat).Draw(canvas, float64(x), float64(y), float64(a.Size), fg, a.Rotation)

	res := &shapeRenderResult{
		Shape:      cat.Name(),
		BBox:       [4]int{x, y, a.Size, a.Size},
		CanvasSize: canvas.Size(),
		Background: canvas.Background().Hex(),
		Foreground: fg.Hex(),
	}
	if a.OutputPath != "" {
		err := imaging.SavePNG(a.OutputPath, canvas.Image())
		s.forgetImages()
		if err != nil {
			return nil, err
		}
		res.Path = a.OutputPath
		return res, nil
	}
	res.EncodedImage, err = imaging.EncodePNGBase64(canvas.Image())
	if err != nil {
		return nil, err
	}
	return res, nil
}

func parseShapeColor(hex, fallback string) (shapes.Color, error) {
	if hex == "" {
		hex = fallback
	}
	c, err := imaging.ParseHexColor(hex)
	if err != nil {
		return shapes.Color{}, err
	}
	return shapes.Color{R: c.R, G: c.G, B: c.B}, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleShapeClassify(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return detection.Classify(img)
}

// === Image Handlers ===

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageAnnotateArgs struct {
	Path            string               `json:"path"`
	AnnotationsFile string               `json:"annotations_file"`
	Boxes           []imaging.LabeledBox `json:"boxes"`
	OutputPath      string               `json:"output_path"`
}

type imageAnnotateResult struct {
	Boxes []imaging.LabeledBox `json:"boxes"`
	Path  string               `json:"path,omitempty"`
	*imaging.EncodedImage
}

func (s *Server) handleImageAnnotate(args json.RawMessage) (interface{}, error) {
	var a imageAnnotateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	boxes := a.Boxes
	if a.AnnotationsFile != "" {
		var err error
		boxes, err = boxesForImage(a.AnnotationsFile, a.Path)
		if err != nil {
			return nil, err
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	out := imaging.DrawAnnotations(img, boxes, imaging.DefaultOverlayStyle())

	res := &imageAnnotateResult{Boxes: boxes}
	if a.OutputPath != "" {
		err := imaging.SavePNG(a.OutputPath, out)
		s.forgetImages()
		if err != nil {
			return nil, err
		}
		res.Path = a.OutputPath
		return res, nil
	}
	res.EncodedImage, err = imaging.EncodePNGBase64(out)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// boxesForImage returns the labeled boxes recorded for path. Images are matched by
// full path first, then by base name so a moved dataset still resolves.
func boxesForImage(annotationsFile, path string) ([]imaging.LabeledBox, error) {
	ds, err := coco.Load(annotationsFile)
	if err != nil {
		return nil, err
	}

	imageID := 0
	for _, img := range ds.Images {
		if img.FileName == path {
			imageID = img.ID
			break
		}
	}
	if imageID == 0 {
		for _, img := range ds.Images {
			if filepath.Base(img.FileName) == filepath.Base(path) {
				imageID = img.ID
				break
			}
		}
	}
	if imageID == 0 {
		return nil, fmt.Errorf("image %s not found in %s", path, annotationsFile)
	}

	boxes := make([]imaging.LabeledBox, 0, 1)
	for _, ann := range ds.Annotations {
		if ann.ImageID != imageID {
			continue
		}
		label, _ := ds.CategoryName(ann.CategoryID)
		boxes = append(boxes, imaging.LabeledBox{BBox: ann.BBox, Label: label})
	}
	return boxes, nil
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    *int   `json:"x"`
	Y    *int   `json:"y"`
}

type imageSampleColorResult struct {
	X int `json:"x"`
	Y int `json:"y"`
	*imaging.ColorResult
	Background imaging.ColorResult `json:"background"`

	// Distance is the CIE Lab distance from the estimated background.
	Distance     float64 `json:"distance"`
	IsBackground bool    `json:"is_background"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.X == nil || a.Y == nil {
		return nil, fmt.Errorf("x and y are required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	sample, err := imaging.SampleColor(img, *a.X, *a.Y)
	if err != nil {
		return nil, err
	}

	bg := detection.EstimateBackground(img)
	dist := imaging.ColorDistance(sample.RGB, bg)
	return &imageSampleColorResult{
		X:            *a.X,
		Y:            *a.Y,
		ColorResult:  sample,
		Background:   imaging.NewColorResult(bg),
		Distance:     dist,
		IsBackground: dist == 0,
	}, nil
}

type imageCropArgs struct {
	Path    string  `json:"path"`
	BBox    [4]int  `json:"bbox"`
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	cropped, err := imaging.CropBox(img, a.BBox, a.Padding, a.Scale)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNGBase64(cropped)
}

type imageDominantColorsArgs struct {
	Path   string          `json:"path"`
	Count  int             `json:"count"`
	Region *imaging.Region `json:"region"`
}

func (s *Server) handleImageDominantColors(args json.RawMessage) (interface{}, error) {
	var a imageDominantColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count <= 0 {
		a.Count = 5
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.DominantColors(img, a.Count, a.Region)
}
