package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Dataset Operations
		{
			Name:        "dataset_generate",
			Description: "Generate a shape dataset: annotated training images with a COCO annotation file and a filename-labeled test split. Unset arguments fall back to the config file, then to the defaults (256px images, 200 train, 20 test).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"config_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional YAML config file to start from",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory receiving train_images/, test_images/ and coco_annotations.json",
					},
					"train_count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of annotated training images",
					},
					"test_count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of unannotated test images",
					},
					"image_size": map[string]interface{}{
						"type":        "integer",
						"description": "Side length of each square image in pixels",
					},
					"shapes": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string", "enum": shapeNames()},
						"description": "Shapes to sample from. Default all five",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed for a reproducible dataset. 0 picks one from the clock",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Number of render goroutines. Output does not depend on it",
					},
					"verify": map[string]interface{}{
						"type":        "boolean",
						"description": "Read the images back and check them after generation",
					},
				},
				"required": []string{"output_dir"},
			},
		},
		{
			Name:        "dataset_inspect",
			Description: "Summarize a COCO annotation file: per-category counts, box size statistics and the first samples as corner boxes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"annotations_file": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the COCO annotation JSON",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of samples to return. Default 10",
						"default":     10,
					},
				},
				"required": []string{"annotations_file"},
			},
		},
		{
			Name:        "dataset_verify",
			Description: "Check a generated dataset on disk: annotation structure, image sizes, shapes inside their boxes and test file names, plus a pixel-based shape classification of every image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"annotations_file": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the COCO annotation JSON",
					},
					"test_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory of <shape>_<index>.png test images",
					},
					"image_size": map[string]interface{}{
						"type":        "integer",
						"description": "Expected image side length. Default 256",
						"default":     256,
					},
				},
				"required": []string{"annotations_file"},
			},
		},

		// Shape Operations
		{
			Name:        "shape_render",
			Description: "Render a single shape and return it as base64 PNG, or save it when output_path is given. Rendering matches the dataset generator exactly.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"shape": map[string]interface{}{
						"type":        "string",
						"enum":        shapeNames(),
						"description": "Shape to draw",
					},
					"canvas_size": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas side length in pixels. Default 256",
						"default":     256,
					},
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Bounding box side length. Default half the canvas",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge of the bounding box. Default centered",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge of the bounding box. Default centered",
					},
					"rotation": map[string]interface{}{
						"type":        "number",
						"description": "Rotation in radians. Ignored for circles. Default 0",
					},
					"foreground": map[string]interface{}{
						"type":        "string",
						"description": "Shape color as hex (#RRGGBB). Default #F0DC50",
					},
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Background color as hex (#RRGGBB). Default #3C5AC8",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the PNG instead of returning it",
					},
				},
				"required": []string{"shape"},
			},
		},
		{
			Name:        "shape_classify",
			Description: "Guess which shape an image shows from its pixels (radial profile around the shape's centroid).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Image Operations
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_annotate",
			Description: "Draw labeled bounding boxes on an image. Boxes come from the annotation file entry for this image, or from the boxes argument.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"annotations_file": map[string]interface{}{
						"type":        "string",
						"description": "COCO annotation JSON whose file_name matches path",
					},
					"boxes": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"bbox": map[string]interface{}{
									"type":        "array",
									"items":       map[string]interface{}{"type": "integer"},
									"description": "[x, y, width, height]",
								},
								"label": map[string]interface{}{"type": "string"},
							},
						},
						"description": "Boxes to draw when no annotation file is given",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the PNG instead of returning it",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color at a pixel and how far it is from the image's background color. Useful for telling shape fill from background.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a COCO box [x, y, width, height] from an image and return it as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"bbox": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "[x, y, width, height]",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added on every side, clamped to the image. Default 0",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "bbox"},
			},
		},
		{
			Name:        "image_dominant_colors",
			Description: "Extract the most common colors in an image or region, with percentages.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return. Default 5",
						"default":     5,
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional region {x1, y1, x2, y2} to analyze",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
