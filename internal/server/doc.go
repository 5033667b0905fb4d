// Package server implements the MCP (Model Context Protocol) server for the shape
// dataset tools.
//
// This package provides a JSON-RPC 2.0 server that exposes dataset generation,
// inspection and verification through the MCP protocol, so an MCP client can build a
// dataset and look at what it produced without leaving the conversation.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr so they never interleave with responses.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Dataset Operations:
//   - dataset_generate: Render a training split with COCO annotations and a test split
//   - dataset_inspect: Category counts, box statistics and samples of an annotation file
//   - dataset_verify: Read a dataset back and check it against its annotations
//
// Shape Operations:
//   - shape_render: Render one shape exactly as the generator would
//   - shape_classify: Guess the shape in an image from its pixels
//
// Image Operations:
//   - image_load: Image metadata
//   - image_annotate: Draw labeled boxes from an annotation file or arguments
//   - image_sample_color: Pixel color and its distance from the background
//   - image_crop: Extract a COCO box
//   - image_dominant_colors: Extract color palette
//
// # Image Caching
//
// The server keeps decoded images in memory, keyed by path. Any tool that writes image
// files (dataset_generate, and shape_render or image_annotate with output_path) empties
// the cache, so later reads see the new pixels.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(log)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal("server stopped", "error", err)
//	}
package server
