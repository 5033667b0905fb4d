package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/shape-dataset-gen/internal/imaging"
	"github.com/ironsheep/shape-dataset-gen/internal/logger"
)

// Version is reported in the initialize handshake. The binary overrides it at startup.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cache *imaging.ImageCache
	log   *logger.Logger
	in    io.Reader
	out   io.Writer
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server speaking on stdin/stdout
func New(log *logger.Logger) *Server {
	return NewWithIO(log, os.Stdin, os.Stdout)
}

// NewWithIO creates a server reading requests from in and writing responses to out.
func NewWithIO(log *logger.Logger, in io.Reader, out io.Writer) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		cache: imaging.NewImageCache(),
		log:   log,
		in:    in,
		out:   out,
	}
}

// Run serves requests until the input is exhausted or ctx is canceled. Requests are
// handled one at a time; a long dataset_generate call blocks the ones behind it.
//
// Lines are read on a separate goroutine so cancellation is noticed while the input
// is idle. That goroutine stays blocked in Read until the input yields or closes.
func (s *Server) Run(ctx context.Context) error {
	lines, scanErr, stop := s.readLines()
	defer close(stop)

	encoder := json.NewEncoder(s.out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			line = l
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("failed to parse request", "error", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				s.log.Error("failed to encode response", "error", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error("failed to encode response", "error", err)
			}
		}
	}
}

// readLines scans s.in on a new goroutine. Each line is sent on lines; when the input
// ends, the scan error (or nil) is sent on scanErr and lines is closed. Closing stop
// abandons any pending send.
func (s *Server) readLines() (lines <-chan []byte, scanErr <-chan error, stop chan<- struct{}) {
	out := make(chan []byte)
	errc := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		scanner := bufio.NewScanner(s.in)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case out <- line:
			case <-done:
				return
			}
		}
		errc <- scanner.Err()
		close(out)
	}()

	return out, errc, done
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.Debug("request received", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "shape-dataset-gen",
				"version": Version,
			},
		},
	}
}
