package server

import (
	"encoding/base64"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/algorithms"
	"github.com/ironsheep/pixelator-mcp/internal/detection"
	"github.com/ironsheep/pixelator-mcp/internal/imaging"
	"github.com/ironsheep/pixelator-mcp/internal/logging"
	"github.com/ironsheep/pixelator-mcp/internal/pipeline"
	"github.com/ironsheep/pixelator-mcp/internal/service"
)

var (
	errInvalidArguments = errors.New("invalid arguments")
	errUnknownTool      = errors.New("unknown tool")
)

// defaultPaletteCount is the number of colors pixel_palette returns when
// count is omitted.
const defaultPaletteCount = 5

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "pixel_process").
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
// Bad arguments, pipeline validation failures and unknown tools return
// -32602. Any other failure returns -32000 with the error string as data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, errInvalidArguments) || errors.Is(err, errUnknownTool) || pipeline.IsValidation(err) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		logging.Logger().Warn("tool failed", "tool", params.Name, "err", err)
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "pixel_list_algorithms":
		return s.handleListAlgorithms()
	case "pixel_process":
		return s.handleProcess(args)
	case "pixel_detect_grid":
		return s.handleDetectGrid(args)
	case "pixel_grid_overlay":
		return s.handleGridOverlay(args)
	case "pixel_palette":
		return s.handlePalette(args)
	default:
		return nil, errors.Wrap(errUnknownTool, name)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments and requires a path.
func decodeArgs(args json.RawMessage, v interface{ path() string }) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return errors.Wrap(errInvalidArguments, err.Error())
	}
	if v.path() == "" {
		return errors.Wrap(errInvalidArguments, "path is required")
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a *pathArgs) path() string { return a.Path }

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleListAlgorithms() (interface{}, error) {
	return map[string]interface{}{
		"algorithms":  algorithms.Catalog(),
		"blend_modes": blendModes(),
	}, nil
}

type processArgs struct {
	pathArgs
	Steps         []pipeline.Step `json:"steps"`
	Mode          string          `json:"mode"`
	OutputFormat  string          `json:"output_format"`
	OutputQuality int             `json:"output_quality"`
	OutputPath    string          `json:"output_path"`
}

type processResult struct {
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	StepsProcessed int    `json:"steps_processed"`
	DurationMS     int64  `json:"duration_ms"`
	MimeType       string `json:"mime_type"`
	ImageBase64    string `json:"image_base64,omitempty"`
	OutputPath     string `json:"output_path,omitempty"`
}

func (s *Server) handleProcess(args json.RawMessage) (interface{}, error) {
	var a processArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.ProcessRaster(src, service.ProcessRequest{
		Steps:   a.Steps,
		Mode:    service.Mode(a.Mode),
		Format:  a.OutputFormat,
		Quality: a.OutputQuality,
	})
	if err != nil {
		return nil, err
	}

	out := &processResult{
		Width:          res.Width,
		Height:         res.Height,
		StepsProcessed: res.StepsProcessed,
		DurationMS:     res.Duration.Milliseconds(),
		MimeType:       res.Format.MimeType(),
	}
	if a.OutputPath != "" {
		if err := os.WriteFile(a.OutputPath, res.Image, 0o644); err != nil {
			return nil, errors.Wrap(err, "write output")
		}
		out.OutputPath = a.OutputPath
		return out, nil
	}
	out.ImageBase64 = base64.StdEncoding.EncodeToString(res.Image)
	return out, nil
}

func (s *Server) handleDetectGrid(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return detection.DetectGrid(src), nil
}

type gridOverlayArgs struct {
	pathArgs
	GridSize int    `json:"grid_size"`
	Color    string `json:"color"`
}

type gridOverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	GridSize    int    `json:"grid_size"`
	Detected    bool   `json:"detected"`
	MimeType    string `json:"mime_type"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handleGridOverlay(args json.RawMessage) (interface{}, error) {
	var a gridOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	c, err := detection.ParseColor(a.Color)
	if err != nil {
		return nil, errors.Wrap(errInvalidArguments, err.Error())
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := service.Overlay(src, a.GridSize, c)
	if err != nil {
		return nil, err
	}
	return &gridOverlayResult{
		Width:       res.Width,
		Height:      res.Height,
		GridSize:    res.GridSize,
		Detected:    res.Detected,
		MimeType:    res.Format.MimeType(),
		ImageBase64: base64.StdEncoding.EncodeToString(res.Image),
	}, nil
}

type paletteArgs struct {
	pathArgs
	Count *int `json:"count"`
}

func (s *Server) handlePalette(args json.RawMessage) (interface{}, error) {
	var a paletteArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	count := defaultPaletteCount
	if a.Count != nil {
		count = *a.Count
	}
	if count < 0 {
		return nil, errors.Wrapf(errInvalidArguments, "count %d is negative", count)
	}
	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.DominantColors(src, count), nil
}
