package server

import (
	"github.com/ironsheep/pixelator-mcp/internal/algorithms"
	"github.com/ironsheep/pixelator-mcp/internal/blend"
	"github.com/ironsheep/pixelator-mcp/internal/detection"
	"github.com/ironsheep/pixelator-mcp/internal/pipeline"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func algorithmNames() []string {
	kinds := algorithms.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

func blendModes() []string {
	modes := blend.Modes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return names
}

// stepSchema describes one pipeline step.
func stepSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Unique step id; later steps refer to it. \"original\" is reserved for the source image",
			},
			"algorithm": map[string]interface{}{
				"type": "string",
				"enum": algorithmNames(),
			},
			"params": map[string]interface{}{
				"type":        "object",
				"description": "Algorithm parameters. Missing values take defaults and numbers are clamped; see pixel_list_algorithms",
			},
			"inputSource": map[string]interface{}{
				"type":        "string",
				"description": "Id of an earlier step, or \"original\" (default)",
				"default":     pipeline.OriginalKey,
			},
			"blendWith": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"stepId":  map[string]interface{}{"type": "string"},
					"mode":    map[string]interface{}{"type": "string", "enum": blendModes(), "default": string(blend.Normal)},
					"opacity": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1, "default": 1},
				},
				"required": []string{"stepId"},
			},
			"enabled": map[string]interface{}{
				"type":    "boolean",
				"default": true,
			},
		},
		"required": []string{"id", "algorithm"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, alpha usage and file size. The decoded image is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_list_algorithms",
			Description: "List the pixel-art algorithms with their parameters, defaults and ranges, and the blend modes.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "pixel_process",
			Description: "Run a pipeline of pixel-art algorithms over an image. Steps run in list order; each reads \"original\" or an earlier step and may blend over another earlier step. Returns the result as base64, or writes it to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"steps": map[string]interface{}{
						"type":     "array",
						"items":    stepSchema(),
						"minItems": 1,
						"maxItems": pipeline.MaxSteps,
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"full", "preview"},
						"description": "preview shrinks the source to the preview size first (default full)",
						"default":     "full",
					},
					"output_format": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"png", "jpeg", "webp"},
						"default": "png",
					},
					"output_quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG quality 1-100 (default 90)",
						"minimum":     1,
						"maximum":     100,
						"default":     90,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write instead of returning base64",
					},
				},
				"required": []string{"path", "steps"},
			},
		},
		{
			Name:        "pixel_detect_grid",
			Description: "Estimate the block size of a pixel-art image from the spacing of color edges. Reports detected=false when there is no regular grid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_grid_overlay",
			Description: "Return the image as PNG with grid lines drawn every grid_size pixels. Without grid_size the detected grid is used.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"grid_size": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels between grid lines (minimum 2). Omit to auto-detect",
						"minimum":     2,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Line color as #rgb, #rrggbb, #rrggbbaa, rgb() or rgba() (default " + detection.DefaultOverlayColor + ")",
						"default":     detection.DefaultOverlayColor,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_palette",
			Description: "Count the distinct colors of an image and list the most frequent ones with hex, RGB and HSL values.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to list; 0 lists all (default 5)",
						"default":     defaultPaletteCount,
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
