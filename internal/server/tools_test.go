package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"image_load",
		"pixel_list_algorithms",
		"pixel_process",
		"pixel_detect_grid",
		"pixel_grid_overlay",
		"pixel_palette",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}
	if len(toolMap) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(toolMap), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			required, _ := tool.InputSchema["required"].([]string)
			for _, name := range required {
				if _, ok := props[name]; !ok {
					t.Errorf("required property %q is not defined", name)
				}
			}
		})
	}
}

func TestToolDefinitions_AllToolsDispatch(t *testing.T) {
	s := newTestServer()
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(tool.Name, []byte(`{}`))
		if err != nil && isUnknownTool(err) {
			t.Errorf("tool %s has no handler", tool.Name)
		}
	}
}

func TestStepSchema_ListsAlgorithms(t *testing.T) {
	props := stepSchema()["properties"].(map[string]interface{})
	enum := props["algorithm"].(map[string]interface{})["enum"].([]string)
	if len(enum) != 8 {
		t.Errorf("got %d algorithms, want 8: %v", len(enum), enum)
	}
}
