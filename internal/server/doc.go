// Package server implements the MCP (Model Context Protocol) server for the
// pixel-art pipeline.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Tools
//
//   - image_load: Load an image and report its metadata
//   - pixel_list_algorithms: Algorithm catalogue and blend modes
//   - pixel_process: Run a pipeline and return or write the result
//   - pixel_detect_grid: Estimate the pixel-art block size
//   - pixel_grid_overlay: Draw a grid over an image
//   - pixel_palette: Distinct and dominant colors
//
// Images are addressed by path and decoded once into an ImageCache that
// lives as long as the server.
//
// # Errors
//
// Malformed arguments, pipeline validation failures and unknown tools are
// reported with code -32602. Other tool failures use -32000. In both cases
// data holds the Go error string, which names the failing step when there
// is one.
//
// # Usage
//
//	srv := server.New(config.Load())
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
