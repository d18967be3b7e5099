package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/pixelator-mcp/internal/config"
	"github.com/ironsheep/pixelator-mcp/internal/httpapi"
	"github.com/ironsheep/pixelator-mcp/internal/logging"
	"github.com/ironsheep/pixelator-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	// Logs go to stderr; stdout carries the MCP protocol and command output.
	logging.SetLogger(logging.New(cfg.LogLevel, stderr))
	server.Version = Version
	httpapi.Version = Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) == 0 {
		logging.Logger().Debug("starting MCP server", "version", Version, "built", BuildTime, "commit", GitCommit)
		if err := server.New(cfg).Run(); err != nil {
			logging.Logger().Error("server error", "err", err)
			return 1
		}
		return 0
	}

	var err error
	switch args[0] {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "pixelator-mcp %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	case "--help", "-h", "help":
		printHelp(stdout)
		return 0
	case "serve":
		err = runServe(ctx, cfg, args[1:])
	case "process":
		err = runProcess(ctx, cfg, args[1:], stdout)
	case "detect":
		err = runDetect(ctx, cfg, args[1:], stdout)
	case "plan":
		err = runPlan(args[1:], stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printHelp(stderr)
		return 2
	}

	if err != nil {
		if isUsage(err) {
			fmt.Fprintln(stderr, err)
			return 2
		}
		logging.Logger().Error(args[0]+" failed", "err", err)
		return 1
	}
	return 0
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "pixelator-mcp - pixel-art pipeline over MCP, HTTP and the command line")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pixelator-mcp                      MCP server on stdin/stdout")
	fmt.Fprintln(w, "  pixelator-mcp serve                HTTP server on $PORT")
	fmt.Fprintln(w, "  pixelator-mcp process [flags] in... Run a pipeline over images")
	fmt.Fprintln(w, "  pixelator-mcp detect [flags] in...  Detect pixel grids, one JSON line per input")
	fmt.Fprintln(w, "  pixelator-mcp plan -pipeline file  Print the pipeline dependency graph (DOT)")
	fmt.Fprintln(w, "  pixelator-mcp version              Print version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  PORT, CORS_ORIGINS, MAX_IMAGE_SIZE, MAX_DIMENSION,")
	fmt.Fprintln(w, "  PREVIEW_MAX_DIMENSION, REQUEST_TIMEOUT (ms)")
	fmt.Fprintln(w, "  PIXELATOR_LOG_LEVEL=debug|info|warn|error")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pixelator-mcp <command> -h' for command flags.")
}
