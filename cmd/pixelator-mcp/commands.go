package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/pixelator-mcp/internal/config"
	"github.com/ironsheep/pixelator-mcp/internal/detection"
	"github.com/ironsheep/pixelator-mcp/internal/httpapi"
	"github.com/ironsheep/pixelator-mcp/internal/imaging"
	"github.com/ironsheep/pixelator-mcp/internal/logging"
	"github.com/ironsheep/pixelator-mcp/internal/pipeline"
	"github.com/ironsheep/pixelator-mcp/internal/service"
)

var errUsage = errors.New("usage")

func usageError(format string, args ...interface{}) error {
	return errors.Wrapf(errUsage, format, args...)
}

func isUsage(err error) bool {
	return errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runServe(ctx context.Context, cfg config.Config, args []string) error {
	fs := newFlagSet("serve")
	port := fs.Int("port", cfg.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Port = *port
	return httpapi.New(cfg).ListenAndServe(ctx)
}

// loadPipeline reads a pipeline file and checks it against the plan rules,
// which also reject forward references.
func loadPipeline(path string) ([]pipeline.Step, *pipeline.Plan, error) {
	if path == "" {
		return nil, nil, usageError("-pipeline is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read pipeline")
	}
	steps, err := pipeline.ParseSteps(data)
	if err != nil {
		return nil, nil, errors.Wrapf(pipeline.ErrValidation, "parse %s: %v", path, err)
	}
	plan, err := pipeline.NewPlan(steps)
	if err != nil {
		return nil, nil, err
	}
	return steps, plan, nil
}

func runPlan(args []string, stdout io.Writer) error {
	fs := newFlagSet("plan")
	pipelinePath := fs.String("pipeline", "", "pipeline JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, plan, err := loadPipeline(*pipelinePath)
	if err != nil {
		return err
	}
	unused, err := plan.Unused()
	if err != nil {
		return err
	}
	for _, id := range unused {
		logging.Logger().Warn("step result is never used", "step", id)
	}
	return plan.WriteDOT(stdout)
}

// outputPath names the result file for in.
func outputPath(in, out, outDir string, format imaging.Format) string {
	if out != "" {
		return out
	}
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(outDir, base+"."+string(format))
}

// overlayPath names the grid overlay file for in.
func overlayPath(in, dir string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(dir, base+"-grid.png")
}

// outputPaths names the file written for each input and rejects inputs that
// would land on the same file.
func outputPaths(cmd string, inputs []string, name func(string) string) ([]string, error) {
	paths := make([]string, len(inputs))
	owner := make(map[string]string, len(inputs))
	for i, in := range inputs {
		paths[i] = name(in)
		if prev, ok := owner[paths[i]]; ok {
			return nil, usageError("%s: %s and %s both write %s", cmd, prev, in, paths[i])
		}
		owner[paths[i]] = in
	}
	return paths, nil
}

func runProcess(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("process")
	pipelinePath := fs.String("pipeline", "", "pipeline JSON file ({\"steps\": [...]} or a bare array)")
	mode := fs.String("mode", string(service.ModeFull), "full or preview")
	format := fs.String("format", string(imaging.FormatPNG), "output format: png, jpeg or webp")
	quality := fs.Int("quality", imaging.DefaultQuality, "JPEG quality 1-100")
	out := fs.String("out", "", "output file (single input only)")
	outDir := fs.String("out-dir", "", "output directory")
	jobs := fs.Int("jobs", runtime.NumCPU(), "images processed at once")
	if err := fs.Parse(args); err != nil {
		return err
	}

	inputs := fs.Args()
	switch {
	case len(inputs) == 0:
		return usageError("process: no input images")
	case *out != "" && *outDir != "":
		return usageError("process: -out and -out-dir are exclusive")
	case *out != "" && len(inputs) > 1:
		return usageError("process: -out takes a single input, use -out-dir")
	case *out == "" && *outDir == "":
		return usageError("process: -out or -out-dir is required")
	}

	steps, plan, err := loadPipeline(*pipelinePath)
	if err != nil {
		return err
	}
	if unused, _ := plan.Unused(); len(unused) > 0 {
		logging.Logger().Warn("step results are never used", "steps", unused)
	}
	f, q, err := pipeline.ValidateOutput(*format, *quality)
	if err != nil {
		return err
	}
	paths, err := outputPaths("process", inputs, func(in string) string {
		return outputPath(in, *out, *outDir, f)
	})
	if err != nil {
		return err
	}
	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	svc := service.New(cfg)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, *jobs))

	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(in)
			if err != nil {
				return errors.Wrapf(err, "read %s", in)
			}
			res, err := svc.Process(service.ProcessRequest{
				Source:  data,
				Steps:   steps,
				Mode:    service.Mode(*mode),
				Format:  string(f),
				Quality: q,
			})
			if err != nil {
				return errors.Wrap(err, in)
			}

			path := paths[i]
			if err := os.WriteFile(path, res.Image, 0o644); err != nil {
				return errors.Wrapf(err, "write %s", path)
			}
			logging.Logger().Info("processed", "input", in, "output", path,
				"width", res.Width, "height", res.Height, "steps", res.StepsProcessed, "elapsed", res.Duration)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}
	return nil
}

// detectLine is one line of detect output.
type detectLine struct {
	Input string `json:"input"`
	detection.GridResult
	Overlay string `json:"overlay,omitempty"`
}

func runDetect(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	fs := newFlagSet("detect")
	overlayDir := fs.String("overlay", "", "directory for grid overlay PNGs of detected inputs")
	color := fs.String("color", detection.DefaultOverlayColor, "overlay line color")
	jobs := fs.Int("jobs", runtime.NumCPU(), "images analysed at once")
	if err := fs.Parse(args); err != nil {
		return err
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		return usageError("detect: no input images")
	}
	c, err := detection.ParseColor(*color)
	if err != nil {
		return usageError("detect: %v", err)
	}
	var overlays []string
	if *overlayDir != "" {
		overlays, err = outputPaths("detect", inputs, func(in string) string {
			return overlayPath(in, *overlayDir)
		})
		if err != nil {
			return err
		}
		if err := os.MkdirAll(*overlayDir, 0o755); err != nil {
			return errors.Wrap(err, "create overlay directory")
		}
	}

	svc := service.New(cfg)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, *jobs))

	lines := make([]detectLine, len(inputs))
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(in)
			if err != nil {
				return errors.Wrapf(err, "read %s", in)
			}
			r, err := svc.Decode(data)
			if err != nil {
				return errors.Wrap(err, in)
			}

			line := detectLine{Input: in, GridResult: detection.DetectGrid(r)}
			if *overlayDir != "" && line.Detected {
				res, err := service.Overlay(r, *line.GridSize, c)
				if err != nil {
					return errors.Wrap(err, in)
				}
				path := overlays[i]
				if err := os.WriteFile(path, res.Image, 0o644); err != nil {
					return errors.Wrapf(err, "write %s", path)
				}
				line.Overlay = path
			}
			lines[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
