package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/algorithms"
	"github.com/ironsheep/pixelator-mcp/internal/blend"
	"github.com/ironsheep/pixelator-mcp/internal/detection"
	"github.com/ironsheep/pixelator-mcp/internal/pipeline"
	"github.com/ironsheep/pixelator-mcp/internal/service"
)

type healthResponse struct {
	Status  string      `json:"status"`
	Uptime  int64       `json:"uptime"`
	Version string      `json:"version"`
	Memory  memoryUsage `json:"memory"`
}

type memoryUsage struct {
	Used uint64 `json:"used"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uptime:  time.Since(a.started).Milliseconds(),
		Version: Version,
		Memory:  memoryUsage{Used: m.Sys},
	})
}

type algorithmsResponse struct {
	Algorithms []algorithms.Descriptor `json:"algorithms"`
	BlendModes []blend.Mode            `json:"blendModes"`
}

func (a *API) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, algorithmsResponse{
		Algorithms: algorithms.Catalog(),
		BlendModes: blend.Modes(),
	})
}

type processRequest struct {
	Image    string `json:"image"`
	Pipeline struct {
		Steps []pipeline.Step `json:"steps"`
	} `json:"pipeline"`
	Mode          string `json:"mode"`
	OutputFormat  string `json:"outputFormat"`
	OutputQuality int    `json:"outputQuality"`
}

type processMeta struct {
	DurationMS     int64 `json:"duration_ms"`
	Width          int   `json:"width"`
	Height         int   `json:"height"`
	StepsProcessed int   `json:"steps_processed"`
}

type processResponse struct {
	Image string      `json:"image"`
	Meta  processMeta `json:"meta"`
}

func (a *API) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := a.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Mode == "" {
		writeError(w, r, errors.Wrap(errBadRequest, "mode is required"))
		return
	}

	resp, err := a.withTimeout(r.Context(), func() (interface{}, error) {
		_, data, err := service.ParseDataURL(req.Image)
		if err != nil {
			return nil, err
		}
		res, err := a.svc.Process(service.ProcessRequest{
			Source:  data,
			Steps:   req.Pipeline.Steps,
			Mode:    service.Mode(req.Mode),
			Format:  req.OutputFormat,
			Quality: req.OutputQuality,
		})
		if err != nil {
			return nil, err
		}
		return processResponse{
			Image: res.DataURL(),
			Meta: processMeta{
				DurationMS:     res.Duration.Milliseconds(),
				Width:          res.Width,
				Height:         res.Height,
				StepsProcessed: res.StepsProcessed,
			},
		}, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type imageRequest struct {
	Image string `json:"image"`
}

func (a *API) handleDetectGrid(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := a.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := a.withTimeout(r.Context(), func() (interface{}, error) {
		_, data, err := service.ParseDataURL(req.Image)
		if err != nil {
			return nil, err
		}
		return a.svc.DetectGrid(data)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type gridOverlayRequest struct {
	Image    string `json:"image"`
	GridSize int    `json:"gridSize"`
	Color    string `json:"color"`
}

type gridOverlayResponse struct {
	Image    string `json:"image"`
	GridSize int    `json:"gridSize"`
	Detected bool   `json:"detected"`
}

func (a *API) handleGridOverlay(w http.ResponseWriter, r *http.Request) {
	var req gridOverlayRequest
	if err := a.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Color == "" {
		req.Color = detection.DefaultOverlayColor
	}

	resp, err := a.withTimeout(r.Context(), func() (interface{}, error) {
		_, data, err := service.ParseDataURL(req.Image)
		if err != nil {
			return nil, err
		}
		res, err := a.svc.GridOverlay(data, req.GridSize, req.Color)
		if err != nil {
			return nil, err
		}
		return gridOverlayResponse{Image: res.DataURL(), GridSize: res.GridSize, Detected: res.Detected}, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads a size-limited JSON body into v.
func (a *API) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, a.maxBody)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

// withTimeout runs fn under the request timeout. The engine cannot be
// interrupted, so on expiry fn keeps running in the background and its
// result is discarded.
func (a *API) withTimeout(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	type result struct {
		v   interface{}
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		return res.v, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
