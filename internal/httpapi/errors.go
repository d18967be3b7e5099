package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/ironsheep/pixelator-mcp/internal/logging"
	"github.com/ironsheep/pixelator-mcp/internal/pipeline"
	"github.com/ironsheep/pixelator-mcp/internal/service"
)

var errBadRequest = errors.New("validation failed")

type errorBody struct {
	Error string `json:"error"`
	Step  string `json:"step,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Warn("write response", "err", err)
	}
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig), errors.Is(err, service.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.Is(err, errBadRequest), pipeline.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidDataURL), pipeline.IsProcessing(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	switch status {
	case http.StatusGatewayTimeout:
		body.Error = "Request timed out"
	case http.StatusInternalServerError:
		logging.Logger().Error("request failed", "path", r.URL.Path, "err", err)
		body.Error = "Internal server error"
	}
	if id, ok := pipeline.FailedStep(err); ok && status != http.StatusInternalServerError {
		body.Step = id
	}
	writeJSON(w, status, body)
}
