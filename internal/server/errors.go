package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"llm-workbench/internal/backend"
	"llm-workbench/internal/credential"
	"llm-workbench/internal/market"
	"llm-workbench/internal/media"
	"llm-workbench/internal/prompt"
)

type requestError struct {
	Status  int
	Message string
	Type    string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Stage   string `json:"stage,omitempty"`
	} `json:"error"`
}

func writeError(c echo.Context, status int, message, errType, stage string) error {
	var payload errorBody
	payload.Error.Message = message
	payload.Error.Type = errType
	payload.Error.Stage = stage
	return c.JSON(status, payload)
}

func jsonErrorHandler(err error, c echo.Context) {
	stage := ""
	var stageErr *media.StageError
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage.String()
	}

	var reqErr requestError
	if !errors.As(err, &reqErr) {
		type httpError interface {
			Code() int
			Error() string
		}
		if he, ok := err.(httpError); ok {
			_ = writeError(c, he.Code(), he.Error(), "invalid_input", "")
			return
		}

		if !errors.As(toHTTPError(err), &reqErr) {
			_ = writeError(c, http.StatusInternalServerError, "internal server error", "server_error", "")
			return
		}
	}

	_ = writeError(c, reqErr.Status, reqErr.Message, reqErr.Type, stage)
}

// toHTTPError maps the domain error taxonomy onto HTTP responses. Every
// category keeps a distinct, human-readable message: missing credential,
// invalid input, backend rejection (with the upstream message) and media
// conversion failure.
func toHTTPError(err error) error {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	if errors.Is(err, credential.ErrMissing) {
		return requestError{
			Status:  http.StatusUnauthorized,
			Message: "no API credential set; save one via PUT /v1/credential",
			Type:    "missing_credential",
		}
	}

	if errors.Is(err, market.ErrEmptyTicker) ||
		errors.Is(err, prompt.ErrUnknownTemplate) ||
		errors.Is(err, media.ErrUnreadableAsset) ||
		errors.Is(err, media.ErrUnsupportedFormat) {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
			Type:    "invalid_input",
		}
	}

	var transcodeErr *media.TranscodeError
	if errors.As(err, &transcodeErr) {
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("media conversion failed: %s", transcodeErr.Message),
			Type:    "transcode_error",
		}
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return requestError{
			Status:  http.StatusBadGateway,
			Message: apiErr.Error(),
			Type:    "backend_error",
		}
	}

	var stageErr *media.StageError
	if errors.As(err, &stageErr) {
		// The wrapped error did not match a known category; still name
		// the stage it came from.
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: stageErr.Error(),
			Type:    "audio_processing_error",
		}
	}

	return requestError{
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
		Type:    "server_error",
	}
}
