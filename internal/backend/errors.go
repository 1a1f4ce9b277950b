package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is any failure originating from a remote backend call: auth
// rejection, rate limiting, malformed response or plain network failure.
// It carries the upstream message for display and is never retried here;
// the caller decides whether to re-invoke.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("backend error (%s): %s", e.Type, e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("backend error status %d: %s", e.Status, e.Message)
	}
	return "backend error: " + e.Message
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func parseAPIError(resp *http.Response) *APIError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return &APIError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("failed to read error body: %v", err),
		}
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{
			Status:  resp.StatusCode,
			Type:    apiErr.Error.Type,
			Message: apiErr.Error.Message,
		}
	}

	return &APIError{
		Status:  resp.StatusCode,
		Message: strings.TrimSpace(string(body)),
	}
}

func transportError(action string, err error) *APIError {
	return &APIError{Message: fmt.Sprintf("%s: %v", action, err)}
}
