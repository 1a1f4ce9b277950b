package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"llm-workbench/internal/models"
	"llm-workbench/internal/prompt"
)

type credentialRequest struct {
	Credential string `json:"credential"`
}

func (s *Server) handleSetCredential(c echo.Context) error {
	var req credentialRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	if strings.TrimSpace(req.Credential) == "" {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "credential must not be empty; use DELETE to clear it",
			Type:    "invalid_input",
		}
	}

	s.deps.Credentials.Set(req.Credential)
	return c.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleClearCredential(c echo.Context) error {
	s.deps.Credentials.Clear()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleValidateCredential(c echo.Context) error {
	cred, err := s.deps.Credentials.Require()
	if err != nil {
		return toHTTPError(err)
	}

	valid, err := s.deps.Chat.Validate(c.Request().Context(), cred)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": valid})
}

func (s *Server) handleModels(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"default": s.cfg.Backend.DefaultModel,
		"models":  s.cfg.Backend.Models,
	})
}

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
	TopP        *float64 `json:"top_p"`
}

type completionResponse struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Text  string `json:"text"`
}

func (s *Server) handleCompletion(c echo.Context) error {
	var req completionRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	model := req.Model
	if model == "" {
		model = s.cfg.Backend.DefaultModel
	}

	cred, err := s.deps.Credentials.Require()
	if err != nil {
		return toHTTPError(err)
	}

	text, err := s.deps.Chat.Complete(c.Request().Context(), cred, models.CompletionRequest{
		Model:    model,
		Prompt:   req.Prompt,
		Sampling: s.samplingOverrides(req),
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, completionResponse{
		ID:    uuid.NewString(),
		Model: model,
		Text:  text,
	})
}

// samplingOverrides starts from the configured defaults and applies any
// per-request values.
func (s *Server) samplingOverrides(req completionRequest) models.SamplingParams {
	sampling := s.deps.Chat.Defaults()
	if req.Temperature != nil {
		sampling.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		sampling.MaxTokens = *req.MaxTokens
	}
	if req.TopP != nil {
		sampling.TopP = *req.TopP
	}
	return sampling
}

type comparisonRequest struct {
	Prompt string   `json:"prompt"`
	Models []string `json:"models"`
}

type comparisonEntryResponse struct {
	Model string `json:"model"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

type comparisonResponse struct {
	ID      string                    `json:"id"`
	Prompt  string                    `json:"prompt"`
	Results []comparisonEntryResponse `json:"results"`
}

func (s *Server) handleComparison(c echo.Context) error {
	var req comparisonRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	if len(req.Models) == 0 {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "at least one model identifier is required",
			Type:    "invalid_input",
		}
	}

	cred, err := s.deps.Credentials.Require()
	if err != nil {
		return toHTTPError(err)
	}

	result := s.deps.Comparator.Compare(c.Request().Context(), cred, req.Prompt, req.Models, s.deps.Chat.Defaults())

	resp := comparisonResponse{
		ID:      result.ID,
		Prompt:  result.Prompt,
		Results: make([]comparisonEntryResponse, len(result.Entries)),
	}
	for i, entry := range result.Entries {
		resp.Results[i] = comparisonEntryResponse{Model: entry.Model}
		if entry.Err != nil {
			resp.Results[i].Error = entry.Err.Error()
		} else {
			resp.Results[i].Text = entry.Text
		}
	}

	return c.JSON(http.StatusOK, resp)
}

type analysisRequest struct {
	Ticker string `json:"ticker"`
	Model  string `json:"model"`
}

type analysisResponse struct {
	ID       string             `json:"id"`
	Ticker   string             `json:"ticker"`
	Record   models.StockRecord `json:"record"`
	Analysis string             `json:"analysis"`
}

func (s *Server) handleAnalysis(c echo.Context) error {
	var req analysisRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	cred, err := s.deps.Credentials.Require()
	if err != nil {
		return toHTTPError(err)
	}

	ctx := c.Request().Context()

	record, err := s.deps.Market.Quote(ctx, req.Ticker)
	if err != nil {
		return toHTTPError(err)
	}

	instruction, err := prompt.FormatStockAnalysis(record)
	if err != nil {
		return toHTTPError(err)
	}

	model := req.Model
	if model == "" {
		model = s.cfg.Backend.DefaultModel
	}

	sampling := s.deps.Chat.Defaults()
	sampling.Temperature = s.cfg.Sampling.AnalysisTemperature

	analysis, err := s.deps.Chat.Complete(ctx, cred, models.CompletionRequest{
		Model:    model,
		Prompt:   instruction,
		Sampling: sampling,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, analysisResponse{
		ID:       uuid.NewString(),
		Ticker:   record.Symbol,
		Record:   record,
		Analysis: analysis,
	})
}

type audioRequest struct {
	Path    string `json:"path"`
	UseCase string `json:"use_case"`
}

type audioResponse struct {
	ID      string `json:"id"`
	UseCase string `json:"use_case"`
	Text    string `json:"text"`
}

func (s *Server) handleAudio(c echo.Context) error {
	var req audioRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	if strings.TrimSpace(req.Path) == "" {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "asset path is required",
			Type:    "invalid_input",
		}
	}

	tpl, err := prompt.Parse(req.UseCase)
	if err != nil {
		return toHTTPError(err)
	}

	cred, err := s.deps.Credentials.Require()
	if err != nil {
		return toHTTPError(err)
	}

	// Returned unmapped so the error handler can attach the failed stage.
	text, err := s.deps.Audio.Process(c.Request().Context(), cred, req.Path, tpl)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, audioResponse{
		ID:      uuid.NewString(),
		UseCase: tpl.String(),
		Text:    text,
	})
}
