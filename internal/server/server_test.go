package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"llm-workbench/internal/backend"
	"llm-workbench/internal/config"
	"llm-workbench/internal/credential"
	"llm-workbench/internal/market"
	"llm-workbench/internal/media"
	"llm-workbench/internal/models"
	"llm-workbench/internal/prompt"
)

type fakeChat struct {
	completeCalls int
	text          string
	err           error
	valid         bool
	lastReq       models.CompletionRequest
}

func (f *fakeChat) Complete(ctx context.Context, cred string, req models.CompletionRequest) (string, error) {
	f.completeCalls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeChat) Validate(ctx context.Context, cred string) (bool, error) {
	return f.valid, nil
}

func (f *fakeChat) Defaults() models.SamplingParams {
	return models.SamplingParams{Temperature: 1, TopP: 1, MaxTokens: 1024}
}

type fakeComparator struct {
	result models.ComparisonResult
}

func (f *fakeComparator) Compare(ctx context.Context, cred, prompt string, modelIDs []string, sampling models.SamplingParams) models.ComparisonResult {
	return f.result
}

type fakeMarket struct {
	record models.StockRecord
	err    error
}

func (f *fakeMarket) Quote(ctx context.Context, ticker string) (models.StockRecord, error) {
	if f.err != nil {
		return models.StockRecord{}, f.err
	}
	return f.record, nil
}

type fakeAudio struct {
	text string
	err  error
	tpl  prompt.Template
}

func (f *fakeAudio) Process(ctx context.Context, cred, assetPath string, tpl prompt.Template) (string, error) {
	f.tpl = tpl
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type testEnv struct {
	srv   *Server
	creds *credential.Store
	chat  *fakeChat
	comp  *fakeComparator
	mkt   *fakeMarket
	audio *fakeAudio
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Backend: config.BackendConfig{BaseURL: "https://api.example.com/v1", DefaultModel: "m1", Models: []string{"m1", "m2"}},
		Media:   config.MediaConfig{BaseURL: "https://media.example.com/v1"},
		Market:  config.MarketConfig{BaseURL: "https://quotes.example.com/v1"},
		Sampling: config.SamplingConfig{
			Temperature: 1, AnalysisTemperature: 0.7, TopP: 1, MaxTokens: 1024,
		},
		Transcode: config.TranscodeConfig{FFmpegPath: "ffmpeg", Bitrate: "192k"},
	}

	env := &testEnv{
		creds: credential.NewStore(),
		chat:  &fakeChat{text: "Hi there!", valid: true},
		comp:  &fakeComparator{},
		mkt:   &fakeMarket{},
		audio: &fakeAudio{text: "notulen"},
	}

	srv, err := New(cfg, Deps{
		Credentials: env.creds,
		Chat:        env.chat,
		Comparator:  env.comp,
		Market:      env.mkt,
		Audio:       env.audio,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	env.srv = srv
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCompletion_MissingCredential(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	rec := env.do(t, http.MethodPost, "/v1/completions", `{"prompt":"Hello","model":"m1"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", rec.Code, rec.Body.String())
	}
	if body := decodeErrorBody(t, rec); body.Error.Type != "missing_credential" {
		t.Errorf("expected missing_credential type, got %q", body.Error.Type)
	}
	if env.chat.completeCalls != 0 {
		t.Errorf("expected zero backend calls, got %d", env.chat.completeCalls)
	}
}

func TestCredentialLifecycleAndCompletion(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)

	if rec := env.do(t, http.MethodPut, "/v1/credential", `{"credential":"abc123"}`); rec.Code != http.StatusOK {
		t.Fatalf("set credential: expected 200, got %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/v1/completions", `{"prompt":"Hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("completion: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp completionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode completion response: %v", err)
	}
	if resp.Text != "Hi there!" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if resp.Model != "m1" {
		t.Errorf("expected default model m1, got %q", resp.Model)
	}
	if env.chat.lastReq.Sampling.Temperature != 1 {
		t.Errorf("expected default temperature, got %g", env.chat.lastReq.Sampling.Temperature)
	}

	if rec := env.do(t, http.MethodDelete, "/v1/credential", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear credential: expected 204, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/v1/completions", `{"prompt":"Hello"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("after clear: expected 401, got %d", rec.Code)
	}
}

func TestCompletion_SamplingOverrides(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")

	rec := env.do(t, http.MethodPost, "/v1/completions", `{"prompt":"x","temperature":0.2,"max_tokens":64}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := env.chat.lastReq.Sampling; got.Temperature != 0.2 || got.MaxTokens != 64 || got.TopP != 1 {
		t.Errorf("unexpected sampling %+v", got)
	}
}

func TestCompletion_BackendErrorSurfacesUpstreamMessage(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")
	env.chat.err = &backend.APIError{Status: 429, Type: "rate_limit_error", Message: "rate limit reached"}

	rec := env.do(t, http.MethodPost, "/v1/completions", `{"prompt":"x"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Error.Type != "backend_error" {
		t.Errorf("expected backend_error type, got %q", body.Error.Type)
	}
	if !strings.Contains(body.Error.Message, "rate limit reached") {
		t.Errorf("expected upstream message, got %q", body.Error.Message)
	}
}

func TestComparison_PartialFailurePreservesOrder(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")
	env.comp.result = models.ComparisonResult{
		ID:     "cmp-1",
		Prompt: "Hello",
		Entries: []models.ComparisonEntry{
			{Model: "m1", Err: &backend.APIError{Message: "timeout"}},
			{Model: "m2", Text: "OK"},
		},
	}

	rec := env.do(t, http.MethodPost, "/v1/comparisons", `{"prompt":"Hello","models":["m1","m2"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp comparisonResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode comparison response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Model != "m1" || resp.Results[0].Error == "" {
		t.Errorf("result 0: expected m1 failure, got %+v", resp.Results[0])
	}
	if resp.Results[1].Model != "m2" || resp.Results[1].Text != "OK" {
		t.Errorf("result 1: expected m2 OK, got %+v", resp.Results[1])
	}
}

func TestComparison_RequiresModels(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")

	rec := env.do(t, http.MethodPost, "/v1/comparisons", `{"prompt":"Hello","models":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Error.Type != "invalid_input" {
		t.Errorf("expected invalid_input type, got %q", body.Error.Type)
	}
}

func TestAnalysis_ComposesQuoteAndCompletion(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")
	env.mkt.record = models.StockRecord{
		Symbol:  "AAPL",
		Company: models.CompanyInfo{Name: "Apple Inc.", Industry: "N/A", Sector: "N/A", Summary: "N/A"},
	}
	env.chat.text = "analisa saham"

	rec := env.do(t, http.MethodPost, "/v1/analyses", `{"ticker":"AAPL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp analysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode analysis response: %v", err)
	}
	if resp.Analysis != "analisa saham" {
		t.Errorf("unexpected analysis %q", resp.Analysis)
	}
	if !strings.Contains(env.chat.lastReq.Prompt, "Apple Inc.") {
		t.Error("expected the formatted record in the prompt")
	}
	if env.chat.lastReq.Sampling.Temperature != 0.7 {
		t.Errorf("expected analysis temperature 0.7, got %g", env.chat.lastReq.Sampling.Temperature)
	}
}

func TestAnalysis_EmptyTicker(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")
	env.mkt.err = market.ErrEmptyTicker

	rec := env.do(t, http.MethodPost, "/v1/analyses", `{"ticker":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAudio_Success(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")

	rec := env.do(t, http.MethodPost, "/v1/audio", `{"path":"/tmp/talk.mp3","use_case":"meeting_minutes"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp audioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode audio response: %v", err)
	}
	if resp.Text != "notulen" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if env.audio.tpl != prompt.TemplateMeetingMinutes {
		t.Errorf("expected meeting minutes template, got %v", env.audio.tpl)
	}
}

func TestAudio_UnknownUseCase(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")

	rec := env.do(t, http.MethodPost, "/v1/audio", `{"path":"/tmp/talk.mp3","use_case":"poetry"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAudio_StageErrorNamesStage(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")
	env.audio.err = &media.StageError{
		Stage: media.StageTranscoding,
		Err:   &media.TranscodeError{Input: "/tmp/talk.aac", Message: "codec not supported"},
	}

	rec := env.do(t, http.MethodPost, "/v1/audio", `{"path":"/tmp/talk.aac","use_case":"summary"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d (%s)", rec.Code, rec.Body.String())
	}

	body := decodeErrorBody(t, rec)
	if body.Error.Type != "transcode_error" {
		t.Errorf("expected transcode_error type, got %q", body.Error.Type)
	}
	if body.Error.Stage != "transcoding" {
		t.Errorf("expected transcoding stage, got %q", body.Error.Stage)
	}
	if !strings.Contains(body.Error.Message, "codec not supported") {
		t.Errorf("expected conversion failure message, got %q", body.Error.Message)
	}
}

func TestValidateCredential(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	env.creds.Set("abc123")
	env.chat.valid = false

	rec := env.do(t, http.MethodPost, "/v1/credential/validate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode validate response: %v", err)
	}
	if resp["valid"] {
		t.Error("expected valid=false")
	}
}

func TestModelsCatalogue(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	rec := env.do(t, http.MethodGet, "/v1/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "m2") {
		t.Errorf("expected catalogue to list models, got %s", rec.Body.String())
	}
}

func TestSetCredential_RejectsEmpty(t *testing.T) {
	t.Parallel()

	env := newTestServer(t)
	rec := env.do(t, http.MethodPut, "/v1/credential", `{"credential":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
