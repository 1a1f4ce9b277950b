// Package backend implements the chat-completion client for an
// OpenAI-compatible LLM service. A completion is requested in streaming
// mode and the chunk sequence is reduced to one final string by strict
// in-order concatenation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"llm-workbench/internal/config"
	"llm-workbench/internal/credential"
	"llm-workbench/internal/models"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "llm-workbench/0.1"

	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// Client issues completion requests against a single configured backend.
type Client struct {
	baseURL   string
	headers   map[string]string
	client    *http.Client
	defaults  models.SamplingParams
	chatURL   string
	modelsURL string
}

// NewClient constructs a backend client from configuration with an
// injected HTTP client.
func NewClient(cfg config.BackendConfig, sampling config.SamplingConfig, client *http.Client) (*Client, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	return &Client{
		baseURL: baseURL,
		headers: cfg.Headers,
		client:  client,
		defaults: models.SamplingParams{
			Temperature: sampling.Temperature,
			TopP:        sampling.TopP,
			MaxTokens:   sampling.MaxTokens,
		},
		chatURL:   baseURL + "/chat/completions",
		modelsURL: baseURL + "/models",
	}, nil
}

// NewHTTPClient builds the pooled transport shared by outbound clients.
// There is deliberately no overall request timeout: a streamed completion
// holds the connection open for as long as the backend keeps generating.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{Transport: transport}
}

// Defaults returns the configured default sampling parameters.
func (c *Client) Defaults() models.SamplingParams {
	return c.defaults
}

// Complete issues one streamed completion request and reduces the chunk
// stream to its final string. An empty credential fails immediately with
// credential.ErrMissing before any network activity. A transport or
// backend failure surfaces as *APIError; no retries are performed.
func (c *Client) Complete(ctx context.Context, cred string, req models.CompletionRequest) (string, error) {
	if strings.TrimSpace(cred) == "" {
		return "", credential.ErrMissing
	}

	sampling := req.Sampling
	if sampling == (models.SamplingParams{}) {
		sampling = c.defaults
	}

	payload := chatPayload{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
		Temperature: sampling.Temperature,
		MaxTokens:   sampling.MaxTokens,
		TopP:        sampling.TopP,
		Stream:      true,
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.chatURL, cred, payload)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return "", transportError("chat completion request", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return "", parseAPIError(httpResp)
	}

	return reduceStream(httpResp.Body)
}

// Validate probes the backend with a lightweight model-listing call and
// reports whether the credential is accepted. An auth rejection yields
// (false, nil); anything else that fails yields an error.
func (c *Client) Validate(ctx context.Context, cred string) (bool, error) {
	if strings.TrimSpace(cred) == "" {
		return false, credential.ErrMissing
	}

	httpReq, err := c.newRequest(ctx, http.MethodGet, c.modelsURL, cred, nil)
	if err != nil {
		return false, err
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return false, transportError("credential probe", err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode < 300:
		return true, nil
	case httpResp.StatusCode == http.StatusUnauthorized || httpResp.StatusCode == http.StatusForbidden:
		return false, nil
	default:
		return false, parseAPIError(httpResp)
	}
}

func (c *Client) newRequest(ctx context.Context, method, url, cred string, payload any) (*http.Request, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("construct request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+cred)

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

type chatPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
