package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"llm-workbench/internal/backend"
	"llm-workbench/internal/config"
)

const userAgent = "llm-workbench/0.1"

// Multimodal sampling is fixed for the audio path; transcripts run long,
// so the output token limit is far above the text-completion default.
const (
	generateTemperature = 0.7
	generateTopP        = 0.95
	generateTopK        = 40
	generateMaxTokens   = 8192
)

// Client talks to the multimodal backend: upload a binary asset by
// reference, then request one non-streamed text response for it.
type Client struct {
	baseURL     string
	headers     map[string]string
	client      *http.Client
	uploadURL   string
	generateURL string
}

// NewClient constructs a multimodal backend client from configuration.
func NewClient(cfg config.MediaConfig, client *http.Client) (*Client, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	return &Client{
		baseURL:     baseURL,
		headers:     cfg.Headers,
		client:      client,
		uploadURL:   baseURL + "/files",
		generateURL: baseURL + "/generate",
	}, nil
}

// Upload sends the asset bytes and returns the backend's opaque file URI.
func (c *Client) Upload(ctx context.Context, cred, assetPath, mimeType string) (string, error) {
	data, err := os.ReadFile(assetPath)
	if err != nil {
		return "", fmt.Errorf("read asset %q: %w", assetPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("construct upload request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-File-Name", filepath.Base(assetPath))
	c.setCommonHeaders(req, cred)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &backend.APIError{Message: "asset upload: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &backend.APIError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("asset upload rejected for %s", filepath.Base(assetPath)),
		}
	}

	var uploaded struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", &backend.APIError{Message: "decode upload response: " + err.Error()}
	}
	if uploaded.URI == "" {
		return "", &backend.APIError{Message: "upload response did not include a file uri"}
	}
	return uploaded.URI, nil
}

// Generate asks the backend to process the uploaded asset with the given
// instruction and returns the single final text response. This path is
// not streamed.
func (c *Client) Generate(ctx context.Context, cred, fileURI, instruction string) (string, error) {
	payload := generatePayload{
		FileURI:     fileURI,
		Instruction: instruction,
		Generation: generationConfig{
			Temperature:     generateTemperature,
			TopP:            generateTopP,
			TopK:            generateTopK,
			MaxOutputTokens: generateMaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("construct generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req, cred)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &backend.APIError{Message: "generate request: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &backend.APIError{
			Status:  resp.StatusCode,
			Message: "multimodal backend rejected the request",
		}
	}

	var generated struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return "", &backend.APIError{Message: "decode generate response: " + err.Error()}
	}
	return generated.Text, nil
}

func (c *Client) setCommonHeaders(req *http.Request, cred string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+cred)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

type generatePayload struct {
	FileURI     string           `json:"file_uri"`
	Instruction string           `json:"instruction"`
	Generation  generationConfig `json:"generation_config"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}
