package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"llm-workbench/internal/config"
	"llm-workbench/internal/credential"
	"llm-workbench/internal/models"
	"llm-workbench/internal/prompt"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second
)

// ChatBackend is the completion surface of the chat client.
type ChatBackend interface {
	Complete(ctx context.Context, cred string, req models.CompletionRequest) (string, error)
	Validate(ctx context.Context, cred string) (bool, error)
	Defaults() models.SamplingParams
}

// Comparator fans a prompt out across models.
type Comparator interface {
	Compare(ctx context.Context, cred, prompt string, modelIDs []string, sampling models.SamplingParams) models.ComparisonResult
}

// MarketData fetches the structured attribute record for a ticker.
type MarketData interface {
	Quote(ctx context.Context, ticker string) (models.StockRecord, error)
}

// AudioProcessor runs one audio request to a terminal state.
type AudioProcessor interface {
	Process(ctx context.Context, cred, assetPath string, tpl prompt.Template) (string, error)
}

// Deps carries the collaborators the server dispatches to.
type Deps struct {
	Credentials *credential.Store
	Chat        ChatBackend
	Comparator  Comparator
	Market      MarketData
	Audio       AudioProcessor
}

type Server struct {
	cfg     config.Config
	deps    Deps
	app     *echo.Echo
	address string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Credentials == nil || deps.Chat == nil || deps.Comparator == nil || deps.Market == nil || deps.Audio == nil {
		return nil, errors.New("all server dependencies must be provided")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))

	srv := &Server{
		cfg:     cfg,
		deps:    deps,
		app:     e,
		address: fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
// The write timeout stays unset because completion responses can take as
// long as the upstream model keeps generating.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg.Server.Port)
	slog.Info("starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:        s.address,
		Handler:     s.app,
		ReadTimeout: readTimeout,
		IdleTimeout: idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.GET("/v1/models", s.handleModels)
	s.app.PUT("/v1/credential", s.handleSetCredential)
	s.app.DELETE("/v1/credential", s.handleClearCredential)
	s.app.POST("/v1/credential/validate", s.handleValidateCredential)
	s.app.POST("/v1/completions", s.handleCompletion)
	s.app.POST("/v1/comparisons", s.handleComparison)
	s.app.POST("/v1/analyses", s.handleAnalysis)
	s.app.POST("/v1/audio", s.handleAudio)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "request body is required",
				Type:    "invalid_input",
			}
		}
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
			Type:    "invalid_input",
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "request body must contain a single JSON object",
			Type:    "invalid_input",
		}
	}
	return nil
}

func printStartupBanner(port int) {
	host := "127.0.0.1"
	fmt.Println()
	fmt.Println("llm-workbench ready")
	fmt.Printf("Listening on http://%s:%d\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET    /health")
	fmt.Println("  GET    /v1/models")
	fmt.Println("  PUT    /v1/credential")
	fmt.Println("  DELETE /v1/credential")
	fmt.Println("  POST   /v1/credential/validate")
	fmt.Println("  POST   /v1/completions")
	fmt.Println("  POST   /v1/comparisons")
	fmt.Println("  POST   /v1/analyses")
	fmt.Println("  POST   /v1/audio")
	fmt.Printf("Set a credential first:\n  curl -X PUT http://%s:%d/v1/credential -H 'Content-Type: application/json' -d '{\"credential\":\"<api key>\"}'\n\n", host, port)
}
