package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tenxcards/backend/logger"
	"github.com/tenxcards/backend/models"
	"github.com/tenxcards/backend/utils"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultSiteURL           = "http://localhost:3000"
	appTitle                 = "10xCards"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ModelConfig struct {
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p"`
}

type JSONSchema struct {
	Name   string                 `json:"name"`
	Strict bool                   `json:"strict"`
	Schema map[string]interface{} `json:"schema"`
}

type ResponseFormat struct {
	Type       string     `json:"type"`
	JSONSchema JSONSchema `json:"json_schema"`
}

type RequestPayload struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

// ParsedResponse is the normalized model answer. Confidence is 1.0 when the
// gateway ignored the JSON response contract and answered in plain text.
type ParsedResponse struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

type chatCompletionEnvelope struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenRouterService talks to an OpenRouter-compatible chat completions API
// with bounded retries and exponential backoff. Terminal failures are
// persisted best-effort as generation error log rows.
type OpenRouterService struct {
	apiKey     string
	baseURL    string
	siteURL    string
	httpClient *http.Client
	log        *logger.Logger
	store      ErrorLogStore

	mu             sync.RWMutex
	systemMessage  string
	modelConfig    ModelConfig
	responseFormat ResponseFormat

	maxRetries int
	baseDelay  time.Duration
}

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	SiteURL string
	Store   ErrorLogStore
	Logger  *logger.Logger
	Timeout time.Duration
}

func NewOpenRouterService(cfg OpenRouterConfig) (*OpenRouterService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("OpenRouter API key not found in environment variables")
	}
	if cfg.Store == nil {
		return nil, errors.New("error log store is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	siteURL := cfg.SiteURL
	if siteURL == "" {
		siteURL = defaultSiteURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenRouterService{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		siteURL:    siteURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        cfg.Logger,
		store:      cfg.Store,

		systemMessage: "You are a helpful assistant.",
		modelConfig: ModelConfig{
			Name:        "openai/gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1000,
			TopP:        0.9,
		},
		responseFormat: ResponseFormat{
			Type: "json_schema",
			JSONSchema: JSONSchema{
				Name:   "chatResponseSchema",
				Strict: true,
				Schema: map[string]interface{}{
					"answer":     map[string]interface{}{"type": "string"},
					"confidence": map[string]interface{}{"type": "number"},
				},
			},
		},

		maxRetries: 3,
		baseDelay:  time.Second,
	}, nil
}

// SetSystemMessage replaces the system prompt used on every request.
func (s *OpenRouterService) SetSystemMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return &ValidationError{Message: "system message cannot be empty"}
	}
	s.mu.Lock()
	s.systemMessage = message
	s.mu.Unlock()
	return nil
}

// UpdateModelConfig atomically replaces the whole model configuration.
func (s *OpenRouterService) UpdateModelConfig(cfg ModelConfig) error {
	if strings.TrimSpace(cfg.Name) == "" ||
		cfg.Temperature < 0 || cfg.Temperature > 1 ||
		cfg.MaxTokens < 1 ||
		cfg.TopP < 0 || cfg.TopP > 1 {
		return &ValidationError{Message: "invalid model configuration"}
	}
	s.mu.Lock()
	s.modelConfig = cfg
	s.mu.Unlock()
	return nil
}

func (s *OpenRouterService) SetResponseFormat(format ResponseFormat) error {
	if format.Type != "json_schema" || format.JSONSchema.Name == "" || format.JSONSchema.Schema == nil {
		return &ValidationError{Message: "invalid response format"}
	}
	s.mu.Lock()
	s.responseFormat = format
	s.mu.Unlock()
	return nil
}

func (s *OpenRouterService) ModelName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelConfig.Name
}

func (s *OpenRouterService) buildPayload(userMessage string) RequestPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RequestPayload{
		Messages: []Message{
			{Role: "system", Content: s.systemMessage},
			{Role: "user", Content: userMessage},
		},
		Model:       s.modelConfig.Name,
		Temperature: s.modelConfig.Temperature,
		MaxTokens:   s.modelConfig.MaxTokens,
		TopP:        s.modelConfig.TopP,
	}
}

// SendMessage performs the chat completion call with up to three attempts.
// Backoff before attempt k is baseDelay*2^(k-2); the caller's context aborts
// both the wait and the in-flight request. The terminal error is logged,
// recorded best-effort in generation_error_logs and returned.
func (s *OpenRouterService) SendMessage(ctx context.Context, userID uuid.UUID, userMessage string) (*ParsedResponse, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, &ValidationError{Message: "user message cannot be empty"}
	}

	payload := s.buildPayload(userMessage)

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.baseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				s.fail(ctx, userID, lastErr, &payload)
				return nil, lastErr
			}
		}

		s.log.Debug("sending request to OpenRouter",
			"attempt", attempt+1,
			"max_retries", s.maxRetries,
			"model", payload.Model,
		)

		parsed, err := s.post(ctx, &payload)
		if err == nil {
			s.log.Debug("received response from OpenRouter", "model", payload.Model)
			return parsed, nil
		}
		lastErr = err

		// Structural parse failures and caller aborts are terminal; another
		// attempt cannot fix them.
		var parseErr *ParseError
		if errors.As(err, &parseErr) || ctx.Err() != nil {
			break
		}
		if attempt < s.maxRetries-1 {
			s.log.Warn("request attempt failed, retrying",
				"attempt", attempt+1,
				"max_retries", s.maxRetries,
				"error", err.Error(),
			)
		}
	}

	if lastErr == nil {
		lastErr = errors.New("max retries exceeded")
	}
	s.fail(ctx, userID, lastErr, &payload)
	return nil, lastErr
}

func (s *OpenRouterService) post(ctx context.Context, payload *RequestPayload) (*ParsedResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("HTTP-Referer", s.siteURL)
	req.Header.Set("X-Title", appTitle)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		var failure struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Error != nil && failure.Error.Message != "" {
			gwErr.Message = failure.Error.Message
		}
		s.log.Error("request failed", gwErr, "status", resp.StatusCode, "model", payload.Model)
		return nil, gwErr
	}

	return parseResponse(raw)
}

// parseResponse validates the completion envelope and extracts the model
// answer. The gateway is not guaranteed to honor the requested JSON-schema
// response format, so content that is not a {answer, confidence} object is
// returned as a plain answer with full confidence.
func parseResponse(raw []byte) (*ParsedResponse, error) {
	var envelope chatCompletionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &ParseError{Message: "invalid completion envelope", Err: err}
	}
	if len(envelope.Choices) == 0 || envelope.Choices[0].Message.Content == nil {
		return nil, &ParseError{Message: "completion envelope has no message content"}
	}

	content := *envelope.Choices[0].Message.Content

	var shaped struct {
		Answer     *string  `json:"answer"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &shaped); err == nil && shaped.Answer != nil && shaped.Confidence != nil {
		return &ParsedResponse{Answer: *shaped.Answer, Confidence: *shaped.Confidence}, nil
	}

	return &ParsedResponse{Answer: content, Confidence: 1.0}, nil
}

// fail logs the terminal error and records it best-effort; a failed insert
// is itself only logged so it can never mask the original error.
func (s *OpenRouterService) fail(ctx context.Context, userID uuid.UUID, cause error, payload *RequestPayload) {
	s.log.Error("max retries exceeded", cause, "model", payload.Model)

	entry := &models.GenerationErrorLog{
		UserID:       userID,
		ErrorCode:    ErrorCode(cause),
		ErrorMessage: cause.Error(),
		Model:        payload.Model,
	}
	if raw, err := json.Marshal(payload); err == nil {
		entry.SourceTextHash = utils.HashText(string(raw))
		entry.SourceTextLength = len(raw)
	}

	if err := s.store.CreateErrorLog(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("failed to persist gateway error log", err)
	}
}
