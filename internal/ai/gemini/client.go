package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	logfields "github.com/spigell/interview-screener/internal/logger"
	"github.com/spigell/interview-screener/internal/utils"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	baseBackoff       = time.Second
	// Quota errors asking to wait longer than this are not retried.
	maxRetryDelay = 30 * time.Second
)

var (
	sleep = utils.WaitFor

	retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Generator sends single-turn prompts to Gemini. Every call opens a fresh
// chat, so no context is carried between evaluations.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
// maxRetries is the total number of attempts; timeout bounds each attempt.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, timeout time.Duration, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{
		chats:      genaiChats{chats: client.Chats},
		model:      model,
		maxRetries: maxRetries,
		timeout:    timeout,
		logger:     logfields.WithAI(logger, providerName, model),
	}, nil
}

// GenerateContent sends the prompt as one user message and returns the
// textual response. Temporary failures are retried with a linear backoff.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	attempt := 1
	for ; attempt <= attempts; attempt++ {
		output, err := g.generateOnce(ctx, prompt)
		if err == nil {
			return output, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if attempt == attempts {
			break
		}

		delay, retry := retryDelay(err, attempt)
		if !retry {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	if attempt > attempts {
		attempt = attempts
	}

	return "", fmt.Errorf("gemini generate content after %d attempt(s): %w", attempt, lastErr)
}

func (g *Generator) generateOnce(ctx context.Context, prompt string) (string, error) {
	timeout := g.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	}

	chat, err := g.chats.Create(attemptCtx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(attemptCtx, genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// retryDelay decides whether err is temporary and how long to wait.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	backoff := time.Duration(attempt) * baseBackoff

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			if delay, ok := requestedDelay(apiErr); ok {
				if delay > maxRetryDelay {
					return 0, false
				}
				return delay, true
			}
			return backoff, true
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return backoff, true
		default:
			return 0, false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return backoff, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return backoff, true
	}

	return 0, false
}

// requestedDelay extracts a server-provided retry delay from RetryInfo
// details or from the error message.
func requestedDelay(apiErr genai.APIError) (time.Duration, bool) {
	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil {
			return d, true
		}
	}

	match := retryAfterPattern.FindStringSubmatch(apiErr.Message)
	if len(match) != 2 {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	return time.Duration(seconds * float64(time.Second)), true
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
