// Package openai talks to an OpenAI-compatible chat completions API with vision support.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/metrics"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// deterministicTemperature stands in for 0: go-openai tags Temperature with
// omitempty, so a literal 0 is never sent and the provider default (1) applies.
const deterministicTemperature float32 = math.SmallestNonzeroFloat32

const systemPrompt = "You are an AI assistant that helps with image comparison. " +
	"Compare the uploaded image with the database images and return similarity scores."

const userPromptFormat = "The first image is the uploaded photo. The next %d images are database images, " +
	"numbered from 0 in the order given. For each database image return a similarity score between 0 and 1, " +
	"where 1 is an exact match of the same object. Reply with a JSON object of the form " +
	`{"results":[{"index":0,"similarity":0.0}]} containing exactly one entry per database image, in order.`

// Comparator scores candidate images against a query image with one chat completion per call.
type Comparator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	imageDetail openai.ImageURLDetail
	user        string
	logger      *zap.Logger
}

// Config holds the vision provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	ImageDetail string // low, high or auto; empty leaves the provider default
	User        string
	Logger      *zap.Logger
}

// NewComparator creates an OpenAI-compatible vision comparator.
func NewComparator(cfg *Config) *Comparator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Comparator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		imageDetail: openai.ImageURLDetail(cfg.ImageDetail),
		user:        cfg.User,
		logger:      logger,
	}
}

// Model returns the configured model name.
func (c *Comparator) Model() string { return c.model }

// Compare implements domain.Comparator. Scores follow the order of imageRefs.
func (c *Comparator) Compare(
	ctx context.Context, query string, imageRefs []string,
) (domain.ComparisonResult, error) {
	if len(imageRefs) == 0 {
		return domain.ComparisonResult{}, nil
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(query, imageRefs))

	duration := time.Since(start)

	if err != nil {
		c.recordFailure("api_error")
		return domain.ComparisonResult{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		c.recordFailure("empty_response")
		return domain.ComparisonResult{}, fmt.Errorf("empty completion response: %w", domain.ErrComparisonFailed)
	}

	scores, err := parseScores(resp.Choices[0].Message.Content, len(imageRefs))
	if err != nil {
		c.recordFailure("malformed_response")
		c.logger.Debug("Unparsable comparison reply",
			zap.String("model", c.model),
			zap.String("content", truncate(resp.Choices[0].Message.Content, 512)),
		)
		return domain.ComparisonResult{}, err
	}

	metrics.VisionRequestsTotal.WithLabelValues(c.model, "success").Inc()
	metrics.VisionRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	promptTokens := resp.Usage.PromptTokens
	totalTokens := resp.Usage.TotalTokens
	if totalTokens > 0 {
		metrics.VisionTokensTotal.WithLabelValues(c.model, "prompt").Add(float64(promptTokens))
		metrics.VisionTokensTotal.WithLabelValues(c.model, "total").Add(float64(totalTokens))
	}

	return domain.ComparisonResult{
		Scores:       scores,
		PromptTokens: promptTokens,
		TotalTokens:  totalTokens,
	}, nil
}

func (c *Comparator) buildRequest(query string, imageRefs []string) openai.ChatCompletionRequest {
	parts := make([]openai.ChatMessagePart, 0, len(imageRefs)+2)
	parts = append(parts,
		openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: fmt.Sprintf(userPromptFormat, len(imageRefs)),
		},
		c.imagePart(query),
	)
	for _, ref := range imageRefs {
		parts = append(parts, c.imagePart(ref))
	}

	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		Temperature: deterministicTemperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		User: c.user,
	}
}

func (c *Comparator) imagePart(url string) openai.ChatMessagePart {
	return openai.ChatMessagePart{
		Type:     openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: c.imageDetail},
	}
}

func (c *Comparator) recordFailure(errorType string) {
	metrics.VisionRequestsTotal.WithLabelValues(c.model, "error").Inc()
	metrics.VisionErrorsTotal.WithLabelValues(c.model, errorType).Inc()
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Comparator) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

type scoreReply struct {
	Results []struct {
		Index      *int     `json:"index"`
		Similarity *float64 `json:"similarity"`
	} `json:"results"`
}

// parseScores reads exactly n scores from the model reply, in array order.
// An entry's index, when present, must match its position.
func parseScores(content string, n int) ([]float64, error) {
	var reply scoreReply
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &reply); err != nil {
		return nil, fmt.Errorf("decode comparison reply: %v: %w", err, domain.ErrComparisonFailed)
	}
	if len(reply.Results) != n {
		return nil, fmt.Errorf("comparison reply has %d results for %d images: %w",
			len(reply.Results), n, domain.ErrComparisonFailed)
	}

	scores := make([]float64, n)
	for i := range n {
		if idx := reply.Results[i].Index; idx != nil && *idx != i {
			return nil, fmt.Errorf("comparison result %d has index %d: %w", i, *idx, domain.ErrComparisonFailed)
		}
		s := reply.Results[i].Similarity
		if s == nil {
			return nil, fmt.Errorf("comparison result %d has no similarity: %w", i, domain.ErrComparisonFailed)
		}
		scores[i] = *s
	}
	return scores, nil
}

// stripCodeFence removes a ```json fence some providers wrap around JSON replies.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// parseAPIError extracts a human-readable error from the API response.
// All errors wrap domain.ErrComparisonFailed.
func parseAPIError(err error) error {
	wrap := domain.ErrComparisonFailed

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("vision API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("vision API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("vision API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("vision request: %w: %w", err, wrap)
	}
	return fmt.Errorf("vision request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Azure/Nebius style).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
