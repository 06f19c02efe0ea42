package service

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ProbeResult is one preflight request against the target endpoint.
type ProbeResult struct {
	Attempt          int
	Success          bool
	Latency          time.Duration
	TimeToFirstToken time.Duration
	Tokens           int
	Response         string
	Error            string
}

// ProbeService checks the target LLM endpoint directly, before a job is
// ever submitted. It sends a handful of sequential requests; it is a
// connectivity preflight, not a load generator.
type ProbeService struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewProbeService creates a probe against an OpenAI-compatible endpoint.
func NewProbeService(baseURL, apiKey, model string, timeout time.Duration) *ProbeService {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &ProbeService{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

const probePrompt = "Reply with the single word OK."

// Probe sends one non-streaming request and measures the round trip.
func (s *ProbeService) Probe(ctx context.Context, attempt int) ProbeResult {
	start := time.Now()
	result := ProbeResult{Attempt: attempt}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Chat.Completions.New(timeoutCtx, openai.ChatCompletionNewParams{
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(probePrompt)},
		Model:     s.model,
		MaxTokens: openai.Int(16),
	})
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	if len(resp.Choices) > 0 {
		result.Response = resp.Choices[0].Message.Content
	}
	if resp.Usage.TotalTokens > 0 {
		result.Tokens = int(resp.Usage.TotalTokens)
	}
	return result
}

// ProbeStream sends one streaming request and measures time to first token
// alongside the full round trip.
func (s *ProbeService) ProbeStream(ctx context.Context, attempt int) ProbeResult {
	start := time.Now()
	result := ProbeResult{Attempt: attempt}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream := s.client.Chat.Completions.NewStreaming(timeoutCtx, openai.ChatCompletionNewParams{
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(probePrompt)},
		Model:     s.model,
		MaxTokens: openai.Int(16),
	})
	defer stream.Close()

	var content string
	first := true
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if first {
				result.TimeToFirstToken = time.Since(start)
				first = false
			}
			content += chunk.Choices[0].Delta.Content
			result.Tokens++
		}
	}
	result.Latency = time.Since(start)
	if err := stream.Err(); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Response = content
	return result
}

// ProbeSeries runs n sequential probes and returns every result. The
// context cancels the remaining attempts.
func (s *ProbeService) ProbeSeries(ctx context.Context, n int, streaming bool) ([]ProbeResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("probe count must be greater than 0")
	}
	results := make([]ProbeResult, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if streaming {
			results = append(results, s.ProbeStream(ctx, i))
		} else {
			results = append(results, s.Probe(ctx, i))
		}
	}
	return results, nil
}
