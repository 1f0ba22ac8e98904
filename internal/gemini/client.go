// Package gemini adapts Google's Gemini API to the chat package's model
// contracts. A Client starts one-shot sessions primed with a persona
// instruction and replayed history; the session streams the reply.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/amorahq/amora/internal/chat"
	"github.com/amorahq/amora/internal/config"
)

// Client wraps the genai SDK. It implements chat.ModelClient.
type Client struct {
	genaiClient *genai.Client
	log         *slog.Logger
	baseConfig  *genai.GenerateContentConfig
	modelName   string
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a Gemini client from configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	// The persona is flirty; the default thresholds refuse too much of
	// the app's ordinary traffic.
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.Model)
	return &Client{
		genaiClient: gi,
		log:         logger,
		baseConfig:  baseCfg,
		modelName:   cfg.Model,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

// StartSession primes a session with the persona instruction and the
// replayed conversation history.
func (c *Client) StartSession(systemInstruction string, history []chat.ModelTurn) (chat.ModelSession, error) {
	cfg := *c.baseConfig
	if systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}}
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == chat.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}

	return &session{client: c, config: &cfg, history: contents}, nil
}

type session struct {
	client  *Client
	config  *genai.GenerateContentConfig
	history []*genai.Content
}

// SendStream sends the prompt and yields reply text chunks. A stream that
// fails before producing any text is retried on retriable API errors;
// once chunks have been yielded the error is surfaced instead, since
// replaying a half-delivered reply would duplicate text downstream.
func (s *session) SendStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	contents := append(append([]*genai.Content{}, s.history...),
		genai.NewContentFromText(prompt, genai.RoleUser))

	return func(yield func(string, error) bool) {
		ctx := ctx
		if s.client.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.client.timeout)
			defer cancel()
		}

		for attempt := 0; ; attempt++ {
			yielded := false
			var streamErr error
			for resp, err := range s.client.genaiClient.Models.GenerateContentStream(ctx, s.client.modelName, contents, s.config) {
				if err != nil {
					streamErr = err
					break
				}
				if text := resp.Text(); text != "" {
					yielded = true
					if !yield(text, nil) {
						return
					}
				}
			}
			if streamErr == nil {
				return
			}

			var apiErr *genai.APIError
			retriable := errors.As(streamErr, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503)
			if !yielded && retriable && attempt < s.client.maxRetries {
				s.client.log.WarnContext(ctx, "Gemini stream failed, retrying",
					"attempt", attempt+1, "max_retries", s.client.maxRetries, "code", apiErr.Code)
				time.Sleep(s.client.retryDelay)
				continue
			}

			s.client.log.ErrorContext(ctx, "Gemini stream failed", "error", streamErr, "yielded", yielded)
			yield("", fmt.Errorf("gemini stream failed: %w", streamErr))
			return
		}
	}
}
