// Package fal is a small REST client for fal.ai image generation
// endpoints. It implements chat.ImageClient for the companion flow and
// exposes the model table backing the direct image endpoint.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amorahq/amora/internal/config"
)

// Sentinel errors the HTTP layer maps to response statuses.
var (
	ErrNotConfigured    = errors.New("fal: API key not configured")
	ErrUnknownModel     = errors.New("fal: unknown model")
	ErrMissingPrompt    = errors.New("fal: prompt is required")
	ErrMissingBaseImage = errors.New("fal: baseImage is required")
)

// Model describes one fal.ai endpoint the service exposes.
type Model struct {
	Label         string
	Endpoint      string
	NeedsPrompt   bool
	NeedsBaseImg  bool
	PromptPrefix  string
	ResultInImage bool // result under "image" instead of "images[0]"
}

// models is the supported model table. Labels are the values the mobile
// client sends in the request body.
var models = map[string]Model{
	"flux-pro": {
		Label:       "flux-pro",
		Endpoint:    "fal-ai/flux-pro/v1.1-ultra",
		NeedsPrompt: true,
	},
	"stableDiffusionXL": {
		Label:       "stableDiffusionXL",
		Endpoint:    "110602490-fast-sdxl",
		NeedsPrompt: true,
	},
	"fastImage": {
		Label:       "fastImage",
		Endpoint:    "110602490-lcm",
		NeedsPrompt: true,
	},
	"illusionDiffusion": {
		Label:         "illusionDiffusion",
		Endpoint:      "54285744-illusion-diffusion",
		NeedsPrompt:   true,
		NeedsBaseImg:  true,
		PromptPrefix:  "(masterpiece:1.4), (best quality), (detailed), ",
		ResultInImage: true,
	},
}

// Client calls fal.ai over its synchronous REST surface.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
	baseURL    string
	apiKey     string
	chatModel  string
}

// NewClient creates a fal.ai client. An empty API key is tolerated; calls
// then fail with ErrNotConfigured.
func NewClient(cfg config.FalConfig, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("component", "fal_client"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		chatModel:  cfg.Model,
	}
}

type generateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type imageResult struct {
	URL string `json:"url"`
}

type generateResponse struct {
	Images []imageResult `json:"images"`
	Image  *imageResult  `json:"image"`
}

// Generate produces an image for the companion chat flow using the
// configured default model. An empty URL with a nil error means the
// provider returned no image without a hard failure.
func (c *Client) Generate(ctx context.Context, prompt, aspectRatio string) (string, error) {
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}
	return c.call(ctx, c.chatModel, generateRequest{Prompt: prompt, AspectRatio: aspectRatio}, false)
}

// GenerateForModel serves the direct image endpoint: it validates the
// request against the model table and runs the generation.
func (c *Client) GenerateForModel(ctx context.Context, label, prompt, baseImage, aspectRatio string) (string, error) {
	m, ok := models[label]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, label)
	}
	if m.NeedsPrompt && prompt == "" {
		return "", fmt.Errorf("%w for model %s", ErrMissingPrompt, label)
	}
	if m.NeedsBaseImg && baseImage == "" {
		return "", fmt.Errorf("%w for model %s", ErrMissingBaseImage, label)
	}

	req := generateRequest{
		Prompt:   m.PromptPrefix + prompt,
		ImageURL: baseImage,
	}
	if label == "flux-pro" {
		if aspectRatio == "" {
			aspectRatio = "1:1"
		}
		req.AspectRatio = aspectRatio
	}
	return c.call(ctx, m.Endpoint, req, m.ResultInImage)
}

func (c *Client) call(ctx context.Context, endpoint string, payload generateRequest, resultInImage bool) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("fal: encoding request: %w", err)
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("fal: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fal: calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fal: %s returned status %d: %s", endpoint, resp.StatusCode, snippet)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("fal: decoding response: %w", err)
	}

	switch {
	case resultInImage:
		if out.Image != nil {
			return out.Image.URL, nil
		}
	case len(out.Images) > 0:
		return out.Images[0].URL, nil
	}

	c.log.WarnContext(ctx, "fal response contained no image", "endpoint", endpoint)
	return "", nil
}
