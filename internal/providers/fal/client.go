package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"storybook/internal/infra"
	"storybook/internal/providers/image"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("fal: api key is required")

const analysisPrompt = "Describe the child's face, hair color, hair texture, eye color, nose shape, and body type in detail. Be precise about facial features to ensure resemblance. Do not describe the clothing or background. Example: 'a cute chubby toddler with round cheeks, button nose, curly brown hair and big expressive hazel eyes'."

// Options configures the fal.ai queue client.
type Options struct {
	APIKey       string
	BaseURL      string // queue host, e.g. https://queue.fal.run
	SyncBaseURL  string // synchronous host for the vision model
	Model        string
	VisionModel  string
	CostPerImage float64
	HTTPClient   *http.Client
	Logger       *infra.Logger
	PollInterval time.Duration
	MaxPolls     int
}

// Client performs HTTP calls against the fal.ai queue and vision APIs.
type Client struct {
	apiKey       string
	baseURL      string
	syncBaseURL  string
	model        string
	visionModel  string
	costPerImage float64
	httpClient   *http.Client
	logger       *infra.Logger
	pollInterval time.Duration
	maxPolls     int
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://queue.fal.run"
	}
	syncBaseURL := strings.TrimRight(opts.SyncBaseURL, "/")
	if syncBaseURL == "" {
		syncBaseURL = "https://fal.run"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "fal-ai/nano-banana/edit"
	}
	visionModel := strings.TrimSpace(opts.VisionModel)
	if visionModel == "" {
		visionModel = "fal-ai/llava-next"
	}
	cost := opts.CostPerImage
	if cost <= 0 {
		cost = 0.04
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 60
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		syncBaseURL:  syncBaseURL,
		model:        model,
		visionModel:  visionModel,
		costPerImage: cost,
		httpClient:   httpClient,
		logger:       logger,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// AnalyzeFace asks the vision model for a textual description of the
// subject's face. Unlike Generate, the vision endpoint is synchronous.
func (c *Client) AnalyzeFace(ctx context.Context, photoURL string) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	photoURL = strings.TrimSpace(photoURL)
	if photoURL == "" {
		return "", errors.New("fal: photo url is required")
	}

	payload := map[string]any{
		"image_url":  photoURL,
		"prompt":     analysisPrompt,
		"max_tokens": 150,
	}
	raw, status, err := c.postJSON(ctx, c.syncBaseURL+"/"+c.visionModel, payload)
	if err != nil {
		return "", fmt.Errorf("fal: face analysis request: %w", err)
	}
	if status >= 300 {
		return "", fmt.Errorf("fal: face analysis status %d: %s", status, truncate(raw, 200))
	}
	description := strings.TrimSpace(gjson.GetBytes(raw, "output").String())
	if description == "" {
		return "", errors.New("fal: face analysis returned empty output")
	}
	c.logger.Debug().Int("length", len(description)).Msg("fal: face analysis completed")
	return description, nil
}

// Generate submits a generation job to the queue API and waits for a
// terminal state. Expected failures (provider FAILED/CANCELLED, polling
// timeout, transport faults) come back as a non-success Outcome.
func (c *Client) Generate(ctx context.Context, req image.GenerateRequest) image.Outcome {
	start := time.Now()
	if !c.HasCredentials() {
		return image.Failure(image.ReasonTransport, ErrMissingAPIKey.Error())
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return image.Failure(image.ReasonNoImage, "fal: prompt is required")
	}

	payload := map[string]any{
		"prompt":          prompt,
		"image_urls":      []string{req.FaceImageURL},
		"aspect_ratio":    aspectRatioOrDefault(req.AspectRatio),
		"negative_prompt": "black bars, letterbox, scope, cinema bars, blurry, low quality, distorted face",
	}
	if req.Seed > 0 {
		payload["seed"] = req.Seed
	}

	raw, status, err := c.postJSON(ctx, c.baseURL+"/"+c.model, payload)
	if err != nil {
		return c.fail(image.ReasonTransport, fmt.Sprintf("fal: submit: %v", err), start)
	}
	if status >= 300 {
		return c.fail(image.ReasonServerFailure, fmt.Sprintf("fal: submit status %d: %s", status, truncate(raw, 200)), start)
	}

	queueStatus := gjson.GetBytes(raw, "status").String()
	if queueStatus == "IN_QUEUE" || queueStatus == "IN_PROGRESS" {
		return c.pollForResult(ctx, raw, start)
	}

	// Immediate terminal response.
	url := extractImageURL(raw)
	if url == "" {
		return c.fail(image.ReasonNoImage, "fal: response did not contain an image url", start)
	}
	return c.success(url, start)
}

// pollForResult walks the queue status endpoint until a terminal state or the
// poll budget is exhausted. Transient poll errors are logged and retried on
// the next tick rather than aborting the wait.
func (c *Client) pollForResult(ctx context.Context, submitBody []byte, start time.Time) image.Outcome {
	statusURL := gjson.GetBytes(submitBody, "status_url").String()
	responseURL := gjson.GetBytes(submitBody, "response_url").String()
	requestID := gjson.GetBytes(submitBody, "request_id").String()

	if statusURL == "" || responseURL == "" {
		return c.fail(image.ReasonServerFailure, "fal: queue response missing status_url or response_url", start)
	}

	c.logger.Debug().
		Str("model", c.model).
		Str("request_id", requestID).
		Msg("fal: polling for completion")

	for poll := 0; poll < c.maxPolls; poll++ {
		raw, status, err := c.getJSON(ctx, statusURL)
		if err != nil {
			if ctx.Err() != nil {
				return c.fail(image.ReasonTransport, fmt.Sprintf("fal: poll: %v", ctx.Err()), start)
			}
			c.logger.Warn().Err(err).Int("poll", poll+1).Msg("fal: poll error")
			if !c.sleep(ctx) {
				return c.fail(image.ReasonTransport, "fal: poll cancelled", start)
			}
			continue
		}
		if status >= 300 {
			c.logger.Warn().Int("status", status).Int("poll", poll+1).Msg("fal: poll status error")
			if !c.sleep(ctx) {
				return c.fail(image.ReasonTransport, "fal: poll cancelled", start)
			}
			continue
		}

		switch gjson.GetBytes(raw, "status").String() {
		case "COMPLETED":
			result, status, err := c.getJSON(ctx, responseURL)
			if err != nil {
				return c.fail(image.ReasonTransport, fmt.Sprintf("fal: fetch result: %v", err), start)
			}
			if status >= 300 {
				return c.fail(image.ReasonServerFailure, fmt.Sprintf("fal: fetch result status %d", status), start)
			}
			url := extractImageURL(result)
			if url == "" {
				return c.fail(image.ReasonNoImage, "fal: completed result did not contain an image url", start)
			}
			return c.success(url, start)
		case "FAILED", "CANCELLED":
			detail := gjson.GetBytes(raw, "error").String()
			return c.fail(image.ReasonServerFailure, fmt.Sprintf("fal: job %s: %s", strings.ToLower(gjson.GetBytes(raw, "status").String()), detail), start)
		}

		if !c.sleep(ctx) {
			return c.fail(image.ReasonTransport, "fal: poll cancelled", start)
		}
	}

	return c.fail(image.ReasonTimeout, fmt.Sprintf("fal: polling budget exhausted after %d attempts", c.maxPolls), start)
}

func (c *Client) success(url string, start time.Time) image.Outcome {
	return image.Outcome{
		Success:  true,
		ImageURL: url,
		Model:    c.model,
		Cost:     c.costPerImage,
		Latency:  time.Since(start),
	}
}

func (c *Client) fail(reason image.FailureReason, message string, start time.Time) image.Outcome {
	c.logger.Debug().Str("reason", string(reason)).Str("detail", message).Msg("fal: generation failed")
	out := image.Failure(reason, message)
	out.Model = c.model
	out.Latency = time.Since(start)
	return out
}

// sleep waits one poll interval, honoring cancellation. It reports whether
// the wait completed.
func (c *Client) sleep(ctx context.Context) bool {
	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)
	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func aspectRatioOrDefault(ratio string) string {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return "5:4"
	}
	return ratio
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n]
	}
	return s
}

var _ image.Generator = (*Client)(nil)
