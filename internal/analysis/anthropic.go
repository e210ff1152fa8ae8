package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/richdownie/healthme/internal"
)

const (
	DefaultBaseURL  = "https://api.anthropic.com"
	DefaultModel    = "claude-haiku-4-5-20251001"
	apiVersion      = "2023-06-01"
	defaultTimeout  = 15 * time.Second
	dietTipsTimeout = 20 * time.Second
	maxBodyPreview  = 200
)

type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	DietTipsTimeout time.Duration
}

// New returns the Anthropic-backed gateway, or Disabled when enabled is false.
func New(enabled bool, cfg Config, logger internal.Logger) Gateway {
	if !enabled {
		return Disabled{}
	}
	return NewAnthropicClient(cfg, logger)
}

// AnthropicClient talks to the messages API. A user's own API key takes
// precedence over the configured one.
type AnthropicClient struct {
	cfg        Config
	httpClient *http.Client
	logger     internal.Logger
}

func NewAnthropicClient(cfg Config, logger internal.Logger) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DietTipsTimeout <= 0 {
		cfg.DietTipsTimeout = dietTipsTimeout
	}
	return &AnthropicClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *AnthropicClient) WithHTTPClient(hc *http.Client) *AnthropicClient {
	c.httpClient = hc
	return c
}

func (c *AnthropicClient) apiKey(u *internal.User) string {
	if u != nil && strings.TrimSpace(u.LLMAPIKey) != "" {
		return strings.TrimSpace(u.LLMAPIKey)
	}
	return strings.TrimSpace(c.cfg.APIKey)
}

// --- Operations ---

func (c *AnthropicClient) EstimateCalories(ctx context.Context, req *CalorieRequest) (*CalorieEstimate, error) {
	if len(req.Images) == 0 && strings.TrimSpace(req.Notes) == "" {
		return nil, fmt.Errorf("%w: nothing to estimate", ErrNoResult)
	}

	var content []contentBlock
	for _, img := range req.Images {
		if img.Data == "" || img.ContentType == "" {
			continue
		}
		content = append(content, contentBlock{
			Type:   "image",
			Source: &imageSource{Type: "base64", MediaType: img.ContentType, Data: img.Data},
		})
	}
	content = append(content, contentBlock{Type: "text", Text: caloriePrompt(req)})

	var out struct {
		Calories    float64  `json:"calories"`
		Description string   `json:"description"`
		ProteinG    *float64 `json:"protein_g"`
		CarbsG      *float64 `json:"carbs_g"`
		FatG        *float64 `json:"fat_g"`
		FiberG      *float64 `json:"fiber_g"`
		SugarG      *float64 `json:"sugar_g"`
	}
	if err := c.completeJSON(ctx, "calories", req.User, content, 300, c.cfg.Timeout, &out); err != nil {
		return nil, err
	}
	calories := int(math.Round(out.Calories))
	if calories <= 0 {
		c.logger.Warnf("analysis: calories estimate was %v", out.Calories)
		return nil, fmt.Errorf("%w: non-positive calories", ErrNoResult)
	}
	return &CalorieEstimate{
		Calories:    calories,
		Description: strings.TrimSpace(out.Description),
		ProteinG:    nonNegative(out.ProteinG),
		CarbsG:      nonNegative(out.CarbsG),
		FatG:        nonNegative(out.FatG),
		FiberG:      nonNegative(out.FiberG),
		SugarG:      nonNegative(out.SugarG),
	}, nil
}

func (c *AnthropicClient) AnalyzeBloodPressure(ctx context.Context, req *BloodPressureRequest) (*BPAnalysis, error) {
	if req.Systolic <= 0 || req.Diastolic <= 0 {
		return nil, fmt.Errorf("%w: missing reading", ErrNoResult)
	}
	var out struct {
		Analysis       string `json:"analysis"`
		Risk           string `json:"risk"`
		Classification string `json:"classification"`
	}
	if err := c.completeJSON(ctx, "blood_pressure", req.User, bloodPressurePrompt(req), 400, c.cfg.Timeout, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Analysis) == "" {
		return nil, c.empty("blood_pressure")
	}
	return &BPAnalysis{
		Analysis:       strings.TrimSpace(out.Analysis),
		Risk:           ParseRisk(out.Risk, RiskMedium),
		Classification: out.Classification,
	}, nil
}

func (c *AnthropicClient) AnalyzeSleep(ctx context.Context, req *SleepRequest) (*SleepAnalysis, error) {
	if req.Hours <= 0 {
		return nil, fmt.Errorf("%w: missing hours", ErrNoResult)
	}
	var out struct {
		Analysis         string   `json:"analysis"`
		Quality          string   `json:"quality"`
		RecommendedHours *float64 `json:"recommended_hours"`
	}
	if err := c.completeJSON(ctx, "sleep", req.User, sleepPrompt(req), 400, c.cfg.Timeout, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Analysis) == "" {
		return nil, c.empty("sleep")
	}
	return &SleepAnalysis{
		Analysis:         strings.TrimSpace(out.Analysis),
		Quality:          ParseQuality(out.Quality),
		RecommendedHours: out.RecommendedHours,
	}, nil
}

func (c *AnthropicClient) AnalyzeMedication(ctx context.Context, req *MedicationRequest) (*MedicationAnalysis, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: missing name", ErrNoResult)
	}
	var out struct {
		Analysis string `json:"analysis"`
		Risk     string `json:"risk"`
		Category string `json:"category"`
	}
	if err := c.completeJSON(ctx, "medication", req.User, medicationPrompt(req), 400, c.cfg.Timeout, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Analysis) == "" {
		return nil, c.empty("medication")
	}
	return &MedicationAnalysis{
		Analysis: strings.TrimSpace(out.Analysis),
		Risk:     ParseRisk(out.Risk, RiskLow),
		Category: out.Category,
	}, nil
}

func (c *AnthropicClient) DietTips(ctx context.Context, req *DietTipsRequest) (*DietTips, error) {
	if !req.User.ProfileComplete() {
		return nil, fmt.Errorf("%w: %w", ErrNoResult, internal.ErrProfileIncomplete)
	}
	text, err := c.complete(ctx, "diet_tips", req.User, dietTipsPrompt(req), 400, c.cfg.DietTipsTimeout)
	if err != nil {
		return nil, err
	}
	return &DietTips{Tips: text, Items: splitTips(text)}, nil
}

func (c *AnthropicClient) empty(kind string) error {
	c.logger.Warnf("analysis: %s reply had no analysis text", kind)
	return fmt.Errorf("%w: empty analysis", ErrNoResult)
}

// --- Transport ---

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

// complete sends one user message and returns the first text block. Every
// failure is logged and reported as ErrNoResult.
func (c *AnthropicClient) complete(ctx context.Context, kind string, user *internal.User, content any, maxTokens int, timeout time.Duration) (string, error) {
	key := c.apiKey(user)
	if key == "" {
		return "", fmt.Errorf("%w: no API key", ErrNoResult)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: content}},
	})
	if err != nil {
		return "", c.fail(kind, fmt.Errorf("marshal request: %w", err))
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", c.fail(kind, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail(kind, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.fail(kind, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.fail(kind, fmt.Errorf("status %d: %s", resp.StatusCode, preview(body)))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", c.fail(kind, fmt.Errorf("decode response: %w | body: %s", err, preview(body)))
	}
	for _, block := range parsed.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", c.fail(kind, fmt.Errorf("no text in reply"))
}

func (c *AnthropicClient) completeJSON(ctx context.Context, kind string, user *internal.User, content any, maxTokens int, timeout time.Duration, v any) error {
	text, err := c.complete(ctx, kind, user, content, maxTokens, timeout)
	if err != nil {
		return err
	}
	if err := extractJSON(text, v); err != nil {
		return c.fail(kind, err)
	}
	return nil
}

func (c *AnthropicClient) fail(kind string, err error) error {
	c.logger.Warnf("analysis: %s failed: %v", kind, err)
	return fmt.Errorf("%w: %v", ErrNoResult, err)
}

// --- Reply parsing ---

// extractJSON decodes the first JSON object embedded in free text. Anything
// after the object is ignored.
func extractJSON(text string, v any) error {
	start := strings.Index(text, "{")
	if start < 0 {
		return fmt.Errorf("no JSON object in reply: %s", preview([]byte(text)))
	}
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode JSON reply: %w", err)
	}
	return nil
}

// splitTips breaks a numbered or bulleted list into its items.
func splitTips(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•* \t")
		if rest := strings.TrimLeft(line, "0123456789"); rest != line && (strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, ")")) {
			line = strings.TrimSpace(rest[1:])
		}
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > maxBodyPreview {
		s = s[:maxBodyPreview] + "..."
	}
	return s
}

func nonNegative(v *float64) *float64 {
	if v == nil || *v < 0 || math.IsNaN(*v) {
		return nil
	}
	r := internal.Round1(*v)
	return &r
}
