// Package llm implements the advisor port backed by OpenAI-compatible chat
// completion APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"PrivacyScanner/internal/config"
	"PrivacyScanner/internal/domain"
	"PrivacyScanner/internal/ports"
)

const maxRecommendations = 5

// OpenAIAdvisor implements ports.Advisor against a chat-completions
// endpoint.
type OpenAIAdvisor struct {
	endpoint        string
	model           string
	apiKey          string
	recommendPrompt string
	rewritePrompt   string
	httpClient      *http.Client
}

var _ ports.Advisor = (*OpenAIAdvisor)(nil)

// NewOpenAIAdvisor builds an advisor from configuration. It returns nil
// when no API key is configured, which the advisory policy treats as
// "advisor unavailable".
func NewOpenAIAdvisor(cfg config.AdvisoryConfig) *OpenAIAdvisor {
	if cfg.APIKey == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIAdvisor{
		endpoint:        cfg.Endpoint,
		model:           cfg.Model,
		apiKey:          cfg.APIKey,
		recommendPrompt: cfg.RecommendPrompt,
		rewritePrompt:   cfg.RewritePrompt,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Recommend asks the model for privacy recommendations and parses the
// numbered or bulleted list it returns.
func (c *OpenAIAdvisor) Recommend(
	ctx context.Context,
	text string,
	entities domain.CanonicalEntitySet,
	tier domain.RiskTier,
) ([]string, error) {
	user := fmt.Sprintf("Risk level: %s\nDetected information:\n%s\n\nText:\n%s",
		tier, entitySummary(entities), text)

	content, err := c.complete(ctx, c.recommendPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	recs := parseList(content)
	if len(recs) == 0 {
		return nil, fmt.Errorf("recommend: no list items in model response")
	}
	return recs, nil
}

// Rewrite asks the model for a privacy-safe version of the text.
func (c *OpenAIAdvisor) Rewrite(
	ctx context.Context,
	text string,
	entities domain.CanonicalEntitySet,
) (string, error) {
	user := fmt.Sprintf("Detected information:\n%s\n\nText:\n%s", entitySummary(entities), text)

	content, err := c.complete(ctx, c.rewritePrompt, user)
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("rewrite: empty model response")
	}
	return content, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIAdvisor) complete(ctx context.Context, system, user string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("advisor client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("advisor client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat completion %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// entitySummary groups detected entities by kind, capped at three examples
// per kind to keep prompts small.
func entitySummary(entities domain.CanonicalEntitySet) string {
	if len(entities) == 0 {
		return "none"
	}

	groups := make(map[domain.EntityKind][]string)
	order := make([]domain.EntityKind, 0, len(entities))
	for _, sp := range entities {
		if _, seen := groups[sp.Kind]; !seen {
			order = append(order, sp.Kind)
		}
		if len(groups[sp.Kind]) < 3 {
			groups[sp.Kind] = append(groups[sp.Kind], sp.Text)
		}
	}

	var b strings.Builder
	for _, kind := range order {
		fmt.Fprintf(&b, "- %s: %s\n", kind, strings.Join(groups[kind], ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseList extracts numbered or bulleted lines from a model response.
func parseList(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] >= '0' && line[0] <= '9' || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
			item := strings.TrimLeft(line, "0123456789.-*) ")
			if item != "" {
				items = append(items, item)
			}
		}
		if len(items) == maxRecommendations {
			break
		}
	}
	return items
}
