package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"cinespot/models"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
)

// OpenAISource asks the OpenAI chat completions API for title suggestions.
// Despite being built as the fallback endpoint, it runs first in the chain
// per current product behavior.
type OpenAISource struct {
	apiKey  string
	model   string
	baseURL string
	httpc   *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func NewOpenAISource(apiKey, model string, httpc *http.Client) *OpenAISource {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	return &OpenAISource{
		apiKey:      strings.TrimSpace(apiKey),
		model:       model,
		baseURL:     defaultOpenAIBaseURL,
		httpc:       httpc,
		minInterval: 100 * time.Millisecond,
	}
}

func (s *OpenAISource) Name() string { return "openai" }

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const openAISystemPrompt = `You are a concise movie and TV suggestion assistant. Return only JSON with two fields: topPicks (array of 5 titles) and carousels (array of { title, recommendations: [5 titles] }). Do not include any commentary.`

func (s *OpenAISource) Suggest(ctx context.Context, sctx *Context) (models.SuggestionOutput, error) {
	if s.apiKey == "" {
		return models.SuggestionOutput{}, errors.New("openai api key not configured")
	}

	in := sctx.Input
	collected := strings.Join(in.CollectedTitles, ", ")
	if collected == "" {
		collected = "None"
	}
	userPrompt := fmt.Sprintf("User context:\n- Recently Watched: %s\n- Recently Added: %s\n- Liked: %s\n- Already in library: %s\n\nProvide topPicks and 1-3 carousels such as \"Because you watched...\", each with 5 titles. Only return JSON.",
		in.WatchedTitles, in.AddedTitles, in.LikedTitles, collected)

	s.throttleMu.Lock()
	since := time.Since(s.lastRequest)
	if since < s.minInterval {
		time.Sleep(s.minInterval - since)
	}
	s.lastRequest = time.Now()
	s.throttleMu.Unlock()

	reqBody := openAIChatRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.8,
		MaxTokens:   600,
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return models.SuggestionOutput{}, fmt.Errorf("marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return models.SuggestionOutput{}, fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return models.SuggestionOutput{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.SuggestionOutput{}, fmt.Errorf("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chat openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return models.SuggestionOutput{}, fmt.Errorf("decode openai response: %w", err)
	}
	if chat.Error != nil {
		return models.SuggestionOutput{}, fmt.Errorf("openai error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return models.SuggestionOutput{}, errors.New("openai returned no choices")
	}

	return parseSuggestionJSON(chat.Choices[0].Message.Content)
}

// parseSuggestionJSON extracts the suggestion object from model output that
// may wrap the JSON in prose or markdown fences. Unparseable content is an
// empty result rather than an error worth surfacing to users.
func parseSuggestionJSON(content string) (models.SuggestionOutput, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first == -1 || last <= first {
		return models.SuggestionOutput{}, nil
	}

	var out models.SuggestionOutput
	if err := json.Unmarshal([]byte(cleaned[first:last+1]), &out); err != nil {
		return models.SuggestionOutput{}, nil
	}
	return out, nil
}
