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
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel          = "gemini-1.5-flash-latest"
)

// GeminiSource is the cloud LLM suggestion flow. It only runs when enabled
// and sits second in the chain, after the OpenAI source.
type GeminiSource struct {
	apiKey  string
	enabled bool
	baseURL string
	httpc   *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func NewGeminiSource(apiKey string, enabled bool, httpc *http.Client) *GeminiSource {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeminiSource{
		apiKey:      strings.TrimSpace(apiKey),
		enabled:     enabled,
		baseURL:     defaultGeminiBaseURL,
		httpc:       httpc,
		minInterval: 100 * time.Millisecond,
	}
}

func (s *GeminiSource) Name() string { return "gemini" }

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (s *GeminiSource) Suggest(ctx context.Context, sctx *Context) (models.SuggestionOutput, error) {
	if !s.enabled {
		return models.SuggestionOutput{}, errors.New("gemini flow disabled")
	}
	if s.apiKey == "" {
		return models.SuggestionOutput{}, errors.New("gemini api key not configured")
	}

	in := sctx.Input
	collected := strings.Join(in.CollectedTitles, ", ")
	if collected == "" {
		collected = "None"
	}

	prompt := fmt.Sprintf(`You are a movie and TV show recommendation expert for a platform called Cine-Spot. Your goal is to provide personalized and engaging recommendations. Only return the titles of the movies or shows.

Here is what I've been up to:
- Recently Watched: %s
- Recently Added: %s
- Highly Rated (Liked): %s

Here are the titles of movies/shows already in my library, do not recommend these: %s.

Based on this, generate the following for me:

1. "topPicks": a list of 5 diverse, must-watch movie or show titles tailored to my overall taste profile.
2. "carousels": between 1 and 3 groups, each with a "title" like "Because you watched..." or "Because you liked...", and "recommendations" containing exactly 5 relevant movie or show titles.

Respond with ONLY a JSON object of the form {"topPicks": [...], "carousels": [{"title": "...", "recommendations": [...]}]}. Do not provide any other data.`,
		in.WatchedTitles, in.AddedTitles, in.LikedTitles, collected)

	s.throttleMu.Lock()
	since := time.Since(s.lastRequest)
	if since < s.minInterval {
		time.Sleep(s.minInterval - since)
	}
	s.lastRequest = time.Now()
	s.throttleMu.Unlock()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, geminiModel, s.apiKey)
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.7,
			MaxOutputTokens:  1024,
			ResponseMIMEType: "application/json",
		},
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return models.SuggestionOutput{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return models.SuggestionOutput{}, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return models.SuggestionOutput{}, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.SuggestionOutput{}, fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return models.SuggestionOutput{}, fmt.Errorf("decode gemini response: %w", err)
	}
	if gr.Error != nil {
		return models.SuggestionOutput{}, fmt.Errorf("gemini error: %s", gr.Error.Message)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return models.SuggestionOutput{}, errors.New("gemini returned empty response")
	}

	return parseSuggestionJSON(gr.Candidates[0].Content.Parts[0].Text)
}
