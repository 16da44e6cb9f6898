package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

type geminiModelList struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
	NextPageToken string `json:"nextPageToken"`
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	return &GeminiProvider{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(config, 60*time.Second),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the key can list models
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.ListModels(ctx)
	return err == nil
}

// Generate calls the generateContent endpoint
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := p.config.model(req, defaultGeminiModel)

	apiReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: p.config.maxTokens(req),
		},
	}
	if req.System != "" {
		apiReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(model), url.QueryEscape(p.apiKey))

	var resp geminiResponse
	if err := DoJSON(ctx, p.httpClient, p.Name(), http.MethodPost, endpoint, nil, apiReq, &resp, p.decodeError); err != nil {
		return nil, err
	}

	if resp.PromptFeedback.BlockReason != "" {
		return nil, malformedError(p.Name(), fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 {
		return nil, malformedError(p.Name(), errors.New("no candidates in response"))
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	respModel := resp.ModelVersion
	if respModel == "" {
		respModel = model
	}

	return &Response{
		Text:       strings.TrimSpace(text.String()),
		Model:      respModel,
		TokensUsed: resp.UsageMetadata.TotalTokenCount,
	}, nil
}

// ListModels returns model names without the "models/" prefix
func (p *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	pageToken := ""
	for {
		endpoint := fmt.Sprintf("%s/v1beta/models?key=%s&pageSize=100", p.baseURL, url.QueryEscape(p.apiKey))
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var list geminiModelList
		if err := DoJSON(ctx, p.httpClient, p.Name(), http.MethodGet, endpoint, nil, nil, &list, p.decodeError); err != nil {
			return nil, err
		}
		for _, m := range list.Models {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
		if list.NextPageToken == "" {
			return names, nil
		}
		pageToken = list.NextPageToken
	}
}

// decodeError reads Gemini's structured error status. An invalid key comes
// back as HTTP 400 with reason API_KEY_INVALID.
func (p *GeminiProvider) decodeError(_ int, body []byte) (Kind, string) {
	var apiErr geminiError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return "", ""
	}
	msg := apiErr.Error.Status + ": " + apiErr.Error.Message
	for _, d := range apiErr.Error.Details {
		if d.Reason == "API_KEY_INVALID" {
			return KindAuth, msg
		}
	}
	switch apiErr.Error.Status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return KindAuth, msg
	case "RESOURCE_EXHAUSTED":
		return KindRateLimited, msg
	case "NOT_FOUND":
		return KindNotFound, msg
	case "UNAVAILABLE", "DEADLINE_EXCEEDED", "INTERNAL":
		return KindUnavailable, msg
	}
	return "", msg
}
