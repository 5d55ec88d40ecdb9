package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// ErrEmptyResponse is returned when a model answers without any text
var ErrEmptyResponse = errors.New("empty response from model")

// Provider sends one page image with a prompt to a vision model and returns its answer
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, pngData []byte, prompt string) (string, error)
}

// NewProvider creates the provider for an OCR engine name
func NewProvider(engine string, cfg models.AIConfig) (Provider, error) {
	switch engine {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai engine requires OPENAI_API_KEY")
		}
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, errors.New("gemini engine requires GEMINI_API_KEY")
		}
		return NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model), nil
	case "ollama":
		return NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.Model), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", engine)
	}
}

// OpenAIProvider talks to the OpenAI chat completions API or any compatible endpoint
type OpenAIProvider struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAIProvider creates an OpenAI vision provider. baseURL is optional.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   "openai",
	}
}

// NewOllamaProvider creates a provider for a local Ollama server through its OpenAI-compatible API
func NewOllamaProvider(baseURL, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llava"
	}
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   "ollama",
	}
}

// Name implements Provider
func (p *OpenAIProvider) Name() string { return p.name }

// Transcribe implements Provider
func (p *OpenAIProvider) Transcribe(ctx context.Context, pngData []byte, prompt string) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0,
		MaxTokens:   4096,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s request: %w", p.name, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// GeminiProvider talks to Google Gemini
type GeminiProvider struct {
	apiKey string
	model  string
}

// NewGeminiProvider creates a Gemini vision provider
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiProvider{apiKey: apiKey, model: model}
}

// Name implements Provider
func (p *GeminiProvider) Name() string { return "gemini" }

// Transcribe implements Provider
func (p *GeminiProvider) Transcribe(ctx context.Context, pngData []byte, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.ImageData("png", pngData), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
