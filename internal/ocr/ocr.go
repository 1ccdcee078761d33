// Package ocr provides a pluggable interface for reading text off product
// label photos.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Image is an encoded picture.
type Image struct {
	Data []byte
	MIME string
}

// LoadImage reads an image file and sniffs its MIME type.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, MIME: http.DetectContentType(data)}, nil
}

// Result is recognized text. Confidence is 0..1, or 0 when the provider
// does not report one.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, img Image) (Result, error)
}

const prompt = "Transcribe all text printed on this product label exactly as it appears, " +
	"keeping dates and codes unchanged. Output only the transcribed text."

// --- Ollama Provider ---

// OllamaRecognizer uses a local Ollama vision model.
type OllamaRecognizer struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaRecognizer creates a recognizer using Ollama's generate API.
// An empty baseURL falls back to OLLAMA_HOST, then localhost.
func NewOllamaRecognizer(baseURL, model string) *OllamaRecognizer {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llava"
	}
	return &OllamaRecognizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (r *OllamaRecognizer) Recognize(ctx context.Context, img Image) (Result, error) {
	body, _ := json.Marshal(ollamaRequest{
		Model:  r.model,
		Prompt: prompt,
		Images: []string{base64.StdEncoding.EncodeToString(img.Data)},
	})
	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, err
	}
	return Result{Text: strings.TrimSpace(result.Response)}, nil
}

// --- OpenAI-compatible Provider ---

// OpenAIRecognizer uses any OpenAI-compatible chat API with image input.
type OpenAIRecognizer struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type openaiContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openaiImageURL `json:"image_url,omitempty"`
}

type openaiImageURL struct {
	URL string `json:"url"`
}

type openaiMessage struct {
	Role    string          `json:"role"`
	Content []openaiContent `json:"content"`
}

type openaiChatRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIRecognizer creates a recognizer using an OpenAI-compatible API.
func NewOpenAIRecognizer(baseURL, apiKey, model string) *OpenAIRecognizer {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIRecognizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (r *OpenAIRecognizer) Recognize(ctx context.Context, img Image) (Result, error) {
	dataURI := "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	body, _ := json.Marshal(openaiChatRequest{
		Model: r.model,
		Messages: []openaiMessage{{
			Role: "user",
			Content: []openaiContent{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &openaiImageURL{URL: dataURI}},
			},
		}},
	})
	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("openai error %d: %s", resp.StatusCode, string(b))
	}

	var result openaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, err
	}
	if len(result.Choices) == 0 {
		return Result{}, fmt.Errorf("no completion returned")
	}
	return Result{Text: strings.TrimSpace(result.Choices[0].Message.Content)}, nil
}

// --- Gemini Provider ---

// GeminiRecognizer uses Google's Gemini API.
type GeminiRecognizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiRecognizer creates a Gemini client. Close it when done.
func NewGeminiRecognizer(ctx context.Context, apiKey, model string) (*GeminiRecognizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0)
	m.SetMaxOutputTokens(1024)
	return &GeminiRecognizer{client: client, model: m}, nil
}

func (r *GeminiRecognizer) Recognize(ctx context.Context, img Image) (Result, error) {
	format := strings.TrimPrefix(img.MIME, "image/")
	resp, err := r.model.GenerateContent(ctx, genai.ImageData(format, img.Data), genai.Text(prompt))
	if err != nil {
		return Result{}, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Result{}, fmt.Errorf("no response candidates")
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return Result{Text: strings.TrimSpace(sb.String())}, nil
}

// Close releases the client.
func (r *GeminiRecognizer) Close() error {
	return r.client.Close()
}

// --- Factory ---

// Config selects and configures a provider.
type Config struct {
	Provider string // "gemini" | "ollama" | "openai" | "" (disabled)
	Model    string
	URL      string
	APIKey   string
}

// New creates a recognizer from cfg. It returns nil, nil when OCR is
// disabled.
func New(ctx context.Context, cfg Config) (Recognizer, error) {
	switch cfg.Provider {
	case "gemini":
		r, err := NewGeminiRecognizer(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "ollama":
		return NewOllamaRecognizer(cfg.URL, cfg.Model), nil
	case "openai":
		return NewOpenAIRecognizer(cfg.URL, cfg.APIKey, cfg.Model), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ocr provider %q", cfg.Provider)
	}
}
