package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/skils4/video-maker/internal/models"
	"google.golang.org/genai"
)

// ---------------------------------------------------------------------------
// ImagenService — scene image generation behind a provider switch.
// Providers: "gemini" (Gen AI SDK), "stable-diffusion" (Hugging Face
// inference API), "pollinations" (free, keyless, the default).
// ---------------------------------------------------------------------------

const (
	ProviderGemini          = "gemini"
	ProviderStableDiffusion = "stable-diffusion"
	ProviderPollinations    = "pollinations"

	stableDiffusionURL   = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-2-1"
	stableDiffusionModel = "stable-diffusion-2-1"
	pollinationsBase     = "https://image.pollinations.ai/prompt/"
	pollinationsModel    = "pollinations-ai"
)

// GeneratedImage carries the image bytes plus which provider/model
// produced them, echoed back to the client.
type GeneratedImage struct {
	Data     []byte
	Provider string
	Model    string
}

type ImagenService struct {
	geminiKey       string
	huggingFaceKey  string
	defaultProvider string
	client          *http.Client
}

func NewImagenService(geminiKey, huggingFaceKey, defaultProvider string) *ImagenService {
	if defaultProvider == "" {
		defaultProvider = ProviderPollinations
	}
	return &ImagenService{
		geminiKey:       geminiKey,
		huggingFaceKey:  huggingFaceKey,
		defaultProvider: defaultProvider,
		client:          &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate routes a prompt to the requested provider, falling back to
// the configured default when the request names none.
func (s *ImagenService) Generate(ctx context.Context, prompt string, settings models.ImageSettings) (*GeneratedImage, error) {
	provider := settings.Provider
	if provider == "" {
		provider = s.defaultProvider
	}

	log.Printf("[Imagen] Generating via %s (promptLen=%d)", provider, len(prompt))

	switch provider {
	case ProviderGemini:
		return s.generateViaGemini(ctx, prompt)
	case ProviderStableDiffusion:
		return s.generateViaStableDiffusion(ctx, prompt)
	case ProviderPollinations:
		return s.generateViaPollinations(ctx, prompt, settings.AspectRatio)
	default:
		return nil, fmt.Errorf("unknown image provider %q", provider)
	}
}

func (s *ImagenService) generateViaGemini(ctx context.Context, prompt string) (*GeneratedImage, error) {
	if s.geminiKey == "" {
		return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.geminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := client.Models.GenerateContent(ctx, geminiImageModel, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini image request failed: %w", err)
	}

	data := extractInlineData(resp, "image/")
	if data == nil {
		return nil, fmt.Errorf("gemini returned no image data")
	}

	return &GeneratedImage{Data: data, Provider: ProviderGemini, Model: geminiImageModel}, nil
}

func (s *ImagenService) generateViaStableDiffusion(ctx context.Context, prompt string) (*GeneratedImage, error) {
	if s.huggingFaceKey == "" {
		return nil, fmt.Errorf("stable-diffusion provider requires HUGGINGFACE_API_KEY")
	}

	body, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", stableDiffusionURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.huggingFaceKey)
	req.Header.Set("Content-Type", "application/json")

	data, err := s.fetch(req)
	if err != nil {
		return nil, fmt.Errorf("stable-diffusion request failed: %w", err)
	}

	return &GeneratedImage{Data: data, Provider: ProviderStableDiffusion, Model: stableDiffusionModel}, nil
}

func (s *ImagenService) generateViaPollinations(ctx context.Context, prompt, aspectRatio string) (*GeneratedImage, error) {
	w, h := imageDimensions(aspectRatio)
	imageURL := fmt.Sprintf("%s%s?width=%d&height=%d&nologo=true", pollinationsBase, url.PathEscape(prompt), w, h)

	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	data, err := s.fetch(req)
	if err != nil {
		return nil, fmt.Errorf("pollinations request failed: %w", err)
	}

	return &GeneratedImage{Data: data, Provider: ProviderPollinations, Model: pollinationsModel}, nil
}

func (s *ImagenService) fetch(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image response")
	}
	return data, nil
}

// imageDimensions maps an aspect ratio to generation dimensions. Scenes
// end up letterboxed or cropped into 1920x1080, so landscape is the
// default.
func imageDimensions(aspectRatio string) (int, int) {
	switch aspectRatio {
	case "9:16":
		return 1080, 1920
	case "1:1":
		return 1024, 1024
	default: // "16:9"
		return 1920, 1080
	}
}
