package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/skils4/video-maker/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// ---------------------------------------------------------------------------
// OpenAIService — script preparation: splitting raw text into narrated
// scene blocks (each with an image prompt) and rewriting text.
// ---------------------------------------------------------------------------

const splitModel = "gpt-5-mini"

type OpenAIService struct {
	client *openai.Client
}

// NewOpenAIService returns a text service. An empty apiKey yields a
// service that always uses the offline fallback splitter and refuses
// rewrites.
func NewOpenAIService(apiKey string) *OpenAIService {
	if apiKey == "" {
		return &OpenAIService{}
	}
	return &OpenAIService{client: openai.NewClient(apiKey)}
}

// languageInstruction maps an ISO language code to the output-language
// directive embedded in the prompt.
func languageInstruction(language string) string {
	switch language {
	case "en":
		return "in English"
	case "ru":
		return "in Russian"
	default: // "uk"
		return "in Ukrainian"
	}
}

// splitResponse is the JSON-mode response envelope for SplitText.
type splitResponse struct {
	Blocks []struct {
		Text         string `json:"text"`
		OriginalText string `json:"originalText"`
		ImagePrompt  string `json:"imagePrompt"`
	} `json:"blocks"`
}

// SplitText divides narration text into scene blocks, each paired with
// an English image prompt describing its visual. Model failures degrade
// to a plain sentence-pair split rather than failing the request — a
// worse script beats no script.
func (s *OpenAIService) SplitText(ctx context.Context, text, language string) ([]models.TextBlock, error) {
	if s.client == nil {
		log.Printf("[OpenAI] No API key configured, using fallback splitter")
		return fallbackSplit(text), nil
	}

	systemPrompt := fmt.Sprintf(`You split narration scripts into scenes for a slideshow video.
Divide the user's text into 3-12 coherent blocks of 1-3 sentences each, preserving the original wording %s.
For every block also write "imagePrompt": a vivid English description of a single still image illustrating that block.
Respond with a JSON object: {"blocks": [{"text": "...", "originalText": "...", "imagePrompt": "..."}]}.`,
		languageInstruction(language))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: splitModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		log.Printf("[OpenAI] Split request failed, using fallback splitter: %v", err)
		return fallbackSplit(text), nil
	}
	if len(resp.Choices) == 0 {
		log.Printf("[OpenAI] Empty split response, using fallback splitter")
		return fallbackSplit(text), nil
	}

	blocks, err := parseSplitResponse(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("[OpenAI] Could not parse split response, using fallback splitter: %v", err)
		return fallbackSplit(text), nil
	}
	return blocks, nil
}

// parseSplitResponse validates the model output and renumbers blocks
// 1..n. Blocks missing text or an image prompt are dropped.
func parseSplitResponse(raw string) ([]models.TextBlock, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed splitResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	blocks := make([]models.TextBlock, 0, len(parsed.Blocks))
	for _, b := range parsed.Blocks {
		text := strings.TrimSpace(b.Text)
		prompt := strings.TrimSpace(b.ImagePrompt)
		if text == "" || prompt == "" {
			continue
		}
		original := strings.TrimSpace(b.OriginalText)
		if original == "" {
			original = text
		}
		blocks = append(blocks, models.TextBlock{
			ID:           len(blocks) + 1,
			Text:         text,
			OriginalText: original,
			ImagePrompt:  prompt,
		})
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("model returned no usable blocks")
	}
	return blocks, nil
}

// RewriteText paraphrases the text while keeping its meaning and length.
func (s *OpenAIService) RewriteText(ctx context.Context, text string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("text rewriting requires an OpenAI API key")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: splitModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Rewrite the user's text in the same language: keep the meaning and approximate length, change the wording. Respond with the rewritten text only.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai rewrite request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// fallbackSplit is the offline splitter: pairs of sentences per block
// with a generic image prompt derived from the block text.
func fallbackSplit(text string) []models.TextBlock {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{text}
	}

	var blocks []models.TextBlock
	for i := 0; i < len(sentences); i += 2 {
		end := i + 2
		if end > len(sentences) {
			end = len(sentences)
		}
		blockText := strings.TrimSpace(strings.Join(sentences[i:end], " "))
		if blockText == "" {
			continue
		}

		summary := blockText
		if runes := []rune(summary); len(runes) > 50 {
			summary = string(runes[:50])
		}
		blocks = append(blocks, models.TextBlock{
			ID:           len(blocks) + 1,
			Text:         blockText,
			OriginalText: blockText,
			ImagePrompt:  fmt.Sprintf("Scene %d: A visual representation of %q", len(blocks)+1, summary),
		})
	}
	return blocks
}
