package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/skils4/video-maker/internal/models"
	"google.golang.org/genai"
)

// ---------------------------------------------------------------------------
// GeminiService — narration synthesis (and image generation, see
// imagen.go) via the Google Gen AI SDK. The TTS models return raw PCM,
// which is framed into a WAV container before storage.
// ---------------------------------------------------------------------------

const (
	geminiTTSModel   = "gemini-2.5-flash-preview-tts"
	geminiImageModel = "gemini-2.5-flash-image-preview"

	defaultVoice = "Kore"

	// PCM parameters of the Gemini TTS output stream.
	ttsSampleRate = 24000
	ttsChannels   = 1
	ttsBitDepth   = 16
)

// geminiVoices is the prebuilt voice catalog of the Gemini TTS models.
var geminiVoices = []string{
	"Zephyr", "Puck", "Charon", "Kore", "Fenrir", "Leda", "Orus", "Aoede", "Callirrhoe",
	"Autonoe", "Enceladus", "Iapetus", "Umbriel", "Algieba", "Despina", "Erinome",
	"Algenib", "Rasalgethi", "Laomedeia", "Achernar", "Alnilam", "Schedar", "Gacrux",
	"Pulcherrima", "Achird", "Zubenelgenubi", "Vindemiatrix", "Sadachbia",
	"Sadaltager", "Sulafat",
}

type GeminiService struct {
	apiKey string
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{apiKey: apiKey}
}

// Voices lists the prebuilt Gemini voices. Voices are not bound to a
// language, so no language filter is offered.
func (s *GeminiService) Voices() []models.Voice {
	voices := make([]models.Voice, len(geminiVoices))
	for i, name := range geminiVoices {
		voices[i] = models.Voice{Name: name, Gender: "SSML_VOICE_GENDER_UNSPECIFIED"}
	}
	return voices
}

// GenerateSpeech synthesizes narration audio and returns it as WAV
// bytes. The delivery instruction, when present, is prepended to the
// prompt — Gemini voices are steered by text, not by pitch/rate knobs.
func (s *GeminiService) GenerateSpeech(ctx context.Context, text, instruction, voiceName string) (*TTSResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if voiceName == "" {
		voiceName = defaultVoice
	}
	prompt := text
	if instruction != "" {
		prompt = instruction + ": " + text
	}

	log.Printf("[Gemini] TTS request: voice=%s promptLen=%d", voiceName, len(prompt))

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voiceName},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, geminiTTSModel, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini tts request failed: %w", err)
	}

	pcm := extractInlineData(resp, "audio/")
	if pcm == nil {
		return nil, fmt.Errorf("gemini tts returned no audio data")
	}

	return &TTSResponse{
		AudioData: wavFromPCM(pcm, ttsSampleRate, ttsChannels, ttsBitDepth),
		Format:    "wav",
	}, nil
}

// extractInlineData pulls the first inline blob with a matching MIME
// prefix out of a response. An empty prefix matches any blob.
func extractInlineData(resp *genai.GenerateContentResponse, mimePrefix string) []byte {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if mimePrefix == "" || len(part.InlineData.MIMEType) >= len(mimePrefix) && part.InlineData.MIMEType[:len(mimePrefix)] == mimePrefix {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

// wavFromPCM frames raw little-endian PCM samples into a minimal RIFF
// WAV container.
func wavFromPCM(pcm []byte, sampleRate, channels, bitDepth int) []byte {
	blockAlign := channels * bitDepth / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16)) // PCM fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitDepth))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
