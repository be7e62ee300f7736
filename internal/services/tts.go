package services

import (
	"context"

	"github.com/skils4/video-maker/internal/models"
)

// ---------------------------------------------------------------------------
// TTSService — narration synthesis provider interface. Keeps the worker
// and API handlers ignorant of which backend actually speaks.
// ---------------------------------------------------------------------------

// TTSResponse is the common response type from any TTS provider.
type TTSResponse struct {
	AudioData []byte
	Format    string // "wav", "mp3", ...
}

// TTSService is the interface a narration provider must implement.
type TTSService interface {
	// GenerateSpeech synthesizes text with the given voice. instruction
	// is a free-text delivery hint ("speak slowly, low-pitched"); the
	// provider may fold it into the prompt or ignore it. An empty
	// voiceName selects the provider's default voice.
	GenerateSpeech(ctx context.Context, text, instruction, voiceName string) (*TTSResponse, error)

	// Voices lists the voices the provider can speak with.
	Voices() []models.Voice
}
