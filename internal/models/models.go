package models

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Core job types — one narrated scene = one block (text + image + narration),
// a job renders an ordered list of blocks into a single video.
// ---------------------------------------------------------------------------

// SceneBlock is one narrated unit of the video: the script text plus
// references to its previously generated image and narration audio.
// Block IDs are unique and define the scene order.
type SceneBlock struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
	AudioURL string `json:"audioUrl"`
}

// RenderSettings carries per-job rendering options from the client.
// Effects is keyed by block id (JSON object keys are strings); blocks
// without an entry get the default effect.
type RenderSettings struct {
	Effects      map[string]string `json:"effects"`
	AudioDucking bool              `json:"audioDucking"`
}

// EffectFor returns the effect name configured for a block, or "" when
// none is set and the caller should apply the default.
func (s RenderSettings) EffectFor(blockID int) string {
	return s.Effects[strconv.Itoa(blockID)]
}

// VideoJobConfig is the full input for one video-assembly job.
type VideoJobConfig struct {
	Blocks   []SceneBlock   `json:"blocks"`
	Settings RenderSettings `json:"settings"`
}

// Validate checks the config is renderable before a job is accepted.
func (c VideoJobConfig) Validate() error {
	if len(c.Blocks) == 0 {
		return fmt.Errorf("config has no blocks")
	}
	seen := make(map[int]bool, len(c.Blocks))
	for i, b := range c.Blocks {
		if b.ImageURL == "" {
			return fmt.Errorf("block %d (id %d) has no image", i, b.ID)
		}
		if b.AudioURL == "" {
			return fmt.Errorf("block %d (id %d) has no audio", i, b.ID)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate block id %d", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// MusicAsset is an optional background music track uploaded with a job.
type MusicAsset struct {
	Filename string
	Data     []byte
}

// ResolvedScene is a SceneBlock whose asset references have been mapped
// to local files and whose narration duration has been measured.
// Recomputed per job, never cached across jobs.
type ResolvedScene struct {
	BlockID   int
	ImagePath string
	AudioPath string
	Duration  float64 // seconds, > 0
}

// ClipDescriptor is one rendered scene clip, in scene order. Its
// duration matches the source narration duration to 2 decimal places.
type ClipDescriptor struct {
	Path     string
	Duration float64
}

// ---------------------------------------------------------------------------
// Text / generation DTOs
// ---------------------------------------------------------------------------

// TextBlock is one script block produced by the text splitter: narration
// text plus an image prompt describing the scene's visual.
type TextBlock struct {
	ID           int    `json:"id"`
	Text         string `json:"text"`
	OriginalText string `json:"originalText"`
	ImagePrompt  string `json:"imagePrompt"`
}

type SplitTextRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"` // ISO 639-1, default "uk"
}

type SplitTextResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	TotalBlocks int         `json:"totalBlocks"`
	Blocks      []TextBlock `json:"blocks"`
}

type RewriteTextRequest struct {
	Text string `json:"text"`
}

type RewriteTextResponse struct {
	Success       bool   `json:"success"`
	RewrittenText string `json:"rewrittenText"`
}

// Voice describes one available TTS voice.
type Voice struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// VoiceSettings selects a voice and an optional free-text delivery
// instruction ("speak slowly and mysteriously") for narration.
type VoiceSettings struct {
	VoiceName        string `json:"voiceName,omitempty"`
	StyleInstruction string `json:"ssmlTemplate,omitempty"`
}

type GenerateAudioRequest struct {
	Text          string         `json:"text"`
	VoiceSettings *VoiceSettings `json:"voiceSettings,omitempty"`
}

type GenerateAudioResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	AudioURL string `json:"audioUrl"`
}

// ImageSettings selects an image provider and output shape.
type ImageSettings struct {
	Provider    string `json:"provider,omitempty"` // "gemini", "stable-diffusion", "pollinations"
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type GenerateImageRequest struct {
	Prompt   string        `json:"prompt"`
	Settings ImageSettings `json:"settings"`
}

type GenerateImageResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// GenerateAssetsRequest starts bulk asset generation for a list of
// blocks. When VoiceSettings is present, narration audio is generated
// alongside each image.
type GenerateAssetsRequest struct {
	Blocks        []TextBlock    `json:"blocks"`
	Settings      ImageSettings  `json:"settings"`
	VoiceSettings *VoiceSettings `json:"voiceSettings,omitempty"`
}

type CreateVideoResponse struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}
