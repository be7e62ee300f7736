package models

import (
	"encoding/json"
	"testing"
)

func TestEffectFor(t *testing.T) {
	s := RenderSettings{Effects: map[string]string{"1": "fade", "3": "zoom_out"}}

	if got := s.EffectFor(1); got != "fade" {
		t.Errorf("expected fade, got %q", got)
	}
	if got := s.EffectFor(3); got != "zoom_out" {
		t.Errorf("expected zoom_out, got %q", got)
	}
	if got := s.EffectFor(2); got != "" {
		t.Errorf("expected empty effect for unmapped block, got %q", got)
	}

	var empty RenderSettings
	if got := empty.EffectFor(1); got != "" {
		t.Errorf("expected empty effect with nil map, got %q", got)
	}
}

func TestVideoJobConfigValidate(t *testing.T) {
	valid := VideoJobConfig{
		Blocks: []SceneBlock{
			{ID: 1, ImageURL: "/uploads/images/a.png", AudioURL: "/uploads/audio/a.wav"},
			{ID: 2, ImageURL: "/uploads/images/b.png", AudioURL: "/uploads/audio/b.wav"},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name string
		cfg  VideoJobConfig
	}{
		{"no blocks", VideoJobConfig{}},
		{"missing image", VideoJobConfig{Blocks: []SceneBlock{
			{ID: 1, AudioURL: "/uploads/audio/a.wav"},
		}}},
		{"missing audio", VideoJobConfig{Blocks: []SceneBlock{
			{ID: 1, ImageURL: "/uploads/images/a.png"},
		}}},
		{"duplicate ids", VideoJobConfig{Blocks: []SceneBlock{
			{ID: 1, ImageURL: "/uploads/images/a.png", AudioURL: "/uploads/audio/a.wav"},
			{ID: 1, ImageURL: "/uploads/images/b.png", AudioURL: "/uploads/audio/b.wav"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestVideoJobConfigDecodesClientJSON(t *testing.T) {
	// The browser sends effects keyed by block id as JSON object keys.
	raw := `{
		"blocks": [
			{"id": 1, "text": "hello", "imageUrl": "/uploads/images/1.png", "audioUrl": "/uploads/audio/1.wav"}
		],
		"settings": {"effects": {"1": "fade"}, "audioDucking": true}
	}`

	var cfg VideoJobConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}

	if !cfg.Settings.AudioDucking {
		t.Error("expected audioDucking=true")
	}
	if got := cfg.Settings.EffectFor(1); got != "fade" {
		t.Errorf("expected fade, got %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("decoded config failed validation: %v", err)
	}
}
