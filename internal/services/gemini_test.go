package services

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWavFromPCMHeader(t *testing.T) {
	pcm := make([]byte, 48000) // 1 second of 24kHz 16-bit mono

	wav := wavFromPCM(pcm, 24000, 1, 16)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected 44-byte header + payload, got %d bytes", len(wav))
	}
	if !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE magic")
	}
	if !bytes.Equal(wav[12:16], []byte("fmt ")) || !bytes.Equal(wav[36:40], []byte("data")) {
		t.Error("missing fmt/data chunks")
	}

	if got := binary.LittleEndian.Uint32(wav[4:8]); got != uint32(36+len(pcm)) {
		t.Errorf("RIFF size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 24000 {
		t.Errorf("sample rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 48000 {
		t.Errorf("byte rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint16(wav[32:34]); got != 2 {
		t.Errorf("block align = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
}

func TestVoicesCatalog(t *testing.T) {
	s := NewGeminiService("test-key")
	voices := s.Voices()

	if len(voices) != 30 {
		t.Fatalf("expected 30 prebuilt voices, got %d", len(voices))
	}
	seen := make(map[string]bool)
	for _, v := range voices {
		if v.Name == "" {
			t.Error("voice with empty name")
		}
		if seen[v.Name] {
			t.Errorf("duplicate voice %q", v.Name)
		}
		seen[v.Name] = true
	}
	if !seen["Kore"] {
		t.Error("default voice Kore missing from catalog")
	}
}
