package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skils4/video-maker/internal/models"
	"github.com/skils4/video-maker/internal/progress"
	"github.com/skils4/video-maker/internal/services"
)

type fakeTTS struct{}

func (fakeTTS) GenerateSpeech(ctx context.Context, text, instruction, voiceName string) (*services.TTSResponse, error) {
	return &services.TTSResponse{AudioData: []byte("pcm"), Format: "wav"}, nil
}

func (fakeTTS) Voices() []models.Voice {
	return []models.Voice{{Name: "Kore", Gender: "Female"}}
}

// testHandler wires a handler with no queue or image providers; only
// routes that never reach them are exercised.
func testHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(nil, nil, fakeTTS{}, nil, services.NewOpenAIService(""), progress.NewHub())
}

func TestHealth(t *testing.T) {
	h := testHandler(t)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestVoices(t *testing.T) {
	h := testHandler(t)

	rec := httptest.NewRecorder()
	h.Voices(rec, httptest.NewRequest(http.MethodGet, "/api/generate/voices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Success bool           `json:"success"`
		Voices  []models.Voice `json:"voices"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Voices) != 1 || body.Voices[0].Name != "Kore" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestSplitTextFallsBackWithoutProvider(t *testing.T) {
	h := testHandler(t)

	payload := `{"text":"First sentence. Second sentence. Third sentence."}`
	req := httptest.NewRequest(http.MethodPost, "/api/text/custom", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.SplitText(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body models.SplitTextResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.TotalBlocks == 0 || len(body.Blocks) != body.TotalBlocks {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestSplitTextRejectsEmptyBody(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/text/custom", strings.NewReader(`{"text":""}`))
	rec := httptest.NewRecorder()
	h.SplitText(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateVideoRejectsMissingConfig(t *testing.T) {
	h := testHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/generate/video", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.CreateVideo(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateVideoRejectsInvalidConfig(t *testing.T) {
	h := testHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	// Block without image/audio URLs fails validation.
	mw.WriteField("config", `{"blocks":[{"id":1,"text":"hi"}]}`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/generate/video", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.CreateVideo(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	protected := APIKeyAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "nope", http.StatusForbidden},
		{"valid header key", "X-API-Key", "secret", http.StatusOK},
		{"valid bearer key", "Authorization", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/generate/voices", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
