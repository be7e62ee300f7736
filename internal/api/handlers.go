package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/skils4/video-maker/internal/assets"
	"github.com/skils4/video-maker/internal/models"
	"github.com/skils4/video-maker/internal/progress"
	"github.com/skils4/video-maker/internal/queue"
	"github.com/skils4/video-maker/internal/services"
)

// maxUploadBytes caps the multipart form size for video creation,
// which may carry a background music file.
const maxUploadBytes = 64 << 20

type Handler struct {
	queue  *queue.Queue
	store  *assets.Store
	tts    services.TTSService
	imagen *services.ImagenService
	openai *services.OpenAIService
	hub    *progress.Hub
}

func NewHandler(
	q *queue.Queue,
	store *assets.Store,
	tts services.TTSService,
	imagen *services.ImagenService,
	openai *services.OpenAIService,
	hub *progress.Hub,
) *Handler {
	return &Handler{
		queue:  q,
		store:  store,
		tts:    tts,
		imagen: imagen,
		openai: openai,
		hub:    hub,
	}
}

// SplitText handles POST /api/text/custom. It splits a raw script into
// numbered scene blocks, each with an image prompt.
func (h *Handler) SplitText(w http.ResponseWriter, r *http.Request) {
	var req models.SplitTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}

	blocks, err := h.openai.SplitText(r.Context(), req.Text, req.Language)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to split text")
		return
	}

	respondJSON(w, http.StatusOK, models.SplitTextResponse{
		Success:     true,
		Message:     fmt.Sprintf("Split text into %d blocks", len(blocks)),
		TotalBlocks: len(blocks),
		Blocks:      blocks,
	})
}

// RewriteText handles POST /api/text/rewrite
func (h *Handler) RewriteText(w http.ResponseWriter, r *http.Request) {
	var req models.RewriteTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}

	rewritten, err := h.openai.RewriteText(r.Context(), req.Text)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to rewrite text")
		return
	}

	respondJSON(w, http.StatusOK, models.RewriteTextResponse{
		Success:       true,
		RewrittenText: rewritten,
	})
}

// Voices handles GET /api/generate/voices
func (h *Handler) Voices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"voices":  h.tts.Voices(),
	})
}

// GenerateImage handles POST /api/generate/image. Generation runs
// synchronously; the saved image URL comes back in the response.
func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	img, err := h.imagen.Generate(r.Context(), req.Prompt, req.Settings)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate image")
		return
	}

	url, err := h.store.SaveImage(img.Data, "png")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save image")
		return
	}

	respondJSON(w, http.StatusOK, models.GenerateImageResponse{
		Success:  true,
		Message:  "Image generated",
		ImageURL: url,
		Provider: img.Provider,
		Model:    img.Model,
	})
}

// GenerateAudio handles POST /api/generate/audio
func (h *Handler) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}

	var voiceName, instruction string
	if req.VoiceSettings != nil {
		voiceName = req.VoiceSettings.VoiceName
		instruction = req.VoiceSettings.StyleInstruction
	}

	speech, err := h.tts.GenerateSpeech(r.Context(), req.Text, instruction, voiceName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate audio")
		return
	}

	url, err := h.store.SaveAudio(speech.AudioData, speech.Format)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save audio")
		return
	}

	respondJSON(w, http.StatusOK, models.GenerateAudioResponse{
		Success:  true,
		Message:  "Audio generated",
		AudioURL: url,
	})
}

// GenerateAllAssets handles POST /api/generate/images-all. Bulk
// generation is queued; results arrive over the websocket.
func (h *Handler) GenerateAllAssets(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateAssetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Blocks) == 0 {
		respondError(w, http.StatusBadRequest, "At least one block is required")
		return
	}

	jobID := uuid.New()
	if err := h.queue.EnqueueGenerateAssets(r.Context(), jobID, req.Blocks, req.Settings, req.VoiceSettings); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, models.CreateVideoResponse{
		Message: fmt.Sprintf("Generating assets for %d blocks", len(req.Blocks)),
		JobID:   jobID.String(),
	})
}

// CreateVideo handles POST /api/generate/video. The request is
// multipart: a "config" JSON field with the scene blocks and render
// settings, plus an optional "musicFile" upload. Assembly is queued;
// progress arrives over the websocket.
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	configField := r.FormValue("config")
	if configField == "" {
		respondError(w, http.StatusBadRequest, "Missing config field")
		return
	}

	var cfg models.VideoJobConfig
	if err := json.Unmarshal([]byte(configField), &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid config JSON")
		return
	}

	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	musicPath := ""
	if file, header, err := r.FormFile("musicFile"); err == nil {
		defer file.Close()

		music := models.MusicAsset{Filename: header.Filename}
		music.Data, err = io.ReadAll(file)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Failed to read music file")
			return
		}

		musicPath, err = h.store.SaveMusic(music.Filename, music.Data)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to save music file")
			return
		}
	}

	jobID := uuid.New()
	if err := h.queue.EnqueueRenderVideo(r.Context(), jobID, cfg, musicPath); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	respondJSON(w, http.StatusAccepted, models.CreateVideoResponse{
		Message: "Video generation started",
		JobID:   jobID.String(),
	})
}

// WebSocket handles GET /ws, upgrading the connection and streaming
// progress events until the client disconnects.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
