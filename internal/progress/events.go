// Package progress carries live pipeline updates from workers to
// connected clients. Sinks are injected into whatever emits events —
// there is no process-global channel to reach into.
package progress

// Event is one live update. Name matches the event vocabulary the
// frontend subscribes to; Data is the JSON payload.
type Event struct {
	Name string         `json:"event"`
	Data map[string]any `json:"data"`
}

// Sink accepts events for delivery. Emit must not block the caller on
// slow consumers.
type Sink interface {
	Emit(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// Progress is a human-readable stage update.
func Progress(message string) Event {
	return Event{Name: "progress", Data: map[string]any{"message": message}}
}

// SceneDone marks one scene clip as rendered.
func SceneDone(blockID, index, total int) Event {
	return Event{Name: "scene-done", Data: map[string]any{
		"blockId": blockID,
		"scene":   index,
		"total":   total,
	}}
}

// VideoComplete is the terminal success event for a render job.
func VideoComplete(url string) Event {
	return Event{Name: "video-complete", Data: map[string]any{"url": url}}
}

// GenerationError is the terminal failure event for a job, or a
// per-block failure during bulk asset generation.
func GenerationError(message, details string) Event {
	return Event{Name: "generation-error", Data: map[string]any{
		"error":   message,
		"details": details,
	}}
}

// BlockError reports a failed block during bulk asset generation.
func BlockError(blockID int, details string) Event {
	return Event{Name: "generation-error", Data: map[string]any{
		"blockId": blockID,
		"error":   details,
		"success": false,
	}}
}

// ImageGenerated reports one finished image during bulk generation.
func ImageGenerated(blockID int, url, provider, model string) Event {
	return Event{Name: "image-generated", Data: map[string]any{
		"blockId":  blockID,
		"imageUrl": url,
		"provider": provider,
		"model":    model,
		"success":  true,
	}}
}

// AudioGenerated reports one finished narration track during bulk
// generation.
func AudioGenerated(blockID int, url string) Event {
	return Event{Name: "audio-generated", Data: map[string]any{
		"blockId":  blockID,
		"audioUrl": url,
		"success":  true,
	}}
}

// GenerationComplete marks the end of a bulk asset generation job.
func GenerationComplete(message string) Event {
	return Event{Name: "generation-complete", Data: map[string]any{"message": message}}
}
