package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skils4/video-maker/internal/models"
	"github.com/skils4/video-maker/internal/progress"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type renderCall struct {
	imagePath string
	audioPath string
	duration  float64
	effect    string
	output    string
}

type fakeEngine struct {
	dir       string
	durations map[string]float64 // audio path -> probed duration

	ensureErr error
	probeErr  error
	renderErr error
	concatErr error
	mixErr    error

	failRenderAt int // 1-based render call index to fail at; 0 = never

	renders    []renderCall
	concatIn   []string
	concatOut  string
	mixCalls   int
	mixDucking bool
	mixMusic   string
	cleaned    []string
}

func newFakeEngine(t *testing.T) *fakeEngine {
	return &fakeEngine{dir: t.TempDir(), durations: map[string]float64{}}
}

func (e *fakeEngine) EnsureDirs() error { return e.ensureErr }

func (e *fakeEngine) ProbeDuration(_ context.Context, path string) (float64, error) {
	if e.probeErr != nil {
		return 0, e.probeErr
	}
	if d, ok := e.durations[path]; ok {
		return d, nil
	}
	return 5.0, nil
}

func (e *fakeEngine) RenderClip(_ context.Context, imagePath, audioPath string, duration float64, effect string, outputPath string) error {
	call := renderCall{imagePath, audioPath, duration, effect, outputPath}
	e.renders = append(e.renders, call)
	if e.renderErr != nil && (e.failRenderAt == 0 || len(e.renders) == e.failRenderAt) {
		return e.renderErr
	}
	return os.WriteFile(outputPath, []byte("clip"), 0644)
}

func (e *fakeEngine) ConcatenateClips(_ context.Context, clipPaths []string, outputPath string) error {
	e.concatIn = append([]string{}, clipPaths...)
	e.concatOut = outputPath
	if e.concatErr != nil {
		return e.concatErr
	}
	return os.WriteFile(outputPath, []byte("concatenated"), 0644)
}

func (e *fakeEngine) MixMusic(_ context.Context, videoPath, musicPath string, ducking bool, outputPath string) error {
	e.mixCalls++
	e.mixDucking = ducking
	e.mixMusic = musicPath
	if e.mixErr != nil {
		return e.mixErr
	}
	return os.WriteFile(outputPath, []byte("mastered"), 0644)
}

func (e *fakeEngine) ScratchFile(name string) string { return filepath.Join(e.dir, name) }
func (e *fakeEngine) OutputFile(name string) string  { return filepath.Join(e.dir, "out_"+name) }
func (e *fakeEngine) Cleanup(paths ...string)        { e.cleaned = append(e.cleaned, paths...) }

type fakeLocator struct {
	root    string
	missing map[string]bool // refs that should fail validation
}

func (l *fakeLocator) Resolve(ref string) (string, error) {
	idx := strings.Index(ref, "/uploads/")
	if idx == -1 {
		return "", fmt.Errorf("invalid asset reference: %q", ref)
	}
	return filepath.Join(l.root, ref[idx+len("/uploads/"):]), nil
}

func (l *fakeLocator) Validate(path string) error {
	if l.missing[path] {
		return fmt.Errorf("asset not found: %s", path)
	}
	return nil
}

type captureSink struct {
	events []progress.Event
}

func (s *captureSink) Emit(ev progress.Event) { s.events = append(s.events, ev) }

func (s *captureSink) names() []string {
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Name
	}
	return out
}

func (s *captureSink) count(name string) int {
	n := 0
	for _, ev := range s.events {
		if ev.Name == name {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func twoSceneConfig() models.VideoJobConfig {
	return models.VideoJobConfig{
		Blocks: []models.SceneBlock{
			{ID: 1, ImageURL: "/uploads/images/1.png", AudioURL: "/uploads/audio/1.wav"},
			{ID: 2, ImageURL: "/uploads/images/2.png", AudioURL: "/uploads/audio/2.wav"},
		},
		Settings: models.RenderSettings{
			Effects: map[string]string{"1": "zoom_in", "2": "zoom_in"},
		},
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRunHappyPathNoMusic(t *testing.T) {
	engine := newFakeEngine(t)
	loc := &fakeLocator{root: "/data/uploads"}
	engine.durations[filepath.Join(loc.root, "audio", "1.wav")] = 3.0
	engine.durations[filepath.Join(loc.root, "audio", "2.wav")] = 4.5
	sink := &captureSink{}

	url, err := New(engine, loc, sink).Run(context.Background(), twoSceneConfig(), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.HasPrefix(url, "/videos/final_video_") || !strings.HasSuffix(url, ".mp4") {
		t.Errorf("unexpected final URL: %q", url)
	}

	// One clip per scene, scene order preserved, durations carried.
	if len(engine.renders) != 2 {
		t.Fatalf("expected 2 renders, got %d", len(engine.renders))
	}
	if engine.renders[0].duration != 3.0 || engine.renders[1].duration != 4.5 {
		t.Errorf("render durations = %v, %v; want 3.0, 4.5", engine.renders[0].duration, engine.renders[1].duration)
	}
	if len(engine.concatIn) != 2 {
		t.Fatalf("expected 2 clips in concat manifest, got %d", len(engine.concatIn))
	}
	if engine.concatIn[0] != engine.renders[0].output || engine.concatIn[1] != engine.renders[1].output {
		t.Error("concatenation order does not match render order")
	}

	// No music: mastering must not invoke the mixer, the concatenated
	// video itself becomes the final artifact.
	if engine.mixCalls != 0 {
		t.Errorf("expected no mix calls without music, got %d", engine.mixCalls)
	}

	// Event sequence: progress/scene-done per scene, progress for
	// concat + mastering, exactly one terminal complete.
	want := []string{
		"progress", "scene-done",
		"progress", "scene-done",
		"progress", // joining
		"progress", // mastering
		"video-complete",
	}
	got := sink.names()
	if len(got) != len(want) {
		t.Fatalf("event sequence = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}

	// scene-done events report blocks in ascending order.
	var blockIDs []int
	for _, ev := range sink.events {
		if ev.Name == "scene-done" {
			blockIDs = append(blockIDs, ev.Data["blockId"].(int))
		}
	}
	if len(blockIDs) != 2 || blockIDs[0] != 1 || blockIDs[1] != 2 {
		t.Errorf("scene-done block order = %v", blockIDs)
	}
}

func TestRunDefaultEffectApplied(t *testing.T) {
	engine := newFakeEngine(t)
	cfg := twoSceneConfig()
	cfg.Settings.Effects = map[string]string{"2": "fade"} // block 1 unset

	_, err := New(engine, &fakeLocator{root: "/data/uploads"}, nil).Run(context.Background(), cfg, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if engine.renders[0].effect != "zoom_in" {
		t.Errorf("unset effect should default to zoom_in, got %q", engine.renders[0].effect)
	}
	if engine.renders[1].effect != "fade" {
		t.Errorf("configured effect lost: got %q", engine.renders[1].effect)
	}
}

func TestRunWithMusic(t *testing.T) {
	for _, ducking := range []bool{false, true} {
		t.Run(fmt.Sprintf("ducking=%v", ducking), func(t *testing.T) {
			engine := newFakeEngine(t)
			cfg := twoSceneConfig()
			cfg.Settings.AudioDucking = ducking
			sink := &captureSink{}

			url, err := New(engine, &fakeLocator{root: "/data/uploads"}, sink).Run(context.Background(), cfg, "/data/uploads/music/track.mp3")
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if url == "" {
				t.Fatal("empty final URL")
			}

			if engine.mixCalls != 1 {
				t.Fatalf("expected 1 mix call, got %d", engine.mixCalls)
			}
			if engine.mixDucking != ducking {
				t.Errorf("ducking flag not forwarded: got %v", engine.mixDucking)
			}
			if engine.mixMusic != "/data/uploads/music/track.mp3" {
				t.Errorf("wrong music path: %q", engine.mixMusic)
			}
		})
	}
}

func TestRunFailsFastOnMissingAsset(t *testing.T) {
	engine := newFakeEngine(t)
	loc := &fakeLocator{
		root:    "/data/uploads",
		missing: map[string]bool{filepath.Join("/data/uploads", "audio", "1.wav"): true},
	}
	sink := &captureSink{}

	_, err := New(engine, loc, sink).Run(context.Background(), twoSceneConfig(), "")
	if err == nil {
		t.Fatal("expected error for missing asset")
	}

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageAssetResolve {
		t.Errorf("expected StageAssetResolve error, got %v", err)
	}

	// Nothing rendered, no concatenation attempted, no success events,
	// exactly one terminal error.
	if len(engine.renders) != 0 {
		t.Errorf("expected no renders, got %d", len(engine.renders))
	}
	if engine.concatOut != "" {
		t.Error("concatenation should not have been attempted")
	}
	if sink.count("scene-done") != 0 {
		t.Error("no scene-done events expected")
	}
	if sink.count("generation-error") != 1 {
		t.Errorf("expected exactly one terminal error event, got %d", sink.count("generation-error"))
	}
	if sink.count("video-complete") != 0 {
		t.Error("must not emit video-complete on failure")
	}
}

func TestRunAbortsOnMidSceneRenderFailure(t *testing.T) {
	engine := newFakeEngine(t)
	engine.renderErr = errors.New("encoder exploded")
	engine.failRenderAt = 2
	sink := &captureSink{}

	cfg := models.VideoJobConfig{
		Blocks: []models.SceneBlock{
			{ID: 1, ImageURL: "/uploads/images/1.png", AudioURL: "/uploads/audio/1.wav"},
			{ID: 2, ImageURL: "/uploads/images/2.png", AudioURL: "/uploads/audio/2.wav"},
			{ID: 3, ImageURL: "/uploads/images/3.png", AudioURL: "/uploads/audio/3.wav"},
		},
	}

	_, err := New(engine, &fakeLocator{root: "/data/uploads"}, sink).Run(context.Background(), cfg, "")
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageClipRender {
		t.Fatalf("expected StageClipRender error, got %v", err)
	}

	// Scene 3 never rendered, scene 1 succeeded before the failure.
	if len(engine.renders) != 2 {
		t.Errorf("expected render attempts to stop at the failure, got %d", len(engine.renders))
	}
	if sink.count("scene-done") != 1 {
		t.Errorf("expected 1 scene-done before failure, got %d", sink.count("scene-done"))
	}
	if engine.concatOut != "" {
		t.Error("concatenation should not run after a scene failure")
	}
}

func TestRunStageErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeEngine)
		stage Stage
	}{
		{"directory setup", func(e *fakeEngine) { e.ensureErr = errors.New("mkdir denied") }, StageDirectorySetup},
		{"probe", func(e *fakeEngine) { e.probeErr = errors.New("not an audio file") }, StageProbe},
		{"concatenation", func(e *fakeEngine) { e.concatErr = errors.New("manifest rejected") }, StageConcatenation},
		{"mastering", func(e *fakeEngine) { e.mixErr = errors.New("amix failed") }, StageMastering},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newFakeEngine(t)
			tt.setup(engine)
			sink := &captureSink{}

			_, err := New(engine, &fakeLocator{root: "/data/uploads"}, sink).Run(context.Background(), twoSceneConfig(), "/tmp/music.mp3")
			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("expected StageError, got %v", err)
			}
			if se.Stage != tt.stage {
				t.Errorf("stage = %q, want %q", se.Stage, tt.stage)
			}
			if sink.count("generation-error") != 1 {
				t.Errorf("expected one terminal error event, got %d", sink.count("generation-error"))
			}
		})
	}
}

func TestRunRejectsNonPositiveDuration(t *testing.T) {
	engine := newFakeEngine(t)
	loc := &fakeLocator{root: "/data/uploads"}
	engine.durations[filepath.Join(loc.root, "audio", "1.wav")] = 0

	_, err := New(engine, loc, nil).Run(context.Background(), twoSceneConfig(), "")
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageProbe {
		t.Fatalf("expected StageProbe error for zero duration, got %v", err)
	}
}

func TestRunCleansScratchAfterSuccess(t *testing.T) {
	engine := newFakeEngine(t)

	_, err := New(engine, &fakeLocator{root: "/data/uploads"}, nil).Run(context.Background(), twoSceneConfig(), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Both clips and the concatenation intermediate are handed to cleanup.
	if len(engine.cleaned) < 3 {
		t.Errorf("expected clips and concat intermediate in cleanup, got %v", engine.cleaned)
	}
}
