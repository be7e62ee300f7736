// Package pipeline assembles per-scene assets into one finished video:
// resolve and probe each scene, render a clip per scene, concatenate in
// scene order, then overlay background music. One Orchestrator instance
// drives exactly one job; concurrent jobs use separate instances and
// never share scratch files.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/skils4/video-maker/internal/models"
	"github.com/skils4/video-maker/internal/progress"
	"github.com/skils4/video-maker/internal/services"
)

// Engine is the media engine surface the pipeline depends on. The
// concrete implementation shells out to ffmpeg/ffprobe.
type Engine interface {
	EnsureDirs() error
	ProbeDuration(ctx context.Context, path string) (float64, error)
	RenderClip(ctx context.Context, imagePath, audioPath string, duration float64, effect string, outputPath string) error
	ConcatenateClips(ctx context.Context, clipPaths []string, outputPath string) error
	MixMusic(ctx context.Context, videoPath, musicPath string, ducking bool, outputPath string) error
	ScratchFile(name string) string
	OutputFile(name string) string
	Cleanup(paths ...string)
}

// Locator maps asset references to validated local files.
type Locator interface {
	Resolve(ref string) (string, error)
	Validate(path string) error
}

// Orchestrator runs one video-assembly job through its stages, emitting
// progress events and exactly one terminal event (video-complete or
// generation-error).
type Orchestrator struct {
	engine  Engine
	locator Locator
	sink    progress.Sink
	jobID   string
}

func New(engine Engine, locator Locator, sink progress.Sink) *Orchestrator {
	if sink == nil {
		sink = progress.NopSink{}
	}
	return &Orchestrator{
		engine:  engine,
		locator: locator,
		sink:    sink,
		jobID:   uuid.New().String()[:8],
	}
}

// Run executes the job and returns the final video URL. musicPath is
// the local path of an uploaded background track, or "" for none. On
// failure the returned error is a *StageError and a terminal
// generation-error event has already been emitted.
func (o *Orchestrator) Run(ctx context.Context, cfg models.VideoJobConfig, musicPath string) (string, error) {
	log.Printf("[Pipeline %s] Starting job: %d scenes, ducking=%v, music=%v",
		o.jobID, len(cfg.Blocks), cfg.Settings.AudioDucking, musicPath != "")

	url, scratch, err := o.run(ctx, cfg, musicPath)

	// Scratch is disposable the moment the terminal result is known.
	// Best effort only — cleanup problems never change the outcome.
	o.engine.Cleanup(scratch...)

	if err != nil {
		stageErr := asStageError(err)
		log.Printf("[Pipeline %s] Job failed at %s: %v", o.jobID, stageErr.Stage, stageErr.Err)
		o.sink.Emit(progress.GenerationError(stageErr.Message(), stageErr.Err.Error()))
		return "", stageErr
	}

	log.Printf("[Pipeline %s] Job complete: %s", o.jobID, url)
	o.sink.Emit(progress.VideoComplete(url))
	return url, nil
}

// run holds the stage sequence; Run wraps it so the terminal event is
// emitted from exactly one place. It returns every scratch path it
// created, including on failure.
func (o *Orchestrator) run(ctx context.Context, cfg models.VideoJobConfig, musicPath string) (string, []string, error) {
	var scratch []string

	// Preparing: scratch and output areas must exist and be writable
	// before any engine work starts.
	if err := o.engine.EnsureDirs(); err != nil {
		return "", scratch, stageErr(StageDirectorySetup, err)
	}

	// RenderingScenes: strictly sequential, in block order. The first
	// failure aborts the job — no partial output.
	total := len(cfg.Blocks)
	clips := make([]models.ClipDescriptor, 0, total)
	for i, block := range cfg.Blocks {
		o.sink.Emit(progress.Progress(fmt.Sprintf("Rendering scene %d/%d...", i+1, total)))

		scene, err := o.resolveScene(ctx, block)
		if err != nil {
			return "", scratch, err
		}

		effect := cfg.Settings.EffectFor(block.ID)
		if effect == "" {
			effect = services.DefaultEffect
		}

		clipPath := o.engine.ScratchFile(fmt.Sprintf("clip_%d_%s.mp4", i, o.jobID))
		scratch = append(scratch, clipPath)

		if err := o.engine.RenderClip(ctx, scene.ImagePath, scene.AudioPath, scene.Duration, effect, clipPath); err != nil {
			return "", scratch, stageErr(StageClipRender, err)
		}

		clips = append(clips, models.ClipDescriptor{Path: clipPath, Duration: round2(scene.Duration)})
		o.sink.Emit(progress.SceneDone(block.ID, i+1, total))
	}

	// Concatenating: join clips in scene order with stream copy.
	o.sink.Emit(progress.Progress("Joining scenes..."))

	concatPath := o.engine.ScratchFile(fmt.Sprintf("concatenated_%s.mp4", o.jobID))
	scratch = append(scratch, concatPath)

	clipPaths := make([]string, len(clips))
	for i, c := range clips {
		clipPaths[i] = c.Path
	}
	if err := o.engine.ConcatenateClips(ctx, clipPaths, concatPath); err != nil {
		return "", scratch, stageErr(StageConcatenation, err)
	}

	// Mastering: overlay music, or promote the concatenated video as-is.
	o.sink.Emit(progress.Progress("Applying background music and finalizing..."))

	finalPath := o.engine.OutputFile(fmt.Sprintf("final_video_%d_%s.mp4", time.Now().UnixMilli(), o.jobID))
	if musicPath == "" {
		if err := moveFile(concatPath, finalPath); err != nil {
			return "", scratch, stageErr(StageMastering, err)
		}
	} else {
		if err := o.engine.MixMusic(ctx, concatPath, musicPath, cfg.Settings.AudioDucking, finalPath); err != nil {
			return "", scratch, stageErr(StageMastering, err)
		}
	}

	return "/videos/" + filepath.Base(finalPath), scratch, nil
}

// resolveScene maps one block's references to validated local files and
// measures its narration duration.
func (o *Orchestrator) resolveScene(ctx context.Context, block models.SceneBlock) (*models.ResolvedScene, error) {
	imagePath, err := o.locator.Resolve(block.ImageURL)
	if err != nil {
		return nil, stageErr(StageAssetResolve, err)
	}
	audioPath, err := o.locator.Resolve(block.AudioURL)
	if err != nil {
		return nil, stageErr(StageAssetResolve, err)
	}
	if err := o.locator.Validate(imagePath); err != nil {
		return nil, stageErr(StageAssetResolve, err)
	}
	if err := o.locator.Validate(audioPath); err != nil {
		return nil, stageErr(StageAssetResolve, err)
	}

	duration, err := o.engine.ProbeDuration(ctx, audioPath)
	if err != nil {
		return nil, stageErr(StageProbe, err)
	}
	if duration <= 0 {
		return nil, stageErr(StageProbe, fmt.Errorf("narration %s has non-positive duration %v", audioPath, duration))
	}

	return &models.ResolvedScene{
		BlockID:   block.ID,
		ImagePath: imagePath,
		AudioPath: audioPath,
		Duration:  duration,
	}, nil
}

func asStageError(err error) *StageError {
	if se, ok := err.(*StageError); ok {
		return se
	}
	return &StageError{Stage: "pipeline", Err: err}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// moveFile renames src to dst, falling back to copy+remove when the
// scratch and output areas sit on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy video to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", dst, err)
	}

	if err := os.Remove(src); err != nil {
		log.Printf("[Pipeline] Warning: could not remove %s after copy: %v", src, err)
	}
	return nil
}
