package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// FFmpegService — all media engine invocations go through here: metadata
// probing, still-image clip rendering, stream-copy concatenation, and
// background music mastering. Each invocation is a blocking subprocess
// call bounded by the configured timeout.
// ---------------------------------------------------------------------------

// Background music attenuation. Ducking mode mixes through a standalone
// audio pass with explicit amix weights; the plain mode mixes and
// remuxes in one step. Both use a fixed weight — there is no
// speech-triggered attenuation.
const (
	musicVolumeDucking = "0.3"
	musicVolumePlain   = "0.25"
	amixWeightsDucking = "1 0.3"

	// aloop size is in samples; 2e+09 effectively means "loop forever".
	musicLoopFilter = "aloop=loop=-1:size=2e+09"
)

type FFmpegService struct {
	scratchDir string
	outputDir  string
	timeout    time.Duration // per invocation; 0 = unbounded
}

func NewFFmpegService(scratchDir, outputDir string, timeout time.Duration) *FFmpegService {
	return &FFmpegService{
		scratchDir: scratchDir,
		outputDir:  outputDir,
		timeout:    timeout,
	}
}

// EnsureDirs creates the scratch and output directories and verifies
// both are writable.
func (s *FFmpegService) EnsureDirs() error {
	for _, dir := range []string{s.scratchDir, s.outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		probe := filepath.Join(dir, ".writable_"+uuid.New().String()[:8])
		if err := os.WriteFile(probe, nil, 0644); err != nil {
			return fmt.Errorf("dir %s is not writable: %w", dir, err)
		}
		os.Remove(probe)
	}
	return nil
}

// ScratchFile returns a path for a transient file inside the scratch area.
func (s *FFmpegService) ScratchFile(name string) string {
	return filepath.Join(s.scratchDir, name)
}

// OutputFile returns a path for a finished artifact inside the output area.
func (s *FFmpegService) OutputFile(name string) string {
	return filepath.Join(s.outputDir, name)
}

// Cleanup removes scratch files. Failures are logged, never escalated —
// a leftover temp file must not mask the job's real outcome.
func (s *FFmpegService) Cleanup(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[FFmpeg] Warning: could not remove %s: %v", path, err)
		}
	}
}

// run executes one engine invocation with the configured timeout,
// capturing stderr so failures carry the engine's own diagnostics.
func (s *FFmpegService) run(ctx context.Context, label, bin string, args ...string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w (%s)", bin, label, err, tail(stderr.String(), 400))
	}
	return nil
}

// tail returns the last n bytes of s — ffmpeg puts the actual error at
// the end of a long banner.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// ProbeDuration returns the container duration of an audio or video
// file in seconds.
func (s *FFmpegService) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	probeCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(probeCtx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &duration); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration for %s: %w", path, err)
	}

	return duration, nil
}

// RenderClip renders one scene: a video of exactly duration seconds from
// the still image with the compiled effect filter, then the narration
// audio muxed in.
//
// Two phases on purpose — muxing audio straight into a long filtered
// single-image encode is unreliable, so the silent video is produced
// first and the audio pass only stream-copies it.
func (s *FFmpegService) RenderClip(ctx context.Context, imagePath, audioPath string, duration float64, effect string, outputPath string) error {
	spec := CompileEffect(effect, duration)
	log.Printf("[FFmpeg] Rendering clip: effect=%s duration=%.2fs filter=%s", spec.Name, spec.Duration, spec.Filter)

	silentPath := s.ScratchFile(fmt.Sprintf("temp_video_%s.mp4", uuid.New().String()[:8]))

	// Phase 1: silent filtered video from the still image. Fixed fps and
	// pixel format keep every clip concat-compatible.
	videoArgs := []string{
		"-loop", "1",
		"-i", imagePath,
		"-vf", spec.Filter,
		"-c:v", "libx264",
		"-t", fmt.Sprintf("%.2f", spec.Duration),
		"-r", fmt.Sprintf("%d", videoFPS),
		"-pix_fmt", "yuv420p",
		"-preset", "fast",
		"-crf", "23",
		"-y",
		silentPath,
	}
	if err := s.run(ctx, "render video", "ffmpeg", videoArgs...); err != nil {
		s.Cleanup(silentPath)
		return err
	}

	// Phase 2: mux narration in, copying the video stream untouched.
	// -shortest is a safety net against encoder rounding; the video
	// duration already came from the audio duration.
	muxArgs := []string{
		"-i", silentPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-avoid_negative_ts", "make_zero",
		"-y",
		outputPath,
	}
	if err := s.run(ctx, "mux audio", "ffmpeg", muxArgs...); err != nil {
		s.Cleanup(silentPath)
		return err
	}

	s.Cleanup(silentPath)
	return nil
}

// ConcatenateClips joins already-encoded clips in order via the concat
// demuxer with stream copy. All clips come from RenderClip with matching
// codec parameters, so no re-encoding happens here.
func (s *FFmpegService) ConcatenateClips(ctx context.Context, clipPaths []string, outputPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("no clips to concatenate")
	}

	listPath := s.ScratchFile(fmt.Sprintf("concat_list_%s.txt", uuid.New().String()[:8]))
	var manifest strings.Builder
	for _, path := range clipPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve clip path %s: %w", path, err)
		}
		fmt.Fprintf(&manifest, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, []byte(manifest.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat manifest: %w", err)
	}
	defer s.Cleanup(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	}
	return s.run(ctx, "concatenate", "ffmpeg", args...)
}

// MixMusic overlays looping background music onto a finished video,
// truncated to the video's duration. The video stream is always copied,
// never re-encoded.
//
// With ducking the mix runs as two stages: a standalone mixed audio
// track (explicit amix weights favoring narration), then a remux
// against the original picture. Without ducking the mix and remux
// happen in a single filter_complex pass.
func (s *FFmpegService) MixMusic(ctx context.Context, videoPath, musicPath string, ducking bool, outputPath string) error {
	videoDuration, err := s.ProbeDuration(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("failed to probe video duration: %w", err)
	}

	log.Printf("[FFmpeg] Mastering: video=%.2fs music=%s ducking=%v", videoDuration, musicPath, ducking)

	if !ducking {
		filter := fmt.Sprintf("[1:a]%s,volume=%s[bgmusic];[0:a][bgmusic]amix=inputs=2:duration=first[aout]",
			musicLoopFilter, musicVolumePlain)
		args := []string{
			"-i", videoPath,
			"-i", musicPath,
			"-filter_complex", filter,
			"-map", "0:v",
			"-map", "[aout]",
			"-c:v", "copy",
			"-c:a", "aac",
			"-shortest",
			"-y",
			outputPath,
		}
		return s.run(ctx, "master", "ffmpeg", args...)
	}

	// Stage 1: standalone mixed audio, cut to the video's length.
	mixedPath := s.ScratchFile(fmt.Sprintf("mixed_audio_%s.aac", uuid.New().String()[:8]))
	defer s.Cleanup(mixedPath)

	mixFilter := fmt.Sprintf("[1:a]%s,volume=%s[bgmusic];[0:a][bgmusic]amix=inputs=2:duration=first:weights=%s[mixed]",
		musicLoopFilter, musicVolumeDucking, amixWeightsDucking)
	mixArgs := []string{
		"-i", videoPath,
		"-i", musicPath,
		"-filter_complex", mixFilter,
		"-map", "[mixed]",
		"-c:a", "aac",
		"-vn",
		"-t", fmt.Sprintf("%.2f", videoDuration),
		"-y",
		mixedPath,
	}
	if err := s.run(ctx, "mix audio", "ffmpeg", mixArgs...); err != nil {
		return err
	}

	// Stage 2: remux the mixed track against the untouched picture.
	remuxArgs := []string{
		"-i", videoPath,
		"-i", mixedPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "copy",
		"-y",
		outputPath,
	}
	return s.run(ctx, "remux", "ffmpeg", remuxArgs...)
}
