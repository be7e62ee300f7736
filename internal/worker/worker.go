package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skils4/video-maker/internal/assets"
	"github.com/skils4/video-maker/internal/models"
	"github.com/skils4/video-maker/internal/pipeline"
	"github.com/skils4/video-maker/internal/progress"
	"github.com/skils4/video-maker/internal/queue"
	"github.com/skils4/video-maker/internal/services"
)

// Worker drains the job queues and runs the heavy work: full video
// assembly and bulk asset generation. Progress for every job flows
// through the injected sink.
type Worker struct {
	queue   *queue.Queue
	locator *assets.Locator
	store   *assets.Store
	ffmpeg  *services.FFmpegService
	imagen  *services.ImagenService
	tts     services.TTSService
	sink    progress.Sink
}

func New(
	q *queue.Queue,
	locator *assets.Locator,
	store *assets.Store,
	ffmpegSvc *services.FFmpegService,
	imagenSvc *services.ImagenService,
	ttsSvc services.TTSService,
	sink progress.Sink,
) *Worker {
	if sink == nil {
		sink = progress.NopSink{}
	}
	return &Worker{
		queue:   q,
		locator: locator,
		store:   store,
		ffmpeg:  ffmpegSvc,
		imagen:  imagenSvc,
		tts:     ttsSvc,
		sink:    sink,
	}
}

// Start begins processing jobs from all queues. concurrency controls
// how many jobs of each type may run at once; scenes inside one render
// job still execute sequentially.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("[Worker] Started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx, queue.QueueRenderVideo, w.handleRenderVideo)
		go w.processQueue(ctx, queue.QueueGenerateAssets, w.handleGenerateAssets)
	}

	<-ctx.Done()
	log.Println("[Worker] Shutting down...")
}

func (w *Worker) processQueue(ctx context.Context, queueName string, handler func(context.Context, *queue.Job) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, queueName, 5*time.Second)
			if err != nil {
				log.Printf("[Worker] Error dequeuing from %s: %v", queueName, err)
				continue
			}

			if job == nil {
				continue // No job available, retry
			}

			log.Printf("[Worker] Processing job %s (type: %s)", job.ID, job.Type)

			if err := handler(ctx, job); err != nil {
				log.Printf("[Worker] Job %s failed: %v", job.ID, err)
			} else {
				log.Printf("[Worker] Job %s completed", job.ID)
			}
		}
	}
}

// handleRenderVideo runs one full video-assembly pipeline. The
// orchestrator emits all progress including the terminal event, so
// only the error is propagated for logging here.
func (w *Worker) handleRenderVideo(ctx context.Context, job *queue.Job) error {
	if job.Config == nil {
		return fmt.Errorf("render job %s has no config", job.ID)
	}

	orch := pipeline.New(w.ffmpeg, w.locator, w.sink)
	_, err := orch.Run(ctx, *job.Config, job.MusicPath)
	return err
}

// handleGenerateAssets generates the image — and, when voice settings
// are present, the narration audio — for every block, in block order.
// Image and audio for one block run concurrently; a failed block is
// reported and skipped so the rest of the script still gets assets.
func (w *Worker) handleGenerateAssets(ctx context.Context, job *queue.Job) error {
	if len(job.Blocks) == 0 {
		return fmt.Errorf("asset job %s has no blocks", job.ID)
	}

	var imgSettings models.ImageSettings
	if job.ImageSettings != nil {
		imgSettings = *job.ImageSettings
	}

	total := len(job.Blocks)
	failed := 0
	for i, block := range job.Blocks {
		w.sink.Emit(progress.Progress(fmt.Sprintf("Generating assets for block %d/%d...", i+1, total)))

		if err := w.generateBlockAssets(ctx, block, imgSettings, job.VoiceSettings); err != nil {
			log.Printf("[Worker] Block %d asset generation failed: %v", block.ID, err)
			w.sink.Emit(progress.BlockError(block.ID, err.Error()))
			failed++
			continue
		}
	}

	if failed == total {
		w.sink.Emit(progress.GenerationError("Asset generation failed", fmt.Sprintf("all %d blocks failed", total)))
		return fmt.Errorf("all %d blocks failed", total)
	}

	w.sink.Emit(progress.GenerationComplete(fmt.Sprintf("Generated assets for %d/%d blocks", total-failed, total)))
	return nil
}

// generateBlockAssets runs the image and audio pipelines for one block
// in parallel; the first failure cancels the sibling.
func (w *Worker) generateBlockAssets(ctx context.Context, block models.TextBlock, imgSettings models.ImageSettings, voice *models.VoiceSettings) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		prompt := block.ImagePrompt
		if prompt == "" {
			prompt = block.Text
		}

		img, err := w.imagen.Generate(gctx, prompt, imgSettings)
		if err != nil {
			return fmt.Errorf("image generation failed: %w", err)
		}

		url, err := w.store.SaveImage(img.Data, "png")
		if err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}

		w.sink.Emit(progress.ImageGenerated(block.ID, url, img.Provider, img.Model))
		return nil
	})

	if voice != nil {
		g.Go(func() error {
			speech, err := w.tts.GenerateSpeech(gctx, block.Text, voice.StyleInstruction, voice.VoiceName)
			if err != nil {
				return fmt.Errorf("narration synthesis failed: %w", err)
			}

			url, err := w.store.SaveAudio(speech.AudioData, speech.Format)
			if err != nil {
				return fmt.Errorf("failed to save audio: %w", err)
			}

			w.sink.Emit(progress.AudioGenerated(block.ID, url))
			return nil
		})
	}

	return g.Wait()
}
