package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/skils4/video-maker/internal/models"
)

const (
	QueueRenderVideo    = "queue:render_video"
	QueueGenerateAssets = "queue:generate_assets"
)

type Queue struct {
	client *redis.Client
}

// Job is one unit of background work. Exactly one of the payload groups
// is set depending on Type: render_video carries Config and the saved
// music path; generate_assets carries Blocks plus generation settings.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`

	// render_video
	Config    *models.VideoJobConfig `json:"config,omitempty"`
	MusicPath string                 `json:"music_path,omitempty"`

	// generate_assets
	Blocks        []models.TextBlock    `json:"blocks,omitempty"`
	ImageSettings *models.ImageSettings `json:"image_settings,omitempty"`
	VoiceSettings *models.VoiceSettings `json:"voice_settings,omitempty"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) Enqueue(ctx context.Context, queueName string, job *Job) error {
	job.CreatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(ctx, queueName, data).Err()
}

func (q *Queue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, queueName).Result()
	if err == redis.Nil {
		return nil, nil // No job available
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

func (q *Queue) GetQueueLength(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, queueName).Result()
}

// EnqueueRenderVideo enqueues a full video-assembly job. musicPath is
// the saved local path of the uploaded background track ("" = none).
func (q *Queue) EnqueueRenderVideo(ctx context.Context, jobID uuid.UUID, cfg models.VideoJobConfig, musicPath string) error {
	job := &Job{
		ID:        jobID,
		Type:      "render_video",
		Config:    &cfg,
		MusicPath: musicPath,
	}
	return q.Enqueue(ctx, QueueRenderVideo, job)
}

// EnqueueGenerateAssets enqueues bulk image (and optionally narration)
// generation for a list of script blocks.
func (q *Queue) EnqueueGenerateAssets(ctx context.Context, jobID uuid.UUID, blocks []models.TextBlock, img models.ImageSettings, voice *models.VoiceSettings) error {
	job := &Job{
		ID:            jobID,
		Type:          "generate_assets",
		Blocks:        blocks,
		ImageSettings: &img,
		VoiceSettings: voice,
	}
	return q.Enqueue(ctx, QueueGenerateAssets, job)
}
