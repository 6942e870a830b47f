package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
)

// The orchestrator drives one batch run: claim a task, build its long video
// and shorts, publish, record a terminal status, repeat. Stages are
// interfaces so the state machine can be tested with fakes.
//
// Failure policy per task:
//   - script, TTS and render failures are fatal for the task (-> failed)
//   - mixing, imagery and subtitles degrade: the task continues with the raw
//     audio, the fallback image, or no subtitles
//   - publishing and status writes are best-effort; the rendered files on
//     disk are the source of truth
//   - each short is isolated: one bad short never fails its siblings or the
//     task

type TaskSource interface {
	FetchNextPending(ctx context.Context) (*types.Task, error)
	SetStatus(ctx context.Context, task *types.Task, status types.TaskStatus)
}

type ScriptGenerator interface {
	GenerateLong(ctx context.Context, task *types.Task) (*types.LongScript, error)
}

type ShortsDeriver interface {
	DeriveShorts(ctx context.Context, long *types.LongScript, n int) ([]types.ShortTaskConfig, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, hash, variant string) (string, error)
}

type AudioMixer interface {
	Mix(ctx context.Context, rawPath, hash, variant string) (string, error)
}

type AudioProber func(ctx context.Context, path string) (float64, error)

type ImageGenerator interface {
	GenerateBackground(ctx context.Context, task *types.Task, variant string) (string, error)
}

type SubtitleWriter interface {
	GenerateFile(text string, audioDuration float64, path string) error
}

type VisualComposer interface {
	RenderLong(ctx context.Context, hash, imagePath, audioPath, subtitlePath string) (string, error)
	RenderShort(ctx context.Context, hash string, index int, title, imagePath, audioPath, subtitlePath string) (string, error)
}

type Publisher interface {
	Upload(ctx context.Context, videoFile string, meta types.VideoMetadata) error
}

// Deps wires the concrete stages into the orchestrator.
type Deps struct {
	Source    TaskSource
	Script    ScriptGenerator
	Shorts    ShortsDeriver
	Speech    SpeechSynthesizer
	Mixer     AudioMixer
	Prober    AudioProber
	Images    ImageGenerator
	Subtitles SubtitleWriter
	Composer  VisualComposer
	Publisher Publisher
}

// Options are the run-level knobs.
type Options struct {
	MaxTasks      int // 0 = drain the sheet
	ShortsCount   int
	TaskCooldown  time.Duration
	ShortCooldown time.Duration
	Publish       bool
	PublishShorts bool
	FallbackImage string
	Paths         config.PathsConfig
}

// Stats summarizes one batch run.
type Stats struct {
	Processed int
	Failed    int
	Shorts    int
}

type Orchestrator struct {
	deps Deps
	opts Options
	log  zerolog.Logger
}

func New(deps Deps, opts Options, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{deps: deps, opts: opts, log: log}
}

// Run processes pending tasks sequentially until the sheet is drained, the
// task limit is hit, or the context is canceled. Only a task-source read
// error aborts the batch; everything inside a task is contained to that task.
func (o *Orchestrator) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	for {
		if o.opts.MaxTasks > 0 && stats.Processed+stats.Failed >= o.opts.MaxTasks {
			o.log.Info().Int("max", o.opts.MaxTasks).Msg("task limit reached")
			return stats, nil
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		task, err := o.deps.Source.FetchNextPending(ctx)
		if err != nil {
			return stats, fmt.Errorf("fetch next task: %w", err)
		}
		if task == nil {
			o.log.Info().Int("processed", stats.Processed).Int("failed", stats.Failed).
				Int("shorts", stats.Shorts).Msg("no pending tasks left")
			return stats, nil
		}

		shorts, err := o.processTask(ctx, task)
		stats.Shorts += shorts
		if err != nil {
			stats.Failed++
			o.log.Error().Int("row", task.RowIndex).Str("hash", task.ContentHash).Err(err).Msg("task failed")
			o.deps.Source.SetStatus(ctx, task, types.StatusFailed)
		} else {
			stats.Processed++
			o.deps.Source.SetStatus(ctx, task, types.StatusProcessed)
		}

		if o.opts.TaskCooldown > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(o.opts.TaskCooldown):
			}
		}
	}
}

// processTask runs all stages for one claimed task and returns the number of
// shorts rendered. A panic anywhere inside is converted to a task failure so
// the batch keeps moving.
func (o *Orchestrator) processTask(ctx context.Context, task *types.Task) (shorts int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing task: %v", r)
		}
	}()

	hash := task.ContentHash
	o.log.Info().Int("row", task.RowIndex).Str("hash", hash).Str("title", task.Title).Msg("processing task")

	// Script: fatal.
	long, err := o.deps.Script.GenerateLong(ctx, task)
	if err != nil {
		return 0, fmt.Errorf("script: %w", err)
	}

	// Narration: fatal.
	rawAudio, err := o.deps.Speech.Synthesize(ctx, long.Text, hash, "long")
	if err != nil {
		return 0, fmt.Errorf("speech: %w", err)
	}

	// Music mix: degraded, fall back to the raw narration.
	audioPath, err := o.deps.Mixer.Mix(ctx, rawAudio, hash, "long")
	if err != nil {
		o.log.Warn().Str("hash", hash).Err(err).Msg("mix failed, using raw narration")
		audioPath = rawAudio
	}

	// Background image: degraded, fall back to the configured still.
	imagePath, err := o.deps.Images.GenerateBackground(ctx, task, "long")
	if err != nil {
		o.log.Warn().Str("hash", hash).Err(err).Msg("image generation failed, using fallback")
		imagePath = o.opts.FallbackImage
	}
	if imagePath == "" || !fileExists(imagePath) {
		return 0, fmt.Errorf("no usable background image for task")
	}

	// Subtitles: degraded, render without burn-in on failure.
	subtitlePath := o.subtitlesFor(ctx, long.Text, audioPath, hash, "long")

	// Render: fatal, and the output must actually exist before we publish.
	videoPath, err := o.deps.Composer.RenderLong(ctx, hash, imagePath, audioPath, subtitlePath)
	if err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}
	if !fileExists(videoPath) {
		return 0, fmt.Errorf("render reported success but %s does not exist", videoPath)
	}

	// Publish: best-effort.
	if o.opts.Publish {
		if err := o.deps.Publisher.Upload(ctx, videoPath, long.Metadata); err != nil {
			o.log.Error().Str("hash", hash).Err(err).Msg("publish failed; video kept on disk")
		}
	}

	shorts = o.processShorts(ctx, task, long, imagePath)
	return shorts, nil
}

// processShorts derives and renders the short-form variants. The whole stage
// is degraded: a derivation failure leaves the task long-only, and each short
// is attempted regardless of its siblings.
func (o *Orchestrator) processShorts(ctx context.Context, task *types.Task, long *types.LongScript, longImage string) int {
	if o.opts.ShortsCount <= 0 {
		return 0
	}
	configs, err := o.deps.Shorts.DeriveShorts(ctx, long, o.opts.ShortsCount)
	if err != nil {
		o.log.Warn().Str("hash", task.ContentHash).Err(err).Msg("shorts derivation failed, long video only")
		return 0
	}

	rendered := 0
	for _, sc := range configs {
		sc.BackgroundImage = longImage
		if err := o.processShort(ctx, task, long, sc); err != nil {
			o.log.Warn().Str("hash", task.ContentHash).Int("short", sc.Index).Err(err).Msg("short failed")
		} else {
			rendered++
		}

		if o.opts.ShortCooldown > 0 {
			select {
			case <-ctx.Done():
				return rendered
			case <-time.After(o.opts.ShortCooldown):
			}
		}
	}
	o.log.Info().Str("hash", task.ContentHash).Int("rendered", rendered).Int("wanted", len(configs)).Msg("shorts done")
	return rendered
}

func (o *Orchestrator) processShort(ctx context.Context, task *types.Task, long *types.LongScript, sc types.ShortTaskConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing short %d: %v", sc.Index, r)
		}
	}()

	hash := task.ContentHash
	variant := fmt.Sprintf("short_%d", sc.Index)

	rawAudio, err := o.deps.Speech.Synthesize(ctx, sc.ScriptText, hash, variant)
	if err != nil {
		return fmt.Errorf("speech: %w", err)
	}

	audioPath, err := o.deps.Mixer.Mix(ctx, rawAudio, hash, variant)
	if err != nil {
		audioPath = rawAudio
	}

	imagePath, err := o.deps.Images.GenerateBackground(ctx, task, variant)
	if err != nil || !fileExists(imagePath) {
		imagePath = sc.BackgroundImage
	}

	subtitlePath := o.subtitlesFor(ctx, sc.ScriptText, audioPath, hash, variant)

	videoPath, err := o.deps.Composer.RenderShort(ctx, hash, sc.Index, sc.Title, imagePath, audioPath, subtitlePath)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if !fileExists(videoPath) {
		return fmt.Errorf("render reported success but %s does not exist", videoPath)
	}

	if o.opts.Publish && o.opts.PublishShorts {
		meta := long.Metadata
		meta.Title = sc.Title
		if err := o.deps.Publisher.Upload(ctx, videoPath, meta); err != nil {
			o.log.Error().Str("hash", hash).Int("short", sc.Index).Err(err).Msg("short publish failed; video kept on disk")
		}
	}
	return nil
}

// subtitlesFor probes the final audio and writes the SRT. Any failure returns
// an empty path, which the renderer treats as "no burn-in".
func (o *Orchestrator) subtitlesFor(ctx context.Context, text, audioPath, hash, variant string) string {
	duration, err := o.deps.Prober(ctx, audioPath)
	if err != nil {
		o.log.Warn().Str("hash", hash).Str("variant", variant).Err(err).Msg("audio probe failed, skipping subtitles")
		return ""
	}
	path := o.opts.Paths.SubtitlePath(hash, variant)
	if err := o.deps.Subtitles.GenerateFile(text, duration, path); err != nil {
		o.log.Warn().Str("hash", hash).Str("variant", variant).Err(err).Msg("subtitle generation failed, rendering without")
		return ""
	}
	return path
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
