package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/logx"
	"faceless-video-pipeline/pipeline"

	topics "faceless-video-pipeline/01_topics"
	tasks "faceless-video-pipeline/02_tasks"
	script "faceless-video-pipeline/03_script"
	audio "faceless-video-pipeline/04_audio"
	visuals "faceless-video-pipeline/05_visuals"
	subtitles "faceless-video-pipeline/06_subtitles"
	render "faceless-video-pipeline/07_render"
	upload "faceless-video-pipeline/08_upload"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	suggest := flag.Int("suggest", 0, "fetch N topic suggestions, append them to the sheet and exit")
	maxTasks := flag.Int("max", -1, "max tasks this run (-1 = use config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logx.Setup(logx.FromEnv("pipeline"))
		boot.Fatal().Err(err).Msg("config load failed")
	}

	logCfg := logx.FromEnv("pipeline")
	if logCfg.FilePath == "" {
		logCfg.FilePath = filepath.Join(cfg.Paths.Logs, "pipeline.log")
	}
	log := logx.Setup(logCfg).With().Str("run", uuid.NewString()[:8]).Logger()

	for _, dir := range []string{
		cfg.Paths.Assets, cfg.Paths.OutputAudio, cfg.Paths.OutputVideo,
		cfg.Paths.OutputShorts, cfg.Paths.Logs,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Str("dir", dir).Err(err).Msg("cannot create working directory")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := tasks.NewSheetStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("sheet store init failed")
	}
	source := tasks.NewSource(store, cfg, logx.Stage(log, "tasks"))

	if *suggest > 0 {
		runSuggest(ctx, cfg, source, *suggest, log)
		return
	}

	if *maxTasks < 0 {
		*maxTasks = cfg.Pipeline.MaxTasksPerRun
	}

	orch := pipeline.New(pipeline.Deps{
		Source:    source,
		Script:    script.New(cfg, logx.Stage(log, "script")),
		Shorts:    script.NewDeriver(cfg, logx.Stage(log, "shorts")),
		Speech:    audio.NewSynthesizer(cfg, logx.Stage(log, "tts")),
		Mixer:     audio.NewMixer(cfg, logx.Stage(log, "mix")),
		Prober:    audio.Duration,
		Images:    visuals.NewGenerator(cfg, logx.Stage(log, "visuals")),
		Subtitles: subtitles.NewEstimator(cfg.Subtitles.WordsPerMinute, cfg.Subtitles.GapMs),
		Composer:  render.New(cfg, logx.Stage(log, "render")),
		Publisher: upload.New(cfg, logx.Stage(log, "upload")),
	}, pipeline.Options{
		MaxTasks:      *maxTasks,
		ShortsCount:   cfg.Script.ShortsCount,
		TaskCooldown:  time.Duration(cfg.Pipeline.TaskCooldownSec) * time.Second,
		ShortCooldown: time.Duration(cfg.Pipeline.ShortCooldownSec) * time.Second,
		Publish:       cfg.Upload.Enabled,
		PublishShorts: cfg.Upload.PublishShorts,
		FallbackImage: cfg.Visuals.FallbackImage,
		Paths:         cfg.Paths,
	}, logx.Stage(log, "pipeline"))

	stats, err := orch.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("batch aborted")
	}
	log.Info().
		Int("processed", stats.Processed).
		Int("failed", stats.Failed).
		Int("shorts", stats.Shorts).
		Msg("batch complete")
}

func runSuggest(ctx context.Context, cfg *config.Config, source *tasks.Source, n int, log zerolog.Logger) {
	suggester, err := topics.New(cfg, logx.Stage(log, "topics"))
	if err != nil {
		log.Fatal().Err(err).Msg("topic suggester init failed")
	}
	reqs, err := suggester.Suggest(ctx, n)
	if err != nil {
		log.Fatal().Err(err).Msg("topic suggestion failed")
	}
	if err := source.AppendTasks(ctx, reqs); err != nil {
		log.Fatal().Err(err).Msg("could not append suggested tasks")
	}
	log.Info().Int("appended", len(reqs)).Msg("suggestions added to sheet")
}
