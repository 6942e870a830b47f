package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
)

// Synthesizer turns script text into narration audio by shelling out to a TTS
// engine. By default this is edge-tts; TTS_COMMAND swaps in any binary with a
// compatible flag surface.
type Synthesizer struct {
	cfg *config.Config
	log zerolog.Logger
}

func NewSynthesizer(cfg *config.Config, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{cfg: cfg, log: log}
}

// Synthesize writes narration audio for one variant and returns the raw file
// path. Transient engine failures are retried; a fresh Cmd is built per
// attempt since exec.Cmd is single-use.
func (s *Synthesizer) Synthesize(ctx context.Context, text, hash, variant string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", types.Fail("tts", types.FailureInvalidInput, fmt.Errorf("empty script text"))
	}

	outPath := s.cfg.Paths.RawAudioPath(hash, variant)
	engine := s.cfg.Secrets.TTSCommand
	if engine == "" {
		engine = "edge-tts"
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		cmd := exec.CommandContext(ctx, engine,
			"--voice", s.cfg.Audio.Voice,
			"--text", text,
			"--write-media", outPath,
		)
		out, err := cmd.CombinedOutput()
		if err == nil {
			if fi, statErr := os.Stat(outPath); statErr == nil && fi.Size() > 0 {
				s.log.Info().Str("hash", hash).Str("variant", variant).
					Int64("bytes", fi.Size()).Msg("narration synthesized")
				return outPath, nil
			}
			err = fmt.Errorf("engine exited clean but wrote no audio")
		}
		lastErr = fmt.Errorf("attempt %d: %w (output: %s)", attempt, err, head(string(out), 200))
		s.log.Warn().Str("variant", variant).Int("attempt", attempt).Err(err).Msg("tts attempt failed")

		select {
		case <-ctx.Done():
			return "", types.Fail("tts", types.FailureTransient, ctx.Err())
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
	}
	return "", types.Fail("tts", types.FailureExternal, lastErr)
}

// Duration probes an audio file's length in seconds via ffprobe.
func Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %.3f for %s", d, path)
	}
	return d, nil
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
