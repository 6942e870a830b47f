package render

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"faceless-video-pipeline/config"

	"github.com/rs/zerolog"
)

// Renderer composites a still background, mixed audio and optional burned-in
// subtitles into the final videos via ffmpeg. The long form is 1920x1080, the
// shorts are 1080x1920 with a title overlay.
type Renderer struct {
	cfg *config.Config
	log zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) *Renderer {
	return &Renderer{cfg: cfg, log: log}
}

// RenderLong produces the 16:9 video for a task and returns its path.
// subtitlePath may be empty when subtitle generation was skipped.
func (r *Renderer) RenderLong(ctx context.Context, hash, imagePath, audioPath, subtitlePath string) (string, error) {
	outPath := r.cfg.Paths.LongVideoPath(hash)
	vf := buildVideoFilter(1920, 1080, subtitlePath, "", r.cfg.Subtitles)
	if err := r.render(ctx, imagePath, audioPath, vf, outPath); err != nil {
		return "", err
	}
	r.log.Info().Str("hash", hash).Str("path", outPath).Msg("long video rendered")
	return outPath, nil
}

// RenderShort produces one 9:16 short and returns its path.
func (r *Renderer) RenderShort(ctx context.Context, hash string, index int, title, imagePath, audioPath, subtitlePath string) (string, error) {
	outPath := r.cfg.Paths.ShortVideoPath(hash, index)
	vf := buildVideoFilter(1080, 1920, subtitlePath, title, r.cfg.Subtitles)
	if err := r.render(ctx, imagePath, audioPath, vf, outPath); err != nil {
		return "", err
	}
	r.log.Info().Str("hash", hash).Int("short", index).Str("path", outPath).Msg("short rendered")
	return outPath, nil
}

func (r *Renderer) render(ctx context.Context, imagePath, audioPath, vf, outPath string) error {
	args := []string{
		"-y",
		"-loop", "1", "-i", imagePath,
		"-i", audioPath,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", r.cfg.Render.Preset,
		"-crf", strconv.Itoa(r.cfg.Render.CRF),
		"-r", strconv.Itoa(r.cfg.Render.FPS),
		"-c:a", "aac", "-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		tail := string(out)
		if len(tail) > 400 {
			tail = tail[len(tail)-400:]
		}
		return fmt.Errorf("ffmpeg render: %w (output: %s)", err, tail)
	}
	return nil
}

// buildVideoFilter scales and pads the still to the target frame, then chains
// an optional title overlay and subtitle burn-in.
func buildVideoFilter(width, height int, subtitlePath, title string, sub config.SubtitlesConfig) string {
	var parts []string
	parts = append(parts, fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		width, height, width, height))

	if title != "" {
		parts = append(parts, fmt.Sprintf(
			"drawtext=text='%s':fontsize=64:fontcolor=white:borderw=3:bordercolor=black:x=(w-text_w)/2:y=h*0.08",
			escapeDrawtext(title)))
	}
	if subtitlePath != "" {
		parts = append(parts, fmt.Sprintf(
			"subtitles='%s':force_style='FontName=%s,FontSize=%d,MarginV=%d'",
			escapeFilterPath(subtitlePath), sub.Font, sub.FontSize, sub.MarginBottom))
	}
	return strings.Join(parts, ",")
}

// escapeFilterPath escapes the characters ffmpeg filter strings treat
// specially in file paths.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}

// escapeDrawtext escapes text for a drawtext filter argument.
func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ":", "\\:")
	s = strings.ReplaceAll(s, "%", "\\%")
	return s
}
