package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"faceless-video-pipeline/config"

	"github.com/rs/zerolog"
)

// Mixer lays background music under narration. Narration always starts at
// offset zero and the output is exactly as long as the narration; music loops
// underneath and is cut when the narration ends.
type Mixer struct {
	cfg *config.Config
	log zerolog.Logger
}

func NewMixer(cfg *config.Config, log zerolog.Logger) *Mixer {
	return &Mixer{cfg: cfg, log: log}
}

// Mix produces the final audio for one variant and returns its path. With no
// music track configured the narration is re-encoded as-is, so downstream
// stages always get the mixed path.
func (m *Mixer) Mix(ctx context.Context, rawPath, hash, variant string) (string, error) {
	outPath := m.cfg.Paths.MixedAudioPath(hash, variant)

	var args []string
	if m.cfg.Paths.Music == "" || !fileExists(m.cfg.Paths.Music) {
		args = []string{"-y", "-i", rawPath, "-c:a", "libmp3lame", "-q:a", "2", outPath}
	} else {
		args = []string{
			"-y",
			"-i", rawPath,
			"-stream_loop", "-1", "-i", m.cfg.Paths.Music,
			"-filter_complex", MixFilter(m.cfg.Audio.MusicVolume),
			"-map", "[aout]",
			"-c:a", "libmp3lame", "-q:a", "2",
			outPath,
		}
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg mix: %w (output: %s)", err, head(string(out), 300))
	}
	m.log.Info().Str("hash", hash).Str("variant", variant).Str("path", outPath).Msg("audio mixed")
	return outPath, nil
}

// MixFilter builds the amix filter graph. Input 0 is the narration at full
// volume and zero offset; duration=first pins the output length to it.
func MixFilter(musicVolume float64) string {
	return fmt.Sprintf(
		"[0:a]volume=1.0[nar];[1:a]volume=%.2f[mus];[nar][mus]amix=inputs=2:duration=first:dropout_transition=3[aout]",
		musicVolume,
	)
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
