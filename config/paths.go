package config

import (
	"fmt"
	"path/filepath"
)

// Every derived artifact lives at a path keyed by the task's content hash, so
// re-running a task overwrites its own files and never anyone else's.
// Variant is "long" for the 16:9 video or "short_<n>" for a derived short.

func (p PathsConfig) AssetDir(hash string) string {
	return filepath.Join(p.Assets, hash)
}

func (p PathsConfig) ScriptPath(hash string) string {
	return filepath.Join(p.Assets, hash, "script_long.txt")
}

func (p PathsConfig) RawAudioPath(hash, variant string) string {
	return filepath.Join(p.OutputAudio, fmt.Sprintf("%s_%s_raw.mp3", hash, variant))
}

func (p PathsConfig) MixedAudioPath(hash, variant string) string {
	return filepath.Join(p.OutputAudio, fmt.Sprintf("%s_%s.mp3", hash, variant))
}

func (p PathsConfig) SubtitlePath(hash, variant string) string {
	return filepath.Join(p.Assets, hash, variant+".srt")
}

func (p PathsConfig) BackgroundPath(hash, variant string) string {
	return filepath.Join(p.Assets, hash, fmt.Sprintf("bg_%s.png", variant))
}

func (p PathsConfig) LongVideoPath(hash string) string {
	return filepath.Join(p.OutputVideo, hash+"_16_9.mp4")
}

func (p PathsConfig) ShortVideoPath(hash string, index int) string {
	return filepath.Join(p.OutputShorts, fmt.Sprintf("%s_short_%d_916.mp4", hash, index))
}
