package subtitles

import (
	"fmt"
	"os"
	"strings"
)

// Cue is one subtitle entry. Start and End are seconds from audio start.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Estimator times subtitle cues without any speech recognition: each sentence
// gets a duration proportional to its word count at the configured reading
// speed, then the whole timeline is rescaled so the cues exactly cover the
// real audio duration.
type Estimator struct {
	WordsPerMinute int
	GapSec         float64
}

func NewEstimator(wpm int, gapMs int) *Estimator {
	if wpm <= 0 {
		wpm = 130
	}
	if gapMs <= 0 {
		gapMs = 50
	}
	return &Estimator{WordsPerMinute: wpm, GapSec: float64(gapMs) / 1000.0}
}

// Cues builds the timed cue list for a script against the real audio
// duration. Cues are strictly ordered, non-overlapping, and the last cue ends
// at or before the audio does.
func (e *Estimator) Cues(text string, audioDuration float64) ([]Cue, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty script text")
	}
	if audioDuration <= 0 {
		return nil, fmt.Errorf("non-positive audio duration %.3f", audioDuration)
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("no sentences in script text")
	}

	// Per-sentence estimates at nominal reading speed.
	estimates := make([]float64, len(sentences))
	var estTotal float64
	for i, s := range sentences {
		words := len(strings.Fields(s))
		if words == 0 {
			words = 1
		}
		estimates[i] = float64(words) / float64(e.WordsPerMinute) * 60.0
		estTotal += estimates[i]
	}

	// Rescale to the real duration, reserving the inter-cue gaps. When the
	// audio is too short to fit the gaps, drop them and scale speech only.
	gap := e.GapSec
	speech := audioDuration - gap*float64(len(sentences)-1)
	if speech <= 0 {
		gap = 0
		speech = audioDuration
	}
	scale := speech / estTotal

	cues := make([]Cue, len(sentences))
	cursor := 0.0
	for i, s := range sentences {
		d := estimates[i] * scale
		cues[i] = Cue{
			Index: i + 1,
			Start: cursor,
			End:   cursor + d,
			Text:  s,
		}
		cursor += d + gap
	}
	// Clamp the tail against float drift.
	if cues[len(cues)-1].End > audioDuration {
		cues[len(cues)-1].End = audioDuration
	}
	return cues, nil
}

// GenerateFile writes the SRT for a script directly to disk.
func (e *Estimator) GenerateFile(text string, audioDuration float64, path string) error {
	cues, err := e.Cues(text, audioDuration)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(FormatSRT(cues)), 0644)
}

// FormatSRT renders cues in SubRip format.
func FormatSRT(cues []Cue) string {
	var sb strings.Builder
	for _, c := range cues {
		sb.WriteString(fmt.Sprintf("%d\n%s --> %s\n%s\n\n",
			c.Index, srtTimestamp(c.Start), srtTimestamp(c.End), c.Text))
	}
	return sb.String()
}

func srtTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int(sec*1000.0 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(cur.String())
			if s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}
