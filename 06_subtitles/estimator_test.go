package subtitles

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleText = "The harbor had been silent for thirty years. Nobody asked why the lights still burned at night! Then a fisherman found the first logbook. What it described should not have been possible? The town never spoke of it again."

func TestCuesCoverAudioDuration(t *testing.T) {
	e := NewEstimator(130, 50)
	cues, err := e.Cues(sampleText, 42.5)
	if err != nil {
		t.Fatalf("Cues: %v", err)
	}
	if len(cues) != 5 {
		t.Fatalf("expected 5 cues, got %d", len(cues))
	}

	last := cues[len(cues)-1]
	if last.End > 42.5 {
		t.Errorf("last cue ends after the audio: %.3f > 42.5", last.End)
	}
	// Rescaling should land the tail close to the full duration, not just under it.
	if last.End < 42.0 {
		t.Errorf("last cue ends too early: %.3f", last.End)
	}
}

func TestCuesOrderedAndNonOverlapping(t *testing.T) {
	e := NewEstimator(130, 50)
	cues, err := e.Cues(sampleText, 60)
	if err != nil {
		t.Fatalf("Cues: %v", err)
	}
	for i, c := range cues {
		if c.Index != i+1 {
			t.Errorf("cue %d has index %d", i, c.Index)
		}
		if c.End <= c.Start {
			t.Errorf("cue %d has non-positive duration: %.3f -> %.3f", c.Index, c.Start, c.End)
		}
		if i > 0 && c.Start < cues[i-1].End {
			t.Errorf("cue %d overlaps previous: starts %.3f before %.3f", c.Index, c.Start, cues[i-1].End)
		}
	}
	if cues[0].Start != 0 {
		t.Errorf("first cue must start at zero, got %.3f", cues[0].Start)
	}
}

func TestCuesProportionalToWordCount(t *testing.T) {
	e := NewEstimator(130, 0)
	text := "Short one. This sentence here carries exactly three times as many words inside."
	cues, err := e.Cues(text, 30)
	if err != nil {
		t.Fatalf("Cues: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	d1 := cues[0].End - cues[0].Start
	d2 := cues[1].End - cues[1].Start
	words1 := float64(len(strings.Fields("Short one.")))
	words2 := float64(len(strings.Fields("This sentence here carries exactly three times as many words inside.")))
	wantRatio := words2 / words1
	gotRatio := d2 / d1
	if math.Abs(gotRatio-wantRatio) > 0.01 {
		t.Errorf("duration ratio %.3f, want %.3f", gotRatio, wantRatio)
	}
}

func TestCuesVeryShortAudioDropsGaps(t *testing.T) {
	e := NewEstimator(130, 500)
	cues, err := e.Cues(sampleText, 1.0)
	if err != nil {
		t.Fatalf("Cues: %v", err)
	}
	last := cues[len(cues)-1]
	if last.End > 1.0 {
		t.Errorf("last cue exceeds 1s audio: %.3f", last.End)
	}
	for i := 1; i < len(cues); i++ {
		if cues[i].Start < cues[i-1].End {
			t.Errorf("overlap after gap drop at cue %d", cues[i].Index)
		}
	}
}

func TestCuesRejectsBadInput(t *testing.T) {
	e := NewEstimator(130, 50)
	if _, err := e.Cues("  ", 10); err == nil {
		t.Error("expected error for empty text")
	}
	if _, err := e.Cues(sampleText, 0); err == nil {
		t.Error("expected error for zero duration")
	}
	if _, err := e.Cues(sampleText, -3); err == nil {
		t.Error("expected error for negative duration")
	}
}

func TestSRTTimestampFormat(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.042, "00:01:01,042"},
		{3723.999, "01:02:03,999"},
	}
	for _, c := range cases {
		if got := srtTimestamp(c.sec); got != c.want {
			t.Errorf("srtTimestamp(%.3f) = %q, want %q", c.sec, got, c.want)
		}
	}
}

func TestGenerateFileWritesSRT(t *testing.T) {
	e := NewEstimator(130, 50)
	path := filepath.Join(t.TempDir(), "long.srt")
	if err := e.GenerateFile(sampleText, 40, path); err != nil {
		t.Fatalf("GenerateFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "1\n00:00:00,000 --> ") {
		t.Errorf("unexpected SRT head: %q", s[:40])
	}
	if !strings.Contains(s, " --> ") || !strings.Contains(s, "The harbor had been silent") {
		t.Errorf("SRT body malformed:\n%s", s)
	}
}
