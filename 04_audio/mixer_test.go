package audio

import (
	"strings"
	"testing"
)

func TestMixFilterNarrationFirst(t *testing.T) {
	f := MixFilter(0.12)
	if !strings.HasPrefix(f, "[0:a]volume=1.0[nar]") {
		t.Errorf("narration must be input 0 at full volume: %s", f)
	}
	if !strings.Contains(f, "volume=0.12[mus]") {
		t.Errorf("music gain not applied: %s", f)
	}
	if !strings.Contains(f, "duration=first") {
		t.Errorf("output length must be pinned to narration: %s", f)
	}
}

func TestMixFilterVolumeFormatting(t *testing.T) {
	f := MixFilter(0.3)
	if !strings.Contains(f, "volume=0.30[mus]") {
		t.Errorf("volume should render with two decimals: %s", f)
	}
}
