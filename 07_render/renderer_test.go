package render

import (
	"strings"
	"testing"

	"faceless-video-pipeline/config"
)

var subCfg = config.SubtitlesConfig{Font: "Arial", FontSize: 28, MarginBottom: 60}

func TestBuildVideoFilterLong(t *testing.T) {
	vf := buildVideoFilter(1920, 1080, "assets/ab/long.srt", "", subCfg)
	if !strings.Contains(vf, "scale=1920:1080") || !strings.Contains(vf, "pad=1920:1080") {
		t.Errorf("long filter missing 16:9 frame: %s", vf)
	}
	if strings.Contains(vf, "drawtext") {
		t.Errorf("long filter should not overlay a title: %s", vf)
	}
	if !strings.Contains(vf, "subtitles=") {
		t.Errorf("subtitle burn-in missing: %s", vf)
	}
}

func TestBuildVideoFilterShort(t *testing.T) {
	vf := buildVideoFilter(1080, 1920, "", "The Hook Line", subCfg)
	if !strings.Contains(vf, "scale=1080:1920") {
		t.Errorf("short filter missing 9:16 frame: %s", vf)
	}
	if !strings.Contains(vf, "drawtext=text='The Hook Line'") {
		t.Errorf("title overlay missing: %s", vf)
	}
	if strings.Contains(vf, "subtitles=") {
		t.Errorf("no subtitle file was given but burn-in present: %s", vf)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := escapeFilterPath(`C:\media\file's.srt`)
	if strings.Contains(got, "C:") && !strings.Contains(got, `C\:`) {
		t.Errorf("colon not escaped: %s", got)
	}
	if !strings.Contains(got, `\\`) {
		t.Errorf("backslash not escaped: %s", got)
	}
}

func TestEscapeDrawtextStripsQuotes(t *testing.T) {
	got := escapeDrawtext("It's 100%: done")
	if strings.Contains(got, "'") {
		t.Errorf("single quote survived: %s", got)
	}
	if !strings.Contains(got, `\%`) {
		t.Errorf("percent not escaped: %s", got)
	}
}
