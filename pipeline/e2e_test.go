package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tasks "faceless-video-pipeline/02_tasks"
	"faceless-video-pipeline/config"

	"github.com/rs/zerolog"
)

// sheetFake is an in-memory row store so the full claim/process/terminal
// lifecycle can run against the real task source.
type sheetFake struct {
	rows []tasks.Row
}

func (f *sheetFake) Rows(ctx context.Context) ([]tasks.Row, error) {
	out := make([]tasks.Row, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *sheetFake) WriteStatus(ctx context.Context, rowIndex int, status string) error {
	for i := range f.rows {
		if f.rows[i].Index == rowIndex {
			f.rows[i].Status = status
			return nil
		}
	}
	return errors.New("row not found")
}

func (f *sheetFake) WriteHash(ctx context.Context, rowIndex int, hash string) error {
	for i := range f.rows {
		if f.rows[i].Index == rowIndex {
			f.rows[i].ContentHash = hash
			return nil
		}
	}
	return errors.New("row not found")
}

func (f *sheetFake) Append(ctx context.Context, title, character, coreTheme string) error {
	f.rows = append(f.rows, tasks.Row{Index: len(f.rows) + 2, Title: title, Character: character, CoreTheme: coreTheme, Status: "pending"})
	return nil
}

func TestEndToEndRowLifecycle(t *testing.T) {
	dir := t.TempDir()
	store := &sheetFake{rows: []tasks.Row{
		{Index: 2, Title: "A", Character: "B", CoreTheme: "C", Status: "pending"},
	}}

	cfg := &config.Config{}
	cfg.Paths = config.PathsConfig{
		Assets: dir, OutputAudio: dir, OutputVideo: dir, OutputShorts: dir, Logs: dir,
	}
	source := tasks.NewSource(store, cfg, zerolog.Nop())

	composer := &fakeComposer{dir: dir}
	orch := New(Deps{
		Source:    source,
		Script:    &fakeScript{},
		Shorts:    &fakeShorts{},
		Speech:    &fakeSpeech{dir: dir},
		Mixer:     &fakeMixer{dir: dir},
		Prober:    func(ctx context.Context, path string) (float64, error) { return 30, nil },
		Images:    &fakeImages{dir: dir},
		Subtitles: &fakeSubtitles{},
		Composer:  composer,
		Publisher: &fakePublisher{},
	}, Options{
		ShortsCount: 3,
		Paths:       cfg.Paths,
	}, zerolog.Nop())

	stats, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Processed != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want 1 processed", stats)
	}

	// sha256("ABC")[:8]
	const hash = "b5d4045c"
	if store.rows[0].ContentHash != hash {
		t.Errorf("sheet hash = %q, want %q", store.rows[0].ContentHash, hash)
	}
	if store.rows[0].Status != "processed" {
		t.Errorf("final sheet status = %q, want processed", store.rows[0].Status)
	}
	if fi, err := os.Stat(filepath.Join(dir, hash)); err != nil || !fi.IsDir() {
		t.Errorf("asset directory for %s not created: %v", hash, err)
	}
	if _, err := os.Stat(filepath.Join(dir, hash+"_16_9.mp4")); err != nil {
		t.Errorf("long video missing: %v", err)
	}
	shorts, _ := filepath.Glob(filepath.Join(dir, hash+"_short_*_916.mp4"))
	if len(shorts) == 0 {
		t.Error("expected at least one rendered short on disk")
	}
}
