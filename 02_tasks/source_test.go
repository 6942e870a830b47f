package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	rows       []Row
	failClaims bool
	writes     []string
}

func (f *fakeStore) Rows(ctx context.Context) ([]Row, error) {
	out := make([]Row, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeStore) WriteStatus(ctx context.Context, rowIndex int, status string) error {
	if f.failClaims && status == "processing" {
		return errors.New("quota exceeded")
	}
	for i := range f.rows {
		if f.rows[i].Index == rowIndex {
			f.rows[i].Status = status
			f.writes = append(f.writes, status)
			return nil
		}
	}
	return errors.New("row not found")
}

func (f *fakeStore) WriteHash(ctx context.Context, rowIndex int, hash string) error {
	for i := range f.rows {
		if f.rows[i].Index == rowIndex {
			f.rows[i].ContentHash = hash
			return nil
		}
	}
	return errors.New("row not found")
}

func (f *fakeStore) Append(ctx context.Context, title, character, coreTheme string) error {
	f.rows = append(f.rows, Row{
		Index: len(f.rows) + 2, Title: title, Character: character,
		CoreTheme: coreTheme, Status: "pending",
	})
	return nil
}

func newTestSource(t *testing.T, store rowStore) *Source {
	t.Helper()
	cfg := &config.Config{}
	cfg.Paths.Assets = t.TempDir()
	return NewSource(store, cfg, zerolog.Nop())
}

func TestFetchAssignsHashAndClaims(t *testing.T) {
	store := &fakeStore{rows: []Row{
		{Index: 2, Title: "The Lost City", Character: "Explorer", CoreTheme: "discovery"},
	}}
	src := newTestSource(t, store)

	task, err := src.FetchNextPending(context.Background())
	if err != nil {
		t.Fatalf("FetchNextPending: %v", err)
	}
	if task == nil {
		t.Fatal("expected a claimed task")
	}
	want := types.Fingerprint("The Lost City", "Explorer", "discovery")
	if task.ContentHash != want {
		t.Errorf("hash = %q, want %q", task.ContentHash, want)
	}
	if task.Status != types.StatusProcessing {
		t.Errorf("claimed task status = %q, want processing", task.Status)
	}
	if store.rows[0].Status != "processing" {
		t.Errorf("sheet status = %q, want processing", store.rows[0].Status)
	}
	if _, err := os.Stat(filepath.Join(src.assets, want)); err != nil {
		t.Errorf("asset directory not created: %v", err)
	}
}

func TestFetchBlankTitleStillClaimed(t *testing.T) {
	// Rows with blank fields hash and claim like any other; rejecting bad
	// input is script generation's job, which then fails the task terminally.
	store := &fakeStore{rows: []Row{
		{Index: 2, Character: "Explorer", CoreTheme: "discovery", Status: "pending"},
	}}
	src := newTestSource(t, store)

	task, err := src.FetchNextPending(context.Background())
	if err != nil {
		t.Fatalf("FetchNextPending: %v", err)
	}
	if task == nil {
		t.Fatal("blank-title row must still be claimed")
	}
	want := types.Fingerprint("", "Explorer", "discovery")
	if task.ContentHash != want {
		t.Errorf("hash = %q, want %q", task.ContentHash, want)
	}
	if store.rows[0].Status != "processing" {
		t.Errorf("sheet status = %q, want processing", store.rows[0].Status)
	}
}

func TestFetchSkipsNonClaimable(t *testing.T) {
	store := &fakeStore{rows: []Row{
		{Index: 2, Title: "a", ContentHash: "11111111", Status: "Processed"},
		{Index: 3, Title: "b", ContentHash: "22222222", Status: "completed"},
		{Index: 4, Title: "c", ContentHash: "33333333", Status: "FAILED"},
		{Index: 5, Title: "d", ContentHash: "44444444", Status: "processing"},
		{Index: 6, Title: "e", ContentHash: "55555555", Status: ""},
	}}
	src := newTestSource(t, store)

	task, err := src.FetchNextPending(context.Background())
	if err != nil {
		t.Fatalf("FetchNextPending: %v", err)
	}
	if task == nil || task.RowIndex != 6 {
		t.Fatalf("expected row 6 to be claimed, got %+v", task)
	}
}

func TestFetchIdempotentHashes(t *testing.T) {
	store := &fakeStore{rows: []Row{
		{Index: 2, Title: "Repeat", Status: "processed"},
	}}
	src := newTestSource(t, store)

	if _, err := src.FetchNextPending(context.Background()); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	first := store.rows[0].ContentHash
	if first == "" {
		t.Fatal("first scan should assign a hash even to processed rows")
	}
	if _, err := src.FetchNextPending(context.Background()); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if store.rows[0].ContentHash != first {
		t.Errorf("hash changed across scans: %q -> %q", first, store.rows[0].ContentHash)
	}
}

func TestFetchClaimWriteFailure(t *testing.T) {
	store := &fakeStore{
		rows:       []Row{{Index: 2, Title: "a", ContentHash: "11111111", Status: "pending"}},
		failClaims: true,
	}
	src := newTestSource(t, store)

	task, err := src.FetchNextPending(context.Background())
	if err != nil {
		t.Fatalf("claim failure must not be fatal: %v", err)
	}
	if task != nil {
		t.Fatalf("row with failed claim write must not be returned, got %+v", task)
	}
}

func TestSetStatusRejectsIllegalTransition(t *testing.T) {
	store := &fakeStore{rows: []Row{{Index: 2, Title: "a", ContentHash: "11111111", Status: "processed"}}}
	src := newTestSource(t, store)

	task := &types.Task{RowIndex: 2, Status: types.StatusProcessed}
	src.SetStatus(context.Background(), task, types.StatusFailed)
	if len(store.writes) != 0 {
		t.Errorf("terminal row must not be rewritten, got writes %v", store.writes)
	}
	if task.Status != types.StatusProcessed {
		t.Errorf("task status mutated on rejected transition: %q", task.Status)
	}
}

func TestSetStatusTerminal(t *testing.T) {
	store := &fakeStore{rows: []Row{{Index: 2, Title: "a", ContentHash: "11111111", Status: "processing"}}}
	src := newTestSource(t, store)

	task := &types.Task{RowIndex: 2, Status: types.StatusProcessing}
	src.SetStatus(context.Background(), task, types.StatusProcessed)
	if store.rows[0].Status != "processed" {
		t.Errorf("sheet status = %q, want processed", store.rows[0].Status)
	}
	if task.Status != types.StatusProcessed {
		t.Errorf("task status = %q, want processed", task.Status)
	}
}

func TestAppendTasksSkipsBlankTitles(t *testing.T) {
	store := &fakeStore{}
	src := newTestSource(t, store)

	reqs := []types.TaskRequest{
		{Title: "Real topic", CoreTheme: "mystery"},
		{Title: ""},
	}
	if err := src.AppendTasks(context.Background(), reqs); err != nil {
		t.Fatalf("AppendTasks: %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("expected 1 appended row, got %d", len(store.rows))
	}
	if store.rows[0].Status != "pending" {
		t.Errorf("appended row status = %q, want pending", store.rows[0].Status)
	}
}
