package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
)

// Source turns spreadsheet rows into claimable tasks. Each FetchNextPending
// call runs two phases over the full tab: first every row missing a content
// hash gets one assigned (plus its asset directory), then the first claimable
// row is marked processing and returned. Both phases are idempotent, so a
// crashed run can simply be restarted.
type Source struct {
	store  rowStore
	assets string
	log    zerolog.Logger
}

func NewSource(store rowStore, cfg *config.Config, log zerolog.Logger) *Source {
	return &Source{store: store, assets: cfg.Paths.Assets, log: log}
}

// FetchNextPending returns the next claimed task, or (nil, nil) when no
// pending rows remain. A store read error is returned as-is; a failed claim
// write just skips the row for this run so a flaky write can't process a row
// twice.
func (s *Source) FetchNextPending(ctx context.Context) (*types.Task, error) {
	rows, err := s.store.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rows: %w", err)
	}

	// Phase 1: assign hashes and create asset dirs for every hashless row.
	// Blank fields hash as-is; validation is script generation's job.
	for _, row := range rows {
		if row.ContentHash != "" {
			continue
		}
		hash := types.Fingerprint(row.Title, row.Character, row.CoreTheme)
		if err := os.MkdirAll(filepath.Join(s.assets, hash), 0755); err != nil {
			return nil, fmt.Errorf("asset dir for row %d: %w", row.Index, err)
		}
		if err := s.store.WriteHash(ctx, row.Index, hash); err != nil {
			s.log.Warn().Int("row", row.Index).Err(err).Msg("hash write failed, skipping row")
			continue
		}
		s.log.Info().Int("row", row.Index).Str("hash", hash).Msg("assigned content hash")
	}

	// Phase 2: claim the first pending row. Re-read so phase 1 writes are
	// visible and another writer's edits are honored.
	rows, err = s.store.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("re-fetch rows: %w", err)
	}
	for _, row := range rows {
		if row.ContentHash == "" {
			continue
		}
		if !types.Claimable(row.Status) {
			continue
		}
		if err := s.store.WriteStatus(ctx, row.Index, string(types.StatusProcessing)); err != nil {
			s.log.Warn().Int("row", row.Index).Err(err).Msg("claim write failed, skipping row")
			continue
		}
		task := &types.Task{
			RowIndex:    row.Index,
			Title:       row.Title,
			Character:   row.Character,
			CoreTheme:   row.CoreTheme,
			ContentHash: row.ContentHash,
			Status:      types.StatusProcessing,
		}
		s.log.Info().Int("row", row.Index).Str("hash", row.ContentHash).Str("title", row.Title).Msg("claimed task")
		return task, nil
	}

	return nil, nil
}

// SetStatus records a terminal (or claim) transition for a task. Illegal
// transitions are rejected locally; sheet write failures are logged but not
// raised, since by this point the work itself already succeeded or failed.
func (s *Source) SetStatus(ctx context.Context, task *types.Task, status types.TaskStatus) {
	if !types.CanTransition(task.Status, status) {
		s.log.Error().
			Int("row", task.RowIndex).
			Str("from", string(task.Status)).
			Str("to", string(status)).
			Msg("illegal status transition rejected")
		return
	}
	if err := s.store.WriteStatus(ctx, task.RowIndex, string(status)); err != nil {
		s.log.Error().Int("row", task.RowIndex).Str("to", string(status)).Err(err).
			Msg("status write failed; sheet is stale until next run")
		return
	}
	task.Status = status
}

// AppendTasks adds suggester output to the sheet as pending rows.
func (s *Source) AppendTasks(ctx context.Context, reqs []types.TaskRequest) error {
	for _, r := range reqs {
		if r.Title == "" {
			continue
		}
		if err := s.store.Append(ctx, r.Title, r.Character, r.CoreTheme); err != nil {
			return fmt.Errorf("append %q: %w", r.Title, err)
		}
		s.log.Info().Str("title", r.Title).Msg("appended pending task")
	}
	return nil
}
