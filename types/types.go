package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// TaskStatus is the lifecycle state of one sheet row. The sheet stores it as a
// lowercase string; parsing is case-insensitive, writes are always lowercase.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusProcessed  TaskStatus = "processed"
	StatusFailed     TaskStatus = "failed"
)

// ParseStatus normalizes a raw cell value. An empty cell means pending, since
// requesters usually leave the status column blank. "completed" is accepted as
// a legacy spelling of processed so externally edited sheets don't get
// re-claimed.
func ParseStatus(raw string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pending":
		return StatusPending
	case "processing":
		return StatusProcessing
	case "processed", "completed":
		return StatusProcessed
	case "failed":
		return StatusFailed
	}
	// Unknown values are treated as in-flight so we never double-claim a row
	// another tool has marked in a way we don't understand.
	return StatusProcessing
}

// Claimable reports whether a row with this raw status cell may be claimed.
func Claimable(raw string) bool {
	return ParseStatus(raw) == StatusPending
}

// CanTransition is the allowed-transition table. Status writes that are not in
// this table are rejected at the task-source boundary.
func CanTransition(from, to TaskStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusProcessed || to == StatusFailed
	}
	// processed and failed are terminal
	return false
}

// Task is the in-memory copy of one sheet row for the duration of one run.
type Task struct {
	// RowIndex is the 1-based sheet row number (header included); it is the
	// task id used for status writes.
	RowIndex    int
	Title       string
	Character   string
	CoreTheme   string
	ContentHash string
	Status      TaskStatus
}

// TaskRequest is a row to be appended to the sheet as pending, e.g. by the
// topic suggester. Status and hash are assigned later by the normal scan.
type TaskRequest struct {
	Title     string
	Character string
	CoreTheme string
}

// Fingerprint derives the stable content hash for a row: the first 8 hex
// characters of sha256(title+character+core_theme). It keys every derived
// artifact on disk, so equal inputs must always produce equal output. Blank
// fields are hashed as-is; validation happens at script generation, not here.
func Fingerprint(title, character, coreTheme string) string {
	sum := sha256.Sum256([]byte(title + character + coreTheme))
	return hex.EncodeToString(sum[:])[:8]
}

// LongScript is the output of long-form script generation: the narration text,
// where it was persisted, and the upload metadata produced alongside it.
type LongScript struct {
	Text     string
	Path     string
	Metadata VideoMetadata
}

// ShortTaskConfig describes one derived short-form video. Index is the
// presentation order used for output numbering. BackgroundImage is inherited
// from the long-video stage by the orchestrator.
type ShortTaskConfig struct {
	Index           int
	Title           string
	ScriptText      string
	BackgroundImage string
}

// VideoMetadata is everything the publisher needs besides the file itself.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"category_id"`
	Visibility  string   `json:"visibility"`
}

// DefaultVisibility is deliberately non-public: freshly generated uploads are
// reviewed before being flipped public.
const DefaultVisibility = "unlisted"
