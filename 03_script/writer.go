package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const longSystemPrompt = `You are a professional scriptwriter for faceless YouTube channels. You write immersive long-form narration scripts meant to be read aloud by a single voice.

Rules:
- Pure narration only. No scene directions, no speaker labels, no markdown.
- Open with a hook in the first two sentences.
- Build the story in clear chronological beats and close with a question to the viewer.
- Natural spoken pace is ~130 words per minute; hit the requested length.

You MUST respond with ONLY valid JSON in this shape:
{
  "narration": "the full script text",
  "title": "a YouTube title under 90 characters",
  "description": "a 2-3 sentence video description",
  "tags": ["5-12", "search", "tags"]
}`

// Writer generates the long-form narration script and its upload metadata in
// one model call.
type Writer struct {
	cfg    *config.Config
	client *openai.Client
	log    zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) *Writer {
	return &Writer{
		cfg:    cfg,
		client: openai.NewClient(cfg.Secrets.OpenAIKey),
		log:    log,
	}
}

type scriptJSON struct {
	Narration   string   `json:"narration"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// GenerateLong writes the narration script for a task and persists it under
// the task's asset directory. Invalid tasks (no title) fail before any model
// call.
func (w *Writer) GenerateLong(ctx context.Context, task *types.Task) (*types.LongScript, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, types.Fail("script", types.FailureInvalidInput, fmt.Errorf("task row %d has no title", task.RowIndex))
	}

	w.log.Info().Str("hash", task.ContentHash).Str("model", w.cfg.Script.Model).Msg("generating long-form script")

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       w.cfg.Script.Model,
		Temperature: float32(w.cfg.Script.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: longSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildLongPrompt(task, w.cfg.Script.TargetMinutes)},
		},
	})
	if err != nil {
		return nil, types.Fail("script", types.FailureExternal, fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, types.Fail("script", types.FailureExternal, fmt.Errorf("model returned no choices"))
	}

	content := cleanJSON(resp.Choices[0].Message.Content)
	var raw scriptJSON
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, types.Fail("script", types.FailureInvalidInput,
			fmt.Errorf("parse script JSON: %w (head: %s)", err, head(content, 200)))
	}
	if strings.TrimSpace(raw.Narration) == "" {
		return nil, types.Fail("script", types.FailureInvalidInput, fmt.Errorf("model returned empty narration"))
	}
	if raw.Title == "" {
		raw.Title = task.Title
	}

	path := w.cfg.Paths.ScriptPath(task.ContentHash)
	if err := os.WriteFile(path, []byte(raw.Narration), 0644); err != nil {
		return nil, types.Fail("script", types.FailureExternal, fmt.Errorf("persist script: %w", err))
	}

	words := len(strings.Fields(raw.Narration))
	w.log.Info().Str("hash", task.ContentHash).Int("words", words).Str("path", path).Msg("script ready")

	return &types.LongScript{
		Text: raw.Narration,
		Path: path,
		Metadata: types.VideoMetadata{
			Title:       raw.Title,
			Description: raw.Description,
			Tags:        raw.Tags,
			CategoryID:  w.cfg.Upload.CategoryID,
			Visibility:  w.cfg.Upload.Visibility,
		},
	}, nil
}

func buildLongPrompt(task *types.Task, minutes int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write a ~%d minute narration script.\n\n", minutes))
	sb.WriteString(fmt.Sprintf("TOPIC: %s\n", task.Title))
	if task.Character != "" {
		sb.WriteString(fmt.Sprintf("CENTRAL CHARACTER: %s\n", task.Character))
	}
	if task.CoreTheme != "" {
		sb.WriteString(fmt.Sprintf("CORE THEME: %s\n", task.CoreTheme))
	}
	sb.WriteString("\nRespond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String()
}

// cleanJSON strips markdown fences in case the model wraps its response in
// ```json ... ``` despite JSON mode.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
