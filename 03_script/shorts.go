package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const shortsSystemPrompt = `You extract short-form vertical video scripts from a long-form narration.

Each short must:
- be a self-contained moment (20-45 seconds spoken, roughly 50-110 words)
- start with its strongest line
- carry a punchy title under 70 characters

You MUST respond with ONLY valid JSON in this shape:
{"shorts": [{"title": "...", "script": "..."}]}`

// ShortsDeriver turns a long script into n short-form scripts. Two
// implementations exist: an LLM extractor and a deterministic splitter used
// as a zero-cost fallback (shorts_strategy: "split").
type ShortsDeriver interface {
	DeriveShorts(ctx context.Context, long *types.LongScript, n int) ([]types.ShortTaskConfig, error)
}

// NewDeriver selects the deriver for the configured strategy.
func NewDeriver(cfg *config.Config, log zerolog.Logger) ShortsDeriver {
	if cfg.Script.ShortsStrategy == "split" {
		return &SplitDeriver{MaxWords: cfg.Script.ShortMaxWords}
	}
	return &LLMDeriver{
		cfg:    cfg,
		client: openai.NewClient(cfg.Secrets.OpenAIKey),
		log:    log,
	}
}

// LLMDeriver asks the model to pick the strongest standalone moments.
type LLMDeriver struct {
	cfg    *config.Config
	client *openai.Client
	log    zerolog.Logger
}

type shortsJSON struct {
	Shorts []struct {
		Title  string `json:"title"`
		Script string `json:"script"`
	} `json:"shorts"`
}

func (d *LLMDeriver) DeriveShorts(ctx context.Context, long *types.LongScript, n int) ([]types.ShortTaskConfig, error) {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.cfg.Script.Model,
		Temperature: float32(d.cfg.Script.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: shortsSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(
				"Extract exactly %d shorts from this narration.\n\n%s\n\nRespond ONLY with valid JSON.", n, long.Text)},
		},
	})
	if err != nil {
		return nil, types.Fail("shorts", types.FailureExternal, fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, types.Fail("shorts", types.FailureExternal, fmt.Errorf("model returned no choices"))
	}

	var raw shortsJSON
	content := cleanJSON(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, types.Fail("shorts", types.FailureInvalidInput, fmt.Errorf("parse shorts JSON: %w", err))
	}

	var out []types.ShortTaskConfig
	for _, s := range raw.Shorts {
		if strings.TrimSpace(s.Script) == "" {
			continue
		}
		out = append(out, types.ShortTaskConfig{
			Index:      len(out) + 1,
			Title:      s.Title,
			ScriptText: s.Script,
		})
		if len(out) >= n {
			break
		}
	}
	if len(out) == 0 {
		return nil, types.Fail("shorts", types.FailureInvalidInput, fmt.Errorf("model returned no usable shorts"))
	}
	return out, nil
}

// SplitDeriver cuts the long script into n sentence windows with no model
// call. Windows longer than MaxWords are truncated at a sentence boundary.
type SplitDeriver struct {
	MaxWords int
}

func (d *SplitDeriver) DeriveShorts(ctx context.Context, long *types.LongScript, n int) ([]types.ShortTaskConfig, error) {
	sentences := splitSentences(long.Text)
	if len(sentences) == 0 {
		return nil, types.Fail("shorts", types.FailureInvalidInput, fmt.Errorf("long script has no sentences"))
	}
	if n > len(sentences) {
		n = len(sentences)
	}

	per := len(sentences) / n
	var out []types.ShortTaskConfig
	for i := 0; i < n; i++ {
		start := i * per
		end := start + per
		if i == n-1 {
			end = len(sentences)
		}
		text := clampWords(sentences[start:end], d.MaxWords)
		if text == "" {
			continue
		}
		title := truncateTitle(sentences[start], 70)
		out = append(out, types.ShortTaskConfig{
			Index:      len(out) + 1,
			Title:      title,
			ScriptText: text,
		})
	}
	return out, nil
}

// truncateTitle shortens a title on rune boundaries so multibyte characters
// are never split.
func truncateTitle(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// clampWords joins sentences until adding the next would pass the word limit.
// The first sentence is always kept.
func clampWords(sentences []string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 110
	}
	var kept []string
	words := 0
	for _, s := range sentences {
		w := len(strings.Fields(s))
		if len(kept) > 0 && words+w > maxWords {
			break
		}
		kept = append(kept, s)
		words += w
	}
	return strings.Join(kept, " ")
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
