package visuals

import (
	"context"
	"fmt"
	"os"
	"strings"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Generator produces one still background image per video via the Gemini
// image model. The renderer loops the still for the whole video, so one image
// per variant is all a task needs.
type Generator struct {
	cfg *config.Config
	log zerolog.Logger
}

func NewGenerator(cfg *config.Config, log zerolog.Logger) *Generator {
	return &Generator{cfg: cfg, log: log}
}

// GenerateBackground renders a background still for the given variant and
// returns its path. Failures here are recoverable upstream: the orchestrator
// substitutes the configured fallback image.
func (g *Generator) GenerateBackground(ctx context.Context, task *types.Task, variant string) (string, error) {
	if g.cfg.Secrets.GeminiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.Secrets.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("genai client: %w", err)
	}

	prompt := buildImagePrompt(task, variant)
	resp, err := client.Models.GenerateContent(ctx, g.cfg.Visuals.ImageModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	)
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in image response")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		outPath := g.cfg.Paths.BackgroundPath(task.ContentHash, variant)
		if err := os.WriteFile(outPath, part.InlineData.Data, 0644); err != nil {
			return "", fmt.Errorf("write background: %w", err)
		}
		g.log.Info().Str("hash", task.ContentHash).Str("variant", variant).
			Int("bytes", len(part.InlineData.Data)).Str("path", outPath).Msg("background generated")
		return outPath, nil
	}
	return "", fmt.Errorf("image response had no inline image data")
}

// buildImagePrompt asks for an atmospheric wide shot with no text baked in,
// since titles and subtitles are composited at render time.
func buildImagePrompt(task *types.Task, variant string) string {
	orientation := "landscape 16:9"
	if strings.HasPrefix(variant, "short") {
		orientation = "portrait 9:16"
	}

	var sb strings.Builder
	sb.WriteString("A cinematic, atmospheric background image for a narrated video.\n")
	sb.WriteString(fmt.Sprintf("TOPIC: %s\n", task.Title))
	if task.CoreTheme != "" {
		sb.WriteString(fmt.Sprintf("MOOD AND THEME: %s\n", task.CoreTheme))
	}
	if task.Character != "" {
		sb.WriteString(fmt.Sprintf("The scene may evoke (but must not caption) %s.\n", task.Character))
	}
	sb.WriteString(fmt.Sprintf("Orientation: %s. Muted colors, soft focus, no text, no watermarks, no people's faces in closeup.", orientation))
	return sb.String()
}
