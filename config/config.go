package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Sheet     SheetConfig     `yaml:"sheet"`
	Topics    TopicsConfig    `yaml:"topics"`
	Script    ScriptConfig    `yaml:"script"`
	Audio     AudioConfig     `yaml:"audio"`
	Visuals   VisualsConfig   `yaml:"visuals"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
	Render    RenderConfig    `yaml:"render"`
	Upload    UploadConfig    `yaml:"upload"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Paths     PathsConfig     `yaml:"paths"`

	// Secrets come from the environment only, never from config.yaml.
	Secrets Secrets `yaml:"-"`
}

type SheetConfig struct {
	Tab      string `yaml:"tab"`       // worksheet name, e.g. "Tasks"
	FirstRow int    `yaml:"first_row"` // first data row (1-based, after header)
}

type TopicsConfig struct {
	Subreddits     []string `yaml:"subreddits"`
	TimePeriod     string   `yaml:"time_period"` // "day" | "week" | "month"
	MinScore       int      `yaml:"min_score"`
	MinComments    int      `yaml:"min_comments"`
	MaxSuggestions int      `yaml:"max_suggestions"`
	UsedTopicsLog  string   `yaml:"used_topics_log"`
}

type ScriptConfig struct {
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	TargetMinutes  int     `yaml:"target_minutes"`
	ShortsCount    int     `yaml:"shorts_count"`
	ShortsStrategy string  `yaml:"shorts_strategy"` // "llm" | "split"
	ShortMaxWords  int     `yaml:"short_max_words"`
}

type AudioConfig struct {
	Voice       string  `yaml:"voice"`        // edge-tts voice name
	MusicVolume float64 `yaml:"music_volume"` // background gain under narration, e.g. 0.12
}

type VisualsConfig struct {
	ImageModel    string `yaml:"image_model"`
	FallbackImage string `yaml:"fallback_image"`
}

type SubtitlesConfig struct {
	WordsPerMinute int    `yaml:"words_per_minute"`
	GapMs          int    `yaml:"gap_ms"`
	Font           string `yaml:"font"`
	FontSize       int    `yaml:"font_size"`
	MarginBottom   int    `yaml:"margin_bottom"`
}

type RenderConfig struct {
	FPS    int    `yaml:"fps"`
	CRF    int    `yaml:"crf"`
	Preset string `yaml:"preset"`
}

type UploadConfig struct {
	Enabled           bool   `yaml:"enabled"`
	PublishShorts     bool   `yaml:"publish_shorts"`
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	DefaultLanguage   string `yaml:"default_language"`
}

type PipelineConfig struct {
	MaxTasksPerRun   int `yaml:"max_tasks_per_run"`  // 0 = drain the sheet
	TaskCooldownSec  int `yaml:"task_cooldown_sec"`  // pause between tasks
	ShortCooldownSec int `yaml:"short_cooldown_sec"` // pause between shorts
}

type PathsConfig struct {
	Assets       string `yaml:"assets"`
	OutputAudio  string `yaml:"output_audio"`
	OutputVideo  string `yaml:"output_video"`
	OutputShorts string `yaml:"output_shorts"`
	Logs         string `yaml:"logs"`
	Music        string `yaml:"music"`
}

// Secrets holds everything read from the environment. GoogleClientID /
// GoogleClientSecret / GoogleRefreshToken authorize both the Sheets task
// source and the YouTube uploader (one OAuth app, both scopes granted).
type Secrets struct {
	SpreadsheetID      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	OpenAIKey          string
	GeminiKey          string
	TTSCommand         string // optional external TTS engine; empty = edge-tts
}

// Load reads config.yaml, applies defaults, then loads secrets from the
// environment (.env is honored for local dev).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	_ = godotenv.Load()
	cfg.Secrets = Secrets{
		SpreadsheetID:      os.Getenv("SHEET_ID"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRefreshToken: os.Getenv("GOOGLE_REFRESH_TOKEN"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		GeminiKey:          os.Getenv("GEMINI_API_KEY"),
		TTSCommand:         os.Getenv("TTS_COMMAND"),
	}

	if cfg.Secrets.SpreadsheetID == "" {
		return nil, fmt.Errorf("SHEET_ID is required")
	}
	if cfg.Secrets.GoogleClientID == "" || cfg.Secrets.GoogleClientSecret == "" || cfg.Secrets.GoogleRefreshToken == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN are required")
	}
	if cfg.Secrets.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sheet.Tab == "" {
		c.Sheet.Tab = "Tasks"
	}
	if c.Sheet.FirstRow < 2 {
		c.Sheet.FirstRow = 2
	}
	if c.Topics.TimePeriod == "" {
		c.Topics.TimePeriod = "week"
	}
	if c.Topics.MaxSuggestions <= 0 {
		c.Topics.MaxSuggestions = 5
	}
	if c.Topics.UsedTopicsLog == "" {
		c.Topics.UsedTopicsLog = "logs/used_topics.json"
	}
	if c.Script.Model == "" {
		c.Script.Model = "gpt-4o-mini"
	}
	if c.Script.Temperature == 0 {
		c.Script.Temperature = 0.8
	}
	if c.Script.TargetMinutes <= 0 {
		c.Script.TargetMinutes = 8
	}
	if c.Script.ShortsCount <= 0 {
		c.Script.ShortsCount = 5
	}
	if c.Script.ShortsStrategy == "" {
		c.Script.ShortsStrategy = "llm"
	}
	if c.Script.ShortMaxWords <= 0 {
		c.Script.ShortMaxWords = 110
	}
	if c.Audio.Voice == "" {
		c.Audio.Voice = "en-US-GuyNeural"
	}
	if c.Audio.MusicVolume <= 0 {
		c.Audio.MusicVolume = 0.12
	}
	if c.Visuals.ImageModel == "" {
		c.Visuals.ImageModel = "gemini-2.5-flash-image"
	}
	if c.Subtitles.WordsPerMinute <= 0 {
		c.Subtitles.WordsPerMinute = 130
	}
	if c.Subtitles.GapMs <= 0 {
		c.Subtitles.GapMs = 50
	}
	if c.Subtitles.Font == "" {
		c.Subtitles.Font = "Arial"
	}
	if c.Subtitles.FontSize <= 0 {
		c.Subtitles.FontSize = 28
	}
	if c.Subtitles.MarginBottom <= 0 {
		c.Subtitles.MarginBottom = 60
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = 30
	}
	if c.Render.CRF <= 0 {
		c.Render.CRF = 22
	}
	if c.Render.Preset == "" {
		c.Render.Preset = "fast"
	}
	if c.Upload.Visibility == "" {
		c.Upload.Visibility = "unlisted"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "24" // Entertainment
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
	if c.Pipeline.ShortCooldownSec <= 0 {
		c.Pipeline.ShortCooldownSec = 5
	}
	if c.Paths.Assets == "" {
		c.Paths.Assets = "assets"
	}
	if c.Paths.OutputAudio == "" {
		c.Paths.OutputAudio = "outputs/audio"
	}
	if c.Paths.OutputVideo == "" {
		c.Paths.OutputVideo = "outputs/video"
	}
	if c.Paths.OutputShorts == "" {
		c.Paths.OutputShorts = "outputs/shorts"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
}
