package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Uploader publishes rendered videos via the YouTube Data API v3.
type Uploader struct {
	cfg *config.Config
	log zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) *Uploader {
	return &Uploader{cfg: cfg, log: log}
}

// Upload pushes one video file with its metadata. The video ID is recorded in
// a JSON log under the logs directory so a failed sheet write doesn't lose it.
func (u *Uploader) Upload(ctx context.Context, videoFile string, meta types.VideoMetadata) error {
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(u.oauthClient(ctx)))
	if err != nil {
		return fmt.Errorf("youtube service: %w", err)
	}

	if meta.Visibility == "" {
		meta.Visibility = types.DefaultVisibility
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      u.cfg.Upload.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.Upload.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.Visibility,
			SelfDeclaredMadeForKids: u.cfg.Upload.MadeForKids,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		u.log.Info().Str("title", meta.Title).
			Float64("mb", float64(fi.Size())/1024/1024).Msg("uploading video")
	}

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
		NotifySubscribers(u.cfg.Upload.NotifySubscribers).Media(f).Do()
	if err != nil {
		return fmt.Errorf("youtube upload: %w", err)
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	u.log.Info().Str("video_id", uploaded.Id).Str("url", url).Msg("upload complete")

	if err := u.logUpload(uploaded.Id, url, videoFile, meta); err != nil {
		u.log.Warn().Err(err).Msg("could not write upload log")
	}
	return nil
}

// oauthClient builds an HTTP client from the stored refresh token. Expiry is
// in the past so the first call forces a refresh.
func (u *Uploader) oauthClient(ctx context.Context) *http.Client {
	conf := &oauth2.Config{
		ClientID:     u.cfg.Secrets.GoogleClientID,
		ClientSecret: u.cfg.Secrets.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	tok := &oauth2.Token{
		RefreshToken: u.cfg.Secrets.GoogleRefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	return conf.Client(ctx, tok)
}

func (u *Uploader) logUpload(videoID, url, videoFile string, meta types.VideoMetadata) error {
	entry := map[string]interface{}{
		"video_id":    videoID,
		"video_url":   url,
		"title":       meta.Title,
		"visibility":  meta.Visibility,
		"video_file":  videoFile,
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
	}
	path := fmt.Sprintf("%s/upload_%s.json", u.cfg.Paths.Logs, time.Now().Format("20060102_150405"))
	data, _ := json.MarshalIndent(entry, "", "  ")
	return os.WriteFile(path, data, 0644)
}
