package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"faceless-video-pipeline/config"
	"faceless-video-pipeline/types"

	"github.com/rs/zerolog"
	"github.com/vartanbeno/go-reddit/v2/reddit"
)

// hookKeywords boost a candidate's score when present in title or body.
var hookKeywords = []string{
	"mystery", "unsolved", "disappeared", "forgotten", "secret",
	"revealed", "survival", "betrayal", "legend", "lost",
	"discovered", "abandoned", "conspiracy", "untold", "shocking",
}

// Suggester finds topic candidates on Reddit and turns them into sheet rows.
// It never claims or processes tasks; it only appends pending rows.
type Suggester struct {
	cfg        *config.Config
	client     *reddit.Client
	usedTopics map[string]bool
	log        zerolog.Logger
}

type candidate struct {
	id      string
	title   string
	theme   string
	score   int
	created time.Time
}

func New(cfg *config.Config, log zerolog.Logger) (*Suggester, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &Suggester{
		cfg:        cfg,
		client:     client,
		usedTopics: loadUsedTopics(cfg.Topics.UsedTopicsLog),
		log:        log,
	}, nil
}

// Suggest fetches top posts from the configured subreddits, scores them, and
// returns up to max fresh topic requests, best first. Already-used posts are
// skipped via the dedup log.
func (s *Suggester) Suggest(ctx context.Context, max int) ([]types.TaskRequest, error) {
	if max <= 0 {
		max = s.cfg.Topics.MaxSuggestions
	}

	var candidates []candidate
	for _, sub := range s.cfg.Topics.Subreddits {
		posts, _, err := s.client.Subreddit.TopPosts(ctx, sub, &reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: 25},
			Time:        s.cfg.Topics.TimePeriod,
		})
		if err != nil {
			s.log.Warn().Str("subreddit", sub).Err(err).Msg("subreddit fetch failed")
			continue
		}
		for _, p := range posts {
			if p.Score < s.cfg.Topics.MinScore || p.NumberOfComments < s.cfg.Topics.MinComments {
				continue
			}
			c := scorePost(p)
			candidates = append(candidates, c)
		}
		s.log.Info().Str("subreddit", sub).Int("posts", len(posts)).Msg("fetched")
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no topic candidates found")
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var out []types.TaskRequest
	for _, c := range candidates {
		if s.usedTopics[c.id] {
			continue
		}
		out = append(out, types.TaskRequest{
			Title:     c.title,
			CoreTheme: c.theme,
		})
		s.usedTopics[c.id] = true
		if len(out) >= max {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("all candidate topics have been used already")
	}

	s.saveUsedTopics()
	return out, nil
}

// scorePost is pure so tests can exercise ranking without the network.
func scorePost(p *reddit.Post) candidate {
	c := candidate{
		id:    "reddit_" + p.ID,
		title: p.Title,
		score: p.Score,
	}
	if p.Created != nil {
		c.created = p.Created.Time
	}

	text := strings.ToLower(p.Title + " " + p.Body)
	var matched []string
	for _, kw := range hookKeywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
			c.score += 50
		}
	}
	c.theme = strings.Join(matched, ", ")

	if !c.created.IsZero() && time.Since(c.created) < 72*time.Hour {
		c.score += 200
	}
	if len(p.Body) > 500 {
		c.score += 75
	}
	return c
}

func loadUsedTopics(path string) map[string]bool {
	used := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return used
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return used
	}
	for _, id := range ids {
		used[id] = true
	}
	return used
}

func (s *Suggester) saveUsedTopics() {
	ids := make([]string, 0, len(s.usedTopics))
	for id := range s.usedTopics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	data, _ := json.MarshalIndent(ids, "", "  ")
	if err := os.WriteFile(s.cfg.Topics.UsedTopicsLog, data, 0644); err != nil {
		s.log.Warn().Err(err).Msg("could not persist used-topics log")
	}
}
