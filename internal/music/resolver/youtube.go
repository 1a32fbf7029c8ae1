package resolver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/raitonoberu/ytsearch"

	"github.com/keshon/maestro/internal/music/queue"
)

// YouTubeResolver resolves watch links directly and falls back to a title
// search for everything else. The first search hit wins.
type YouTubeResolver struct {
	client *youtube.Client
}

func NewYouTube() *YouTubeResolver {
	return &YouTubeResolver{
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
		},
	}
}

func (r *YouTubeResolver) Resolve(ctx context.Context, query, requestedBy string) (queue.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return queue.Track{}, ErrEmptyQuery
	}

	if isVideoURL(query) {
		return r.fromURL(ctx, cleanVideoURL(query), requestedBy)
	}
	return r.fromSearch(query, requestedBy)
}

// fromURL fetches metadata for a direct watch link.
func (r *YouTubeResolver) fromURL(ctx context.Context, link, requestedBy string) (queue.Track, error) {
	video, err := r.client.GetVideoContext(ctx, link)
	if err != nil {
		return queue.Track{}, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	var thumbnail string
	if len(video.Thumbnails) > 0 {
		thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}

	return queue.Track{
		Title:       video.Title,
		URL:         link,
		Duration:    video.Duration,
		Thumbnail:   thumbnail,
		RequestedBy: requestedBy,
	}, nil
}

// fromSearch resolves a free-text query to the first search hit.
func (r *YouTubeResolver) fromSearch(query, requestedBy string) (queue.Track, error) {
	search := ytsearch.VideoSearch(query)
	results, err := search.Next()
	if err != nil {
		return queue.Track{}, fmt.Errorf("search failed: %w", err)
	}
	if len(results.Videos) == 0 {
		return queue.Track{}, ErrNoResults
	}

	v := results.Videos[0]
	log.Printf("[Resolver] Search %q resolved to %q (%s)", query, v.Title, v.ID)

	var thumbnail string
	if len(v.Thumbnails) > 0 {
		thumbnail = v.Thumbnails[len(v.Thumbnails)-1].URL
	}

	return queue.Track{
		Title:       v.Title,
		URL:         "https://www.youtube.com/watch?v=" + v.ID,
		Duration:    time.Duration(v.Duration) * time.Second,
		Thumbnail:   thumbnail,
		RequestedBy: requestedBy,
	}, nil
}

func isVideoURL(s string) bool {
	return strings.Contains(s, "youtube.com/watch?v=") ||
		strings.Contains(s, "music.youtube.com/watch?v=") ||
		strings.Contains(s, "youtu.be/")
}

// cleanVideoURL strips playlist and timestamp noise, keeping only the
// video id.
func cleanVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch host := u.Hostname(); host {
	case "youtu.be":
		vid := strings.Trim(u.Path, "/")
		if vid == "" {
			return raw
		}
		return fmt.Sprintf("https://youtu.be/%s", vid)

	case "www.youtube.com", "youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			if vid := u.Query().Get("v"); vid != "" {
				return fmt.Sprintf("https://%s/watch?v=%s", host, vid)
			}
		}
		return raw

	default:
		return raw
	}
}
