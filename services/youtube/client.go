package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"cinetrail/internal/errs"
	"cinetrail/models"
)

const feedBaseURL = "https://www.youtube.com/feeds/videos.xml"

// Client fetches channel RSS feeds. A single client is shared by all
// fetchers so the min-interval throttle spaces requests across sources.
type Client struct {
	httpc *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewClient creates a feed client. A nil httpc gets a default client with a
// 10 second timeout; requests past the timeout surface as transport errors.
func NewClient(minInterval time.Duration, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		httpc:       httpc,
		minInterval: minInterval,
	}
}

// throttle blocks until the minimum spacing since the previous request has
// elapsed. Calls arriving early sleep rather than fail.
func (c *Client) throttle() {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()
	if since := time.Since(c.lastRequest); since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
}

// atom/media RSS shapes for a YouTube channel feed
type channelFeed struct {
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	Title     string     `xml:"title"`
	Published string     `xml:"published"`
	Link      feedLink   `xml:"link"`
	Media     mediaGroup `xml:"group"`
}

type feedLink struct {
	Href string `xml:"href,attr"`
}

type mediaGroup struct {
	Thumbnail mediaThumbnail `xml:"thumbnail"`
}

type mediaThumbnail struct {
	URL string `xml:"url,attr"`
}

// FetchFeed pulls the RSS feed for one channel and returns its raw video
// entries in feed order. Network and HTTP-status failures surface as
// transport errors so the scheduler can retry the run; an empty feed is a
// valid result.
func (c *Client) FetchFeed(ctx context.Context, channelID string) ([]models.RawVideo, error) {
	c.throttle()

	endpoint := fmt.Sprintf("%s?channel_id=%s", feedBaseURL, url.QueryEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errs.Transport("youtube: fetch feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errs.Transport("youtube: fetch feed",
			fmt.Errorf("channel %s returned %s", channelID, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transport("youtube: read feed", err)
	}

	var feed channelFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("youtube: parse feed for channel %s: %w", channelID, err)
	}

	videos := make([]models.RawVideo, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		video := models.RawVideo{
			Title:        entry.Title,
			VideoID:      extractVideoID(entry.Link.Href),
			ThumbnailURL: entry.Media.Thumbnail.URL,
		}
		if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
			video.PublishedAt = t
		}
		videos = append(videos, video)
	}

	return videos, nil
}

// extractVideoID pulls the video id out of a watch URL
// (https://www.youtube.com/watch?v=dQw4w9WgXcQ -> dQw4w9WgXcQ).
func extractVideoID(watchURL string) string {
	u, err := url.Parse(watchURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}
