package youtube

import (
	"context"
	"strings"

	"cinetrail/internal/errs"
	"cinetrail/models"
)

// ParseFunc maps one raw upstream title to a parsed title, or false when the
// video is not a trackable trailer.
type ParseFunc func(title string) (models.ParsedTitle, bool)

// Fetcher produces the raw video records for one channel and carries the
// title parser matching that channel's naming convention. Both channels
// share the underlying Client, and with it the request throttle.
type Fetcher struct {
	client    *Client
	channelID string
	source    models.Source
	parse     ParseFunc
}

// NewRottenTomatoesFetcher wraps the Rotten Tomatoes INDIE channel.
func NewRottenTomatoesFetcher(client *Client, channelID string) (*Fetcher, error) {
	return newFetcher(client, channelID, models.SourceRottenTomatoes, ParseRottenTomatoesTitle)
}

// NewMubiFetcher wraps the MUBI channel.
func NewMubiFetcher(client *Client, channelID string) (*Fetcher, error) {
	return newFetcher(client, channelID, models.SourceMubi, ParseMubiTitle)
}

func newFetcher(client *Client, channelID string, source models.Source, parse ParseFunc) (*Fetcher, error) {
	if client == nil {
		return nil, errs.NewConfiguration("youtube", "client is required")
	}
	if strings.TrimSpace(channelID) == "" {
		return nil, errs.NewConfiguration("youtube", string(source)+" channel id is required")
	}
	return &Fetcher{
		client:    client,
		channelID: channelID,
		source:    source,
		parse:     parse,
	}, nil
}

// Source returns the channel tag stored on movies this fetcher produces.
func (f *Fetcher) Source() models.Source {
	return f.source
}

// Fetch returns the channel's current video entries, in feed order.
func (f *Fetcher) Fetch(ctx context.Context) ([]models.RawVideo, error) {
	return f.client.FetchFeed(ctx, f.channelID)
}

// Parse applies this channel's title convention to a raw title.
func (f *Fetcher) Parse(title string) (models.ParsedTitle, bool) {
	return f.parse(title)
}
