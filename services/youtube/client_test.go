package youtube

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"cinetrail/internal/errs"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripFunc) *Client {
	return NewClient(0, &http.Client{Transport: fn})
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Dune Official Trailer #1 (2021)</title>
    <published>2021-07-22T13:00:00+00:00</published>
    <link rel="alternate" href="https://www.youtube.com/watch?v=8g18jFHCLXk"/>
    <media:group>
      <media:thumbnail url="https://i.ytimg.com/vi/8g18jFHCLXk/hqdefault.jpg"/>
    </media:group>
  </entry>
  <entry>
    <title>Avatar Official Teaser (2025)</title>
    <published>2025-01-05T09:30:00+00:00</published>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123xyz00"/>
    <media:group>
      <media:thumbnail url="https://i.ytimg.com/vi/abc123xyz00/hqdefault.jpg"/>
    </media:group>
  </entry>
</feed>`

func TestFetchFeedParsesEntries(t *testing.T) {
	var gotURL string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(sampleFeed)),
		}, nil
	})

	videos, err := client.FetchFeed(context.Background(), "UCLyYEq4ODlw3OD9qhGqwimw")
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}

	if !strings.Contains(gotURL, "channel_id=UCLyYEq4ODlw3OD9qhGqwimw") {
		t.Errorf("request URL missing channel id: %s", gotURL)
	}

	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}

	first := videos[0]
	if first.Title != "Dune Official Trailer #1 (2021)" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.VideoID != "8g18jFHCLXk" {
		t.Errorf("unexpected video id: %q", first.VideoID)
	}
	if first.ThumbnailURL != "https://i.ytimg.com/vi/8g18jFHCLXk/hqdefault.jpg" {
		t.Errorf("unexpected thumbnail: %q", first.ThumbnailURL)
	}
	want := time.Date(2021, 7, 22, 13, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Errorf("published at = %v, want %v", first.PublishedAt, want)
	}
}

func TestFetchFeedEmptyFeed(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body: io.NopCloser(strings.NewReader(
				`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`)),
		}, nil
	})

	videos, err := client.FetchFeed(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("expected no videos, got %d", len(videos))
	}
}

func TestFetchFeedNetworkError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := client.FetchFeed(context.Background(), "UC123")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errs.IsTransport(err) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestFetchFeedHTTPError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(strings.NewReader("not found")),
		}, nil
	})

	_, err := client.FetchFeed(context.Background(), "UC123")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errs.IsTransport(err) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestFetchFeedMalformedXML(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("<feed><entry>")),
		}, nil
	})

	_, err := client.FetchFeed(context.Background(), "UC123")
	if err == nil {
		t.Fatal("expected error")
	}
	if errs.IsTransport(err) {
		t.Errorf("parse failures should not be transport errors, got %v", err)
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=abc&feature=share", "abc"},
		{"https://www.youtube.com/channel/UC123", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractVideoID(tt.url); got != tt.want {
			t.Errorf("extractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNewFetcherValidation(t *testing.T) {
	client := NewClient(0, nil)

	if _, err := NewRottenTomatoesFetcher(nil, "UC123"); !errs.IsConfiguration(err) {
		t.Errorf("nil client: expected configuration error, got %v", err)
	}
	if _, err := NewRottenTomatoesFetcher(client, ""); !errs.IsConfiguration(err) {
		t.Errorf("empty channel: expected configuration error, got %v", err)
	}

	f, err := NewMubiFetcher(client, "UUEuIk8O5Cyzl8J_ylPFzA")
	if err != nil {
		t.Fatalf("NewMubiFetcher failed: %v", err)
	}
	if f.Source() != "mubi" {
		t.Errorf("source = %q, want mubi", f.Source())
	}
}
