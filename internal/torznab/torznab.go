// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package torznab implements a client for direct Torznab endpoints as exposed
// by Jackett, Prowlarr, and native tracker APIs.
package torznab

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/autobrr/seedcross/internal/buildinfo"
)

const maxTorrentDownloadBytes int64 = 16 << 20 // 16 MiB safety limit for torrent blobs

const (
	retryAttempts = 3
	retryDelay    = 2 * time.Second
)

// Client talks to a single Torznab endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeoutSeconds int) *Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// Result represents a single search result
type Result struct {
	Title       string
	GUID        string
	Link        string
	Size        int64
	Seeders     int
	InfoHash    string
	PublishDate time.Time
}

type rss struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title     string `xml:"title"`
	GUID      string `xml:"guid"`
	Link      string `xml:"link"`
	Size      string `xml:"size"`
	PubDate   string `xml:"pubDate"`
	Enclosure struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
	Attrs []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	} `xml:"attr"`
}

// Search runs a free-text query against the endpoint. Transient failures are
// retried a few times before the last error is returned.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint, err := c.buildSearchURL(query)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = retry.Do(
		func() error {
			var fetchErr error
			body, fetchErr = c.fetch(ctx, endpoint)
			return fetchErr
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("torznab search failed: %w", err)
	}

	var feed rss
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse torznab response: %w", err)
	}

	return convertItems(feed.Channel.Items), nil
}

func (c *Client) buildSearchURL(query string) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse torznab endpoint: %w", err)
	}

	values := parsed.Query()
	values.Set("t", "search")
	values.Set("q", query)
	if c.apiKey != "" {
		values.Set("apikey", c.apiKey)
	}
	parsed.RawQuery = values.Encode()

	return parsed.String(), nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Download retrieves the raw torrent bytes for the provided download URL.
func (c *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	if strings.TrimSpace(downloadURL) == "" {
		return nil, fmt.Errorf("download URL is required")
	}

	// Normalise relative URLs
	if !strings.HasPrefix(downloadURL, "http://") && !strings.HasPrefix(downloadURL, "https://") {
		downloadURL = c.baseURL + "/" + strings.TrimLeft(downloadURL, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Accept", "application/x-bittorrent, application/octet-stream")
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	if c.apiKey != "" && !strings.Contains(downloadURL, "apikey=") {
		values := req.URL.Query()
		values.Set("apikey", c.apiKey)
		req.URL.RawQuery = values.Encode()
	}

	var data []byte
	err = retry.Do(
		func() error {
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("torrent download failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
				return fmt.Errorf("torrent download returned status %d", resp.StatusCode)
			}

			limitedReader := io.LimitReader(resp.Body, maxTorrentDownloadBytes+1)
			data, err = io.ReadAll(limitedReader)
			if err != nil {
				return fmt.Errorf("read torrent body: %w", err)
			}
			if int64(len(data)) > maxTorrentDownloadBytes {
				return retry.Unrecoverable(fmt.Errorf("torrent download exceeded %d bytes limit", maxTorrentDownloadBytes))
			}
			return nil
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	return data, nil
}

func convertItems(items []rssItem) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		result := Result{
			Title: item.Title,
			GUID:  item.GUID,
			Link:  item.Enclosure.URL,
		}
		if result.Link == "" {
			result.Link = item.Link
		}

		if size, err := strconv.ParseInt(item.Size, 10, 64); err == nil {
			result.Size = size
		}

		if item.PubDate != "" {
			if t, err := time.Parse(time.RFC1123Z, item.PubDate); err == nil {
				result.PublishDate = t
			} else if t, err := time.Parse(time.RFC1123, item.PubDate); err == nil {
				result.PublishDate = t
			}
		}

		for _, attr := range item.Attrs {
			switch strings.ToLower(attr.Name) {
			case "seeders":
				if v, err := strconv.Atoi(attr.Value); err == nil {
					result.Seeders = v
				}
			case "infohash":
				result.InfoHash = strings.ToLower(attr.Value)
			case "size":
				if result.Size == 0 {
					if v, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
						result.Size = v
					}
				}
			}
		}

		results = append(results, result)
	}

	return results
}
