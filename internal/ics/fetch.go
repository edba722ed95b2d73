package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "clinicdash/internal/log"
)

const defaultCacheDir = "./var/ics-cache"

// Feed is one ICS subscription whose events become reserved blocks.
type Feed struct {
	ID   string
	Name string
	URL  string
}

// FetchResult is the payload for one feed, fresh or cached.
type FetchResult struct {
	Feed      Feed
	Body      []byte
	FromCache bool
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads feeds with conditional requests and keeps the last good
// body on disk so a flaky upstream does not blank the calendar.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher returns a Fetcher caching under cacheDir. A nil client gets a
// 15s timeout default.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// Fetch returns the body for feed. 304 responses, transport errors and
// non-OK statuses fall back to the cached body when one exists.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (FetchResult, error) {
	if feed.URL == "" {
		return FetchResult{}, fmt.Errorf("ics: feed %q has no url", feed.ID)
	}

	dir := f.cacheDirFor(feed.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return FetchResult{}, err
	}
	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	fallback := func(reason error) (FetchResult, error) {
		if len(cached) == 0 {
			return FetchResult{}, reason
		}
		appLog.Warn("ics fetch failed, serving cached body", "feed", feed.ID, "url", redactURL(feed.URL), "reason", reason.Error())
		return FetchResult{Feed: feed, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		next := cacheMeta{
			URL:          feed.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(dir, next, body); err != nil {
			appLog.Error("ics cache save failed", err, "feed", feed.ID)
		}
		appLog.Info("ics fetch success", "feed", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
		return FetchResult{Feed: feed, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return FetchResult{}, errors.New("ics: 304 Not Modified without a cached body")
		}
		appLog.Debug("ics not modified", "feed", feed.ID)
		return FetchResult{Feed: feed, Body: cached, FromCache: true}, nil

	default:
		return fallback(fmt.Errorf("ics: unexpected status %s", resp.Status))
	}
}

func (f *Fetcher) cacheDirFor(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

// saveCache writes the body before the metadata so meta never points at a
// missing body.
func saveCache(dir string, meta cacheMeta, body []byte) error {
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only; feed URLs often embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/(redacted)"
}
