package discover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsChecker gates discovery probes on each host's robots.txt. Rules are
// cached per host for the lifetime of the run. Every failure mode (bad URL,
// fetch error, parse error, missing file) fails open to allowed: discovery
// is a single polite probe per URL, and the alternative is silently losing
// candidates to transient robots.txt hiccups.
type RobotsChecker struct {
	client *http.Client
	cache  sync.Map // host -> *robotstxt.RobotsData (nil data = allow all)
	log    *zap.Logger
}

// NewRobotsChecker creates a checker with its own short fetch timeout.
func NewRobotsChecker(timeout time.Duration, log *zap.Logger) *RobotsChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RobotsChecker{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

type robotsEntry struct {
	data *robotstxt.RobotsData
}

// Allowed reports whether userAgent may fetch rawURL.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL, userAgent string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}

	if cached, ok := r.cache.Load(parsed.Host); ok {
		entry := cached.(*robotsEntry)
		if entry.data == nil {
			return true
		}
		return entry.data.TestAgent(parsed.Path, userAgent)
	}

	data := r.fetch(ctx, parsed.Scheme, parsed.Host)
	r.cache.Store(parsed.Host, &robotsEntry{data: data})

	if data == nil {
		return true
	}
	return data.TestAgent(parsed.Path, userAgent)
}

// fetch retrieves and parses one host's robots.txt. nil means allow-all.
func (r *RobotsChecker) fetch(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug("robots.txt fetch failed", zap.String("host", host), zap.Error(err))
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		r.log.Debug("robots.txt read failed", zap.String("host", host), zap.Error(err))
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		r.log.Debug("robots.txt parse failed", zap.String("host", host), zap.Error(err))
		return nil
	}
	return data
}
