// Package sitemap resolves sitemap documents into flat URL lists,
// recursively expanding sitemap indexes with bounded depth and fan-out.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// maxDepth guards against sitemap cycles and maliciously deep indexes.
	maxDepth = 2
	// maxChildren bounds fan-out when expanding an index document.
	maxChildren = 10
)

// Config holds the immutable resolver settings.
type Config struct {
	FetchTimeout time.Duration // per-fetch timeout
	ChildDelay   time.Duration // pacing between child fetches of an index
	UserAgent    string
}

const (
	defaultFetchTimeout = 10 * time.Second
	defaultChildDelay   = 500 * time.Millisecond
)

// Resolver fetches and flattens sitemaps. It fails closed: any fetch error,
// non-success status, timeout, or depth overrun contributes an empty result
// and a diagnostic, never an error to the caller.
type Resolver struct {
	client  *http.Client
	cfg     Config
	limiter *rate.Limiter
	log     *zap.Logger
}

// New creates a Resolver.
func New(cfg Config, log *zap.Logger) *Resolver {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.ChildDelay <= 0 {
		cfg.ChildDelay = defaultChildDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		client:  &http.Client{},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.ChildDelay), 1),
		log:     log,
	}
}

// Resolve fetches rawURL and returns every leaf page URL reachable from it.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) []string {
	return r.resolve(ctx, rawURL, 0)
}

func (r *Resolver) resolve(ctx context.Context, rawURL string, depth int) []string {
	if depth > maxDepth {
		r.log.Warn("sitemap recursion limit reached", zap.String("url", rawURL), zap.Int("depth", depth))
		return nil
	}

	indexLocs, leafLocs, err := r.fetch(ctx, rawURL)
	if err != nil {
		r.log.Warn("sitemap fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}

	// Any nested-sitemap entry makes this an index document; leaf entries in
	// an index are ignored. The decision comes from document content alone,
	// never from the URL's naming convention.
	if len(indexLocs) > 0 {
		children := indexLocs
		if len(children) > maxChildren {
			r.log.Warn("sitemap index fan-out capped",
				zap.String("url", rawURL),
				zap.Int("children", len(indexLocs)),
				zap.Int("cap", maxChildren))
			children = children[:maxChildren]
		}

		var urls []string
		for _, child := range children {
			if err := r.limiter.Wait(ctx); err != nil {
				return urls
			}
			urls = append(urls, r.resolve(ctx, child, depth+1)...)
		}
		return urls
	}

	return leafLocs
}

// fetch retrieves a sitemap document and extracts its <sitemap><loc> and
// <url><loc> entries in one streaming pass.
func (r *Resolver) fetch(ctx context.Context, rawURL string) (indexLocs, leafLocs []string, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return parseLocs(resp.Body)
}

type locEntry struct {
	Loc string `xml:"loc"`
}

func parseLocs(body io.Reader) (indexLocs, leafLocs []string, err error) {
	decoder := xml.NewDecoder(body)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("decode sitemap: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "sitemap":
			var entry locEntry
			if err := decoder.DecodeElement(&entry, &se); err == nil && entry.Loc != "" {
				indexLocs = append(indexLocs, entry.Loc)
			}
		case "url":
			var entry locEntry
			if err := decoder.DecodeElement(&entry, &se); err == nil && entry.Loc != "" {
				leafLocs = append(leafLocs, entry.Loc)
			}
		}
	}
	return indexLocs, leafLocs, nil
}
