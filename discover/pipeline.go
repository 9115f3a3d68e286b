// Package discover finds sitemap pages that look like uncataloged services
// and probes them for enough metadata to hand a reviewer.
package discover

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"servicewatch/batch"
	"servicewatch/catalog"
	"servicewatch/pattern"
	"servicewatch/probe"
	"servicewatch/report"
	"servicewatch/sitemap"
	"servicewatch/urlutil"
)

// Config holds the immutable pipeline settings.
type Config struct {
	Limit           int // max candidates probed
	Concurrency     int
	InterBatchDelay time.Duration
	UserAgent       string
}

const (
	defaultLimit           = 500
	defaultConcurrency     = 5
	defaultInterBatchDelay = time.Second
)

// Pipeline runs one full discovery pass. Each run is fresh: nothing is
// carried over from previous runs.
type Pipeline struct {
	resolver *sitemap.Resolver
	prober   *probe.Prober
	matcher  *pattern.Matcher
	robots   *RobotsChecker
	cfg      Config
	log      *zap.Logger
}

// New creates a Pipeline. A nil robots checker disables the robots.txt
// gate.
func New(resolver *sitemap.Resolver, prober *probe.Prober, matcher *pattern.Matcher, robots *RobotsChecker, cfg Config, log *zap.Logger) *Pipeline {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.InterBatchDelay <= 0 {
		cfg.InterBatchDelay = defaultInterBatchDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		resolver: resolver,
		prober:   prober,
		matcher:  matcher,
		robots:   robots,
		cfg:      cfg,
		log:      log,
	}
}

// Run resolves every sitemap root, filters the merged URL set down to
// service-shaped pages missing from the catalog, probes the survivors for
// title and description, and returns the candidates sorted by URL. URLs
// sharing a department host prefix therefore group together naturally.
func (p *Pipeline) Run(ctx context.Context, services []catalog.ServiceRecord, roots []string) (*report.DiscoveryReport, error) {
	start := time.Now()

	members := catalog.NewMembershipSet(services)

	tracker, err := NewTracker(0)
	if err != nil {
		return nil, fmt.Errorf("start discovery: %w", err)
	}
	defer func() { _ = tracker.Close() }()

	p.log.Info("discovery starting",
		zap.Int("roots", len(roots)),
		zap.Int("catalogUrls", members.Len()),
		zap.Int("limit", p.cfg.Limit))

	scanned := 0
	var candidates []string
	for _, root := range roots {
		for _, rawURL := range p.resolver.Resolve(ctx, root) {
			scanned++

			normalized, err := urlutil.Normalize(rawURL)
			if err != nil {
				continue
			}
			if tracker.SeenBefore(normalized) {
				continue
			}
			if members.Contains(rawURL) {
				continue
			}
			if !p.matcher.LooksLikeService(rawURL) {
				continue
			}
			candidates = append(candidates, rawURL)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery interrupted: %w", err)
		}
	}

	if len(candidates) > p.cfg.Limit {
		p.log.Info("candidate list truncated",
			zap.Int("candidates", len(candidates)),
			zap.Int("limit", p.cfg.Limit))
		candidates = candidates[:p.cfg.Limit]
	}

	if p.robots != nil {
		allowed := candidates[:0]
		for _, rawURL := range candidates {
			if p.robots.Allowed(ctx, rawURL, p.cfg.UserAgent) {
				allowed = append(allowed, rawURL)
			} else {
				p.log.Debug("candidate disallowed by robots.txt", zap.String("url", rawURL))
			}
		}
		candidates = allowed
	}

	worker := func(ctx context.Context, rawURL string) *report.Candidate {
		info := p.prober.Info(ctx, rawURL)
		// A missing or empty title means the page never rendered meaningful
		// content, even if it returned 200.
		if info == nil || info.Title == "" {
			return nil
		}
		return &report.Candidate{URL: rawURL, Title: info.Title, Description: info.Description}
	}

	probed, err := batch.Run(ctx, candidates, worker, p.cfg.Concurrency, p.cfg.InterBatchDelay)
	if err != nil {
		return nil, fmt.Errorf("discovery interrupted: %w", err)
	}

	found := make([]report.Candidate, 0, len(probed))
	for _, cand := range probed {
		if cand != nil {
			found = append(found, *cand)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].URL < found[j].URL })

	p.log.Info("discovery finished",
		zap.Int("scanned", scanned),
		zap.Int("probed", len(candidates)),
		zap.Int("candidates", len(found)),
		zap.Duration("elapsed", time.Since(start)))

	return &report.DiscoveryReport{
		GeneratedAt:  start.UTC(),
		ElapsedMS:    time.Since(start).Milliseconds(),
		SitemapRoots: roots,
		Scanned:      scanned,
		Candidates:   found,
	}, nil
}
