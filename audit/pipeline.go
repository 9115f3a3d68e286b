// Package audit drives the link-health pass over the service catalog:
// every cataloged URL is probed once, classified, and rolled up into a
// summary.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"servicewatch/batch"
	"servicewatch/catalog"
	"servicewatch/probe"
	"servicewatch/report"
)

// Config holds the immutable pipeline settings.
type Config struct {
	Concurrency     int
	InterBatchDelay time.Duration
	Verbose         bool
}

const (
	defaultConcurrency     = 5
	defaultInterBatchDelay = time.Second
)

// Pipeline audits a catalog. One Result per ServiceRecord, input order
// preserved; individual probe failures are classified results, never
// pipeline errors.
type Pipeline struct {
	prober *probe.Prober
	cfg    Config
	log    *zap.Logger
}

// New creates a Pipeline.
func New(prober *probe.Prober, cfg Config, log *zap.Logger) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.InterBatchDelay <= 0 {
		cfg.InterBatchDelay = defaultInterBatchDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{prober: prober, cfg: cfg, log: log}
}

// Run probes every service and returns the full report. The only error is
// context cancellation; everything network-shaped lands in the results.
func (p *Pipeline) Run(ctx context.Context, services []catalog.ServiceRecord) (*report.AuditReport, error) {
	start := time.Now()

	p.log.Info("audit starting",
		zap.Int("services", len(services)),
		zap.Int("concurrency", p.cfg.Concurrency))

	worker := func(ctx context.Context, svc catalog.ServiceRecord) report.Result {
		res := p.prober.Health(ctx, svc)
		if p.cfg.Verbose {
			p.log.Info("probed",
				zap.Int("id", svc.ID),
				zap.String("url", svc.URL),
				zap.String("status", string(res.Status)),
				zap.Int64("elapsedMs", res.ElapsedMS))
		}
		return res
	}

	results, err := batch.Run(ctx, services, worker, p.cfg.Concurrency, p.cfg.InterBatchDelay)
	if err != nil {
		return nil, fmt.Errorf("audit interrupted: %w", err)
	}

	rep := &report.AuditReport{
		GeneratedAt: start.UTC(),
		ElapsedMS:   time.Since(start).Milliseconds(),
		Results:     results,
	}
	for _, res := range results {
		rep.Summary.Add(res.Status)
	}

	p.log.Info("audit finished",
		zap.Int("total", rep.Summary.Total),
		zap.Int("ok", rep.Summary.OK),
		zap.Int("failing", rep.Summary.Total-rep.Summary.OK),
		zap.Duration("elapsed", time.Since(start)))

	return rep, nil
}
