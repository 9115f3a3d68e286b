// Package probe performs single-URL existence and health probes for the
// audit and discovery pipelines. All network failures are converted into
// classified results here, at the narrowest possible scope; nothing escapes
// to crash a batch.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"servicewatch/catalog"
	"servicewatch/pattern"
	"servicewatch/report"
	"servicewatch/urlutil"
)

// Config holds the immutable probe settings. A zero value gets defaults from
// New.
type Config struct {
	HealthTimeout time.Duration // HEAD and soft-404 GET, each
	InfoTimeout   time.Duration // discovery info GET, deliberately shorter
	UserAgent     string
	MaxBodyBytes  int64 // cap on any body read
}

const (
	defaultHealthTimeout = 10 * time.Second
	defaultInfoTimeout   = 5 * time.Second
	defaultMaxBodyBytes  = 256 * 1024
	defaultUserAgent     = "servicewatch/1.0 (link audit; +https://github.com/servicewatch)"
)

// Prober issues HEAD/GET probes with bounded timeouts.
type Prober struct {
	client  *http.Client
	cfg     Config
	soft404 *pattern.Soft404Detector
	log     *zap.Logger
}

// New creates a Prober. A nil detector disables soft-404 checks; a nil
// logger discards diagnostics.
func New(cfg Config, soft404 *pattern.Soft404Detector, log *zap.Logger) *Prober {
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = defaultHealthTimeout
	}
	if cfg.InfoTimeout <= 0 {
		cfg.InfoTimeout = defaultInfoTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Prober{
		client:  &http.Client{},
		cfg:     cfg,
		soft404: soft404,
		log:     log,
	}
}

// Health probes one cataloged service and classifies the outcome:
// HEAD with redirect-follow, then a redirect trust check, then a conditional
// GET for soft-404 content inspection. Every path records elapsed wall time.
func (p *Prober) Health(ctx context.Context, svc catalog.ServiceRecord) (res report.Result) {
	start := time.Now()
	res = report.Result{Service: svc}
	defer func() {
		res.ElapsedMS = time.Since(start).Milliseconds()
	}()

	resp, err := p.fetch(ctx, http.MethodHead, svc.URL, p.cfg.HealthTimeout)
	if err != nil {
		res.Status, res.Reason = classifyFetchError(err, p.cfg.HealthTimeout)
		return res
	}
	_ = resp.Body.Close()

	// Some hosts reject HEAD outright; retry the probe as GET before
	// classifying.
	if resp.StatusCode == http.StatusMethodNotAllowed {
		resp, err = p.fetch(ctx, http.MethodGet, svc.URL, p.cfg.HealthTimeout)
		if err != nil {
			res.Status, res.Reason = classifyFetchError(err, p.cfg.HealthTimeout)
			return res
		}
		_ = resp.Body.Close()
	}

	finalURL := resp.Request.URL.String()
	if finalURL != svc.URL {
		res.FinalURL = finalURL
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Status = report.StatusBroken
		res.HTTPStatus = resp.StatusCode
		res.Reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return res
	}
	res.HTTPStatus = resp.StatusCode

	if urlutil.IsSuspiciousRedirect(svc.URL, finalURL) {
		res.Status = report.StatusRedirectSuspicious
		res.OriginalURL = svc.URL
		res.FinalURL = finalURL
		res.Reason = fmt.Sprintf("redirected off the original domain to %s", finalURL)
		return res
	}

	if p.soft404 != nil && isHTMLContentType(resp.Header.Get("Content-Type")) {
		body, title, err := p.fetchDocument(ctx, finalURL)
		if err != nil {
			res.Status, res.Reason = classifyFetchError(err, p.cfg.HealthTimeout)
			return res
		}
		if det := p.soft404.Detect(body, title); det.Matched {
			res.Status = report.StatusSoft404
			res.Reason = det.Reason
			return res
		}
	}

	res.Status = report.StatusOK
	return res
}

// fetch issues a single request with its own timeout, following redirects.
// The request context is cancelled on return, so callers must not read the
// body; it exists for status-line probes only.
func (p *Prober) fetch(ctx context.Context, method, rawURL string, timeout time.Duration) (*http.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	return p.client.Do(req)
}

// fetchDocument GETs a page and returns its (bounded) body and title.
func (p *Prober) fetchDocument(ctx context.Context, rawURL string) ([]byte, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodyBytes))
	if err != nil {
		return nil, "", err
	}
	return body, extractTitle(body), nil
}

// classifyFetchError maps a transport failure onto the result taxonomy:
// timeout-shaped errors become StatusTimeout, everything else StatusError.
func classifyFetchError(err error, timeout time.Duration) (report.Status, string) {
	if isTimeoutError(err) {
		return report.StatusTimeout, fmt.Sprintf("timed out after %s", timeout)
	}
	return report.StatusError, errReason(err)
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errReason strips the url.Error envelope so reports carry the interesting
// part without the full request context.
func errReason(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx != -1 && idx+2 < len(msg) {
		return msg[idx+2:]
	}
	return msg
}

func isHTMLContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
