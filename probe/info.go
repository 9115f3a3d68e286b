package probe

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// PageInfo carries the metadata the discovery pipeline keeps for a
// candidate page.
type PageInfo struct {
	Title       string
	Description string
}

// Info fetches a page and extracts its title and meta description. It
// returns nil rather than an error on any failure, timeout, or non-2xx
// status: during discovery a page that cannot be described is simply not a
// candidate.
func (p *Prober) Info(ctx context.Context, rawURL string) *PageInfo {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.InfoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("info probe failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.log.Debug("info probe non-success", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, p.cfg.MaxBodyBytes))
	if err != nil {
		p.log.Debug("info probe parse failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}

	info := &PageInfo{
		Title: strings.Join(strings.Fields(doc.Find("title").First().Text()), " "),
	}

	// The DOM walk makes attribute ordering inside the tag irrelevant, so
	// both name-first and content-first meta variants resolve here.
	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name, _ := sel.Attr("name")
		if !strings.EqualFold(name, "description") {
			return true
		}
		content, _ := sel.Attr("content")
		info.Description = strings.TrimSpace(content)
		return false
	})

	return info
}
