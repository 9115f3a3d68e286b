package probe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"servicewatch/catalog"
	"servicewatch/pattern"
	"servicewatch/report"
)

func testProber(t *testing.T, cfg Config) *Prober {
	t.Helper()
	return New(cfg, pattern.DefaultSoft404Detector(), nil)
}

func TestHealthOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><head><title>Apply for WIC</title></head><body>Start your application.</body></html>")
	}))
	defer srv.Close()

	p := testProber(t, Config{})
	svc := catalog.ServiceRecord{ID: 7, Name: "Apply for WIC", URL: srv.URL + "/apply-wic"}

	res := p.Health(context.Background(), svc)
	if res.Status != report.StatusOK {
		t.Fatalf("status = %q (reason %q), want ok", res.Status, res.Reason)
	}
	if res.Service.ID != 7 {
		t.Errorf("service id = %d, want 7", res.Service.ID)
	}
	if res.HTTPStatus != http.StatusOK {
		t.Errorf("httpStatus = %d, want 200", res.HTTPStatus)
	}
}

func TestHealthBroken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	p := testProber(t, Config{})
	res := p.Health(context.Background(), catalog.ServiceRecord{ID: 3, URL: srv.URL + "/gone"})

	if res.Status != report.StatusBroken {
		t.Fatalf("status = %q, want broken", res.Status)
	}
	if res.HTTPStatus != http.StatusNotFound {
		t.Errorf("httpStatus = %d, want 404", res.HTTPStatus)
	}
	if !strings.Contains(res.Reason, "404") {
		t.Errorf("reason = %q, want the HTTP status surfaced", res.Reason)
	}
}

func TestHealthSoft404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html><head><title>Colorado DMV</title></head><body>Sorry, we couldn't find that page.</body></html>")
	}))
	defer srv.Close()

	p := testProber(t, Config{})
	res := p.Health(context.Background(), catalog.ServiceRecord{ID: 4, URL: srv.URL + "/renew"})

	if res.Status != report.StatusSoft404 {
		t.Fatalf("status = %q (reason %q), want soft_404", res.Status, res.Reason)
	}
	if !strings.Contains(res.Reason, "couldn't find") {
		t.Errorf("reason = %q, want the matched phrase", res.Reason)
	}
}

func TestHealthNonHTMLSkipsContentCheck(t *testing.T) {
	var gets int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets++
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"Sorry, we couldn't find that page"}`)
	}))
	defer srv.Close()

	p := testProber(t, Config{})
	res := p.Health(context.Background(), catalog.ServiceRecord{ID: 5, URL: srv.URL + "/api/lookup"})

	if res.Status != report.StatusOK {
		t.Fatalf("status = %q, want ok for non-HTML content", res.Status)
	}
	if gets != 0 {
		t.Errorf("prober issued %d GETs against a non-HTML resource, want 0", gets)
	}
}

func TestHealthTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	p := testProber(t, Config{HealthTimeout: 50 * time.Millisecond})
	res := p.Health(context.Background(), catalog.ServiceRecord{ID: 6, URL: srv.URL + "/slow"})

	if res.Status != report.StatusTimeout {
		t.Fatalf("status = %q (reason %q), want timeout", res.Status, res.Reason)
	}
	if !strings.Contains(res.Reason, "timed out") {
		t.Errorf("reason = %q, want a timeout message", res.Reason)
	}
	if res.ElapsedMS < 0 {
		t.Errorf("elapsedMs = %d, want non-negative", res.ElapsedMS)
	}
}

func TestHealthConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := testProber(t, Config{})
	res := p.Health(context.Background(), catalog.ServiceRecord{ID: 8, URL: url + "/dead"})

	if res.Status != report.StatusError {
		t.Fatalf("status = %q, want error", res.Status)
	}
	if res.Reason == "" {
		t.Error("reason is empty, want the transport failure surfaced")
	}
}

func TestHealthSameHostRedirectIsFine(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html><head><title>Renew Plates</title></head><body>Welcome.</body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := testProber(t, Config{})
	res := p.Health(context.Background(), catalog.ServiceRecord{ID: 9, URL: srv.URL + "/old"})

	if res.Status != report.StatusOK {
		t.Fatalf("status = %q (reason %q), want ok", res.Status, res.Reason)
	}
	if res.FinalURL != srv.URL+"/new" {
		t.Errorf("finalUrl = %q, want %q", res.FinalURL, srv.URL+"/new")
	}
}

// roundTripFunc lets a test script responses for hosts that cannot exist in
// a local listener, such as a redirect landing on a foreign domain.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestHealthSuspiciousCrossDomainRedirect(t *testing.T) {
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch r.URL.Host {
		case "dmv.colorado.gov":
			return &http.Response{
				StatusCode: http.StatusFound,
				Header:     http.Header{"Location": []string{"https://totally-unrelated.com/landing"}},
				Body:       io.NopCloser(strings.NewReader("")),
				Request:    r,
			}, nil
		case "totally-unrelated.com":
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"text/html"}},
				Body:       io.NopCloser(strings.NewReader("")),
				Request:    r,
			}, nil
		default:
			t.Fatalf("unexpected request host %q", r.URL.Host)
			return nil, nil
		}
	})

	p := testProber(t, Config{})
	p.client = &http.Client{Transport: transport}

	svc := catalog.ServiceRecord{ID: 9, Name: "Renew Plates", URL: "https://dmv.colorado.gov/renew-plates"}
	res := p.Health(context.Background(), svc)

	if res.Status != report.StatusRedirectSuspicious {
		t.Fatalf("status = %q (reason %q), want redirect_suspicious", res.Status, res.Reason)
	}
	if res.OriginalURL != svc.URL {
		t.Errorf("originalUrl = %q, want %q", res.OriginalURL, svc.URL)
	}
	if !strings.Contains(res.FinalURL, "totally-unrelated.com") {
		t.Errorf("finalUrl = %q, want the landing host", res.FinalURL)
	}
}

func TestHealthHeadFallsBackToGetOn405(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html><head><title>Permits</title></head><body>Apply here.</body></html>")
	}))
	defer srv.Close()

	p := testProber(t, Config{})
	res := p.Health(context.Background(), catalog.ServiceRecord{ID: 10, URL: srv.URL + "/permits"})

	if res.Status != report.StatusOK {
		t.Fatalf("status = %q (reason %q), want ok after GET fallback", res.Status, res.Reason)
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"simple", "<html><head><title>Apply for WIC</title></head></html>", "Apply for WIC"},
		{"whitespace collapsed", "<title>\n  404\n  Not Found  </title>", "404 Not Found"},
		{"missing title", "<html><body>no title here</body></html>", ""},
		{"empty document", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTitle([]byte(tt.doc)); got != tt.want {
				t.Errorf("extractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
