package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-hyrox/config"
)

const ctxResponse = "response"

// Endpoint kinds used for request metrics.
const (
	KindDiscovery = "discovery"
	KindResults   = "results"
)

// Page is one raw HTTP response body.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher issues paced, strictly sequential GET requests through a colly collector.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *Metrics
	sleep     func(ctx context.Context, d time.Duration) error

	requestCount int64
	errorCount   int64

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int
}

// NewFetcher builds a synchronous collector: one request in flight, fixed timeout,
// and a fixed pause before every request.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	// Every status reaches OnResponse; Get alone decides what counts as a failure.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxResponse, r)
	})
	collector.OnError(func(r *colly.Response, _ error) {
		if r != nil && r.Ctx != nil {
			r.Ctx.Put(ctxResponse, r)
		}
	})

	return &Fetcher{
		cfg:          cfg,
		collector:    collector,
		metrics:      metrics,
		sleep:        sleepContext,
		errorsByType: make(map[string]int),
	}, nil
}

// WithTransport swaps the HTTP transport, mostly for tests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Get waits the configured delay and then fetches rawURL with params.
// Non-2xx responses and transport failures come back as typed errors.
func (f *Fetcher) Get(ctx context.Context, kind, rawURL string, params url.Values) (*Page, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		target.RawQuery = params.Encode()
	}
	u := target.String()

	if err := f.sleep(ctx, f.cfg.Delay); err != nil {
		return nil, err
	}

	hdr := http.Header{}
	hdr.Set("User-Agent", f.cfg.UserAgent)
	if f.cfg.AcceptLanguage != "" {
		hdr.Set("Accept-Language", f.cfg.AcceptLanguage)
	}

	atomic.AddInt64(&f.requestCount, 1)
	f.metrics.IncRequest(kind)

	cctx := colly.NewContext()
	start := time.Now()
	visitErr := f.collector.Request(http.MethodGet, u, nil, cctx, hdr)
	f.metrics.ObserveDuration(time.Since(start))

	resp, _ := cctx.GetAny(ctxResponse).(*colly.Response)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	if visitErr != nil || status < 200 || status > 299 {
		if visitErr == nil && status == 0 {
			visitErr = errors.New("no response received")
		}
		return nil, f.recordError(u, classifyError(visitErr, status))
	}

	slog.Debug("fetched",
		slog.String("kind", kind),
		slog.String("url", u),
		slog.Int("status", status),
		slog.Int("bytes", len(resp.Body)),
	)
	return &Page{URL: u, StatusCode: status, Body: resp.Body}, nil
}

// ResultsPage fetches one 1-based page of the ranking list for an event and gender.
func (f *Fetcher) ResultsPage(ctx context.Context, baseURL, eventGroup, eventCode, gender string, page int) (*Page, error) {
	params := url.Values{}
	params.Set("event", eventCode)
	params.Set("event_main_group", eventGroup)
	params.Set("pid", "list")
	params.Set("pidp", "ranking_nav")
	params.Set("ranking", f.cfg.Ranking)
	params.Set("search[sex]", gender)
	params.Set("page", strconv.Itoa(page))
	return f.Get(ctx, KindResults, baseURL, params)
}

// RequestCount returns the number of requests issued.
func (f *Fetcher) RequestCount() int {
	return int(atomic.LoadInt64(&f.requestCount))
}

// ErrorCount returns the number of failed requests.
func (f *Fetcher) ErrorCount() int {
	return int(atomic.LoadInt64(&f.errorCount))
}

func (f *Fetcher) recordError(u string, err error) error {
	atomic.AddInt64(&f.errorCount, 1)
	category := errorTypeLabel(err)

	f.mu.Lock()
	f.errorsByType[category]++
	f.failedURLs = append(f.failedURLs, u)
	f.mu.Unlock()

	f.metrics.IncError(category)
	return fmt.Errorf("GET %s: %w", u, err)
}

func (f *Fetcher) snapshotFailedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.failedURLs))
	copy(out, f.failedURLs)
	return out
}

func (f *Fetcher) snapshotErrors() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.errorsByType))
	for k, v := range f.errorsByType {
		out[k] = v
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
