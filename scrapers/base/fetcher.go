package base

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/codemuse/shopping-comparison/logger"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves product pages for the persistence service's own scrape
// path. Strategies cascade: plain HTTP first, then a headless browser, then
// Selenium, each gated by a validator that decides whether the fetched
// document actually contains the page we wanted (marketplaces serve interstitial
// and robot-check pages with a 200).
type Fetcher struct {
	Client *http.Client

	limiter        *rate.Limiter
	log            logger.Logger
	browserEnabled bool
}

// NewFetcher builds a fetcher. When browserFallback is false only the HTTP
// strategy runs, which keeps tests and headless-free deployments working.
func NewFetcher(log logger.Logger, browserFallback bool) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				ForceAttemptHTTP2:     false,
				TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		// Pace outbound fetches to roughly one page every 1.5s.
		limiter:        rate.NewLimiter(rate.Every(1500*time.Millisecond), 1),
		log:            log,
		browserEnabled: browserFallback,
	}
}

// Fetch retrieves url and returns the parsed document once a strategy
// produces content the validator accepts.
func (f *Fetcher) Fetch(ctx context.Context, url string, valid func(*Document) bool) (*Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	doc, err := f.fetchHTTP(ctx, url)
	if err == nil {
		if valid(doc) {
			f.log.Debug("fetch succeeded over http", logger.String("url", url))
			return doc, nil
		}
		f.log.Debug("http fetch returned unusable content", logger.String("url", url))
	} else {
		f.log.Debug("http fetch failed", logger.String("url", url), logger.Error(err))
	}

	if !f.browserEnabled {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unusable content for %s", url)
	}

	doc, err = f.fetchChromeDP(ctx, url)
	if err == nil && valid(doc) {
		f.log.Debug("fetch succeeded over chromedp", logger.String("url", url))
		return doc, nil
	}
	if err != nil {
		f.log.Debug("chromedp fetch failed", logger.String("url", url), logger.Error(err))
	}

	doc, err = f.fetchSelenium(ctx, url)
	if err == nil && valid(doc) {
		f.log.Debug("fetch succeeded over selenium", logger.String("url", url))
		return doc, nil
	}
	if err != nil {
		f.log.Debug("selenium fetch failed", logger.String("url", url), logger.Error(err))
	}

	return nil, fmt.Errorf("all fetch strategies failed for %s", url)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// Common headers to mimic a real browser.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-User", "?1")

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: %d %s", res.StatusCode, res.Status)
	}

	return NewDocument(res.Body, url)
}
