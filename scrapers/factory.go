package scrapers

import (
	"context"
	"fmt"

	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/scrapers/amazon"
	"github.com/codemuse/shopping-comparison/scrapers/base"
	"github.com/codemuse/shopping-comparison/utils"
)

// Registry holds the configured marketplace scrapers and picks one per URL.
type Registry struct {
	scrapers []Scraper
}

// NewRegistry registers the supported scrapers.
func NewRegistry(fetcher *base.Fetcher, log logger.Logger) *Registry {
	return &Registry{
		scrapers: []Scraper{
			amazon.NewScraper(fetcher, log),
		},
	}
}

// GetScraper returns the scraper for the URL and the resolved URL. Shortened
// links (amzn.to, a.co) are followed first so the host check sees the real
// marketplace domain.
func (r *Registry) GetScraper(ctx context.Context, url string) (Scraper, string, error) {
	resolvedURL, err := utils.ResolveShortenedURL(ctx, url)
	if err != nil {
		// Resolution failure is not fatal: try the URL as given.
		resolvedURL = url
	}

	for _, s := range r.scrapers {
		if s.CanScrape(resolvedURL) {
			return s, resolvedURL, nil
		}
	}

	return nil, resolvedURL, fmt.Errorf("no scraper found for url: %s", resolvedURL)
}
