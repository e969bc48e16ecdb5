package scrapers

import (
	"context"

	"github.com/codemuse/shopping-comparison/models"
)

// Scraper is the contract every marketplace scraper implements.
type Scraper interface {
	// CanScrape reports whether the scraper handles the given URL.
	CanScrape(url string) bool
	// ScrapeProduct fetches the page and captures a product snapshot.
	ScrapeProduct(ctx context.Context, url string) (*models.Snapshot, error)
}
