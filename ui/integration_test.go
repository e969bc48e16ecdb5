package ui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemuse/shopping-comparison/api"
	"github.com/codemuse/shopping-comparison/bridge"
	"github.com/codemuse/shopping-comparison/client"
	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/models"
	"github.com/codemuse/shopping-comparison/scrapers"
	"github.com/codemuse/shopping-comparison/scrapers/amazon"
	"github.com/codemuse/shopping-comparison/scrapers/base"
	"github.com/codemuse/shopping-comparison/store"
)

const productPage = `<html><head><title>Amazon.com: Echo Dot</title></head><body>
	<span id="productTitle">Echo Dot (4th Gen)</span>
	<span id="priceblock_ourprice">$49.99</span>
	<div id="imgTagWrapperId"><img src="https://m.media-amazon.com/images/I/echo.jpg"></div>
	<span id="acrPopover" title="4.7 out of 5 stars"></span>
	<div id="productDescription">` + "Smart speaker with Alexa. Smart speaker with Alexa. Smart speaker with Alexa." + `</div>
</body></html>`

// pageScraper serves the canned page instead of fetching it, so the full
// popup -> bridge -> submit -> list loop runs against a real HTTP server.
type pageScraper struct {
	inner *amazon.Scraper
}

func (p *pageScraper) CanScrape(url string) bool { return p.inner.CanScrape(url) }

func (p *pageScraper) ScrapeProduct(ctx context.Context, url string) (*models.Snapshot, error) {
	doc, err := base.ParseDocument(productPage, url)
	if err != nil {
		return nil, err
	}
	snap := p.inner.CaptureSnapshot(doc, url)
	return &snap, nil
}

type pageRegistry struct {
	scraper *pageScraper
}

func (r *pageRegistry) GetScraper(ctx context.Context, url string) (scrapers.Scraper, string, error) {
	if !r.scraper.CanScrape(url) {
		return nil, url, assert.AnError
	}
	return r.scraper, url, nil
}

func TestFullLoopAddListRemoveClear(t *testing.T) {
	log := logger.NewNop()
	st := store.NewMemoryStore()
	reg := &pageRegistry{scraper: &pageScraper{inner: amazon.NewScraper(nil, log)}}
	server := httptest.NewServer(api.NewHandler(st, reg, log).Router())
	defer server.Close()

	pageURL := "https://www.amazon.com/dp/B08N5WRWNW"
	doc, err := base.ParseDocument(productPage, pageURL)
	require.NoError(t, err)

	br := bridge.New(time.Second, log)
	br.Attach(amazon.NewScraper(nil, log).PageHandler(doc, pageURL))

	c := NewController(client.New(server.URL, log), br, log)

	// The popup opens: probe, then initial load.
	require.Equal(t, client.StatusConnected, c.RefreshStatus(context.Background()))
	require.NoError(t, c.LoadProducts(context.Background()))
	assert.Empty(t, c.Products())

	// Add the current page's product.
	require.NoError(t, c.AddCurrentProduct(context.Background()))
	products := c.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Echo Dot (4th Gen)", products[0].Title)
	assert.Equal(t, "$49.99", products[0].Price)
	assert.NotEmpty(t, products[0].ID)
	assert.True(t, strings.HasPrefix(products[0].Image, "https://"))

	// Add again, then remove the first copy.
	require.NoError(t, c.AddCurrentProduct(context.Background()))
	require.Len(t, c.Products(), 2)
	require.NoError(t, c.RemoveProduct(context.Background(), products[0].ID))
	require.Len(t, c.Products(), 1)

	// Clear everything.
	require.NoError(t, c.ClearProducts(context.Background()))
	assert.NotNil(t, c.Products())
	assert.Empty(t, c.Products())
}

func TestFullLoopServerDownGatesSubmission(t *testing.T) {
	server := httptest.NewServer(nil)
	server.Close()

	br := bridge.New(time.Second, nil)
	c := NewController(client.New(server.URL, nil), br, nil)

	// Probe resolves to disconnected, not error: the service is unreachable.
	assert.Equal(t, client.StatusDisconnected, c.RefreshStatus(context.Background()))

	err := c.AddCurrentProduct(context.Background())
	assert.ErrorIs(t, err, client.ErrNotConnected)
}
