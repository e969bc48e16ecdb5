package amazon

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/models"
	"github.com/codemuse/shopping-comparison/scrapers/base"
)

// supportedHosts is the marketplace set this scraper handles. Matching is
// substring-based so www. and smile. subdomains qualify.
var supportedHosts = []string{
	"amazon.com",
	"amazon.ca",
	"amazon.co.uk",
	"amazon.de",
	"amazon.fr",
}

// titlePrefixes are the page-title decorations each locale prepends. Stripped
// when the title cascade falls back to the document title.
var titlePrefixes = []string{
	"Amazon.com: ",
	"Amazon.ca: ",
	"Amazon.co.uk: ",
	"Amazon.de: ",
	"Amazon.fr: ",
}

const unsupportedDescription = "This extension currently only works on Amazon product pages."

// currencyAmount matches symbol-amount or amount-symbol with . or , as the
// decimal separator, e.g. "$12.34" or "12,34 €".
var currencyAmount = regexp.MustCompile(`[$€£]\s*\d+[.,]\d+|\d+[.,]\d+\s*[$€£]`)

// Scraper extracts product snapshots from Amazon pages.
type Scraper struct {
	fetcher *base.Fetcher
	log     logger.Logger
}

// NewScraper builds an Amazon scraper backed by the given fetcher. The
// fetcher may be nil when only CaptureSnapshot is used (the page-embedded
// path already holds a loaded document).
func NewScraper(fetcher *base.Fetcher, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scraper{fetcher: fetcher, log: log}
}

// CanScrape reports whether the scraper handles the given URL.
func (s *Scraper) CanScrape(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return HostSupported(u.Hostname())
}

// HostSupported reports whether host belongs to the supported marketplace set.
func HostSupported(host string) bool {
	for _, h := range supportedHosts {
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// ScrapeProduct fetches the page and captures a snapshot. Server-side path:
// the popup path captures from an already-loaded document instead.
func (s *Scraper) ScrapeProduct(ctx context.Context, rawURL string) (*models.Snapshot, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("scraper has no fetcher configured")
	}
	doc, err := s.fetcher.Fetch(ctx, rawURL, usableProductPage)
	if err != nil {
		return nil, err
	}
	snap := s.CaptureSnapshot(doc, rawURL)
	return &snap, nil
}

// usableProductPage rejects robot checks and near-empty interstitials so the
// fetcher moves on to its next strategy.
func usableProductPage(doc *base.Document) bool {
	title := strings.ToLower(doc.Title())
	if strings.Contains(title, "robot check") ||
		strings.Contains(title, "captcha") ||
		strings.Contains(title, "access denied") {
		return false
	}
	if body := doc.First("body"); body == nil || len(body.Text()) < 200 {
		return false
	}
	return true
}

// CaptureSnapshot assembles a complete snapshot from the loaded document.
// Unsupported hosts fail fast with placeholder fields; on supported pages
// each field extractor runs independently and a failure in one degrades that
// field to its fallback without aborting the snapshot.
func (s *Scraper) CaptureSnapshot(doc *base.Document, pageURL string) models.Snapshot {
	snap := models.Snapshot{
		URL:        pageURL,
		CapturedAt: time.Now().UTC(),
	}
	if u, err := url.Parse(pageURL); err == nil {
		snap.Domain = u.Hostname()
	}

	if !HostSupported(snap.Domain) {
		snap.Title = "Not an Amazon page"
		snap.Description = unsupportedDescription
		snap.UnsupportedReason = "not an Amazon marketplace host"
		return snap
	}

	snap.Supported = true
	snap.Title = s.safeExtract(doc, "title", extractTitle)
	snap.Price = s.safeExtract(doc, "price", extractPrice)
	snap.Image = s.safeExtract(doc, "image", extractImage)
	snap.Ratings = s.safeExtract(doc, "ratings", extractRatings)
	snap.Description = s.safeExtract(doc, "description", extractDescription)
	return snap
}

// safeExtract confines extractor panics to the field: partial data beats no
// data, so a blown-up cascade yields the field's zero value only.
func (s *Scraper) safeExtract(doc *base.Document, field string, fn func(*base.Document) string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("field extractor failed",
				logger.String("field", field),
				logger.String("panic", fmt.Sprint(r)))
			out = fallbackFor(field)
		}
	}()
	return fn(doc)
}

func fallbackFor(field string) string {
	switch field {
	case "price":
		return models.PriceNotFound
	case "title":
		return "Title not found"
	default:
		return ""
	}
}

func extractTitle(doc *base.Document) string {
	title := base.Extract(doc, []base.Strategy{
		{Selector: "#title"},
		{Selector: "#productTitle"},
		{Selector: `h1[data-automation-id="product-title"]`},
		{Selector: ".product-title"},
		{Selector: "h1.a-size-large"},
		{Selector: "h1.a-size-medium"},
	})
	if title != "" {
		return title
	}

	// Fall back to the page title with the locale prefix stripped.
	title = doc.Title()
	for _, prefix := range titlePrefixes {
		title = strings.TrimPrefix(title, prefix)
	}
	if title == "" {
		return "Title not found"
	}
	return title
}

func hasCurrencySymbol(v string) bool {
	return strings.ContainsAny(v, "$€£")
}

func extractPrice(doc *base.Document) string {
	price := base.Extract(doc, []base.Strategy{
		{Selector: "#priceblock_ourprice", Accept: hasCurrencySymbol},
		{Selector: "#priceblock_dealprice", Accept: hasCurrencySymbol},
		{Selector: ".a-price-whole", Accept: hasCurrencySymbol},
		{Selector: ".a-price .a-offscreen", Accept: hasCurrencySymbol},
		{Selector: ".a-price-range", Accept: hasCurrencySymbol},
		{Selector: ".a-price .a-text-price", Accept: hasCurrencySymbol},
		{Selector: `[data-automation-id="product-price"]`, Accept: hasCurrencySymbol},
	})
	if price != "" {
		return price
	}

	// Structural selectors exhausted: scan anything whose class or id
	// mentions "price" and take the first currency-amount match in
	// document order. The match, not the surrounding text, is the price.
	doc.Each(`[class*="price"], [id*="price"]`, func(n *base.Node) bool {
		if m := currencyAmount.FindString(n.Text()); m != "" {
			price = m
			return false
		}
		return true
	})
	if price != "" {
		return price
	}

	return models.PriceNotFound
}

func notDataURI(v string) bool {
	return !strings.Contains(v, "data:image")
}

func extractImage(doc *base.Document) string {
	imageAttrs := []string{"src", "data-old-hires", "data-src"}
	return base.Extract(doc, []base.Strategy{
		{Selector: "#imgTagWrapperId img", Attrs: imageAttrs, Accept: notDataURI},
		{Selector: "#landingImage", Attrs: imageAttrs, Accept: notDataURI},
		{Selector: "#imgBlkFront", Attrs: imageAttrs, Accept: notDataURI},
		{Selector: ".a-dynamic-image", Attrs: imageAttrs, Accept: notDataURI},
		{Selector: "[data-old-hires]", Attrs: imageAttrs, Accept: notDataURI},
		{Selector: ".a-button-selected img", Attrs: imageAttrs, Accept: notDataURI},
		{Selector: "#main-image-container img", Attrs: imageAttrs, Accept: notDataURI},
	})
}

func looksLikeRating(v string) bool {
	return strings.Contains(v, "out of") || strings.Contains(v, "stars")
}

func extractRatings(doc *base.Document) string {
	// The tooltip title usually carries the "4.5 out of 5 stars" text even
	// when the visible element only renders star glyphs.
	rating := base.Extract(doc, []base.Strategy{
		{Selector: "#acrPopover", Attrs: []string{"title"}, Text: true, Accept: looksLikeRating},
		{Selector: ".a-icon-alt", Attrs: []string{"title"}, Text: true, Accept: looksLikeRating},
		{Selector: `[data-automation-id="product-rating"]`, Attrs: []string{"title"}, Text: true, Accept: looksLikeRating},
		{Selector: ".a-icon-star", Attrs: []string{"title"}, Text: true, Accept: looksLikeRating},
		{Selector: ".a-star-mini", Attrs: []string{"title"}, Text: true, Accept: looksLikeRating},
	})
	if rating != "" {
		return rating
	}

	// No star rating anywhere: settle for the review count.
	return base.Extract(doc, []base.Strategy{
		{Selector: "#acrCustomerReviewText", Accept: mentionsRatings},
		{Selector: `[data-automation-id="review-count"]`, Accept: mentionsRatings},
		{Selector: ".a-size-base", Accept: mentionsRatings},
	})
}

func mentionsRatings(v string) bool {
	return strings.Contains(v, "ratings")
}

const (
	descriptionMinLen = 50
	descriptionMaxLen = 500
)

func substantial(v string) bool {
	// Short candidates are boilerplate containers, not descriptions.
	return len([]rune(v)) > descriptionMinLen
}

func extractDescription(doc *base.Document) string {
	text := base.Extract(doc, []base.Strategy{
		{Selector: "#productDescription", Accept: substantial},
		{Selector: "#feature-bullets ul", Accept: substantial},
		{Selector: ".a-unordered-list", Accept: substantial},
		{Selector: ".a-list-item", Accept: substantial},
		{Selector: `[data-automation-id="product-description"]`, Accept: substantial},
	})
	if runes := []rune(text); len(runes) > descriptionMaxLen {
		return string(runes[:descriptionMaxLen]) + "..."
	}
	return text
}
