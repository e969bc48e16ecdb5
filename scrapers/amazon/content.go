package amazon

import (
	"github.com/codemuse/shopping-comparison/bridge"
	"github.com/codemuse/shopping-comparison/scrapers/base"
)

// PageHandler returns a bridge handler serving scrape requests against the
// given loaded page. This is the page-embedded side of the bridge: it owns
// the document and replies with a snapshot, or an error for unknown actions.
func (s *Scraper) PageHandler(doc *base.Document, pageURL string) bridge.Handler {
	return func(req bridge.Request, reply func(bridge.Response)) {
		if req.Action != bridge.ActionScrapeProduct {
			reply(bridge.Response{Success: false, Error: "unknown action: " + req.Action})
			return
		}
		snap := s.CaptureSnapshot(doc, pageURL)
		reply(bridge.Response{Success: true, Data: &snap})
	}
}
