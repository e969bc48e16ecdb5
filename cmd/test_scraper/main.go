package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/scrapers"
	"github.com/codemuse/shopping-comparison/scrapers/base"
)

// Probe a single product URL from the command line and print the snapshot.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: test_scraper <product-url>")
		os.Exit(1)
	}
	url := os.Args[1]

	log := logger.New("debug", true)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	registry := scrapers.NewRegistry(base.NewFetcher(log, true), log)
	scraper, resolvedURL, err := registry.GetScraper(ctx, url)
	if err != nil {
		log.Fatal("no scraper for url", logger.String("url", url), logger.Error(err))
	}

	snap, err := scraper.ScrapeProduct(ctx, resolvedURL)
	if err != nil {
		log.Fatal("scrape failed", logger.Error(err))
	}

	out, _ := json.MarshalIndent(snap, "", "  ")
	fmt.Println(string(out))
}
