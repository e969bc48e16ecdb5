package models

import "time"

// PriceNotFound is the sentinel returned when no price strategy yields an
// accepted value. It is a defined result, not an error.
const PriceNotFound = "Price not found"

// Snapshot represents one extraction attempt over a product page.
// A snapshot is either unsupported (placeholder fields, reason set) or
// attempted, in which case every field is independently present-or-empty.
// Partial data is a valid snapshot.
type Snapshot struct {
	Title             string    `json:"title" bson:"title"`
	Price             string    `json:"price" bson:"price"`
	Image             string    `json:"image" bson:"image"`
	Ratings           string    `json:"ratings" bson:"ratings"`
	Description       string    `json:"description" bson:"description"`
	URL               string    `json:"url" bson:"url"`
	Domain            string    `json:"domain" bson:"domain"`
	CapturedAt        time.Time `json:"captured_at" bson:"captured_at"`
	Supported         bool      `json:"supported" bson:"supported"`
	UnsupportedReason string    `json:"unsupported_reason,omitempty" bson:"unsupported_reason,omitempty"`
}

// Product is a snapshot accepted by the persistence service. The ID is
// assigned by the server at creation time and is the sole key for removal.
type Product struct {
	Snapshot `bson:",inline"`
	ID       string `json:"id" bson:"_id"`
}

// ProductList is the wire shape of GET /api/products.
type ProductList struct {
	Success  bool      `json:"success"`
	Products []Product `json:"products"`
}

// ScrapeRequest is the body of POST /api/scrape.
type ScrapeRequest struct {
	URL string `json:"url"`
}
