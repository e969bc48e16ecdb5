package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/models"
	"github.com/codemuse/shopping-comparison/scrapers"
	"github.com/codemuse/shopping-comparison/store"
	"github.com/codemuse/shopping-comparison/utils"
)

// ScraperRegistry picks a scraper for a URL. Satisfied by *scrapers.Registry;
// an interface so handler tests can stub the scrape path.
type ScraperRegistry interface {
	GetScraper(ctx context.Context, url string) (scrapers.Scraper, string, error)
}

// Handler serves the persistence service API consumed by the popup.
type Handler struct {
	Store    store.Store
	Registry ScraperRegistry
	Log      logger.Logger
}

// NewHandler wires the API handler.
func NewHandler(st store.Store, reg ScraperRegistry, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{Store: st, Registry: reg, Log: log}
}

type healthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	ProductsCount int       `json:"products_count"`
}

// Health reports service liveness and the stored product count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.Store.Count(r.Context())
	if err != nil {
		h.Log.Error("health: counting products", logger.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	utils.RespondJSON(w, http.StatusOK, healthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		ProductsCount: count,
	})
}

// ListProducts returns every stored product in insertion order. The products
// array is present even when empty.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.List(r.Context())
	if err != nil {
		h.Log.Error("listing products", logger.Error(err))
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	utils.RespondJSON(w, http.StatusOK, models.ProductList{Success: true, Products: products})
}

type scrapeFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

type scrapeSuccess struct {
	models.Product
	Success bool `json:"success"`
}

// Scrape captures the product at the submitted URL and stores it. The server
// is the sole arbiter of URL acceptance: non-marketplace URLs are refused
// here with success=false, which the client surfaces verbatim.
func (h *Handler) Scrape(w http.ResponseWriter, r *http.Request) {
	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		utils.RespondJSON(w, http.StatusOK, scrapeFailure{Error: "No URL provided"})
		return
	}

	h.Log.Info("scraping url", logger.String("url", req.URL))

	scraper, resolvedURL, err := h.Registry.GetScraper(r.Context(), req.URL)
	if err != nil {
		utils.RespondJSON(w, http.StatusOK, scrapeFailure{
			Error:   "Not an Amazon URL",
			Message: "This scraper only works with Amazon product pages",
			URL:     req.URL,
		})
		return
	}

	snap, err := scraper.ScrapeProduct(r.Context(), resolvedURL)
	if err != nil {
		h.Log.Warn("scrape failed", logger.String("url", resolvedURL), logger.Error(err))
		utils.RespondJSON(w, http.StatusOK, scrapeFailure{
			Error:   "Request failed",
			Message: err.Error(),
			URL:     req.URL,
		})
		return
	}

	product := models.Product{Snapshot: *snap, ID: uuid.NewString()}
	if err := h.Store.Add(r.Context(), product); err != nil {
		h.Log.Error("storing product", logger.Error(err))
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	h.Log.Info("product stored",
		logger.String("id", product.ID), logger.String("title", product.Title))
	utils.RespondJSON(w, http.StatusOK, scrapeSuccess{Product: product, Success: true})
}

type mutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeleteProduct removes one product by id. Deleting an unknown id succeeds:
// the end state the caller asked for already holds.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Delete(r.Context(), id); err != nil && err != store.ErrNotFound {
		h.Log.Error("deleting product", logger.String("id", id), logger.Error(err))
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, mutationResponse{Success: true, Message: "Product deleted"})
}

// Clear removes every stored product.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Clear(r.Context()); err != nil {
		h.Log.Error("clearing products", logger.Error(err))
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	utils.RespondJSON(w, http.StatusOK, mutationResponse{Success: true, Message: "All products cleared"})
}
