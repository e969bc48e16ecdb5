package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemuse/shopping-comparison/models"
	"github.com/codemuse/shopping-comparison/scrapers"
	"github.com/codemuse/shopping-comparison/store"
)

// stubScraper returns a canned snapshot without touching the network.
type stubScraper struct {
	snap *models.Snapshot
	err  error
}

func (s *stubScraper) CanScrape(url string) bool { return true }

func (s *stubScraper) ScrapeProduct(ctx context.Context, url string) (*models.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	snap := *s.snap
	snap.URL = url
	return &snap, nil
}

// stubRegistry refuses non-Amazon hosts the way the real registry does.
type stubRegistry struct {
	scraper *stubScraper
}

func (r *stubRegistry) GetScraper(ctx context.Context, url string) (scrapers.Scraper, string, error) {
	if r.scraper == nil {
		return nil, url, errors.New("no scraper found for url")
	}
	return r.scraper, url, nil
}

func newTestServer(t *testing.T, reg ScraperRegistry) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	server := httptest.NewServer(NewHandler(st, reg, nil).Router())
	t.Cleanup(server.Close)
	return server, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func TestHealthReportsProductCount(t *testing.T) {
	server, st := newTestServer(t, &stubRegistry{})
	require.NoError(t, st.Add(context.Background(), models.Product{ID: "a"}))

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status        string `json:"status"`
		ProductsCount int    `json:"products_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 1, body.ProductsCount)
}

func TestListProductsEmptyArrayPresent(t *testing.T) {
	server, _ := newTestServer(t, &stubRegistry{})

	resp, err := http.Get(server.URL + "/api/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list models.ProductList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.True(t, list.Success)
	assert.NotNil(t, list.Products)
	assert.Empty(t, list.Products)
}

func TestScrapeStoresProductAndAssignsID(t *testing.T) {
	snap := &models.Snapshot{Title: "Echo Dot", Price: "$49.99", Supported: true}
	server, st := newTestServer(t, &stubRegistry{scraper: &stubScraper{snap: snap}})

	resp := postJSON(t, server.URL+"/api/scrape", models.ScrapeRequest{URL: "https://www.amazon.com/dp/B000"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
		Title   string `json:"title"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "Echo Dot", body.Title)

	products, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, body.ID, products[0].ID)
}

func TestScrapeRejectsNonMarketplaceURL(t *testing.T) {
	server, st := newTestServer(t, &stubRegistry{})

	resp := postJSON(t, server.URL+"/api/scrape", models.ScrapeRequest{URL: "https://example.com/item"})
	defer resp.Body.Close()

	// Application-level rejection travels as a 200 with success=false.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "Not an Amazon URL", body.Error)
	assert.NotEmpty(t, body.Message)

	products, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestScrapeMissingURL(t *testing.T) {
	server, _ := newTestServer(t, &stubRegistry{})

	resp := postJSON(t, server.URL+"/api/scrape", map[string]string{})
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "No URL provided", body.Error)
}

func TestScrapeFetchFailure(t *testing.T) {
	server, _ := newTestServer(t, &stubRegistry{scraper: &stubScraper{err: errors.New("all fetch strategies failed")}})

	resp := postJSON(t, server.URL+"/api/scrape", models.ScrapeRequest{URL: "https://www.amazon.com/dp/B000"})
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "Request failed", body.Error)
	assert.Contains(t, body.Message, "all fetch strategies failed")
}

func TestDeleteProduct(t *testing.T) {
	server, st := newTestServer(t, &stubRegistry{})
	require.NoError(t, st.Add(context.Background(), models.Product{ID: "a"}))

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/products/a", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteUnknownProductSucceeds(t *testing.T) {
	server, _ := newTestServer(t, &stubRegistry{})

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/products/missing", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClearProducts(t *testing.T) {
	server, st := newTestServer(t, &stubRegistry{})
	require.NoError(t, st.Add(context.Background(), models.Product{ID: "a"}))
	require.NoError(t, st.Add(context.Background(), models.Product{ID: "b"}))

	resp, err := http.Post(server.URL+"/api/clear", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
