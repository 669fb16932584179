package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type memoryDiscountRepository struct {
	discounts []*domain.Discount
	updates   int
}

func (m *memoryDiscountRepository) Create(ctx context.Context, d *domain.Discount) error {
	// Same contract as the Postgres table: id is the primary key and has
	// no default, so duplicates (including repeated zero values) fail.
	for _, existing := range m.discounts {
		if existing.ID == d.ID {
			return fmt.Errorf("duplicate key value violates unique constraint \"discounts_pkey\": %s", d.ID)
		}
	}
	m.discounts = append(m.discounts, d)
	return nil
}

func (m *memoryDiscountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Discount, error) {
	for _, d := range m.discounts {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, repository.ErrDiscountNotFound
}

func (m *memoryDiscountRepository) FindByURL(ctx context.Context, url string) (*domain.Discount, error) {
	for _, d := range m.discounts {
		if d.URL != nil && *d.URL == url {
			return d, nil
		}
	}
	return nil, repository.ErrDiscountNotFound
}

func (m *memoryDiscountRepository) FindByTitleAndStore(ctx context.Context, title, store string) (*domain.Discount, error) {
	for _, d := range m.discounts {
		if d.Title == title && d.Store == store {
			return d, nil
		}
	}
	return nil, repository.ErrDiscountNotFound
}

func (m *memoryDiscountRepository) List(ctx context.Context, store string, skip, limit int) ([]*domain.Discount, error) {
	return m.discounts, nil
}

func (m *memoryDiscountRepository) ListValid(ctx context.Context, now time.Time) ([]*domain.Discount, error) {
	return m.discounts, nil
}

func (m *memoryDiscountRepository) Update(ctx context.Context, d *domain.Discount) error {
	m.updates++
	return nil
}

func (m *memoryDiscountRepository) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func newListingServer(t *testing.T, pages ...string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		page := int(n) - 1
		if page >= len(pages) {
			page = len(pages) - 1
		}
		w.Write([]byte(pages[page]))
	}))
	t.Cleanup(server.Close)

	return server, &hits
}

func newTestScraper(baseURL string, repo repository.DiscountRepository) *Scraper {
	s := NewScraper(baseURL, repo, zap.NewNop())
	s.minInterval = 0
	return s
}

func TestRunStoresParsedOffers(t *testing.T) {
	server, _ := newListingServer(t, `
		<div class="thread-item">
			<a class="thread-title" href="/deals/1">First Deal</a>
			<span class="store-name">DNS</span>
		</div>
		<div class="thread-item">
			<a class="thread-title" href="/deals/2">Second Deal</a>
			<span class="store-name">Ozon</span>
		</div>`)

	repo := &memoryDiscountRepository{}
	count, err := newTestScraper(server.URL, repo).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if len(repo.discounts) != 2 {
		t.Fatalf("stored %d discounts, want 2", len(repo.discounts))
	}
	if repo.discounts[0].URL == nil || *repo.discounts[0].URL != server.URL+"/deals/1" {
		t.Errorf("offer url = %v", repo.discounts[0].URL)
	}
}

func TestRunAssignsFreshIdentityToEachOffer(t *testing.T) {
	server, _ := newListingServer(t, `
		<div class="thread-item">
			<a class="thread-title" href="/deals/1">First Deal</a>
			<span class="store-name">DNS</span>
		</div>
		<div class="thread-item">
			<a class="thread-title" href="/deals/2">Second Deal</a>
			<span class="store-name">Ozon</span>
		</div>
		<div class="thread-item">
			<a class="thread-title" href="/deals/3">Third Deal</a>
			<span class="store-name">Wildberries</span>
		</div>`)

	repo := &memoryDiscountRepository{}
	before := time.Now()
	count, err := newTestScraper(server.URL, repo).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Every parsed offer must land as its own row. With zero-value IDs
	// the second insert would collide on the primary key.
	if count != 3 || len(repo.discounts) != 3 {
		t.Fatalf("persisted %d of %d parsed offers", len(repo.discounts), count)
	}

	seen := make(map[uuid.UUID]bool)
	for i, d := range repo.discounts {
		if d.ID == uuid.Nil {
			t.Errorf("row %d stored with a zero id", i)
		}
		if seen[d.ID] {
			t.Errorf("row %d reuses id %s", i, d.ID)
		}
		seen[d.ID] = true

		if d.CreatedAt.Before(before) {
			t.Errorf("row %d created_at %v predates the scrape", i, d.CreatedAt)
		}
	}
}

func TestRunUpdatesExistingOffersByURL(t *testing.T) {
	listing := `
		<div class="thread-item">
			<a class="thread-title" href="/deals/1">Recurring Deal</a>
			<span class="store-name">DNS</span>
			<span class="discount-percentage">-25%</span>
		</div>`
	server, _ := newListingServer(t, listing, listing)

	repo := &memoryDiscountRepository{}
	scraper := newTestScraper(server.URL, repo)
	ctx := context.Background()

	if _, err := scraper.Run(ctx); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if _, err := scraper.Run(ctx); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(repo.discounts) != 1 {
		t.Fatalf("re-scraping must not duplicate rows, got %d", len(repo.discounts))
	}
	if repo.updates != 1 {
		t.Fatalf("expected 1 update, got %d", repo.updates)
	}
}

func TestRunPropagatesFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	repo := &memoryDiscountRepository{}
	if _, err := newTestScraper(server.URL, repo).Run(context.Background()); err == nil {
		t.Fatal("expected an error for a failing listing page")
	}
	if len(repo.discounts) != 0 {
		t.Fatal("nothing must be stored on fetch failure")
	}
}

func TestMergeKeepsStoredValuesForMissingFields(t *testing.T) {
	desc := "original description"
	price := 500.0
	existing := &domain.Discount{Title: "Old Title", Store: "DNS", Description: &desc, DiscountPrice: &price}

	newPrice := 450.0
	merge(existing, Offer{Title: "New Title", Store: "DNS", DiscountPrice: &newPrice})

	if existing.Title != "New Title" {
		t.Errorf("title must follow the page, got %q", existing.Title)
	}
	if existing.Description == nil || *existing.Description != desc {
		t.Error("fields absent from the page must keep their stored value")
	}
	if existing.DiscountPrice == nil || *existing.DiscountPrice != newPrice {
		t.Error("fields present on the page must be refreshed")
	}
}

func TestSchedulerTriggerAndStatus(t *testing.T) {
	server, hits := newListingServer(t, `
		<div class="thread-item">
			<a class="thread-title" href="/deals/1">Deal</a>
			<span class="store-name">DNS</span>
		</div>`)

	repo := &memoryDiscountRepository{}
	scheduler := NewScheduler(newTestScraper(server.URL, repo), 30, zap.NewNop())

	if scheduler.Trigger() {
		t.Fatal("trigger before start must be refused")
	}

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	if !scheduler.Trigger() {
		t.Fatal("trigger on a running scheduler must be accepted")
	}

	deadline := time.After(5 * time.Second)
	for hits.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("triggered scrape never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	deadline = time.After(5 * time.Second)
	for scheduler.Status().LastRun == nil {
		select {
		case <-deadline:
			t.Fatal("status never recorded the run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	status := scheduler.Status()
	if !status.Running {
		t.Error("status must report running")
	}
	if status.LastCount != 1 {
		t.Errorf("last count = %d, want 1", status.LastCount)
	}
	if status.LastError != "" {
		t.Errorf("last error = %q", status.LastError)
	}
	if status.NextRun == nil {
		t.Error("next run must be scheduled")
	}
}

func TestSchedulerStopReportsNotRunning(t *testing.T) {
	repo := &memoryDiscountRepository{}
	scheduler := NewScheduler(newTestScraper("http://127.0.0.1:0", repo), 30, zap.NewNop())

	scheduler.Start(context.Background())
	scheduler.Stop()

	if scheduler.Status().Running {
		t.Fatal("stopped scheduler must not report running")
	}
	if scheduler.Trigger() {
		t.Fatal("trigger after stop must be refused")
	}
}
