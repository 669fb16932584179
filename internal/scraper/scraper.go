package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"

	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Scraper fetches pepper.ru listing pages and persists the parsed deals.
type Scraper struct {
	baseURL      string
	httpClient   *http.Client
	discountRepo repository.DiscountRepository
	logger       *zap.Logger

	mu          sync.Mutex
	lastRequest time.Time

	// minimum delay between outgoing requests
	minInterval time.Duration
}

// NewScraper creates a new Scraper
func NewScraper(baseURL string, discountRepo repository.DiscountRepository, logger *zap.Logger) *Scraper {
	return &Scraper{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		discountRepo: discountRepo,
		logger:       logger,
		minInterval:  time.Second,
	}
}

// Run performs one scrape pass over the main listing page and returns
// the number of offers found.
func (s *Scraper) Run(ctx context.Context) (int, error) {
	s.logger.Info("Starting scrape", zap.String("url", s.baseURL))

	body, err := s.fetch(ctx, s.baseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch listing page: %w", err)
	}
	defer body.Close()

	offers, err := ParsePage(body, s.baseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse listing page: %w", err)
	}

	s.logger.Info("Parsed offers", zap.Int("count", len(offers)))

	for _, offer := range offers {
		if err := s.upsert(ctx, offer); err != nil {
			s.logger.Error("Failed to store offer",
				zap.String("title", offer.Title),
				zap.Error(err))
		}
	}

	return len(offers), nil
}

// fetch retrieves a page, honoring the minimum interval between requests.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	s.throttle(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	return resp.Body, nil
}

func (s *Scraper) throttle(ctx context.Context) {
	s.mu.Lock()
	wait := s.minInterval - time.Since(s.lastRequest)
	s.lastRequest = time.Now().Add(wait)
	s.mu.Unlock()

	if wait <= 0 {
		return
	}

	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// upsert matches an offer against existing rows by URL first, then by
// title and store, updating the match or inserting a new row.
func (s *Scraper) upsert(ctx context.Context, offer Offer) error {
	var existing *domain.Discount
	var err error

	if offer.URL != nil {
		existing, err = s.discountRepo.FindByURL(ctx, *offer.URL)
	} else {
		existing, err = s.discountRepo.FindByTitleAndStore(ctx, offer.Title, offer.Store)
	}

	if err != nil && err != repository.ErrDiscountNotFound {
		return err
	}

	if existing == nil {
		s.logger.Debug("New offer", zap.String("title", offer.Title), zap.String("store", offer.Store))
		return s.discountRepo.Create(ctx, offer.Discount())
	}

	merge(existing, offer)

	s.logger.Debug("Refreshed offer", zap.String("title", offer.Title), zap.String("store", offer.Store))
	return s.discountRepo.Update(ctx, existing)
}

// merge overwrites stored fields with freshly scraped values. Fields the
// page no longer carries keep their stored value.
func merge(existing *domain.Discount, offer Offer) {
	existing.Title = offer.Title
	existing.Store = offer.Store

	if offer.Description != nil {
		existing.Description = offer.Description
	}
	if offer.OriginalPrice != nil {
		existing.OriginalPrice = offer.OriginalPrice
	}
	if offer.DiscountPrice != nil {
		existing.DiscountPrice = offer.DiscountPrice
	}
	if offer.DiscountPercentage != nil {
		existing.DiscountPercentage = offer.DiscountPercentage
	}
	if offer.ValidUntil != nil {
		existing.ValidUntil = offer.ValidUntil
	}
	if offer.URL != nil {
		existing.URL = offer.URL
	}
	if offer.ImageURL != nil {
		existing.ImageURL = offer.ImageURL
	}
}
