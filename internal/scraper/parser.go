package scraper

import (
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pepperbot/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// Offer is a single parsed deal before persistence. Optional fields stay
// nil when the markup does not carry them.
type Offer struct {
	Title              string
	Description        *string
	Store              string
	OriginalPrice      *float64
	DiscountPrice      *float64
	DiscountPercentage *float64
	ValidUntil         *time.Time
	URL                *string
	ImageURL           *string
}

// ParsePage extracts deal offers from a pepper.ru listing page. Items that
// fail to parse are skipped rather than failing the whole page.
func ParsePage(r io.Reader, baseURL string) ([]Offer, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var offers []Offer

	doc.Find("div.thread-item").Each(func(_ int, item *goquery.Selection) {
		titleElem := item.Find("a.thread-title").First()

		title := strings.TrimSpace(titleElem.Text())
		if title == "" {
			title = "Unknown Title"
		}

		store := strings.TrimSpace(item.Find("span.store-name").First().Text())
		if store == "" {
			store = "Unknown Store"
		}

		offer := Offer{Title: title, Store: store}

		if priceText := strings.TrimSpace(item.Find("span.price").First().Text()); strings.Contains(priceText, "→") {
			parts := strings.SplitN(priceText, "→", 2)
			offer.OriginalPrice = parsePrice(parts[0])
			offer.DiscountPrice = parsePrice(parts[1])
		}

		if pctText := strings.TrimSpace(item.Find("span.discount-percentage").First().Text()); pctText != "" {
			cleaned := strings.NewReplacer("%", "", "-", "").Replace(pctText)
			if pct, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64); err == nil {
				offer.DiscountPercentage = &pct
			}
		}

		if href, ok := titleElem.Attr("href"); ok && href != "" {
			if resolved := resolveURL(baseURL, href); resolved != "" {
				offer.URL = &resolved
			}
		}

		if desc := strings.TrimSpace(item.Find("div.thread-description").First().Text()); desc != "" {
			offer.Description = &desc
		}

		if src, ok := item.Find("img.thread-image").First().Attr("src"); ok && src != "" {
			if resolved := resolveURL(baseURL, src); resolved != "" {
				offer.ImageURL = &resolved
			}
		}

		if dateText := strings.TrimSpace(item.Find("span.valid-until").First().Text()); dateText != "" {
			if t, err := time.Parse("2006-01-02", dateText); err == nil {
				offer.ValidUntil = &t
			}
		}

		offers = append(offers, offer)
	})

	return offers, nil
}

// parsePrice converts a price fragment like "1 299 ₽" to a float.
// Returns nil when no number remains after stripping currency markers.
func parsePrice(s string) *float64 {
	cleaned := strings.NewReplacer("₽", "", "руб", "", " ", "", " ", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}

	return &v
}

// resolveURL resolves a possibly relative href against the scrape base.
func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	baseParsed, err := url.Parse(base)
	if err != nil {
		return ""
	}

	refParsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	return baseParsed.ResolveReference(refParsed).String()
}

// Discount converts a parsed offer into a fresh row ready for insert.
func (o Offer) Discount() *domain.Discount {
	return &domain.Discount{
		ID:                 uuid.New(),
		Title:              o.Title,
		Description:        o.Description,
		Store:              o.Store,
		OriginalPrice:      o.OriginalPrice,
		DiscountPrice:      o.DiscountPrice,
		DiscountPercentage: o.DiscountPercentage,
		ValidUntil:         o.ValidUntil,
		URL:                o.URL,
		ImageURL:           o.ImageURL,
		CreatedAt:          time.Now(),
	}
}
