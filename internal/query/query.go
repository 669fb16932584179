// Package query implements the pure filter/sort/search engine behind
// the discounts view. It never touches the network and never mutates
// its input; callers re-run it whenever the source collection, search
// text, store filter, or sort key changes.
package query

import (
	"sort"
	"strings"

	"pepperbot/internal/domain"
)

// Sort identifies one of the supported orderings.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortDiscount  Sort = "discount"
)

// Run returns the filtered, ordered view of source.
//
// A discount is retained iff the search term is empty or matches
// title, description, or store case-insensitively as a substring, AND
// the store filter is empty or equals the discount's store exactly.
// Ties keep the order they arrived in.
func Run(source []domain.Discount, search, store string, sortKey Sort) []domain.Discount {
	out := make([]domain.Discount, 0, len(source))

	needle := strings.ToLower(search)
	for _, d := range source {
		if needle != "" && !matchesSearch(d, needle) {
			continue
		}
		if store != "" && d.Store != store {
			continue
		}
		out = append(out, d)
	}

	less := lessFn(sortKey)
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j])
		})
	}

	return out
}

// UniqueStores returns the deduplicated store names of source, sorted
// lexicographically. It populates the store filter options.
func UniqueStores(source []domain.Discount) []string {
	seen := make(map[string]struct{}, len(source))
	stores := make([]string, 0, len(source))

	for _, d := range source {
		if _, ok := seen[d.Store]; ok {
			continue
		}
		seen[d.Store] = struct{}{}
		stores = append(stores, d.Store)
	}

	sort.Strings(stores)
	return stores
}

func matchesSearch(d domain.Discount, needle string) bool {
	if strings.Contains(strings.ToLower(d.Title), needle) {
		return true
	}
	if d.Description != nil && strings.Contains(strings.ToLower(*d.Description), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(d.Store), needle)
}

// Missing prices and percentages sort as 0 rather than being excluded.
func lessFn(key Sort) func(a, b domain.Discount) bool {
	switch key {
	case SortNewest:
		return func(a, b domain.Discount) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortOldest:
		return func(a, b domain.Discount) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceLow:
		return func(a, b domain.Discount) bool { return priceOrZero(a) < priceOrZero(b) }
	case SortPriceHigh:
		return func(a, b domain.Discount) bool { return priceOrZero(a) > priceOrZero(b) }
	case SortDiscount:
		return func(a, b domain.Discount) bool { return percentOrZero(a) > percentOrZero(b) }
	default:
		return nil
	}
}

func priceOrZero(d domain.Discount) float64 {
	if d.DiscountPrice == nil {
		return 0
	}
	return *d.DiscountPrice
}

func percentOrZero(d domain.Discount) float64 {
	if d.DiscountPercentage == nil {
		return 0
	}
	return *d.DiscountPercentage
}
