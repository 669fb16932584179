package query

import (
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"pepperbot/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genDiscounts builds slices of discounts with a small store/title
// vocabulary so filters actually hit, plus randomly missing prices.
func genDiscounts() gopter.Gen {
	stores := []string{"Amazon", "Walmart", "MediaMarkt", "Ozon"}
	titles := []string{"Gaming Laptop", "Coffee Beans", "Wireless Mouse", "4K Monitor", "laptop sleeve"}

	genOne := gopter.CombineGens(
		gen.IntRange(0, len(titles)-1),
		gen.IntRange(0, len(stores)-1),
		gen.Float64Range(1, 2000),
		gen.Bool(),
		gen.Float64Range(0, 100),
		gen.Bool(),
		gen.Int64Range(0, 1_000_000),
	).Map(func(values []interface{}) domain.Discount {
		d := domain.Discount{
			ID:        uuid.New(),
			Title:     titles[values[0].(int)],
			Store:     stores[values[1].(int)],
			CreatedAt: time.Unix(values[6].(int64), 0),
		}

		if values[3].(bool) {
			price := values[2].(float64)
			d.DiscountPrice = &price
		}
		if values[5].(bool) {
			pct := values[4].(float64)
			d.DiscountPercentage = &pct
		}

		return d
	})

	return gen.SliceOf(genOne)
}

// Feature: pepperbot, Property 1: Search results are a subset of the
// source and every survivor matches the needle
func TestProperty_SearchFiltersToMatchingSubset(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every result contains the search term in title, description or store", prop.ForAll(
		func(discounts []domain.Discount, search string) bool {
			results := Run(discounts, search, "", SortNewest)

			if len(results) > len(discounts) {
				t.Logf("FAIL: more results than inputs")
				return false
			}

			needle := strings.ToLower(search)
			for _, d := range results {
				inTitle := strings.Contains(strings.ToLower(d.Title), needle)
				inStore := strings.Contains(strings.ToLower(d.Store), needle)
				inDesc := d.Description != nil && strings.Contains(strings.ToLower(*d.Description), needle)

				if !inTitle && !inStore && !inDesc {
					t.Logf("FAIL: %q survived search %q", d.Title, search)
					return false
				}
			}

			return true
		},
		genDiscounts(),
		gen.OneConstOf("laptop", "coffee", "MOUSE", "amazon", "zz-no-match"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: pepperbot, Property 2: The store filter keeps exactly the
// rows whose store matches
func TestProperty_StoreFilterIsExact(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("results carry only the selected store and none are lost", prop.ForAll(
		func(discounts []domain.Discount, store string) bool {
			results := Run(discounts, "", store, SortNewest)

			for _, d := range results {
				if d.Store != store {
					t.Logf("FAIL: store %q leaked through filter %q", d.Store, store)
					return false
				}
			}

			want := 0
			for _, d := range discounts {
				if d.Store == store {
					want++
				}
			}

			if len(results) != want {
				t.Logf("FAIL: expected %d rows for store %q, got %d", want, store, len(results))
				return false
			}

			return true
		},
		genDiscounts(),
		gen.OneConstOf("Amazon", "Walmart", "MediaMarkt", "Ozon", "Nonexistent"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: pepperbot, Property 3: Sorting is correct and running the
// engine twice gives the same ordering
func TestProperty_SortOrderAndIdempotence(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("price-low is non-decreasing with missing prices as zero", prop.ForAll(
		func(discounts []domain.Discount) bool {
			results := Run(discounts, "", "", SortPriceLow)

			for i := 1; i < len(results); i++ {
				if priceOrZero(results[i-1]) > priceOrZero(results[i]) {
					t.Logf("FAIL: price order violated at index %d", i)
					return false
				}
			}

			again := Run(results, "", "", SortPriceLow)
			if !reflect.DeepEqual(results, again) {
				t.Logf("FAIL: re-running the engine reordered the results")
				return false
			}

			return true
		},
		genDiscounts(),
	))

	properties.Property("discount sort is non-increasing with missing percentages as zero", prop.ForAll(
		func(discounts []domain.Discount) bool {
			results := Run(discounts, "", "", SortDiscount)

			for i := 1; i < len(results); i++ {
				if percentOrZero(results[i-1]) < percentOrZero(results[i]) {
					t.Logf("FAIL: discount order violated at index %d", i)
					return false
				}
			}

			return true
		},
		genDiscounts(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: pepperbot, Property 4: The engine never mutates its input
func TestProperty_SourceIsNeverMutated(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("source slice is unchanged after any run", prop.ForAll(
		func(discounts []domain.Discount) bool {
			before := make([]domain.Discount, len(discounts))
			copy(before, discounts)

			Run(discounts, "laptop", "Amazon", SortPriceHigh)
			Run(discounts, "", "", SortOldest)

			if !reflect.DeepEqual(before, discounts) {
				t.Logf("FAIL: source slice was mutated")
				return false
			}

			return true
		},
		genDiscounts(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRunStableOnTies(t *testing.T) {
	// Same timestamp everywhere, ordering must be input order
	now := time.Now()
	discounts := []domain.Discount{
		{ID: uuid.New(), Title: "a", Store: "S", CreatedAt: now},
		{ID: uuid.New(), Title: "b", Store: "S", CreatedAt: now},
		{ID: uuid.New(), Title: "c", Store: "S", CreatedAt: now},
	}

	results := Run(discounts, "", "", SortNewest)

	for i, d := range results {
		if d.ID != discounts[i].ID {
			t.Fatalf("tie order changed at index %d", i)
		}
	}
}

func TestRunUnknownSortKeepsArrivalOrder(t *testing.T) {
	discounts := []domain.Discount{
		{ID: uuid.New(), Title: "z", Store: "S", CreatedAt: time.Now().Add(time.Hour)},
		{ID: uuid.New(), Title: "a", Store: "S", CreatedAt: time.Now()},
	}

	results := Run(discounts, "", "", Sort("bogus"))

	if len(results) != 2 || results[0].ID != discounts[0].ID {
		t.Fatal("unknown sort key should preserve arrival order")
	}
}

func TestUniqueStores(t *testing.T) {
	discounts := []domain.Discount{
		{Store: "Walmart"},
		{Store: "Amazon"},
		{Store: "Walmart"},
		{Store: "Ozon"},
	}

	stores := UniqueStores(discounts)

	if !sort.StringsAreSorted(stores) {
		t.Fatal("stores are not sorted")
	}
	if !reflect.DeepEqual(stores, []string{"Amazon", "Ozon", "Walmart"}) {
		t.Fatalf("unexpected stores: %v", stores)
	}
}
