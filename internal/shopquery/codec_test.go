package shopquery

import (
	"net/url"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseSectionFiltersDefaults(t *testing.T) {
	filters := ParseSectionFilters("stock", url.Values{})

	assert.Equal(t, DefaultSectionFilters(), filters)
}

func TestParseSectionFiltersAllSentinel(t *testing.T) {
	params := url.Values{}
	params.Set("stockCategory", "  All ")
	params.Set("stockSubcategory", "ALL")

	filters := ParseSectionFilters("stock", params)

	assert.Empty(t, filters.Category)
	assert.Empty(t, filters.Subcategory)
}

func TestParseSectionFiltersInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want SectionFilters
	}{
		{"unknown sort key", "readySortBy", "weight", DefaultSectionFilters()},
		{"unknown sort order", "readySortOrder", "sideways", DefaultSectionFilters()},
		{"non-numeric page", "readyPage", "abc", DefaultSectionFilters()},
		{"zero page", "readyPage", "0", DefaultSectionFilters()},
		{"negative page", "readyPage", "-3", DefaultSectionFilters()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := url.Values{}
			params.Set(tt.key, tt.val)
			assert.Equal(t, tt.want, ParseSectionFilters("ready", params))
		})
	}
}

func TestParseSectionFiltersPopulated(t *testing.T) {
	params := url.Values{}
	params.Set("readyCategory", "Road")
	params.Set("readySubcategory", "Gravel")
	params.Set("readySortBy", "price")
	params.Set("readySortOrder", "desc")
	params.Set("readyPage", "4")

	filters := ParseSectionFilters("ready", params)

	assert.Equal(t, SectionFilters{
		Category:    "Road",
		Subcategory: "Gravel",
		SortBy:      SortByPrice,
		SortOrder:   SortDesc,
		Page:        4,
	}, filters)
}

func TestParseQueryStateDefaultSection(t *testing.T) {
	state := ParseQueryState(url.Values{})

	assert.Equal(t, models.SectionInStock, state.Section)
	assert.Equal(t, DefaultSectionFilters(), state.Ready)
	assert.Equal(t, DefaultSectionFilters(), state.Stock)
}

func TestBuildSearchParamsMinimal(t *testing.T) {
	state := QueryState{
		Section: models.SectionInStock,
		Ready:   DefaultSectionFilters(),
		Stock:   DefaultSectionFilters(),
	}

	params := BuildSearchParams(state, models.SectionInStock, Overrides{})

	assert.Equal(t, "section=in-stock", params.Encode())
}

func TestBuildSearchParamsRoundTrip(t *testing.T) {
	state := QueryState{
		Section: models.SectionReadyToOrder,
		Ready: SectionFilters{
			Category:    "Mountain",
			Subcategory: "Enduro",
			SortBy:      SortByPrice,
			SortOrder:   SortDesc,
			Page:        3,
		},
		Stock: SectionFilters{
			Category:  "Road",
			SortBy:    DefaultSortBy,
			SortOrder: DefaultSortOrder,
			Page:      2,
		},
	}

	params := BuildSearchParams(state, models.SectionReadyToOrder, Overrides{})
	parsed := ParseQueryState(params)

	assert.Equal(t, state, parsed)

	// Re-serializing the parsed state reproduces the same minimal params.
	again := BuildSearchParams(parsed, models.SectionReadyToOrder, Overrides{})
	assert.Equal(t, params.Encode(), again.Encode())
}

func TestBuildSearchParamsOverridesTargetOnly(t *testing.T) {
	state := QueryState{
		Section: models.SectionInStock,
		Ready:   DefaultSectionFilters(),
		Stock:   DefaultSectionFilters(),
	}

	page := 5
	category := "City"
	params := BuildSearchParams(state, models.SectionInStock, Overrides{
		Category: &category,
		Page:     &page,
	})

	assert.Equal(t, "City", params.Get("stockCategory"))
	assert.Equal(t, "5", params.Get("stockPage"))
	assert.Empty(t, params.Get("readyCategory"))
	assert.Empty(t, params.Get("readyPage"))
}

func TestBuildSearchParamsClampsPage(t *testing.T) {
	state := QueryState{
		Section: models.SectionInStock,
		Ready:   DefaultSectionFilters(),
		Stock:   DefaultSectionFilters(),
	}

	page := -2
	params := BuildSearchParams(state, models.SectionInStock, Overrides{Page: &page})

	// Clamped to 1, which is the default and therefore omitted.
	assert.Equal(t, "section=in-stock", params.Encode())
}

func TestPrefixFor(t *testing.T) {
	assert.Equal(t, "ready", PrefixFor(models.SectionReadyToOrder))
	assert.Equal(t, "stock", PrefixFor(models.SectionInStock))
	assert.Equal(t, "stock", PrefixFor(models.Section("")))
}
