// Package shopquery maps the dual-section shop filter state to and from
// flat URL query parameters. Each catalog section keeps its filters under
// its own key prefix so flipping between sections never loses the other
// section's place. Parsing is total; serialization emits only non-default
// values, so serialize-parse-serialize cycles are stable.
package shopquery

import (
	"net/url"
	"strconv"
	"strings"

	"storefront-service/internal/models"
)

type SortKey string

const (
	SortByPrice SortKey = "price"
	SortByTitle SortKey = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultSortBy    = SortByTitle
	DefaultSortOrder = SortAsc
	DefaultPage      = 1
)

// SectionFilters is the fully-populated filter state for one catalog
// section. Category and Subcategory are empty when unset.
type SectionFilters struct {
	Category    string    `json:"category,omitempty"`
	Subcategory string    `json:"subcategory,omitempty"`
	SortBy      SortKey   `json:"sortBy"`
	SortOrder   SortOrder `json:"sortOrder"`
	Page        int       `json:"page"`
}

// QueryState holds the active section plus both sections' filters.
type QueryState struct {
	Section models.Section `json:"section"`
	Ready   SectionFilters `json:"ready"`
	Stock   SectionFilters `json:"stock"`
}

// Overrides carries partial filter changes; nil fields leave the current
// value untouched.
type Overrides struct {
	Category    *string
	Subcategory *string
	SortBy      *SortKey
	SortOrder   *SortOrder
	Page        *int
}

func DefaultSectionFilters() SectionFilters {
	return SectionFilters{
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
		Page:      DefaultPage,
	}
}

// PrefixFor returns the query key prefix for a section.
func PrefixFor(section models.Section) string {
	if models.NormalizeSection(section) == models.SectionReadyToOrder {
		return "ready"
	}
	return "stock"
}

// parseStringParam trims the raw value and treats the empty string and the
// literal "all" sentinel (case-insensitive) as unset.
func parseStringParam(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return ""
	}
	return trimmed
}

func parseSortKey(value string) SortKey {
	switch SortKey(value) {
	case SortByPrice, SortByTitle:
		return SortKey(value)
	}
	return DefaultSortBy
}

func parseSortOrder(value string) SortOrder {
	switch SortOrder(value) {
	case SortAsc, SortDesc:
		return SortOrder(value)
	}
	return DefaultSortOrder
}

func parsePage(value string) int {
	if value == "" {
		return DefaultPage
	}
	page, err := strconv.Atoi(value)
	if err != nil || page < 1 {
		return DefaultPage
	}
	return page
}

// ParseSectionFilters reads one section's filters from raw query values.
// It never fails: unrecognized or missing values fall back to defaults.
func ParseSectionFilters(prefix string, params url.Values) SectionFilters {
	filters := DefaultSectionFilters()

	filters.Category = parseStringParam(params.Get(prefix + "Category"))
	filters.Subcategory = parseStringParam(params.Get(prefix + "Subcategory"))
	filters.SortBy = parseSortKey(parseStringParam(params.Get(prefix + "SortBy")))
	filters.SortOrder = parseSortOrder(parseStringParam(params.Get(prefix + "SortOrder")))
	filters.Page = parsePage(parseStringParam(params.Get(prefix + "Page")))

	return filters
}

// ParseQueryState reads the active section and both sections' filters.
func ParseQueryState(params url.Values) QueryState {
	return QueryState{
		Section: models.NormalizeSection(models.Section(params.Get("section"))),
		Ready:   ParseSectionFilters("ready", params),
		Stock:   ParseSectionFilters("stock", params),
	}
}

func (f SectionFilters) apply(o Overrides) SectionFilters {
	if o.Category != nil {
		f.Category = *o.Category
	}
	if o.Subcategory != nil {
		f.Subcategory = *o.Subcategory
	}
	if o.SortBy != nil {
		f.SortBy = *o.SortBy
	}
	if o.SortOrder != nil {
		f.SortOrder = *o.SortOrder
	}
	if o.Page != nil {
		f.Page = *o.Page
	}
	return f
}

func appendFilters(params url.Values, prefix string, filters SectionFilters) {
	if filters.Category != "" {
		params.Set(prefix+"Category", filters.Category)
	}
	if filters.Subcategory != "" {
		params.Set(prefix+"Subcategory", filters.Subcategory)
	}
	if filters.SortBy != DefaultSortBy {
		params.Set(prefix+"SortBy", string(filters.SortBy))
	}
	if filters.SortOrder != DefaultSortOrder {
		params.Set(prefix+"SortOrder", string(filters.SortOrder))
	}
	if filters.Page > DefaultPage {
		params.Set(prefix+"Page", strconv.Itoa(filters.Page))
	}
}

// BuildSearchParams serializes the query state with overrides applied to
// the target section only. Default values are omitted so the encoding is
// canonical and minimal.
func BuildSearchParams(state QueryState, target models.Section, overrides Overrides) url.Values {
	target = models.NormalizeSection(target)

	ready := state.Ready
	stock := state.Stock

	if target == models.SectionReadyToOrder {
		ready = ready.apply(overrides)
	} else {
		stock = stock.apply(overrides)
	}

	if ready.Page < 1 {
		ready.Page = DefaultPage
	}
	if stock.Page < 1 {
		stock.Page = DefaultPage
	}

	params := url.Values{}
	params.Set("section", string(target))

	appendFilters(params, "ready", ready)
	appendFilters(params, "stock", stock)

	return params
}
