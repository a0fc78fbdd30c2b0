package models

// Section identifies one of the two catalog partitions. Every cart line
// item belongs to exactly one section; in-stock is the default.
type Section string

const (
	SectionInStock      Section = "in-stock"
	SectionReadyToOrder Section = "ready-to-order"
)

// NormalizeSection maps the empty string and unknown values to the
// in-stock default. Applied at every state entry point so the invariant
// "every line item has a section" holds by construction.
func NormalizeSection(s Section) Section {
	if s == SectionReadyToOrder {
		return s
	}
	return SectionInStock
}

// CartLineItem is one entry in a cart. The ID is unique per purchasable
// unit: a bare product or a specific variant.
type CartLineItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Section     Section `json:"section,omitempty"`
	VariantID   *int64  `json:"variant_id,omitempty"`
	VariantName string  `json:"variant_name,omitempty"`
}

// DisplayName is the customer-facing name, including the variant if the
// line item represents one.
func (i CartLineItem) DisplayName() string {
	if i.VariantName != "" {
		return i.Name + " (" + i.VariantName + ")"
	}
	return i.Name
}

// FavoriteItem is a bookmarked product. Presence is boolean; there is no
// quantity.
type FavoriteItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// CartState is the full persisted shopper state: cart line items plus
// favorites. Serialized as-is to durable storage.
type CartState struct {
	Items     []CartLineItem `json:"items"`
	Favorites []FavoriteItem `json:"favorites"`
}

// EmptyCartState returns the initial state with non-nil slices so the
// serialized form is always {"items":[],"favorites":[]}.
func EmptyCartState() CartState {
	return CartState{
		Items:     []CartLineItem{},
		Favorites: []FavoriteItem{},
	}
}

// TotalItems is the sum of quantities across all line items.
func (s CartState) TotalItems() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of price times quantity across all line items.
// No currency conversion, tax or shipping.
func (s CartState) TotalPrice() float64 {
	total := 0.0
	for _, item := range s.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// IsInFavorites reports whether an id is bookmarked.
func (s CartState) IsInFavorites(id string) bool {
	for _, item := range s.Favorites {
		if item.ID == id {
			return true
		}
	}
	return false
}

// ItemsInSection returns the line items belonging to one catalog section.
func (s CartState) ItemsInSection(section Section) []CartLineItem {
	section = NormalizeSection(section)
	items := make([]CartLineItem, 0, len(s.Items))
	for _, item := range s.Items {
		if NormalizeSection(item.Section) == section {
			items = append(items, item)
		}
	}
	return items
}

// ReadyBike is an order-to-ship catalog entry.
type ReadyBike struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Brand         string   `json:"brand"`
	OldPrice      float64  `json:"old_price"`
	NewPrice      *float64 `json:"new_price"`
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
	Images        []string `json:"images"`
	URL           string   `json:"url"`
}

// StockBike is an immediately-available catalog entry.
type StockBike struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Brand         string   `json:"brand"`
	OldPrice      float64  `json:"old_price"`
	NewPrice      *float64 `json:"new_price"`
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
	Images        []string `json:"images"`
	Description   string   `json:"description"`
	Stock         bool     `json:"stock"`
	Popular       bool     `json:"popular"`
	URL           string   `json:"url"`
	YouTubeLink   *string  `json:"youtube_link"`
}

// BikeVariant is a specific purchasable configuration of a stock bike,
// carrying its own price.
type BikeVariant struct {
	ID          int64    `db:"id" json:"id"`
	BikeID      int64    `db:"bike_id" json:"bike_id"`
	VariantName string   `db:"variant_name" json:"variant_name"`
	Price       float64  `db:"price" json:"price"`
	PriceSale   *float64 `db:"price_sale" json:"price_sale"`
	Stock       int      `db:"stock" json:"stock"`
}

// StockBikeWithVariants bundles a stock bike with its variants.
type StockBikeWithVariants struct {
	StockBike
	Variants []BikeVariant `json:"variants"`
}

// Paginated wraps one page of a catalog listing.
type Paginated[T any] struct {
	Bikes      []T `json:"bikes"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}
