package cart

import "storefront-service/internal/models"

// Intent is the closed set of cart state transitions. The reducer is
// total over this set.
type Intent interface {
	// Name labels the intent for logs and metrics.
	Name() string
}

// AddToCart merges an item into the cart. An existing line item with the
// same id has its quantity incremented; descriptive fields keep their
// first-written values.
type AddToCart struct {
	Item models.CartLineItem
}

// RemoveFromCart deletes a line item by id. Unknown ids are a no-op.
type RemoveFromCart struct {
	ID string
}

// UpdateQuantity sets a line item's quantity. A quantity of zero or less
// removes the line.
type UpdateQuantity struct {
	ID       string
	Quantity int
}

// ClearCart empties the cart's items. Favorites are untouched.
type ClearCart struct{}

// AddToFavorites bookmarks an item. Duplicate ids leave state unchanged.
type AddToFavorites struct {
	Item models.FavoriteItem
}

// RemoveFromFavorites deletes a favorite by id.
type RemoveFromFavorites struct {
	ID string
}

// LoadState replaces the whole state with a rehydrated value.
type LoadState struct {
	State models.CartState
}

func (AddToCart) Name() string           { return "add_to_cart" }
func (RemoveFromCart) Name() string      { return "remove_from_cart" }
func (UpdateQuantity) Name() string      { return "update_quantity" }
func (ClearCart) Name() string           { return "clear_cart" }
func (AddToFavorites) Name() string      { return "add_to_favorites" }
func (RemoveFromFavorites) Name() string { return "remove_from_favorites" }
func (LoadState) Name() string           { return "load_state" }
