package cart

import (
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/notify"
)

// Effect describes the side work a transition asks for. The reducer
// itself never performs I/O.
type Effect struct {
	Notify *notify.Message
}

// Reduce applies one intent to the state and returns the next state, the
// requested effect, and whether the state changed. Input slices are never
// mutated.
func Reduce(state models.CartState, intent Intent) (models.CartState, Effect, bool) {
	switch in := intent.(type) {
	case AddToCart:
		return addToCart(state, in.Item)
	case RemoveFromCart:
		return removeFromCart(state, in.ID)
	case UpdateQuantity:
		return updateQuantity(state, in.ID, in.Quantity)
	case ClearCart:
		return clearCart(state)
	case AddToFavorites:
		return addToFavorites(state, in.Item)
	case RemoveFromFavorites:
		return removeFromFavorites(state, in.ID)
	case LoadState:
		return NormalizeState(in.State), Effect{}, true
	}
	return state, Effect{}, false
}

func addToCart(state models.CartState, item models.CartLineItem) (models.CartState, Effect, bool) {
	for i, existing := range state.Items {
		if existing.ID != item.ID {
			continue
		}

		items := make([]models.CartLineItem, len(state.Items))
		copy(items, state.Items)
		items[i].Quantity++

		next := state
		next.Items = items
		return next, Effect{Notify: &notify.Message{
			Title:       "Cart updated",
			Description: fmt.Sprintf("%s is now in your cart %d times", existing.DisplayName(), items[i].Quantity),
			Variant:     notify.VariantSuccess,
		}}, true
	}

	item.Quantity = 1
	item.Section = models.NormalizeSection(item.Section)

	next := state
	next.Items = append(append([]models.CartLineItem{}, state.Items...), item)
	return next, Effect{Notify: &notify.Message{
		Title:       "Added to cart",
		Description: item.DisplayName(),
		Variant:     notify.VariantSuccess,
	}}, true
}

func removeFromCart(state models.CartState, id string) (models.CartState, Effect, bool) {
	idx := -1
	for i, item := range state.Items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return state, Effect{}, false
	}

	removed := state.Items[idx]
	items := make([]models.CartLineItem, 0, len(state.Items)-1)
	items = append(items, state.Items[:idx]...)
	items = append(items, state.Items[idx+1:]...)

	next := state
	next.Items = items
	return next, Effect{Notify: &notify.Message{
		Title:       "Removed from cart",
		Description: removed.DisplayName(),
	}}, true
}

func updateQuantity(state models.CartState, id string, quantity int) (models.CartState, Effect, bool) {
	if quantity <= 0 {
		next, _, changed := removeFromCart(state, id)
		// Pure quantity updates carry no notification, removal included.
		return next, Effect{}, changed
	}

	for i, item := range state.Items {
		if item.ID != id {
			continue
		}

		items := make([]models.CartLineItem, len(state.Items))
		copy(items, state.Items)
		items[i].Quantity = quantity

		next := state
		next.Items = items
		return next, Effect{}, true
	}

	return state, Effect{}, false
}

func clearCart(state models.CartState) (models.CartState, Effect, bool) {
	if len(state.Items) == 0 {
		return state, Effect{}, false
	}

	next := state
	next.Items = []models.CartLineItem{}
	return next, Effect{Notify: &notify.Message{
		Title: "Cart cleared",
	}}, true
}

func addToFavorites(state models.CartState, item models.FavoriteItem) (models.CartState, Effect, bool) {
	for _, existing := range state.Favorites {
		if existing.ID == item.ID {
			return state, Effect{Notify: &notify.Message{
				Title:       "Already saved",
				Description: item.Name,
			}}, false
		}
	}

	next := state
	next.Favorites = append(append([]models.FavoriteItem{}, state.Favorites...), item)
	return next, Effect{Notify: &notify.Message{
		Title:       "Saved to favorites",
		Description: item.Name,
		Variant:     notify.VariantSuccess,
	}}, true
}

func removeFromFavorites(state models.CartState, id string) (models.CartState, Effect, bool) {
	idx := -1
	for i, item := range state.Favorites {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return state, Effect{}, false
	}

	removed := state.Favorites[idx]
	favorites := make([]models.FavoriteItem, 0, len(state.Favorites)-1)
	favorites = append(favorites, state.Favorites[:idx]...)
	favorites = append(favorites, state.Favorites[idx+1:]...)

	next := state
	next.Favorites = favorites
	return next, Effect{Notify: &notify.Message{
		Title:       "Removed from favorites",
		Description: removed.Name,
	}}, true
}

// NormalizeState coerces nil slices to empty ones and back-fills section
// defaults on every line item.
func NormalizeState(state models.CartState) models.CartState {
	items := make([]models.CartLineItem, len(state.Items))
	for i, item := range state.Items {
		item.Section = models.NormalizeSection(item.Section)
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items[i] = item
	}

	favorites := make([]models.FavoriteItem, len(state.Favorites))
	copy(favorites, state.Favorites)

	return models.CartState{Items: items, Favorites: favorites}
}
