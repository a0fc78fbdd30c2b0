package cart

import (
	"testing"

	"storefront-service/internal/models"
	"storefront-service/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineItem(id string, price float64) models.CartLineItem {
	return models.CartLineItem{
		ID:       id,
		Name:     "Bike " + id,
		Price:    price,
		Category: "road",
	}
}

func TestAddToCartTwiceMergesQuantity(t *testing.T) {
	state := models.EmptyCartState()

	state, _, changed := Reduce(state, AddToCart{Item: lineItem("b1", 100)})
	require.True(t, changed)

	state, effect, changed := Reduce(state, AddToCart{Item: lineItem("b1", 100)})
	require.True(t, changed)

	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	require.NotNil(t, effect.Notify)
	assert.Equal(t, "Cart updated", effect.Notify.Title)
}

func TestAddToCartKeepsFirstWrittenFields(t *testing.T) {
	state := models.EmptyCartState()

	first := lineItem("b1", 100)
	state, _, _ = Reduce(state, AddToCart{Item: first})

	// Re-adding with a different price keeps the original entry.
	changed := lineItem("b1", 80)
	changed.Name = "Renamed"
	state, _, _ = Reduce(state, AddToCart{Item: changed})

	require.Len(t, state.Items, 1)
	assert.Equal(t, 100.0, state.Items[0].Price)
	assert.Equal(t, "Bike b1", state.Items[0].Name)
}

func TestAddToCartDefaultsSection(t *testing.T) {
	state, _, _ := Reduce(models.EmptyCartState(), AddToCart{Item: lineItem("b1", 100)})

	require.Len(t, state.Items, 1)
	assert.Equal(t, models.SectionInStock, state.Items[0].Section)
}

func TestRemoveFromCartUnknownIDIsNoop(t *testing.T) {
	state, _, _ := Reduce(models.EmptyCartState(), AddToCart{Item: lineItem("b1", 100)})

	next, effect, changed := Reduce(state, RemoveFromCart{ID: "missing"})

	assert.False(t, changed)
	assert.Equal(t, state, next)
	assert.Nil(t, effect.Notify)
}

func TestRemoveFromCartEmitsNotification(t *testing.T) {
	item := lineItem("b1", 100)
	item.VariantName = "Blue"
	state, _, _ := Reduce(models.EmptyCartState(), AddToCart{Item: item})

	next, effect, changed := Reduce(state, RemoveFromCart{ID: "b1"})

	assert.True(t, changed)
	assert.Empty(t, next.Items)
	require.NotNil(t, effect.Notify)
	assert.Equal(t, "Bike b1 (Blue)", effect.Notify.Description)
}

func TestUpdateQuantityZeroEqualsRemove(t *testing.T) {
	state, _, _ := Reduce(models.EmptyCartState(), AddToCart{Item: lineItem("b1", 100)})

	viaUpdate, effect, changed := Reduce(state, UpdateQuantity{ID: "b1", Quantity: 0})
	viaRemove, _, _ := Reduce(state, RemoveFromCart{ID: "b1"})

	assert.True(t, changed)
	assert.Equal(t, viaRemove, viaUpdate)
	assert.Nil(t, effect.Notify, "quantity updates carry no notification")
}

func TestUpdateQuantitySetsValue(t *testing.T) {
	state, _, _ := Reduce(models.EmptyCartState(), AddToCart{Item: lineItem("b1", 100)})

	state, effect, changed := Reduce(state, UpdateQuantity{ID: "b1", Quantity: 7})

	assert.True(t, changed)
	assert.Equal(t, 7, state.Items[0].Quantity)
	assert.Nil(t, effect.Notify)
}

func TestUpdateQuantityUnknownIDIsNoop(t *testing.T) {
	state, _, _ := Reduce(models.EmptyCartState(), AddToCart{Item: lineItem("b1", 100)})

	next, _, changed := Reduce(state, UpdateQuantity{ID: "missing", Quantity: 3})

	assert.False(t, changed)
	assert.Equal(t, state, next)
}

func TestClearCartNotifiesOnlyWhenNonEmpty(t *testing.T) {
	empty := models.EmptyCartState()

	_, effect, changed := Reduce(empty, ClearCart{})
	assert.False(t, changed)
	assert.Nil(t, effect.Notify)

	state, _, _ := Reduce(empty, AddToCart{Item: lineItem("b1", 100)})
	state, effect, changed = Reduce(state, ClearCart{})

	assert.True(t, changed)
	assert.Empty(t, state.Items)
	require.NotNil(t, effect.Notify)
}

func TestClearCartKeepsFavorites(t *testing.T) {
	state, _, _ := Reduce(models.EmptyCartState(), AddToFavorites{Item: models.FavoriteItem{ID: "f1", Name: "Fav"}})
	state, _, _ = Reduce(state, AddToCart{Item: lineItem("b1", 100)})

	state, _, _ = Reduce(state, ClearCart{})

	assert.Empty(t, state.Items)
	assert.Len(t, state.Favorites, 1)
}

func TestAddToFavoritesTwiceIsNoop(t *testing.T) {
	fav := models.FavoriteItem{ID: "f1", Name: "Fav"}

	state, _, _ := Reduce(models.EmptyCartState(), AddToFavorites{Item: fav})
	next, effect, changed := Reduce(state, AddToFavorites{Item: fav})

	assert.False(t, changed)
	assert.Len(t, next.Favorites, 1)
	require.NotNil(t, effect.Notify)
	assert.Equal(t, "Already saved", effect.Notify.Title)
}

func TestRemoveFromFavorites(t *testing.T) {
	fav := models.FavoriteItem{ID: "f1", Name: "Fav"}
	state, _, _ := Reduce(models.EmptyCartState(), AddToFavorites{Item: fav})

	state, effect, changed := Reduce(state, RemoveFromFavorites{ID: "f1"})
	assert.True(t, changed)
	assert.Empty(t, state.Favorites)
	require.NotNil(t, effect.Notify)

	_, effect, changed = Reduce(state, RemoveFromFavorites{ID: "f1"})
	assert.False(t, changed)
	assert.Nil(t, effect.Notify)
}

func TestDerivedTotals(t *testing.T) {
	state := models.EmptyCartState()
	state, _, _ = Reduce(state, AddToCart{Item: lineItem("b1", 100)})
	state, _, _ = Reduce(state, AddToCart{Item: lineItem("b1", 100)})
	state, _, _ = Reduce(state, AddToCart{Item: lineItem("b2", 50)})

	assert.Equal(t, 3, state.TotalItems())
	assert.Equal(t, 250.0, state.TotalPrice())
	assert.False(t, state.IsInFavorites("f1"))
}

func TestMixedSectionScenario(t *testing.T) {
	v1 := lineItem("v1", 1000)
	v1.Section = models.SectionInStock
	v2 := lineItem("v2", 500)
	v2.Section = models.SectionReadyToOrder

	state := models.EmptyCartState()
	state, _, _ = Reduce(state, AddToCart{Item: v1})
	state, _, _ = Reduce(state, AddToCart{Item: v2})

	require.Len(t, state.Items, 2)
	assert.Equal(t, 1500.0, state.TotalPrice())

	eligible := state.ItemsInSection(models.SectionInStock)
	require.Len(t, eligible, 1)
	assert.Equal(t, "v1", eligible[0].ID)
}

func TestLoadStateBackfillsSections(t *testing.T) {
	loaded := models.CartState{
		Items: []models.CartLineItem{
			{ID: "b1", Quantity: 2},
			{ID: "b2", Quantity: 1, Section: models.SectionReadyToOrder},
		},
	}

	state, _, _ := Reduce(models.EmptyCartState(), LoadState{State: loaded})

	require.Len(t, state.Items, 2)
	assert.Equal(t, models.SectionInStock, state.Items[0].Section)
	assert.Equal(t, models.SectionReadyToOrder, state.Items[1].Section)
	require.NotNil(t, state.Favorites)
	assert.Empty(t, state.Favorites)
}

func TestReducerEffectsUseNotifyVariants(t *testing.T) {
	_, effect, _ := Reduce(models.EmptyCartState(), AddToCart{Item: lineItem("b1", 100)})
	require.NotNil(t, effect.Notify)
	assert.Equal(t, notify.VariantSuccess, effect.Notify.Variant)
}
