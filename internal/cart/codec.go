package cart

import (
	"encoding/json"

	"storefront-service/internal/models"
)

// DecodeOutcome tags how a persisted state blob was interpreted.
type DecodeOutcome string

const (
	DecodeOK      DecodeOutcome = "ok"      // well-formed state
	DecodeEmpty   DecodeOutcome = "empty"   // nothing stored yet
	DecodeCoerced DecodeOutcome = "coerced" // partially malformed, bad parts dropped
	DecodeCorrupt DecodeOutcome = "corrupt" // unusable, replaced with empty state
)

// rawState defers the items/favorites arrays so a malformed half does not
// poison the other.
type rawState struct {
	Items     json.RawMessage `json:"items"`
	Favorites json.RawMessage `json:"favorites"`
}

// EncodeState serializes the state for durable storage.
func EncodeState(state models.CartState) ([]byte, error) {
	return json.Marshal(state)
}

// DecodeState maps a persisted blob to a usable state. It never fails:
// missing, malformed, or wrong-shaped input degrades to the empty state,
// and every loaded line item gets its section back-filled.
func DecodeState(raw []byte) (models.CartState, DecodeOutcome) {
	if len(raw) == 0 {
		return models.EmptyCartState(), DecodeEmpty
	}

	var parsed rawState
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.EmptyCartState(), DecodeCorrupt
	}

	outcome := DecodeOK
	state := models.EmptyCartState()

	if len(parsed.Items) > 0 {
		var items []models.CartLineItem
		if err := json.Unmarshal(parsed.Items, &items); err != nil {
			outcome = DecodeCoerced
		} else if items != nil {
			state.Items = items
		}
	}

	if len(parsed.Favorites) > 0 {
		var favorites []models.FavoriteItem
		if err := json.Unmarshal(parsed.Favorites, &favorites); err != nil {
			outcome = DecodeCoerced
		} else if favorites != nil {
			state.Favorites = favorites
		}
	}

	return NormalizeState(state), outcome
}
