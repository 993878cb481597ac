package domain

import (
	"encoding/json"
	"time"

	"github.com/eventcart/backend/pkg/stream"
)

// Event type discriminants for the shopping cart stream. Producers and
// consumers must agree on these strings; anything else reaching the
// projector fails with ErrUnknownEventType.
const (
	EventTypeShoppingCartOpened    = "ShoppingCartOpened"
	EventTypeProductItemAdded      = "ProductItemAddedToShoppingCart"
	EventTypeProductItemRemoved    = "ProductItemRemovedFromShoppingCart"
	EventTypeShoppingCartConfirmed = "ShoppingCartConfirmed"
)

// ShoppingCartOpened records that a client opened a new cart.
type ShoppingCartOpened struct {
	ShoppingCartID string    `json:"shoppingCartId"`
	ClientID       string    `json:"clientId"`
	OpenedAt       time.Time `json:"openedAt"`
}

// ProductItemAdded records a product item merged into the cart.
type ProductItemAdded struct {
	ShoppingCartID string      `json:"shoppingCartId"`
	ProductItem    ProductItem `json:"productItem"`
}

// ProductItemRemoved records a product item subtracted from the cart.
type ProductItemRemoved struct {
	ShoppingCartID string      `json:"shoppingCartId"`
	ProductItem    ProductItem `json:"productItem"`
}

// ShoppingCartConfirmed records the confirmation of the cart.
type ShoppingCartConfirmed struct {
	ShoppingCartID string    `json:"shoppingCartId"`
	ConfirmedAt    time.Time `json:"confirmedAt"`
}

// NewEventData serializes a typed event into the {type, data} shape the
// event store appends.
func NewEventData(eventType string, payload interface{}) (stream.EventData, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return stream.EventData{}, WrapError(ErrCodeInvalid, "marshal event payload", err)
	}
	return stream.EventData{Type: eventType, Data: data}, nil
}
