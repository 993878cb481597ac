package domain

import (
	"encoding/json"
	"time"

	"github.com/eventcart/backend/pkg/stream"
)

// ShoppingCartStatus is the lifecycle state of a cart.
type ShoppingCartStatus string

const (
	StatusOpened    ShoppingCartStatus = "Opened"
	StatusConfirmed ShoppingCartStatus = "Confirmed"
	// StatusCancelled is part of the status vocabulary but no event produces
	// it yet; carts only move forward from Opened to Confirmed.
	StatusCancelled ShoppingCartStatus = "Cancelled"
)

// IsClosed reports whether the cart can no longer be modified by a client.
func (s ShoppingCartStatus) IsClosed() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// ProductItem is a quantity of one product. Quantity is always strictly
// positive; an item whose quantity would fall to zero is removed from the
// cart instead of being kept at zero.
type ProductItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// Valid reports whether the item can be added to or removed from a cart.
func (p ProductItem) Valid() bool {
	return p.ProductID != "" && p.Quantity > 0
}

// ShoppingCart is the aggregate materialized by folding a cart stream. It is
// never mutated in place: every applied event produces a fresh snapshot.
type ShoppingCart struct {
	ID           string             `json:"id"`
	ClientID     string             `json:"clientId"`
	Status       ShoppingCartStatus `json:"status"`
	ProductItems []ProductItem      `json:"productItems"`
	OpenedAt     time.Time          `json:"openedAt"`
	ConfirmedAt  *time.Time         `json:"confirmedAt,omitempty"`
}

// ShoppingCartStreamID derives the stream identity for a cart. The format is
// a wire contract: a mismatch silently targets the wrong stream.
func ShoppingCartStreamID(cartID string) string {
	return "shopping_cart-" + cartID
}

// When is the transition function folded over a cart stream. A nil current
// state means no event has been applied yet. Every failure is terminal for
// the fold; the aggregator propagates it to the caller unchanged.
func When(current *ShoppingCart, event stream.RecordedEvent) (*ShoppingCart, error) {
	switch event.Type {
	case EventTypeShoppingCartOpened:
		if current != nil {
			return nil, ErrOpenedExistingCart
		}
		var opened ShoppingCartOpened
		if err := json.Unmarshal(event.Data, &opened); err != nil {
			return nil, WrapError(ErrCodeInvalid, "unmarshal opened event", err)
		}
		return &ShoppingCart{
			ID:       opened.ShoppingCartID,
			ClientID: opened.ClientID,
			Status:   StatusOpened,
			OpenedAt: opened.OpenedAt,
		}, nil

	case EventTypeProductItemAdded:
		if current == nil {
			return nil, ErrCartNotFound
		}
		var added ProductItemAdded
		if err := json.Unmarshal(event.Data, &added); err != nil {
			return nil, WrapError(ErrCodeInvalid, "unmarshal added event", err)
		}
		next := current.clone()
		next.ProductItems = mergeProductItem(current.ProductItems, added.ProductItem)
		return next, nil

	case EventTypeProductItemRemoved:
		if current == nil {
			return nil, ErrCartNotFound
		}
		var removed ProductItemRemoved
		if err := json.Unmarshal(event.Data, &removed); err != nil {
			return nil, WrapError(ErrCodeInvalid, "unmarshal removed event", err)
		}
		items, err := removeProductItem(current.ProductItems, removed.ProductItem)
		if err != nil {
			return nil, err
		}
		next := current.clone()
		next.ProductItems = items
		return next, nil

	case EventTypeShoppingCartConfirmed:
		if current == nil {
			return nil, ErrCartNotFound
		}
		var confirmed ShoppingCartConfirmed
		if err := json.Unmarshal(event.Data, &confirmed); err != nil {
			return nil, WrapError(ErrCodeInvalid, "unmarshal confirmed event", err)
		}
		next := current.clone()
		next.Status = StatusConfirmed
		confirmedAt := confirmed.ConfirmedAt
		next.ConfirmedAt = &confirmedAt
		return next, nil

	default:
		return nil, ErrUnknownEventType
	}
}

// clone copies the cart with its own item slice so the previous snapshot
// stays untouched.
func (c *ShoppingCart) clone() *ShoppingCart {
	next := *c
	next.ProductItems = make([]ProductItem, len(c.ProductItems))
	copy(next.ProductItems, c.ProductItems)
	return &next
}

// mergeProductItem adds the item into the set keyed by product id. An
// existing entry keeps its position and has the quantity summed; a new entry
// is appended. The input slice is not modified.
func mergeProductItem(items []ProductItem, item ProductItem) []ProductItem {
	merged := make([]ProductItem, len(items))
	copy(merged, items)
	for i := range merged {
		if merged[i].ProductID == item.ProductID {
			merged[i].Quantity += item.Quantity
			return merged
		}
	}
	return append(merged, item)
}

// removeProductItem subtracts the item quantity from the set. Removing more
// than present, or removing an absent product, fails with
// ErrProductItemNotFound. Removing the exact remaining quantity deletes the
// entry. The input slice is not modified.
func removeProductItem(items []ProductItem, item ProductItem) ([]ProductItem, error) {
	for i := range items {
		if items[i].ProductID != item.ProductID {
			continue
		}
		if items[i].Quantity < item.Quantity {
			return nil, ErrProductItemNotFound
		}
		remaining := make([]ProductItem, len(items))
		copy(remaining, items)
		if newQty := remaining[i].Quantity - item.Quantity; newQty == 0 {
			remaining = append(remaining[:i], remaining[i+1:]...)
		} else {
			remaining[i].Quantity = newQty
		}
		return remaining, nil
	}
	return nil, ErrProductItemNotFound
}
