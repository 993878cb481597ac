package repository

import (
	"context"
	"time"

	"github.com/eventcart/backend/domain"
)

// CartView is the denormalized cart summary kept in the read model. It is a
// convenience projection only; authoritative reads always replay the stream.
type CartView struct {
	CartID        string               `json:"cart_id"`
	ClientID      string               `json:"client_id"`
	Status        string               `json:"status"`
	ProductItems  []domain.ProductItem `json:"product_items"`
	TotalQuantity int64                `json:"total_quantity"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewCartView projects a materialized cart into its summary shape.
func NewCartView(cart *domain.ShoppingCart) *CartView {
	if cart == nil {
		return nil
	}
	view := &CartView{
		CartID:       cart.ID,
		ClientID:     cart.ClientID,
		Status:       string(cart.Status),
		ProductItems: cart.ProductItems,
		UpdatedAt:    time.Now(),
	}
	for _, item := range cart.ProductItems {
		view.TotalQuantity += item.Quantity
	}
	return view
}

type CartViewRepository interface {
	Get(ctx context.Context, cartID string) (*CartView, error)
	Save(ctx context.Context, view *CartView) error
	Delete(ctx context.Context, cartID string) error
}
