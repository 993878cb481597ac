package services

import (
	"context"

	"github.com/eventcart/backend/domain"
	"github.com/eventcart/backend/internal/infrastructure/buffer"
	"github.com/eventcart/backend/usecase"
)

// ViewBridge adapts the refresher to the use-case port.
type ViewBridge struct {
	refresher *ViewRefresher
}

func NewViewBridge(refresher *ViewRefresher) *ViewBridge {
	return &ViewBridge{refresher: refresher}
}

func (b *ViewBridge) RefreshCartView(ctx context.Context, cartID string) error {
	if b.refresher == nil || cartID == "" {
		return domain.ErrInvalidPayload
	}
	item := buffer.Item{
		CartID:   cartID,
		Priority: 3,
	}
	return b.refresher.RefreshOperation(ctx, item)
}

var _ usecase.ViewRefresher = (*ViewBridge)(nil)
