package usecase

import "context"

// ViewRefresher abstracts the read-model refresh pipeline so use cases stay
// storage-agnostic. Implementations rebuild the cart view from its stream,
// buffering the request when the view store is unreachable.
type ViewRefresher interface {
	RefreshCartView(ctx context.Context, cartID string) error
}
