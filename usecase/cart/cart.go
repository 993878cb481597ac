package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventcart/backend/domain"
	"github.com/eventcart/backend/pkg/stream"
	"github.com/eventcart/backend/repository"
	"github.com/eventcart/backend/usecase"
)

// UseCase exposes the shopping cart commands and queries. Commands never
// mutate state directly: each one replays the stream, validates the next
// event through the same transition rule the replay uses, and appends it.
type UseCase struct {
	store   repository.EventStore
	views   repository.CartViewRepository
	refresh usecase.ViewRefresher
	logger  *zap.Logger
}

func New(store repository.EventStore, views repository.CartViewRepository, refresh usecase.ViewRefresher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		store:   store,
		views:   views,
		refresh: refresh,
		logger:  logger,
	}
}

// OpenCart starts a new cart for the client. When cartID is empty a new
// identity is generated. Opening an existing cart fails with
// ErrOpenedExistingCart.
func (uc *UseCase) OpenCart(ctx context.Context, clientID, cartID string) (*domain.ShoppingCart, error) {
	if clientID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if cartID == "" {
		cartID = uuid.NewString()
	}

	_, err := uc.materialize(ctx, cartID)
	if err == nil {
		return nil, domain.ErrOpenedExistingCart
	}
	if !errors.Is(err, stream.ErrStreamNotFound) {
		return nil, err
	}

	opened := domain.ShoppingCartOpened{
		ShoppingCartID: cartID,
		ClientID:       clientID,
		OpenedAt:       time.Now().UTC(),
	}
	event, err := domain.NewEventData(domain.EventTypeShoppingCartOpened, opened)
	if err != nil {
		return nil, err
	}

	cart, err := uc.append(ctx, cartID, nil, event)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("shopping cart opened",
		zap.String("cart_id", cartID),
		zap.String("client_id", clientID))
	return cart, nil
}

// AddProductItem merges the product item into the cart.
func (uc *UseCase) AddProductItem(ctx context.Context, cartID string, item domain.ProductItem) (*domain.ShoppingCart, error) {
	if !item.Valid() {
		return nil, domain.ErrInvalidPayload
	}

	current, err := uc.materialize(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsClosed() {
		return nil, domain.ErrCartClosed
	}

	added := domain.ProductItemAdded{ShoppingCartID: cartID, ProductItem: item}
	event, err := domain.NewEventData(domain.EventTypeProductItemAdded, added)
	if err != nil {
		return nil, err
	}
	return uc.append(ctx, cartID, current, event)
}

// RemoveProductItem subtracts the product item from the cart. Removing an
// absent product or more than present fails with ErrProductItemNotFound.
func (uc *UseCase) RemoveProductItem(ctx context.Context, cartID string, item domain.ProductItem) (*domain.ShoppingCart, error) {
	if !item.Valid() {
		return nil, domain.ErrInvalidPayload
	}

	current, err := uc.materialize(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsClosed() {
		return nil, domain.ErrCartClosed
	}

	removed := domain.ProductItemRemoved{ShoppingCartID: cartID, ProductItem: item}
	event, err := domain.NewEventData(domain.EventTypeProductItemRemoved, removed)
	if err != nil {
		return nil, err
	}
	return uc.append(ctx, cartID, current, event)
}

// ConfirmCart confirms the cart, closing it to further client commands.
func (uc *UseCase) ConfirmCart(ctx context.Context, cartID string) (*domain.ShoppingCart, error) {
	current, err := uc.materialize(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsClosed() {
		return nil, domain.ErrCartClosed
	}

	confirmed := domain.ShoppingCartConfirmed{
		ShoppingCartID: cartID,
		ConfirmedAt:    time.Now().UTC(),
	}
	event, err := domain.NewEventData(domain.EventTypeShoppingCartConfirmed, confirmed)
	if err != nil {
		return nil, err
	}
	return uc.append(ctx, cartID, current, event)
}

// GetCart materializes the cart by replaying its stream.
func (uc *UseCase) GetCart(ctx context.Context, cartID string) (*domain.ShoppingCart, error) {
	return uc.materialize(ctx, cartID)
}

// GetCartView returns the denormalized summary from the read model, falling
// back to a fresh replay when the view is missing.
func (uc *UseCase) GetCartView(ctx context.Context, cartID string) (*repository.CartView, error) {
	view, err := uc.views.Get(ctx, cartID)
	if err == nil {
		return view, nil
	}
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, err
	}

	cart, err := uc.materialize(ctx, cartID)
	if err != nil {
		return nil, err
	}
	uc.refreshView(ctx, cartID)
	return repository.NewCartView(cart), nil
}

// materialize folds the cart stream into its current snapshot.
func (uc *UseCase) materialize(ctx context.Context, cartID string) (*domain.ShoppingCart, error) {
	seq := uc.store.ReadStream(ctx, domain.ShoppingCartStreamID(cartID))
	return stream.Aggregate(ctx, seq, domain.When)
}

// append validates the candidate event against the current snapshot using
// the transition rule, appends it, and schedules a view refresh. The
// validation guarantees a command can only append events a future replay
// will accept.
func (uc *UseCase) append(ctx context.Context, cartID string, current *domain.ShoppingCart, event stream.EventData) (*domain.ShoppingCart, error) {
	next, err := domain.When(current, stream.RecordedEvent{Type: event.Type, Data: event.Data})
	if err != nil {
		return nil, err
	}

	if err := uc.store.AppendToStream(ctx, domain.ShoppingCartStreamID(cartID), []stream.EventData{event}); err != nil {
		return nil, err
	}

	uc.refreshView(ctx, cartID)
	return next, nil
}

// refreshView is best-effort: a failed refresh never fails the command.
func (uc *UseCase) refreshView(ctx context.Context, cartID string) {
	if uc.refresh == nil {
		return
	}
	if err := uc.refresh.RefreshCartView(ctx, cartID); err != nil {
		uc.logger.Warn("cart view refresh failed", zap.String("cart_id", cartID), zap.Error(err))
	}
}
