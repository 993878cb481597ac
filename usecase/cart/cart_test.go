package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eventcart/backend/domain"
	"github.com/eventcart/backend/pkg/stream"
	"github.com/eventcart/backend/repository"
)

type memoryEventStore struct {
	streams map[string][]stream.RecordedEvent
}

func newMemoryEventStore() *memoryEventStore {
	return &memoryEventStore{streams: make(map[string][]stream.RecordedEvent)}
}

func (s *memoryEventStore) AppendToStream(ctx context.Context, streamID string, events []stream.EventData) error {
	recorded := s.streams[streamID]
	position := uint64(len(recorded))
	for _, event := range events {
		position++
		recorded = append(recorded, stream.RecordedEvent{
			StreamID:   streamID,
			Position:   position,
			Type:       event.Type,
			Data:       event.Data,
			RecordedAt: time.Now(),
		})
	}
	s.streams[streamID] = recorded
	return nil
}

func (s *memoryEventStore) ReadStream(ctx context.Context, streamID string) stream.Sequence {
	events := make([]stream.RecordedEvent, len(s.streams[streamID]))
	copy(events, s.streams[streamID])
	return stream.NewSliceSequence(events)
}

type memoryViews struct {
	views map[string]*repository.CartView
}

func newMemoryViews() *memoryViews {
	return &memoryViews{views: make(map[string]*repository.CartView)}
}

func (v *memoryViews) Get(ctx context.Context, cartID string) (*repository.CartView, error) {
	view, ok := v.views[cartID]
	if !ok {
		return nil, domain.ErrCartViewNotFound
	}
	return view, nil
}

func (v *memoryViews) Save(ctx context.Context, view *repository.CartView) error {
	v.views[view.CartID] = view
	return nil
}

func (v *memoryViews) Delete(ctx context.Context, cartID string) error {
	delete(v.views, cartID)
	return nil
}

type recordingRefresher struct {
	cartIDs []string
	err     error
}

func (r *recordingRefresher) RefreshCartView(ctx context.Context, cartID string) error {
	r.cartIDs = append(r.cartIDs, cartID)
	return r.err
}

func newUseCase() (*UseCase, *memoryEventStore, *memoryViews, *recordingRefresher) {
	store := newMemoryEventStore()
	views := newMemoryViews()
	refresher := &recordingRefresher{}
	return New(store, views, refresher, nil), store, views, refresher
}

func TestOpenCartGeneratesIdentity(t *testing.T) {
	uc, store, _, refresher := newUseCase()

	cart, err := uc.OpenCart(context.Background(), "client-123", "")
	require.NoError(t, err)
	require.NotEmpty(t, cart.ID)
	require.Equal(t, "client-123", cart.ClientID)
	require.Equal(t, domain.StatusOpened, cart.Status)

	events := store.streams[domain.ShoppingCartStreamID(cart.ID)]
	require.Len(t, events, 1)
	require.Equal(t, domain.EventTypeShoppingCartOpened, events[0].Type)
	require.Equal(t, []string{cart.ID}, refresher.cartIDs)
}

func TestOpenCartRequiresClient(t *testing.T) {
	uc, _, _, _ := newUseCase()
	_, err := uc.OpenCart(context.Background(), "", "cart-1")
	require.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestOpenCartTwiceConflicts(t *testing.T) {
	uc, _, _, _ := newUseCase()

	_, err := uc.OpenCart(context.Background(), "client-123", "cart-1")
	require.NoError(t, err)

	_, err = uc.OpenCart(context.Background(), "client-456", "cart-1")
	require.ErrorIs(t, err, domain.ErrOpenedExistingCart)
}

func TestAddProductItemMissingCart(t *testing.T) {
	uc, _, _, _ := newUseCase()
	_, err := uc.AddProductItem(context.Background(), "nope", domain.ProductItem{ProductID: "x", Quantity: 1})
	require.ErrorIs(t, err, stream.ErrStreamNotFound)
}

func TestAddProductItemValidatesInput(t *testing.T) {
	uc, _, _, _ := newUseCase()
	_, err := uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 0})
	require.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestAddProductItemMerges(t *testing.T) {
	uc, _, _, _ := newUseCase()

	_, err := uc.OpenCart(context.Background(), "client-123", "cart-1")
	require.NoError(t, err)

	_, err = uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 2})
	require.NoError(t, err)
	cart, err := uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, []domain.ProductItem{{ProductID: "x", Quantity: 5}}, cart.ProductItems)
}

func TestRemoveProductItemOverdraftAppendsNothing(t *testing.T) {
	uc, store, _, _ := newUseCase()

	_, err := uc.OpenCart(context.Background(), "client-123", "cart-1")
	require.NoError(t, err)
	_, err = uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 2})
	require.NoError(t, err)

	before := len(store.streams[domain.ShoppingCartStreamID("cart-1")])
	_, err = uc.RemoveProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 5})
	require.ErrorIs(t, err, domain.ErrProductItemNotFound)
	require.Len(t, store.streams[domain.ShoppingCartStreamID("cart-1")], before)
}

func TestRemoveProductItemDeletesExhaustedEntry(t *testing.T) {
	uc, _, _, _ := newUseCase()

	_, err := uc.OpenCart(context.Background(), "client-123", "cart-1")
	require.NoError(t, err)
	_, err = uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 2})
	require.NoError(t, err)

	cart, err := uc.RemoveProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 2})
	require.NoError(t, err)
	require.Empty(t, cart.ProductItems)
}

func TestConfirmCartClosesIt(t *testing.T) {
	uc, _, _, _ := newUseCase()

	_, err := uc.OpenCart(context.Background(), "client-123", "cart-1")
	require.NoError(t, err)
	_, err = uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 1})
	require.NoError(t, err)

	cart, err := uc.ConfirmCart(context.Background(), "cart-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, cart.Status)
	require.NotNil(t, cart.ConfirmedAt)

	_, err = uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "y", Quantity: 1})
	require.ErrorIs(t, err, domain.ErrCartClosed)

	_, err = uc.ConfirmCart(context.Background(), "cart-1")
	require.ErrorIs(t, err, domain.ErrCartClosed)
}

func TestGetCartReplaysStream(t *testing.T) {
	uc, _, _, _ := newUseCase()

	_, err := uc.OpenCart(context.Background(), "client-123", "cart-1")
	require.NoError(t, err)
	_, err = uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "air-jordan", Quantity: 1})
	require.NoError(t, err)
	_, err = uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "team-building-exercise-2023", Quantity: 3})
	require.NoError(t, err)
	_, err = uc.RemoveProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "air-jordan", Quantity: 1})
	require.NoError(t, err)
	_, err = uc.ConfirmCart(context.Background(), "cart-1")
	require.NoError(t, err)

	cart, err := uc.GetCart(context.Background(), "cart-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, cart.Status)
	require.NotNil(t, cart.ConfirmedAt)
	require.Equal(t, []domain.ProductItem{
		{ProductID: "team-building-exercise-2023", Quantity: 3},
	}, cart.ProductItems)
}

func TestGetCartMissingStream(t *testing.T) {
	uc, _, _, _ := newUseCase()
	_, err := uc.GetCart(context.Background(), "nope")
	require.ErrorIs(t, err, stream.ErrStreamNotFound)
}

func TestRefresherFailureDoesNotFailCommand(t *testing.T) {
	uc, _, _, refresher := newUseCase()
	refresher.err = errors.New("redis down")

	cart, err := uc.OpenCart(context.Background(), "client-123", "cart-1")
	require.NoError(t, err)
	require.Equal(t, "cart-1", cart.ID)
}

func TestGetCartViewFallsBackToReplay(t *testing.T) {
	uc, _, _, refresher := newUseCase()

	_, err := uc.OpenCart(context.Background(), "client-123", "cart-1")
	require.NoError(t, err)
	_, err = uc.AddProductItem(context.Background(), "cart-1", domain.ProductItem{ProductID: "x", Quantity: 4})
	require.NoError(t, err)

	refresher.cartIDs = nil
	view, err := uc.GetCartView(context.Background(), "cart-1")
	require.NoError(t, err)
	require.Equal(t, "cart-1", view.CartID)
	require.Equal(t, int64(4), view.TotalQuantity)
	require.Equal(t, []string{"cart-1"}, refresher.cartIDs)
}

func TestGetCartViewPrefersStoredView(t *testing.T) {
	uc, _, views, _ := newUseCase()

	stored := &repository.CartView{CartID: "cart-1", ClientID: "client-123", Status: "Opened"}
	require.NoError(t, views.Save(context.Background(), stored))

	view, err := uc.GetCartView(context.Background(), "cart-1")
	require.NoError(t, err)
	require.Equal(t, stored, view)
}
