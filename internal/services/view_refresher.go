package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/eventcart/backend/domain"
	"github.com/eventcart/backend/internal/infrastructure/buffer"
	"github.com/eventcart/backend/pkg/stream"
	"github.com/eventcart/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// RefresherConfig controls how frequently the pending queue is drained.
type RefresherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// ViewRefresher keeps the Redis cart views in sync with the event streams.
// Each refresh re-materializes the cart by replay and rewrites the summary;
// refreshes that cannot run are queued in the pending buffer and drained on
// a schedule once the stores are reachable again.
type ViewRefresher struct {
	store   *buffer.Store
	monitor ConnectionHealth
	events  repository.EventStore
	views   repository.CartViewRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     RefresherConfig
}

func NewViewRefresher(
	store *buffer.Store,
	monitor ConnectionHealth,
	events repository.EventStore,
	views repository.CartViewRepository,
	logger *zap.Logger,
	cfg RefresherConfig,
) *ViewRefresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	vr := &ViewRefresher{
		store:   store,
		monitor: monitor,
		events:  events,
		views:   views,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = vr.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := vr.Drain(ctx); err != nil {
			vr.logger.Error("pending view drain failed", zap.Error(err))
		}
	})

	return vr
}

// Start launches the cron scheduler.
func (vr *ViewRefresher) Start() {
	if vr == nil || vr.cron == nil {
		return
	}
	vr.cron.Start()
	vr.logger.Info("view refresher started")
}

// Stop gracefully stops the scheduler.
func (vr *ViewRefresher) Stop(ctx context.Context) {
	if vr == nil || vr.cron == nil {
		return
	}
	stopCtx := vr.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	vr.logger.Info("view refresher stopped")
}

// Drain processes pending refreshes synchronously.
func (vr *ViewRefresher) Drain(ctx context.Context) error {
	if vr == nil || vr.store == nil {
		return nil
	}
	if vr.monitor != nil && !vr.monitor.IsOnline() {
		vr.logger.Debug("skipping view drain (offline)")
		return nil
	}

	items, err := vr.store.GetBatch(vr.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := vr.processItem(ctx, item); err != nil {
			vr.logger.Error("failed to refresh cart view",
				zap.String("item_id", item.ID),
				zap.String("cart_id", item.CartID),
				zap.Error(err))

			item.Retries++
			if item.Retries >= vr.cfg.MaxRetries {
				vr.logger.Warn("dropping pending refresh (max retries reached)", zap.String("cart_id", item.CartID))
				_ = vr.store.Remove(item)
				continue
			}

			if err := vr.store.Remove(item); err != nil {
				vr.logger.Warn("failed to remove pending refresh", zap.Error(err))
			}
			if err := vr.store.Requeue(item); err != nil {
				vr.logger.Error("failed to requeue pending refresh", zap.Error(err))
			}
			continue
		}

		if err := vr.store.Remove(item); err != nil {
			vr.logger.Warn("failed to purge processed refresh", zap.Error(err))
		}
	}
	return nil
}

// RefreshOperation attempts the refresh immediately and falls back to
// persisting it in the pending queue.
func (vr *ViewRefresher) RefreshOperation(ctx context.Context, item buffer.Item) error {
	if vr == nil || vr.store == nil {
		return fmt.Errorf("view refresher not configured")
	}

	if vr.monitor == nil || vr.monitor.IsOnline() {
		if err := vr.processItem(ctx, item); err == nil {
			return nil
		} else {
			vr.logger.Warn("immediate view refresh failed, buffering", zap.Error(err))
		}
	}
	return vr.store.Enqueue(item)
}

// Size returns the number of pending refreshes.
func (vr *ViewRefresher) Size() int {
	if vr == nil || vr.store == nil {
		return 0
	}
	size, err := vr.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (vr *ViewRefresher) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if item.CartID == "" {
		return domain.ErrInvalidPayload
	}

	seq := vr.events.ReadStream(ctx, domain.ShoppingCartStreamID(item.CartID))
	cart, err := stream.Aggregate(ctx, seq, domain.When)
	if err != nil {
		// A vanished stream means there is nothing left to summarize.
		if errors.Is(err, stream.ErrStreamNotFound) {
			return vr.views.Delete(ctx, item.CartID)
		}
		return err
	}

	return vr.views.Save(ctx, repository.NewCartView(cart))
}
