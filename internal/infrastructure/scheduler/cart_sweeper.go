package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidInterval is returned when the sweep interval is not positive
var ErrInvalidInterval = errors.New("sweep interval must be positive")

// ExpiredCartDeleter deletes carts that expired before a point in time
type ExpiredCartDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// CartSweeper periodically deletes abandoned carts.
// Stock is never held by a cart, so deleting one has no side effects.
type CartSweeper struct {
	carts    ExpiredCartDeleter
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewCartSweeper creates a sweeper that runs every interval
func NewCartSweeper(carts ExpiredCartDeleter, interval time.Duration, logger *zap.Logger) (*CartSweeper, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	return &CartSweeper{
		carts:    carts,
		interval: interval,
		logger:   logger.Named("cart_sweeper"),
		now:      time.Now,
	}, nil
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (s *CartSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Cart sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to finish
func (s *CartSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Cart sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CartSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes every cart that expired before now
func (s *CartSweeper) SweepOnce(ctx context.Context) (int64, error) {
	deleted, err := s.carts.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("Failed to delete expired carts", zap.Error(err))
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Deleted expired carts", zap.Int64("count", deleted))
	}
	return deleted, nil
}
