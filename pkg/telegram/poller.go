package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Handler processes one update.
type Handler func(ctx context.Context, u Update)

// Dispatcher runs handlers with one worker per user: a user's updates are handled strictly
// in arrival order while different users proceed concurrently.
type Dispatcher struct {
	ctx     context.Context
	group   *errgroup.Group
	handler Handler
	logger  zerolog.Logger

	mu      sync.Mutex
	pending map[int64][]Update
}

// NewDispatcher creates a dispatcher whose workers stop when ctx is done.
func NewDispatcher(ctx context.Context, handler Handler, logger zerolog.Logger) (d *Dispatcher) {
	group, gctx := errgroup.WithContext(ctx)
	d = &Dispatcher{
		ctx:     gctx,
		group:   group,
		handler: handler,
		logger:  logger,
		pending: make(map[int64][]Update),
	}
	return d
}

// Dispatch queues an update behind the same user's earlier updates.
func (d *Dispatcher) Dispatch(u Update) {
	userID := u.UserID()

	d.mu.Lock()
	queue, running := d.pending[userID]
	d.pending[userID] = append(queue, u)
	d.mu.Unlock()

	if running {
		return
	}

	d.group.Go(func() (err error) {
		d.drain(userID)
		return err
	})
}

// Wait blocks until every queued update has been handled.
func (d *Dispatcher) Wait() (err error) {
	err = d.group.Wait()
	return err
}

// Pending reports how many users have queued or running work.
func (d *Dispatcher) Pending() (n int) {
	d.mu.Lock()
	n = len(d.pending)
	d.mu.Unlock()
	return n
}

// drain handles the user's queue until it is empty. The map entry exists while a worker runs.
func (d *Dispatcher) drain(userID int64) {
	for {
		d.mu.Lock()
		queue := d.pending[userID]
		if len(queue) == 0 {
			delete(d.pending, userID)
			d.mu.Unlock()
			return
		}
		u := queue[0]
		d.pending[userID] = queue[1:]
		d.mu.Unlock()

		d.handle(u)
	}
}

func (d *Dispatcher) handle(u Update) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Int64("update_id", u.UpdateID).Msg("handler panicked")
		}
	}()
	d.handler(d.ctx, u)
}

// Poller long-polls getUpdates and feeds a Dispatcher.
type Poller struct {
	client  *Client
	timeout time.Duration
	backoff time.Duration
	logger  zerolog.Logger
}

// NewPoller creates a poller with the given long-poll timeout.
func NewPoller(client *Client, timeout time.Duration, logger zerolog.Logger) (p *Poller) {
	p = &Poller{
		client:  client,
		timeout: timeout,
		backoff: 3 * time.Second,
		logger:  logger,
	}
	return p
}

// Run polls until ctx is done, then waits for in-flight handlers.
func (p *Poller) Run(ctx context.Context, handler Handler) (err error) {
	d := NewDispatcher(ctx, handler, p.logger)

	var offset int64
	for ctx.Err() == nil {
		var updates []Update
		updates, err = p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			wait := p.backoff
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = time.Duration(apiErr.RetryAfter) * time.Second
			}
			p.logger.Warn().Err(err).Dur("retry_in", wait).Msg("getUpdates failed")

			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			d.Dispatch(u)
		}
	}

	p.logger.Info().Int("busy_users", d.Pending()).Msg("polling stopped, waiting for handlers")
	err = d.Wait()
	return err
}
