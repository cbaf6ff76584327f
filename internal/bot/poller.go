package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/snowpost/snowpost/internal/telegram"
)

// UpdateSource is the slice of the transport client the poller reads from.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error)
}

// Poller long-polls the transport for updates and feeds the dispatcher.
type Poller struct {
	source      UpdateSource
	dispatcher  *Dispatcher
	pollTimeout int           // server-side hold time in seconds
	retryDelay  time.Duration // backoff after a failed poll
}

// NewPoller creates a poller with the given poll timeout in seconds.
func NewPoller(source UpdateSource, dispatcher *Dispatcher, pollTimeout int) *Poller {
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Poller{
		source:      source,
		dispatcher:  dispatcher,
		pollTimeout: pollTimeout,
		retryDelay:  3 * time.Second,
	}
}

// Run polls until the context is cancelled, then closes the dispatcher and
// waits for in-flight events to finish. Poll failures are logged and retried
// after a short delay; the loop itself never dies on a transport error.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("poller starting", "timeout", p.pollTimeout)
	defer p.dispatcher.Close()

	var offset int64
	for {
		updates, err := p.source.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				slog.Info("poller stopping: context cancelled")
				return ctx.Err()
			}
			slog.Warn("poll failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				slog.Info("poller stopping: context cancelled")
				return ctx.Err()
			case <-time.After(p.retryDelay):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			p.dispatcher.Dispatch(ctx, upd)
		}
	}
}
