package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/logging"
	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Poller turns getUpdates long polling into a stream of domain messages.
type Poller struct {
	client  *Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.UpdateSource = (*Poller)(nil)

// NewPoller wires the client; timeout is the long-poll wait per request.
func NewPoller(client *Client, timeout time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Poller{client: client, timeout: timeout, logger: logger}
}

// Run polls until ctx is done. Errors are logged and retried with backoff.
func (p *Poller) Run(ctx context.Context, handle func(context.Context, domain.Incoming)) error {
	var offset int64
	backoff := minBackoff

	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("get updates failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil {
				continue
			}
			handle(ctx, update.Message.toIncoming())
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}
