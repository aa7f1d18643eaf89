package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Transport delivers one rendered message to one subscriber. A permanent
// rejection (the subscriber blocked the bot or revoked access) is reported
// as a *PermanentError; any other error is treated as transient.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Deactivator is the registry operation the dispatcher needs when a
// subscriber permanently rejects delivery.
type Deactivator interface {
	Deactivate(ctx context.Context, chatID int64) error
}

// PermanentError marks a delivery failure that will never succeed for this
// subscriber again.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "permanent delivery rejection: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is (or wraps) a permanent rejection.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Report summarizes one Deliver call.
type Report struct {
	// Delivered counts subscribers that received every chunk.
	Delivered int
	// Transient counts individual messages that failed transiently.
	Transient int
	// Deactivated lists subscribers that permanently rejected delivery.
	Deactivated []int64
}

// Dispatcher fans rendered messages out to subscribers.
type Dispatcher struct {
	transport Transport
	registry  Deactivator
	log       *slog.Logger
	pause     time.Duration
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(transport Transport, registry Deactivator, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		registry:  registry,
		log:       log,
		// Rate limit: ~20 messages/sec max for Telegram
		pause: 50 * time.Millisecond,
	}
}

// SetPause overrides the inter-message pause (useful for testing).
func (d *Dispatcher) SetPause(p time.Duration) {
	d.pause = p
}

// Deliver sends all chunks, in order, to each subscriber. Failures are
// isolated per subscriber: a permanent rejection deactivates that subscriber
// and stops its remaining chunks, a transient failure is logged and skipped.
// Nothing is retried within a cycle.
func (d *Dispatcher) Deliver(ctx context.Context, chatIDs []int64, chunks []string) Report {
	var rep Report
	for _, chatID := range chatIDs {
		if ctx.Err() != nil {
			return rep
		}

		complete := true
		for _, chunk := range chunks {
			err := d.transport.Send(ctx, chatID, chunk)
			if err == nil {
				time.Sleep(d.pause)
				continue
			}

			complete = false
			if IsPermanent(err) {
				d.log.Warn("subscriber rejected delivery, deactivating", "chat_id", chatID, "error", err)
				if derr := d.registry.Deactivate(ctx, chatID); derr != nil {
					d.log.Error("deactivate subscriber", "chat_id", chatID, "error", derr)
				}
				rep.Deactivated = append(rep.Deactivated, chatID)
				break
			}

			d.log.Error("send notification", "chat_id", chatID, "error", err)
			rep.Transient++
		}

		if complete {
			rep.Delivered++
		}
	}
	return rep
}
