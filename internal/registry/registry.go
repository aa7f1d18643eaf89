// Package registry defines the subscription registry interface and its implementations.
package registry

import (
	"context"
	"time"

	"carouspot/internal/model"
)

// Registry is the interface for all persistence operations on tracked
// keywords and subscribers.
type Registry interface {
	// EnsureSubscriber creates the subscriber record if absent and marks it
	// active. Re-running it for an existing subscriber reactivates it.
	EnsureSubscriber(ctx context.Context, chatID int64) error
	// Deactivate marks a subscriber inactive. Idempotent; called when
	// delivery has been permanently rejected.
	Deactivate(ctx context.Context, chatID int64) error

	// Subscribe adds the chat to the keyword's subscriber set, creating the
	// tracking record seeded with seedCursor when the keyword is not yet
	// tracked. The seed is ignored for an already-tracked keyword.
	Subscribe(ctx context.Context, chatID int64, keyword string, seedCursor int64) error
	// Unsubscribe removes the chat from the keyword's subscriber set only.
	// Reports whether a subscription was actually removed.
	Unsubscribe(ctx context.Context, chatID int64, keyword string) (bool, error)

	GetKeyword(ctx context.Context, keyword string) (*model.Keyword, error)
	ListKeywords(ctx context.Context) ([]model.Keyword, error)
	ListSubscriptions(ctx context.Context, chatID int64) ([]model.Keyword, error)

	// AdvanceCursor moves the keyword's cursor forward and records the check
	// time. The cursor never moves backwards, whatever value is passed.
	AdvanceCursor(ctx context.Context, keyword string, cursor int64, checkedAt time.Time) error
	// TouchChecked records the check time without moving the cursor.
	TouchChecked(ctx context.Context, keyword string, checkedAt time.Time) error

	// ActiveSubscribers returns the chat ids subscribed to the keyword whose
	// subscriber record is still active.
	ActiveSubscribers(ctx context.Context, keyword string) ([]int64, error)

	Close() error
}
