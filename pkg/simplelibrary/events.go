package simplelibrary

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// BookCreated does nothing and returns nil
func (n *NoopEventSink) BookCreated(ctx context.Context, book *Book) error {
	return nil
}

// BookUpdated does nothing and returns nil
func (n *NoopEventSink) BookUpdated(ctx context.Context, book *Book) error {
	return nil
}

// BookDeleted does nothing and returns nil
func (n *NoopEventSink) BookDeleted(ctx context.Context, bookID uuid.UUID) error {
	return nil
}

// AssetOrphaned does nothing and returns nil
func (n *NoopEventSink) AssetOrphaned(ctx context.Context, orphan OrphanedAsset) error {
	return nil
}

// LogEventSink writes lifecycle events to a slog.Logger. Orphaned assets are
// logged at Error so they stand out to whatever sweeps them up later.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink backed by the given logger. A nil
// logger falls back to slog.Default.
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (l *LogEventSink) BookCreated(ctx context.Context, book *Book) error {
	l.logger.InfoContext(ctx, "book created", "book_id", book.ID, "author_id", book.AuthorID)
	return nil
}

func (l *LogEventSink) BookUpdated(ctx context.Context, book *Book) error {
	l.logger.InfoContext(ctx, "book updated", "book_id", book.ID)
	return nil
}

func (l *LogEventSink) BookDeleted(ctx context.Context, bookID uuid.UUID) error {
	l.logger.InfoContext(ctx, "book deleted", "book_id", bookID)
	return nil
}

func (l *LogEventSink) AssetOrphaned(ctx context.Context, orphan OrphanedAsset) error {
	l.logger.ErrorContext(ctx, "remote asset orphaned",
		"locator", orphan.Locator,
		"category", orphan.Category,
		"op", orphan.Op,
		"error", orphan.Err,
	)
	return nil
}
