package sink

import (
	"buddychat/domain"
	"buddychat/domain/event"
	"context"
	"log/slog"
)

// MessageIndexer is the write side of the search index.
type MessageIndexer interface {
	IndexMessage(ctx context.Context, message domain.Message) error
}

// SearchSink indexes every message that reached both feeds.
type SearchSink struct {
	indexer MessageIndexer
	log     *slog.Logger
}

func NewSearchSink(indexer MessageIndexer, log *slog.Logger) SearchSink {
	return SearchSink{indexer: indexer, log: log}
}

func (s SearchSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		return s.indexer.IndexMessage(ctx, evt.Message)
	case event.FanoutRepaired:
		return s.indexer.IndexMessage(ctx, evt.Message)
	default:
		return nil
	}
}
