// Package search keeps a full-text index of conversations.
// The index is a side effect of sending: it may lag behind the message store
// and can always be rebuilt from it.
package search

import (
	"buddychat/domain"
	"context"
	"fmt"
	"log/slog"

	"github.com/abadojack/whatlanggo"
	"github.com/blugelabs/bluge"
)

const (
	fieldID   = "_id"
	fieldText = "text"
	fieldPair = "pair"
	fieldLang = "lang"
	fieldAt   = "at"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

// Open opens a disk index at path, or an in-memory one when path is empty.
func Open(path string, log *slog.Logger) (*Index, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return NewIndex(writer, log), nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// IndexMessage adds or replaces the document of a message.
// Nothing is written once ctx is done.
func (i *Index) IndexMessage(ctx context.Context, message domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := bluge.NewDocument(message.ID.String())
	doc.AddField(bluge.NewTextField(fieldText, message.Payload.Text))
	doc.AddField(bluge.NewKeywordField(fieldPair, message.Pair().Key()))
	doc.AddField(bluge.NewKeywordField(fieldLang, DetectLang(message.Payload.Text)))
	doc.AddField(bluge.NewDateTimeField(fieldAt, message.At).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search returns the ids of the messages of pair matching query, best match first.
func (i *Index) Search(ctx context.Context, pair domain.Pair, query Query) ([]domain.MessageID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(pair.Key()).SetField(fieldPair))
	if query.Terms != "" {
		q.AddMust(bluge.NewMatchQuery(query.Terms).SetField(fieldText))
	}
	if query.Lang != "" {
		q.AddMust(bluge.NewTermQuery(query.Lang).SetField(fieldLang))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	matches, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, err
	}

	var ids []domain.MessageID
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == fieldID {
				ids = append(ids, domain.MessageID(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	i.log.Debug("Search done", "pair", pair.Key(), "terms", query.Terms, "hits", len(ids))
	return ids, nil
}

// DetectLang returns the ISO 639-1 code of text, or "und" when detection is unreliable.
func DetectLang(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "und"
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return "und"
}
