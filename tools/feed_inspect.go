package main

import (
	"buddychat/domain"
	"buddychat/errors"
	"buddychat/repositories"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// feed_inspect prints the content of a stopped (or running) buddychat store.
//
//	go run ./tools -db ./data                         every message
//	go run ./tools -db ./data -owner A -with B        feed of A with B
//	go run ./tools -db ./data -pending                fan-outs waiting for repair
func main() {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	owner := flag.String("owner", "", "Feed owner")
	with := flag.String("with", "", "Counterpart of the owner")
	pending := flag.Bool("pending", false, "List pending fan-outs")
	limit := flag.Int("limit", 200, "Maximum rows")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	ctx := context.Background()
	logger := logs.GetLoggerFromLevel(slog.LevelWarn)
	messages := repositories.NewMessageRepository(db, logger)

	table := newTable()
	switch {
	case *pending:
		err = printPending(ctx, table, repositories.NewOutboxRepository(db, logger), *limit)
	case *owner != "" && *with != "":
		feed := repositories.NewFeedRepository(db, logger)
		err = printFeed(ctx, table, feed, messages, domain.UserID(*owner), domain.UserID(*with), *limit)
	default:
		err = printMessages(ctx, table, messages, *limit)
	}
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
}

func newTable() *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

// errLimitReached stops the store scan once enough rows are printed.
var errLimitReached = fmt.Errorf("limit reached")

func printMessages(ctx context.Context, table *tablewriter.Table, messages repositories.MessageRepository, limit int) error {
	table.SetHeader([]string{"Id", "From", "To", "At", "Text"})
	count := 0
	err := messages.Scan(ctx, func(m domain.Message) error {
		if count >= limit {
			return errLimitReached
		}
		count++
		table.Append([]string{string(m.ID), string(m.FromID), string(m.ToID), m.At.Format(time.RFC3339Nano), short(m.Payload.Text)})
		return nil
	})
	if errors.Is(err, errLimitReached) {
		return nil
	}
	return err
}

func printFeed(ctx context.Context, table *tablewriter.Table, feed repositories.FeedRepository,
	messages repositories.MessageRepository, owner, with domain.UserID, limit int) error {
	table.SetHeader([]string{"Position", "Id", "From", "At", "Text"})
	entries, err := feed.ListSince(ctx, owner, with, 0, limit)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		m, err := messages.Get(ctx, entry.MessageID)
		if err != nil {
			table.Append([]string{fmt.Sprint(entry.Position), string(entry.MessageID), "?", "?", err.Error()})
			continue
		}
		table.Append([]string{fmt.Sprint(entry.Position), string(m.ID), string(m.FromID), m.At.Format(time.RFC3339Nano), short(m.Payload.Text)})
	}
	return nil
}

func printPending(ctx context.Context, table *tablewriter.Table, outbox repositories.OutboxRepository, limit int) error {
	table.SetHeader([]string{"Id", "From", "To"})
	pending, err := outbox.Pending(ctx, nil, limit)
	if err != nil {
		return err
	}
	for _, p := range pending {
		table.Append([]string{string(p.MessageID), string(p.FromID), string(p.ToID)})
	}
	return nil
}

func short(s string) string {
	r := []rune(s)
	if len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return s
}
