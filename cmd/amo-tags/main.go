// Command amo-tags reads and writes resource tags stored in a DynamoDB
// table keyed by resource ARN and tag key, with a by-account secondary
// index.
//
//	amo-tags put arn:aws:iam::123456789012:role/admin team infra
//	amo-tags -strong get arn:aws:iam::123456789012:role/admin team
//	amo-tags list arn:aws:iam::123456789012:role/admin te
//	amo-tags account 123456789012
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/nisimpson/amo"
	"github.com/nisimpson/amo/transport"
	"golang.org/x/time/rate"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "amo-tags: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func mainImpl() error {
	region := flag.String("region", "", "AWS region (defaults to the environment)")
	profile := flag.String("profile", "", "Shared config profile")
	endpoint := flag.String("endpoint", "", "DynamoDB endpoint (e.g., http://localhost:8000 for DynamoDB Local)")
	table := flag.String("table", "tags", "Tag table name")
	cursorTable := flag.String("cursor-table", "", "Table storing page cursors (optional; enables -cursor)")
	strong := flag.Bool("strong", false, "Use strongly consistent reads")
	limit := flag.Int("limit", 0, "Maximum number of tags per page (0 for no limit)")
	cursor := flag.String("cursor", "", "Page cursor printed by a previous list")
	noOverwrite := flag.Bool("no-overwrite", false, "Fail put if the tag already exists")
	rps := flag.Float64("rate", 0, "Maximum requests per second (0 for unlimited)")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop empty strings (not useful in logs).
			if v, ok := a.Value.Any().(string); ok && v == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("%w: unknown log level: %q", errUsage, *logLevel)
	}

	var opts []func(*transport.Options)
	if *region != "" {
		opts = append(opts, transport.WithRegion(*region))
	}
	if *profile != "" {
		opts = append(opts, transport.WithProfile(*profile))
	}
	if *endpoint != "" {
		opts = append(opts, transport.WithEndpoint(*endpoint))
	}
	ddb, err := transport.New(ctx, opts...)
	if err != nil {
		return err
	}

	var client amo.Client = transport.Log(ddb, logger)
	if *rps > 0 {
		client = transport.RateLimit(client, rate.NewLimiter(rate.Limit(*rps), 1))
	}

	store := newTagStore(*table, client, amo.WithLogger(logger))
	store.strong = *strong
	store.limit = *limit
	store.cursor = *cursor
	store.noOverwrite = *noOverwrite
	if *cursorTable != "" {
		store.pager = amo.NewTablePaginator(*cursorTable, client, amo.WithLogger(logger))
	}

	return store.run(ctx, os.Stdout, flag.Args())
}
