package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/analytics"
	"bilancio/internal/budget"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/core"
	"bilancio/internal/importer"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

const usage = `Usage: bilancio <command> [flags]

Commands:
  import    import a CSV or XLSX file of transactions
  report    print the monthly report (KPIs, categories, budget)
  calendar  print daily spending with heatmap thresholds
  sessions  list recent import sessions
  list      list transactions with filters and paging
  delete    delete a transaction by id

Run 'bilancio <command> -h' for command flags.
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	}

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath, cfg.MaxPageSize)
	defer repo.Close()

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(ctx, cfg, repo, os.Args[2:])
	case "report":
		err = runReport(ctx, cfg, repo, os.Args[2:])
	case "calendar":
		err = runCalendar(ctx, cfg, repo, os.Args[2:])
	case "sessions":
		err = runSessions(ctx, repo, os.Args[2:])
	case "list":
		err = runList(ctx, repo, os.Args[2:])
	case "delete":
		err = runDelete(ctx, repo, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func newImportService(cfg *config.Config, repo *storage.SQLiteRepository) (*services.ImportService, func()) {
	var publisher services.Publisher
	cleanup := func() {}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Imports still work synchronously without a broker.
			fmt.Fprintf(os.Stderr, "warning: AMQP unavailable, continuing without messaging: %v\n", err)
		} else {
			publisher = client
			cleanup = func() { client.Close() }
		}
	}

	return services.NewImportService(importer.NewImporter(repo), publisher), cleanup
}

func newReportService(cfg *config.Config, repo *storage.SQLiteRepository) *services.ReportService {
	configs := budget.NewConfigCache(cfg.BudgetConfigTTL, time.Now)
	return services.NewReportService(repo, configs, cfg.BudgetConfigPath, cfg.TransferCategories)
}

func runImport(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	source := fs.String("source", "", "source name recorded on the session (defaults to the file name)")
	skipDuplicates := fs.Bool("skip-duplicates", false, "count duplicates without reporting each one")
	async := fs.Bool("async", false, "enqueue the import for a worker instead of running it inline")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("import expects exactly one file argument")
	}
	path := fs.Arg(0)

	sourceName := *source
	if sourceName == "" {
		sourceName = filepath.Base(path)
	}

	svc, cleanup := newImportService(cfg, repo)
	defer cleanup()

	if *async {
		if err := svc.EnqueueImport(ctx, path, sourceName); err != nil {
			return err
		}
		fmt.Printf("import of %s enqueued\n", path)
		return nil
	}

	res, err := svc.Import(ctx, path, sourceName, importer.Options{SkipDuplicates: *skipDuplicates})
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runReport(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	monthArg := fs.String("month", "", "month to report on as YYYY-MM (defaults to the current month)")
	fs.Parse(args)

	month, err := monthOrNow(*monthArg)
	if err != nil {
		return err
	}

	rep, err := newReportService(cfg, repo).MonthlyReport(ctx, month)
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func runCalendar(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	monthArg := fs.String("month", "", "month to show as YYYY-MM (defaults to the current month)")
	startArg := fs.String("start", "", "range start as YYYY-MM-DD (overrides -month)")
	endArg := fs.String("end", "", "range end as YYYY-MM-DD (overrides -month)")
	fs.Parse(args)

	var start, end core.Date
	if *startArg != "" || *endArg != "" {
		var err error
		if start, err = core.ParseDate(*startArg); err != nil {
			return err
		}
		if end, err = core.ParseDate(*endArg); err != nil {
			return err
		}
	} else {
		month, err := monthOrNow(*monthArg)
		if err != nil {
			return err
		}
		start, end = month.First(), month.Last()
	}

	rep, err := newReportService(cfg, repo).Calendar(ctx, start, end)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Start      core.Date              `json:"start"`
		End        core.Date              `json:"end"`
		Thresholds analytics.Thresholds   `json:"thresholds"`
		Days       []services.CalendarDay `json:"days"`
	}{rep.Start, rep.End, rep.Thresholds, rep.HeatmapDays()})
}

func runSessions(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum number of sessions to show")
	fs.Parse(args)

	sessions, err := repo.ListImportSessions(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(sessions)
}

func runList(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	startArg := fs.String("start", "", "earliest date as YYYY-MM-DD")
	endArg := fs.String("end", "", "latest date as YYYY-MM-DD")
	category := fs.String("category", "", "exact category filter")
	page := fs.Int("page", 1, "page number")
	pageSize := fs.Int("page-size", 50, "rows per page")
	sortBy := fs.String("sort", "date", "sort column: date, amount or category")
	order := fs.String("order", "asc", "sort order: asc or desc")
	fs.Parse(args)

	q := storage.ListQuery{
		Category:  *category,
		Page:      *page,
		PageSize:  *pageSize,
		SortBy:    *sortBy,
		SortOrder: *order,
	}
	var err error
	if *startArg != "" {
		if q.StartDate, err = core.ParseDate(*startArg); err != nil {
			return err
		}
	}
	if *endArg != "" {
		if q.EndDate, err = core.ParseDate(*endArg); err != nil {
			return err
		}
	}

	pageRes, err := repo.ListTransactions(ctx, q)
	if err != nil {
		return err
	}
	return printJSON(pageRes)
}

func runDelete(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("delete expects exactly one transaction id")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q", fs.Arg(0))
	}

	if err := repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	fmt.Printf("transaction %d deleted\n", id)
	return nil
}

func monthOrNow(arg string) (core.Month, error) {
	if arg == "" {
		return core.DateOf(time.Now()).MonthOf(), nil
	}
	return core.ParseMonth(arg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
