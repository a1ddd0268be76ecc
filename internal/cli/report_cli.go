package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/history"
	"github.com/at-ishikawa/mathdrill/internal/report"
)

type ReportOptions struct {
	Username     string
	Filter       history.Filter
	OutputPath   string
	TemplatePath string
	PDF          bool
}

// ExportReport writes the practice report and, when asked, its PDF next to it.
// A failed history load aborts the export; missing stats only leave the table empty.
func (cli *InteractiveCLI) ExportReport(ctx context.Context, gateway history.Gateway, options ReportOptions, now time.Time) error {
	snapshot, err := cli.loadSnapshot(ctx, gateway)
	if err != nil {
		return err
	}
	if snapshot.HistoryErr != nil {
		cli.println(cli.failure, cli.describe(snapshot.HistoryErr, "history.failed"))
		return fmt.Errorf("history.Load() > %w", snapshot.HistoryErr)
	}
	if snapshot.StatsErr != nil {
		cli.println(cli.warning, cli.describe(snapshot.StatsErr, "stats.failed"))
	}

	data := report.NewData(now, options.Username, snapshot, options.Filter)
	written, err := report.WriteFiles(options.OutputPath, options.TemplatePath, data, options.PDF)
	for _, path := range written {
		cli.println(cli.success, cli.Td("report.written", map[string]any{"Path": path}))
	}
	if err != nil {
		return fmt.Errorf("report.WriteFiles() > %w", err)
	}
	return nil
}
