package main

import (
	"github.com/at-ishikawa/mathdrill/internal/cli"
	"github.com/at-ishikawa/mathdrill/internal/report"
	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	var filterFlags historyFilterFlags
	var outputPath string
	var generatePDF bool
	command := &cobra.Command{
		Use:   "report",
		Short: "Export statistics, activity and history as Markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags.filter()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			base := a.newCLI(cmd)
			current := a.sessions.Current()
			if err := base.RequireLogin(current); err != nil {
				return err
			}

			generatedAt := now()
			if outputPath == "" {
				outputPath = report.DefaultPath(a.cfg.Outputs.ReportDirectory, generatedAt)
			}
			return base.ExportReport(cmd.Context(), a.gateway, cli.ReportOptions{
				Username:     current.Username,
				Filter:       filter,
				OutputPath:   outputPath,
				TemplatePath: a.cfg.Outputs.ReportTemplate,
				PDF:          generatePDF,
			}, generatedAt)
		},
	}
	filterFlags.register(command)
	flags := command.Flags()
	flags.StringVar(&outputPath, "out", "", "Markdown file to write. Defaults to report-YYYYMMDD.md in outputs.report_directory")
	flags.BoolVar(&generatePDF, "pdf", false, "Generate PDF output in addition to markdown")
	return command
}
