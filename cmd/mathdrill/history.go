package main

import (
	"fmt"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/cli"
	"github.com/at-ishikawa/mathdrill/internal/history"
	"github.com/at-ishikawa/mathdrill/internal/ranking"
	"github.com/spf13/cobra"
)

// now is replaced in tests.
var now = time.Now

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show practice statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			base := a.newCLI(cmd)
			if err := base.RequireLogin(a.sessions.Current()); err != nil {
				return err
			}
			return base.ShowStats(cmd.Context(), a.gateway)
		},
	}
}

// historyFilterFlags are shared by the history and report commands.
type historyFilterFlags struct {
	difficulty DifficultyFlag
	result     ResultFlag
	date       string
}

func (f *historyFilterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Var(&f.difficulty, "difficulty", "Only show problems of this difficulty. Options: easy, medium, hard")
	flags.Var(&f.result, "result", "Only show correct or incorrect answers. Options: correct, incorrect")
	flags.StringVar(&f.date, "date", "", "Only show answers of this UTC day (YYYY-MM-DD)")
}

func (f *historyFilterFlags) filter() (history.Filter, error) {
	if f.date != "" {
		if _, err := time.Parse(history.DateLayout, f.date); err != nil {
			return history.Filter{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", f.date, err)
		}
	}
	return history.Filter{
		Difficulty: string(f.difficulty),
		Result:     history.Result(f.result),
		Date:       f.date,
	}, nil
}

func newHistoryCommand() *cobra.Command {
	var filterFlags historyFilterFlags
	var page int
	command := &cobra.Command{
		Use:   "history",
		Short: "Show answered problems, newest first",
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
			if err := base.RequireLogin(a.sessions.Current()); err != nil {
				return err
			}
			return base.ShowHistory(cmd.Context(), a.gateway, cli.HistoryQuery{
				Filter:   filter,
				Page:     page,
				PageSize: a.cfg.History.PageSize,
			}, now())
		},
	}
	filterFlags.register(command)
	command.Flags().IntVar(&page, "page", 1, "Page to show")
	return command
}

func newCalendarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Show practice activity over the last year",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			base := a.newCLI(cmd)
			if err := base.RequireLogin(a.sessions.Current()); err != nil {
				return err
			}
			return base.ShowCalendar(cmd.Context(), a.gateway, now())
		},
	}
}

func newRankCommand() *cobra.Command {
	window := WindowFlag(ranking.WindowHourly)
	command := &cobra.Command{
		Use:   "rank",
		Short: "Show the hot ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			board := ranking.NewBoard(a.gateway, a.sessions)
			return a.newCLI(cmd).ShowRanking(cmd.Context(), board, ranking.Window(window))
		},
	}
	command.Flags().Var(&window, "window", fmt.Sprintf("Ranking window. Options: %v", ranking.Windows()))
	return command
}
