package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/at-ishikawa/mathdrill/internal/history"
	"github.com/at-ishikawa/mathdrill/internal/ranking"
	"github.com/dustin/go-humanize"
)

var calendarGlyphs = [history.MaxLevel + 1]string{"·", "░", "▒", "▓", "█"}

// recentActivityDays is how many active days are listed under the calendar.
const recentActivityDays = 5

// loadSnapshot loads history and stats and reports a lost session as an error.
func (cli *InteractiveCLI) loadSnapshot(ctx context.Context, gateway history.Gateway) (history.Snapshot, error) {
	snapshot := history.Load(ctx, gateway)
	if snapshot.SessionExpired() {
		cli.println(cli.failure, cli.T("error.session_expired"))
		return snapshot, ErrSessionExpired
	}
	return snapshot, nil
}

func (cli *InteractiveCLI) ShowStats(ctx context.Context, gateway history.Gateway) error {
	snapshot, err := cli.loadSnapshot(ctx, gateway)
	if err != nil {
		return err
	}
	if snapshot.StatsErr != nil {
		cli.println(cli.failure, cli.describe(snapshot.StatsErr, "stats.failed"))
		return fmt.Errorf("history.Load() > %w", snapshot.StatsErr)
	}
	cli.renderStats(snapshot.Stats, history.DashboardAccuracy(snapshot.Stats))
	return nil
}

func (cli *InteractiveCLI) renderStats(stats api.AggregateStats, accuracy string) {
	rows := []struct {
		id    string
		value string
	}{
		{id: "stats.total_questions", value: humanize.Comma(stats.TotalQuestions)},
		{id: "stats.easy_questions", value: humanize.Comma(stats.EasyQuestions)},
		{id: "stats.medium_questions", value: humanize.Comma(stats.MediumQuestions)},
		{id: "stats.hard_questions", value: humanize.Comma(stats.HardQuestions)},
		{id: "stats.total_attempts", value: humanize.Comma(stats.TotalAttempts)},
		{id: "stats.correct_answers", value: humanize.Comma(stats.CorrectAnswers)},
		{id: "stats.accuracy", value: accuracy},
	}
	for _, row := range rows {
		cli.printf(cli.bold, "%s: ", cli.T(row.id))
		cli.println(nil, row.value)
	}
}

// HistoryQuery selects what the history command shows.
type HistoryQuery struct {
	Filter   history.Filter
	Page     int
	PageSize int
}

func (cli *InteractiveCLI) ShowHistory(ctx context.Context, gateway history.Gateway, query HistoryQuery, now time.Time) error {
	snapshot, err := cli.loadSnapshot(ctx, gateway)
	if err != nil {
		return err
	}

	if snapshot.StatsErr != nil {
		cli.println(cli.failure, cli.describe(snapshot.StatsErr, "stats.failed"))
	} else {
		cli.renderStats(snapshot.Stats, history.DetailAccuracy(snapshot.Stats))
	}
	cli.println(nil, "")

	if snapshot.HistoryErr != nil {
		cli.println(cli.failure, cli.describe(snapshot.HistoryErr, "history.failed"))
		return fmt.Errorf("history.Load() > %w", snapshot.HistoryErr)
	}

	browser := history.NewBrowser(snapshot.Records, query.PageSize)
	browser.SetFilter(query.Filter)
	browser.GoTo(query.Page)
	cli.renderHistoryPage(browser.Current(), query.Filter, now)
	return nil
}

func (cli *InteractiveCLI) renderHistoryPage(page history.Page, filter history.Filter, now time.Time) {
	if !filter.IsZero() {
		cli.println(cli.faint, cli.Td("history.filter", map[string]any{"Filter": describeFilter(filter)}))
	}
	if len(page.Records) == 0 {
		cli.println(nil, cli.T("history.empty"))
		return
	}

	for _, record := range page.Records {
		cli.println(cli.bold, cli.Td("history.record", map[string]any{
			"When":       humanize.RelTime(record.CreatedAt, now, "ago", "from now"),
			"Question":   record.Question,
			"Difficulty": record.Difficulty,
		}))
		result, c := cli.T("history.result_incorrect"), cli.failure
		if record.IsCorrect {
			result, c = cli.T("history.result_correct"), cli.success
		}
		cli.printf(nil, "    %s: %s  %s: %s  ",
			cli.T("history.your_answer"), formatNumber(record.UserAnswer),
			cli.T("history.correct_answer"), formatNumber(record.CorrectAnswer),
		)
		cli.printf(c, "%s", result)
		cli.println(cli.faint, "  "+cli.Td("history.time_spent", map[string]any{"Seconds": formatNumber(record.TimeSpent)}))
	}
	cli.println(nil, cli.Td("history.page_info", map[string]any{
		"Page":  page.Number,
		"Total": page.TotalPages,
	}))
	if page.HasPrevious() {
		cli.println(cli.faint, cli.Td("history.previous_hint", map[string]any{"Page": page.Number - 1}))
	}
	if page.HasNext() {
		cli.println(cli.faint, cli.Td("history.next_hint", map[string]any{"Page": page.Number + 1}))
	}
}

func describeFilter(filter history.Filter) string {
	var parts []string
	if filter.Difficulty != "" {
		parts = append(parts, filter.Difficulty)
	}
	if filter.Result != history.ResultAny {
		parts = append(parts, string(filter.Result))
	}
	if filter.Date != "" {
		parts = append(parts, filter.Date)
	}
	return strings.Join(parts, ", ")
}

func (cli *InteractiveCLI) ShowCalendar(ctx context.Context, gateway history.Gateway, now time.Time) error {
	snapshot, err := cli.loadSnapshot(ctx, gateway)
	if err != nil {
		return err
	}
	if snapshot.HistoryErr != nil {
		cli.println(cli.failure, cli.describe(snapshot.HistoryErr, "history.failed"))
		return fmt.Errorf("history.Load() > %w", snapshot.HistoryErr)
	}
	cli.renderCalendar(history.BuildCalendar(now, snapshot.Records))
	return nil
}

func (cli *InteractiveCLI) renderCalendar(calendar history.Calendar) {
	cli.println(cli.bold, cli.T("calendar.title"))

	// Each cell is two columns wide.
	labels := []rune(strings.Repeat(" ", history.CalendarWeeks*2))
	next := 0
	for _, month := range calendar.Months {
		start := month.Column * 2
		if start < next {
			continue
		}
		name := []rune(month.Month.String()[:3])
		for i, r := range name {
			if start+i < len(labels) {
				labels[start+i] = r
			}
		}
		next = start + len(name) + 1
	}
	cli.println(cli.faint, strings.TrimRight(string(labels), " "))

	for day := 0; day < history.CalendarDays; day++ {
		var line strings.Builder
		for week := 0; week < history.CalendarWeeks; week++ {
			line.WriteString(calendarGlyphs[calendar.Columns[week][day].Level])
			line.WriteString(" ")
		}
		cli.println(cli.success, strings.TrimRight(line.String(), " "))
	}
	cli.println(cli.faint, cli.Td("calendar.legend", map[string]any{
		"Levels": strings.Join(calendarGlyphs[:], " "),
	}))

	active := calendar.Cells()
	if len(active) > recentActivityDays {
		active = active[len(active)-recentActivityDays:]
	}
	for i := len(active) - 1; i >= 0; i-- {
		cli.println(nil, cli.Td("calendar.tooltip", map[string]any{"Tooltip": active[i].Tooltip()}))
	}
}

func (cli *InteractiveCLI) ShowRanking(ctx context.Context, board *ranking.Board, window ranking.Window) error {
	rows, err := board.Select(ctx, window)
	if err != nil {
		if api.IsSessionExpired(err) {
			cli.println(cli.failure, cli.T("error.session_expired"))
			return ErrSessionExpired
		}
		cli.println(cli.failure, cli.describe(err, "rank.failed"))
		return fmt.Errorf("board.Select(%s) > %w", window, err)
	}

	cli.println(cli.bold, cli.Td("rank.title", map[string]any{"Window": window}))
	if len(rows) == 0 {
		cli.println(nil, cli.T("rank.empty"))
		return nil
	}
	for _, row := range rows {
		c := cli.faint
		if row.Rank <= 3 {
			c = cli.bold
		}
		cli.printf(c, "%3d  %-20s %8s\n", row.Rank, row.Username, row.HotScore)
	}
	return nil
}
