package history

import (
	"fmt"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
)

const (
	CalendarWeeks = 53
	CalendarDays  = 7
	MaxLevel      = 4

	// countsPerLevel is how many practices one shading level stands for.
	countsPerLevel = 5
)

// Level returns the shading level for a day with count practices.
// Zero means the cell is not shaded.
func Level(count int) int {
	if count <= 0 {
		return 0
	}
	return min((count+countsPerLevel-1)/countsPerLevel, MaxLevel)
}

type Cell struct {
	Date  string
	Count int
	Level int
}

// Tooltip is empty for days without practice.
func (c Cell) Tooltip() string {
	if c.Count == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %d", c.Date, c.Count)
}

type MonthLabel struct {
	Year   int
	Month  time.Month
	Column int
}

type Calendar struct {
	// Columns are weeks, each holding CalendarDays consecutive days.
	Columns [CalendarWeeks][CalendarDays]Cell
	Months  []MonthLabel
}

// Cells returns the non-empty cells in date order.
func (c Calendar) Cells() []Cell {
	var cells []Cell
	for _, column := range c.Columns {
		for _, cell := range column {
			if cell.Count > 0 {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}

// CountByDay groups records by their UTC creation day.
func CountByDay(records []api.HistoryRecord) map[string]int {
	counts := make(map[string]int)
	for _, record := range records {
		counts[DayOf(record.CreatedAt)]++
	}
	return counts
}

// BuildCalendar lays out the year before now as a week-by-day grid. The
// first cell is the same calendar day one year ago, in UTC.
func BuildCalendar(now time.Time, records []api.HistoryRecord) Calendar {
	counts := CountByDay(records)
	today := now.UTC()
	origin := time.Date(today.Year()-1, today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var calendar Calendar
	lastYear, lastMonth := 0, time.Month(0)
	for i := 0; i < CalendarWeeks; i++ {
		for j := 0; j < CalendarDays; j++ {
			date := origin.AddDate(0, 0, i*CalendarDays+j)
			day := date.Format(DateLayout)
			count := counts[day]
			calendar.Columns[i][j] = Cell{
				Date:  day,
				Count: count,
				Level: Level(count),
			}

			if date.Year() != lastYear || date.Month() != lastMonth {
				calendar.Months = append(calendar.Months, MonthLabel{
					Year:   date.Year(),
					Month:  date.Month(),
					Column: i,
				})
				lastYear, lastMonth = date.Year(), date.Month()
			}
		}
	}
	return calendar
}
