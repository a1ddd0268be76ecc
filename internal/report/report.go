// Package report renders the practice history as a Markdown document and
// optionally converts it to PDF.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/at-ishikawa/mathdrill/internal/history"
)

//go:embed templates/report.md.go.tmpl
var fallbackReportTemplate string

const fallbackTemplateName = "report.md.go.tmpl"

type Data struct {
	Title       string
	GeneratedAt time.Time
	Username    string
	Stats       api.AggregateStats
	Accuracy    string
	// Activity holds the calendar days with at least one practice.
	Activity      []history.Cell
	FilterSummary string
	Records       []api.HistoryRecord
}

// NewData builds the report content from a loaded snapshot. Records are
// narrowed by filter and kept newest first.
func NewData(now time.Time, username string, snapshot history.Snapshot, filter history.Filter) Data {
	records := filter.Apply(history.SortByCreatedDesc(snapshot.Records))
	return Data{
		Title:         "Practice report",
		GeneratedAt:   now,
		Username:      username,
		Stats:         snapshot.Stats,
		Accuracy:      history.DetailAccuracy(snapshot.Stats),
		Activity:      history.BuildCalendar(now, snapshot.Records).Cells(),
		FilterSummary: summarizeFilter(filter),
		Records:       records,
	}
}

func summarizeFilter(filter history.Filter) string {
	var parts []string
	if filter.Difficulty != "" {
		parts = append(parts, "difficulty="+filter.Difficulty)
	}
	if filter.Result != history.ResultAny {
		parts = append(parts, "result="+string(filter.Result))
	}
	if filter.Date != "" {
		parts = append(parts, "date="+filter.Date)
	}
	return strings.Join(parts, ", ")
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"number": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		"result": func(correct bool) string {
			if correct {
				return "correct"
			}
			return "incorrect"
		},
	}
}

// ParseTemplate reads templatePath, falling back to the embedded template
// when the path is empty, missing or invalid.
func ParseTemplate(templatePath string) (*template.Template, error) {
	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).
				Funcs(funcMap()).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackTemplateName).
		Funcs(funcMap()).
		Parse(fallbackReportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

func Write(w io.Writer, templatePath string, data Data) error {
	tmpl, err := ParseTemplate(templatePath)
	if err != nil {
		return fmt.Errorf("ParseTemplate(%s) > %w", templatePath, err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

// WriteFiles renders the report once and writes it to outputPath, creating its directory.
// With withPDF the same markdown is also rendered to PDFPath(outputPath).
// It returns the paths written.
func WriteFiles(outputPath, templatePath string, data Data, withPDF bool) ([]string, error) {
	if !strings.HasSuffix(outputPath, ".md") {
		return nil, fmt.Errorf("output file must have .md extension: %s", outputPath)
	}

	var markdown bytes.Buffer
	if err := Write(&markdown, templatePath, data); err != nil {
		return nil, fmt.Errorf("Write(%s) > %w", outputPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(outputPath), err)
	}
	if err := os.WriteFile(outputPath, markdown.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("os.WriteFile(%s) > %w", outputPath, err)
	}
	written := []string{outputPath}
	if !withPDF {
		return written, nil
	}

	pdfPath := PDFPath(outputPath)
	if err := WritePDF(markdown.Bytes(), pdfPath); err != nil {
		return written, fmt.Errorf("WritePDF(%s) > %w", pdfPath, err)
	}
	return append(written, pdfPath), nil
}

// DefaultPath is the report file name used when none is given.
func DefaultPath(directory string, now time.Time) string {
	return filepath.Join(directory, "report-"+now.Format("20060102")+".md")
}
