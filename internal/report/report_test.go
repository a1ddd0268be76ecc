package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/at-ishikawa/mathdrill/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportNow = time.Date(2026, 5, 2, 10, 30, 0, 0, time.UTC)

func sampleSnapshot() history.Snapshot {
	return history.Snapshot{
		Records: []api.HistoryRecord{
			{Question: "3 + 4", Difficulty: "easy", UserAnswer: 7, CorrectAnswer: 7, IsCorrect: true, TimeSpent: 3, CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
			{Question: "9 / 4", Difficulty: "hard", UserAnswer: 2, CorrectAnswer: 2.25, TimeSpent: 12, CreatedAt: time.Date(2026, 5, 1, 9, 5, 0, 0, time.UTC)},
			{Question: "5 * 6", Difficulty: "medium", UserAnswer: 30, CorrectAnswer: 30, IsCorrect: true, TimeSpent: 4, CreatedAt: time.Date(2026, 4, 20, 18, 0, 0, 0, time.UTC)},
		},
		Stats: api.AggregateStats{TotalQuestions: 3, EasyQuestions: 1, MediumQuestions: 1, HardQuestions: 1, TotalAttempts: 3, CorrectAnswers: 2, Accuracy: 66.6667},
	}
}

func TestNewData(t *testing.T) {
	data := NewData(reportNow, "alice", sampleSnapshot(), history.Filter{Result: history.ResultCorrect})

	assert.Equal(t, "66.67%", data.Accuracy)
	assert.Equal(t, "result=correct", data.FilterSummary)
	require.Len(t, data.Records, 2)
	assert.Equal(t, "3 + 4", data.Records[0].Question)
	assert.Equal(t, []history.Cell{
		{Date: "2026-04-20", Count: 1, Level: 1},
		{Date: "2026-05-01", Count: 2, Level: 1},
	}, data.Activity)
}

func TestWrite(t *testing.T) {
	tests := []struct {
		name         string
		templatePath func(t *testing.T) string
		data         Data
		wantContains []string
		wantExact    string
	}{
		{
			name:         "embedded template",
			templatePath: func(*testing.T) string { return "" },
			data:         NewData(reportNow, "alice", sampleSnapshot(), history.Filter{}),
			wantContains: []string{
				"# Practice report",
				"Generated 2026-05-02 10:30 for alice",
				"| Accuracy | 66.67% |",
				"| 2026-05-01 | 2 | 1 |",
				"| 2026-05-01 09:05 | 9 / 4 | hard | 2 | 2.25 | incorrect | 12s |",
			},
		},
		{
			name:         "empty history",
			templatePath: func(*testing.T) string { return "/non/existent/report.md.go.tmpl" },
			data:         NewData(reportNow, "", history.Snapshot{}, history.Filter{Difficulty: "easy", Date: "2026-05-01"}),
			wantContains: []string{
				"No practice in the last year.",
				"Filter: difficulty=easy, date=2026-05-01",
				"No records.",
			},
		},
		{
			name: "custom template",
			templatePath: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "custom.md.go.tmpl")
				require.NoError(t, os.WriteFile(path, []byte(`{{ .Username }}: {{ range .Records }}{{ number .CorrectAnswer }} {{ end }}`), 0644))
				return path
			},
			data:      NewData(reportNow, "bob", sampleSnapshot(), history.Filter{}),
			wantExact: "bob: 2.25 7 30 ",
		},
		{
			name: "broken custom template falls back",
			templatePath: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "broken.md.go.tmpl")
				require.NoError(t, os.WriteFile(path, []byte(`{{ .Username `), 0644))
				return path
			},
			data:         NewData(reportNow, "bob", sampleSnapshot(), history.Filter{}),
			wantContains: []string{"# Practice report"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.templatePath(t), tt.data))
			if tt.wantExact != "" {
				assert.Equal(t, tt.wantExact, buf.String())
				return
			}
			for _, want := range tt.wantContains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	brokenTemplate := filepath.Join(dir, "broken.md.tmpl")
	require.NoError(t, os.WriteFile(brokenTemplate, []byte("{{.NoSuchField}}"), 0644))

	tests := []struct {
		name         string
		outputPath   string
		templatePath string
		withPDF      bool
		wantWritten  []string
		wantErr      string
	}{
		{
			name:        "markdown only",
			outputPath:  filepath.Join(dir, "nested", "report-20260502.md"),
			wantWritten: []string{filepath.Join(dir, "nested", "report-20260502.md")},
		},
		{
			name:        "markdown and pdf",
			outputPath:  filepath.Join(dir, "both", "report.md"),
			withPDF:     true,
			wantWritten: []string{filepath.Join(dir, "both", "report.md"), filepath.Join(dir, "both", "report.pdf")},
		},
		{
			name:       "not a markdown path",
			outputPath: filepath.Join(dir, "report.txt"),
			wantErr:    ".md extension",
		},
		{
			name:         "a failed render writes nothing",
			outputPath:   filepath.Join(dir, "failed", "report.md"),
			templatePath: brokenTemplate,
			withPDF:      true,
			wantErr:      "tmpl.Execute",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := NewData(reportNow, "alice", sampleSnapshot(), history.Filter{})
			written, err := WriteFiles(tt.outputPath, tt.templatePath, data, tt.withPDF)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Empty(t, written)
				assert.NoFileExists(t, tt.outputPath)
				assert.NoFileExists(t, PDFPath(tt.outputPath))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWritten, written)

			content, err := os.ReadFile(tt.outputPath)
			require.NoError(t, err)
			assert.Contains(t, string(content), "# Practice report")
			if tt.withPDF {
				info, err := os.Stat(PDFPath(tt.outputPath))
				require.NoError(t, err)
				assert.Positive(t, info.Size())
			} else {
				assert.NoFileExists(t, PDFPath(tt.outputPath))
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("reports", "report-20260502.md"), DefaultPath("reports", reportNow))
}
