package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/at-ishikawa/mathdrill/internal/i18n"
	mock_cli "github.com/at-ishikawa/mathdrill/internal/mocks/cli"
	mock_practice "github.com/at-ishikawa/mathdrill/internal/mocks/practice"
	"github.com/at-ishikawa/mathdrill/internal/practice"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTestCLI(input string) (*InteractiveCLI, *bytes.Buffer) {
	var out bytes.Buffer
	return NewInteractiveCLI(strings.NewReader(input), &out, i18n.MustNew("en")), &out
}

func float(v float64) *float64 {
	return &v
}

var (
	easyAdd = practice.Settings{Difficulty: practice.DifficultyEasy, Operations: []practice.Operation{practice.OperationAdd}}
	first   = practice.Question{ID: "1", Expression: "1 + 1", Difficulty: practice.DifficultyEasy}
	second  = practice.Question{ID: "2", Expression: "2 + 2", Difficulty: practice.DifficultyEasy}
)

func TestPracticeCLI_Run(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		settings     practice.Settings
		setup        func(source *mock_practice.MockSource)
		wantErr      error
		wantContains []string
		wantMissing  []string
	}{
		{
			name:     "answer, next, answer, end and quit",
			input:    "2\n\n5\nq\nq\n",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(second, nil)
				source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Correct: true}, nil)
				source.EXPECT().Grade(gomock.Any(), second, gomock.Any()).Return(practice.Result{CorrectAnswer: float(4)}, nil)
			},
			wantContains: []string{
				"Difficulty: easy  Operations: add",
				"Problem 1: 1 + 1 = ",
				"✅ Correct!",
				"Problem 2: 2 + 2 = ",
				"❌ Wrong! The correct answer is: 4",
				"Problems: 2",
				"Correct: 1",
				"Accuracy: 50%",
				"A bit more practice and you'll get there!",
				"Press Enter to practice again, q to quit.",
			},
		},
		{
			name:     "server message is shown verbatim",
			input:    "3\nq\nq\n",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(first, nil)
				source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Message: "wrong, the answer is 2"}, nil)
			},
			wantContains: []string{"❌ wrong, the answer is 2"},
		},
		{
			name:     "rest reminder then rest",
			input:    "2\n\nr\nq\n",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
				source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Correct: true, NeedRest: true}, nil)
			},
			wantContains: []string{"Time for a break? [c] continue  [r] rest", "Problems: 1", "Accuracy: 100%"},
			wantMissing:  []string{"Press Enter for the next problem"},
		},
		{
			name:     "rest reminder then continue",
			input:    "2\nc\nq\nq\n",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(second, nil)
				source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Correct: true, NeedRest: true}, nil)
			},
			wantContains: []string{"Problem 2: 2 + 2 = ", "Problems: 1"},
		},
		{
			name:     "invalid answer never reaches the server",
			input:    "abc\n\nq\nq\n",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
			},
			wantContains: []string{"Please enter a valid number!", "Problems: 0", "Accuracy: 0%"},
		},
		{
			name:     "failed fetch is retried with enter",
			input:    "\n2\nq\nq\n",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(practice.Question{}, errors.New("connection reset"))
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
				source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Correct: true}, nil)
			},
			wantContains: []string{
				"Failed to get a problem, please try again!",
				"Press Enter to try again, q to end.",
				"Problem 1: 1 + 1 = ",
				"Problems: 1",
			},
		},
		{
			name:     "failed submission keeps the question",
			input:    "2\n2\nq\nq\n",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
				gomock.InOrder(
					source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{}, &api.Error{Kind: api.KindApplication, StatusCode: 500, Message: "database is down"}),
					source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Correct: true}, nil),
				)
			},
			wantContains: []string{"database is down", "✅ Correct!", "Problems: 1"},
		},
		{
			name:     "missing operations",
			input:    "",
			settings: practice.Settings{Difficulty: practice.DifficultyEasy},
			setup:    func(*mock_practice.MockSource) {},
			wantContains: []string{
				"Please choose at least one operation!",
			},
		},
		{
			name:     "expired session ends the command",
			input:    "",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(practice.Question{}, fmt.Errorf("api.NewProblem() > %w", api.ErrSessionExpired))
			},
			wantErr:      ErrSessionExpired,
			wantContains: []string{"Session expired, please log in again"},
		},
		{
			name:     "end of input ends the session",
			input:    "2",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
				source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Correct: true}, nil)
			},
			wantContains: []string{"Problems: 1", "Amazing! You are a little math genius!"},
		},
		{
			name:     "practice again asks for the difficulty",
			input:    "q\n\nmedium\nadd,subtract\nq\nq\n",
			settings: easyAdd,
			setup: func(source *mock_practice.MockSource) {
				gomock.InOrder(
					source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil),
					source.EXPECT().Fetch(gomock.Any(), practice.Settings{
						Difficulty: practice.DifficultyMedium,
						Operations: []practice.Operation{practice.OperationAdd, practice.OperationSubtract},
					}).Return(second, nil),
				)
			},
			wantContains: []string{
				"Press Enter to practice again, q to quit.",
				"Difficulty (easy/medium/hard): ",
				"Operations (add,subtract,multiply,divide) [add]: ",
				"Difficulty: medium  Operations: add,subtract",
				"Problem 1: 2 + 2 = ",
			},
		},
		{
			name:     "no difficulty at start asks for it",
			input:    "easy\n\n2\nq\nq\n",
			settings: practice.Settings{Operations: []practice.Operation{practice.OperationAdd}},
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
				source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Correct: true}, nil)
			},
			wantContains: []string{
				"Difficulty (easy/medium/hard): ",
				"Difficulty: easy  Operations: add",
				"✅ Correct!",
				"Problems: 1",
			},
		},
		{
			name:         "end of input at the difficulty prompt",
			input:        "",
			settings:     practice.Settings{Operations: []practice.Operation{practice.OperationAdd}},
			setup:        func(*mock_practice.MockSource) {},
			wantContains: []string{"Difficulty (easy/medium/hard): ", "Please choose a difficulty level!"},
			wantMissing:  []string{"Difficulty: "},
		},
		{
			name:     "unknown operation at the prompt asks again",
			input:    "easy\npower\neasy\n\nq\nq\n",
			settings: practice.Settings{Operations: []practice.Operation{practice.OperationAdd}},
			setup: func(source *mock_practice.MockSource) {
				source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
			},
			wantContains: []string{"Please choose at least one operation!", "Problem 1: 1 + 1 = "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := mock_practice.NewMockSource(ctrl)
			source.EXPECT().RequiresOperations().Return(true).AnyTimes()
			tt.setup(source)

			base, out := newTestCLI(tt.input)
			cli := NewPracticeCLI(base, source, tt.settings)
			err := cli.Run(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			for _, want := range tt.wantContains {
				assert.Contains(t, out.String(), want)
			}
			for _, missing := range tt.wantMissing {
				assert.NotContains(t, out.String(), missing)
			}
			assert.Zero(t, cli.Engine().ActiveCountdowns())
			assert.Zero(t, cli.Engine().ActiveSessionTimers())
		})
	}
}

func TestPracticeCLI_RestPromptRepeats(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mock_practice.NewMockSource(ctrl)
	source.EXPECT().RequiresOperations().Return(true).AnyTimes()
	source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil)
	source.EXPECT().Grade(gomock.Any(), first, gomock.Any()).Return(practice.Result{Correct: true, NeedRest: true}, nil)

	base, out := newTestCLI("2\n\nx\nr\nq\n")
	require.NoError(t, NewPracticeCLI(base, source, easyAdd).Run(context.Background()))
	assert.Equal(t, 3, strings.Count(out.String(), "Time for a break?"))
}

func TestPracticeCLI_ReturnRequiresDifficulty(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mock_practice.NewMockSource(ctrl)
	source.EXPECT().RequiresOperations().Return(true).AnyTimes()
	hardAdd := practice.Settings{Difficulty: practice.DifficultyHard, Operations: easyAdd.Operations}
	gomock.InOrder(
		source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(first, nil),
		source.EXPECT().Fetch(gomock.Any(), hardAdd).Return(second, nil),
	)

	// Back at the settings an empty and an unknown difficulty are both refused.
	base, out := newTestCLI("q\n\n\nextreme\nhard\n\nq\nq\n")
	cli := NewPracticeCLI(base, source, easyAdd)
	require.NoError(t, cli.Run(context.Background()))

	assert.Equal(t, 3, strings.Count(out.String(), "Difficulty (easy/medium/hard): "))
	assert.Equal(t, 2, strings.Count(out.String(), "Please choose a difficulty level!"))
	assert.Contains(t, out.String(), "Difficulty: hard  Operations: add")
	assert.Equal(t, practice.DifficultyHard, cli.Engine().Settings().Difficulty)
}

// lockedBuffer is written from the timer goroutines while the test reads it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPracticeCLI_SessionExpiredOnTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mock_practice.NewMockSource(ctrl)
	source.EXPECT().RequiresOperations().Return(true).AnyTimes()
	timed := first
	timed.TimeLimit = 300 * time.Millisecond
	source.EXPECT().Fetch(gomock.Any(), easyAdd).Return(timed, nil)
	gomock.InOrder(
		// The typed answer fails on the network, so the countdown keeps running.
		source.EXPECT().Grade(gomock.Any(), timed, gomock.Any()).Return(practice.Result{}, fmt.Errorf("api.SubmitAnswer() > %w", api.ErrNetwork)),
		// The countdown submits it again and the token is gone.
		source.EXPECT().Grade(gomock.Any(), timed, gomock.Any()).Return(practice.Result{}, fmt.Errorf("api.SubmitAnswer() > %w", api.ErrSessionExpired)),
	)

	input, typing := io.Pipe()
	defer func() {
		_ = typing.Close()
	}()
	var out lockedBuffer
	cli := NewPracticeCLI(
		NewInteractiveCLI(input, &out, i18n.MustNew("en")),
		source,
		easyAdd,
		practice.WithTickIntervals(10*time.Millisecond, time.Hour),
	)
	done := make(chan error, 1)
	go func() {
		done <- cli.Run(context.Background())
	}()

	_, err := io.WriteString(typing, "2\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Session expired, please log in again")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, cli.Engine().ActiveCountdowns())
	assert.Zero(t, cli.Engine().ActiveSessionTimers())

	_, err = io.WriteString(typing, "\n")
	require.NoError(t, err)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSessionExpired)
	case <-time.After(5 * time.Second):
		t.Fatal("Run kept going after the session expired")
	}
	assert.Contains(t, out.String(), "Press Enter to leave, then log in again.")
	assert.NotContains(t, out.String(), "Practice finished")
}

func TestInteractiveCLI_Run(t *testing.T) {
	tests := []struct {
		name    string
		results []error
		wantErr bool
	}{
		{name: "ends on errEnd", results: []error{nil, nil, errEnd}},
		{name: "stops on the first error", results: []error{nil, errors.New("boom")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			session := mock_cli.NewMockSession(ctrl)
			var calls []any
			for _, result := range tt.results {
				calls = append(calls, session.EXPECT().Session(gomock.Any()).Return(result))
			}
			gomock.InOrder(calls...)

			base, _ := newTestCLI("")
			err := base.Run(context.Background(), session)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
