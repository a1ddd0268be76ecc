package cli

import (
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
	"github.com/at-ishikawa/mathdrill/internal/practice"
)

// PracticeCLI drives a practice.Engine from line based input.
//
// A number submits an answer, an empty line after a result fetches the next
// problem and q ends the session. At a rest reminder c continues and r rests.
// After the summary an empty line goes back to the difficulty prompt and q quits.
type PracticeCLI struct {
	*InteractiveCLI
	engine *practice.Engine
	// settings is what the next session starts with. An empty difficulty means the user is asked.
	settings           practice.Settings
	requiresOperations bool
	// expired is set when a timer driven submission finds the session expired.
	expired atomic.Bool

	viewMu    sync.Mutex
	number    int
	lastLevel practice.CountdownLevel
	elapsed   time.Duration
}

func NewPracticeCLI(base *InteractiveCLI, source practice.Source, settings practice.Settings, opts ...practice.Option) *PracticeCLI {
	cli := &PracticeCLI{
		InteractiveCLI:     base,
		settings:           settings,
		requiresOperations: source.RequiresOperations(),
	}
	cli.engine = practice.NewEngine(source, cli, opts...)
	return cli
}

func (cli *PracticeCLI) Engine() *practice.Engine {
	return cli.engine
}

func (cli *PracticeCLI) Run(ctx context.Context) error {
	defer cli.engine.Stop()
	cli.println(cli.faint, cli.T("practice.help"))
	return cli.InteractiveCLI.Run(ctx, cli)
}

func (cli *PracticeCLI) Session(ctx context.Context) error {
	if cli.expired.Load() {
		return ErrSessionExpired
	}
	if cli.engine.State() == practice.StateIdle {
		if cli.settings.Difficulty == "" {
			return cli.chooseSettings(ctx)
		}
		cli.printSettings(cli.settings)
		if err := cli.handle(cli.engine.Start(ctx, cli.settings), "practice.fetch_failed"); err != nil {
			return err
		}
	}

	line, err := cli.readLine()
	if cli.expired.Load() {
		return ErrSessionExpired
	}
	eof := errors.Is(err, io.EOF)
	if err != nil && !eof {
		return err
	}
	if eof && line == "" {
		return cli.finish()
	}
	if err := cli.handleLine(ctx, line); err != nil {
		return err
	}
	if eof {
		return cli.finish()
	}
	return nil
}

// chooseSettings asks for the difficulty and the operations and starts a session with them.
// The operations of the previous session are offered as the default.
func (cli *PracticeCLI) chooseSettings(ctx context.Context) error {
	settings := practice.Settings{Operations: cli.settings.Operations}
	line, err := cli.prompt(cli.Td("practice.choose_difficulty", map[string]any{
		"Options": joinDifficulties(practice.Difficulties()),
	}))
	eof := errors.Is(err, io.EOF)
	if err != nil && !eof {
		return err
	}
	if line != "" {
		difficulty, err := practice.ParseDifficulty(line)
		if err != nil {
			cli.println(cli.warning, cli.T("practice.select_difficulty"))
			return endAt(eof)
		}
		settings.Difficulty = difficulty
	}

	if settings.Difficulty != "" && cli.requiresOperations && !eof {
		line, err := cli.prompt(cli.Td("practice.choose_operations", map[string]any{
			"Options": joinOperations(practice.Operations()),
			"Default": joinOperations(settings.Operations),
		}))
		eof = errors.Is(err, io.EOF)
		if err != nil && !eof {
			return err
		}
		if line != "" {
			operations, err := practice.ParseOperations(strings.Split(line, ","))
			if err != nil {
				cli.println(cli.warning, cli.T("practice.select_operation"))
				return endAt(eof)
			}
			settings.Operations = operations
		}
	}

	if settings.Difficulty != "" {
		cli.printSettings(settings)
	}
	err = cli.engine.Start(ctx, settings)
	if errors.Is(err, practice.ErrNoDifficulty) || errors.Is(err, practice.ErrNoOperations) {
		// The engine showed why. Ask again.
		return endAt(eof)
	}
	if err == nil || cli.engine.State() != practice.StateIdle {
		cli.settings = settings
	}
	if err := cli.handle(err, "practice.fetch_failed"); err != nil {
		return err
	}
	if eof {
		return cli.finish()
	}
	return nil
}

func (cli *PracticeCLI) printSettings(settings practice.Settings) {
	cli.println(nil, cli.Td("practice.settings", map[string]any{
		"Difficulty": settings.Difficulty,
		"Operations": joinOperations(settings.Operations),
	}))
}

func endAt(eof bool) error {
	if eof {
		return errEnd
	}
	return nil
}

func (cli *PracticeCLI) handleLine(ctx context.Context, line string) error {
	state := cli.engine.State()
	switch {
	case state == practice.StateEnded:
		if line == "q" {
			return errEnd
		}
		if err := cli.engine.Return(); err != nil {
			return err
		}
		// The engine cleared the difficulty, so the next session asks for it.
		cli.settings = cli.engine.Settings()
		cli.viewMu.Lock()
		cli.number = 0
		cli.viewMu.Unlock()
		return nil
	case cli.engine.RestPending():
		switch line {
		case "c":
			if err := cli.engine.ContinueAfterRest(); err != nil {
				return err
			}
			return cli.handle(cli.engine.Next(ctx), "practice.fetch_failed")
		case "r", "q":
			_, err := cli.engine.TakeRest()
			return err
		}
		cli.println(cli.warning, cli.T("practice.rest_reminder"))
		return nil
	case line == "q":
		_, err := cli.engine.End()
		return err
	}

	switch state {
	case practice.StateInProgress:
		if _, ok := cli.engine.CurrentQuestion(); !ok {
			return cli.handle(cli.engine.Next(ctx), "practice.fetch_failed")
		}
		cli.engine.SetInput(line)
		return cli.handle(cli.engine.Submit(ctx), "practice.submit_failed")
	case practice.StateResolved:
		return cli.handle(cli.engine.Next(ctx), "practice.fetch_failed")
	}
	return nil
}

// finish ends a running session when the input is closed.
func (cli *PracticeCLI) finish() error {
	switch cli.engine.State() {
	case practice.StateInProgress, practice.StateGrading, practice.StateResolved:
		if _, err := cli.engine.End(); err != nil {
			return err
		}
	}
	return errEnd
}

// handle reports err and decides whether the loop goes on.
func (cli *PracticeCLI) handle(err error, fallbackID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, practice.ErrNoDifficulty), errors.Is(err, practice.ErrNoOperations):
		return errEnd
	case errors.Is(err, practice.ErrInvalidAnswer), errors.Is(err, practice.ErrInvalidTransition):
		// The engine already showed a notice, or the countdown resolved the question first.
		return nil
	case errors.Is(err, context.Canceled):
		return errEnd
	case api.IsSessionExpired(err):
		cli.println(cli.failure, cli.describe(err, ""))
		return ErrSessionExpired
	}
	cli.println(cli.failure, cli.describe(err, fallbackID))
	if _, ok := cli.engine.CurrentQuestion(); !ok && cli.engine.State() == practice.StateInProgress {
		cli.println(cli.faint, cli.T("practice.retry_prompt"))
	}
	return nil
}

func (cli *PracticeCLI) OnEvent(event practice.Event) {
	switch event.Kind {
	case practice.EventQuestion:
		cli.viewMu.Lock()
		cli.number++
		number := cli.number
		cli.lastLevel = practice.CountdownNormal
		elapsed := cli.elapsed
		cli.viewMu.Unlock()

		cli.printf(cli.faint, "[%s] ", practice.FormatClock(elapsed))
		cli.printf(cli.bold, "%s", cli.Td("practice.question", map[string]any{
			"Number":     number,
			"Expression": event.Question.Expression,
		}))
	case practice.EventCountdown:
		cli.renderCountdown(event.Countdown)
	case practice.EventElapsed:
		cli.viewMu.Lock()
		cli.elapsed = event.Elapsed
		cli.viewMu.Unlock()
	case practice.EventResult:
		cli.renderResult(event.Result)
	case practice.EventRestReminder:
		cli.println(cli.warning, cli.T("practice.rest_reminder"))
	case practice.EventSummary:
		cli.renderSummary(event.Summary)
	case practice.EventNotice:
		cli.println(cli.warning, cli.T(event.Notice))
	case practice.EventError:
		if api.IsSessionExpired(event.Err) {
			cli.expired.Store(true)
			cli.engine.Stop()
			cli.println(cli.failure, cli.describe(event.Err, ""))
			cli.println(cli.faint, cli.T("practice.expired_prompt"))
			return
		}
		cli.println(cli.failure, cli.describe(event.Err, "practice.submit_failed"))
	}
}

func (cli *PracticeCLI) renderCountdown(tick practice.CountdownTick) {
	cli.viewMu.Lock()
	changed := tick.Level != cli.lastLevel
	cli.lastLevel = tick.Level
	cli.viewMu.Unlock()
	if !changed || tick.Remaining <= 0 {
		return
	}

	c := cli.warning
	if tick.Level == practice.CountdownDanger {
		c = cli.failure
	}
	cli.printf(c, "\n%s\n", cli.Td("practice.countdown", map[string]any{
		"Seconds": int(math.Ceil(tick.Remaining.Seconds())),
	}))
}

func (cli *PracticeCLI) renderResult(result practice.Result) {
	switch {
	case result.Correct && result.Message != "":
		cli.println(cli.success, "✅ "+result.Message)
	case result.Correct:
		cli.println(cli.success, "✅ "+cli.T("practice.correct"))
	case result.Message != "":
		cli.println(cli.failure, "❌ "+result.Message)
	case result.CorrectAnswer != nil:
		cli.println(cli.failure, "❌ "+cli.Td("practice.wrong", map[string]any{
			"Answer": formatNumber(*result.CorrectAnswer),
		}))
	default:
		cli.println(cli.failure, "❌ "+cli.T("practice.wrong_unknown"))
	}
	if !result.NeedRest {
		cli.println(cli.faint, cli.T("practice.next_prompt"))
	}
}

func (cli *PracticeCLI) renderSummary(summary practice.Summary) {
	cli.println(nil, "")
	cli.println(cli.bold, cli.T("practice.summary_title"))
	cli.println(nil, cli.Td("practice.summary_total", map[string]any{"Count": summary.TotalProblems}))
	cli.println(nil, cli.Td("practice.summary_correct", map[string]any{"Count": summary.CorrectProblems}))
	cli.println(nil, cli.Td("practice.summary_accuracy", map[string]any{"Percent": summary.Accuracy}))
	cli.println(nil, cli.Td("practice.summary_avg_time", map[string]any{"Seconds": summary.AverageSeconds}))
	cli.println(nil, cli.Td("practice.summary_elapsed", map[string]any{"Clock": practice.FormatClock(summary.Elapsed)}))

	c := cli.success
	if summary.Tier == practice.TierEncouragement || summary.Tier == practice.TierNeedsPractice {
		c = cli.warning
	}
	cli.println(c, cli.T(summary.Tier.MessageID()))
	cli.println(cli.faint, cli.T("practice.return_prompt"))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinDifficulties(difficulties []practice.Difficulty) string {
	names := make([]string, 0, len(difficulties))
	for _, d := range difficulties {
		names = append(names, string(d))
	}
	return strings.Join(names, "/")
}

func joinOperations(operations []practice.Operation) string {
	names := make([]string, 0, len(operations))
	for _, op := range operations {
		names = append(names, string(op))
	}
	return strings.Join(names, ",")
}
