// Package practice runs a practice session: the question loop, its timers and running counters.
//
// The Engine is the only owner of session state. Network calls are made without holding its lock,
// and results arriving for a superseded question or an ended session are discarded.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultCountdownTick = 100 * time.Millisecond
	DefaultSessionTick   = time.Second
)

var (
	ErrRestPending   = errors.New("answer the rest reminder first")
	ErrNoRestPending = errors.New("no rest reminder is pending")
)

type EventKind int

const (
	EventQuestion EventKind = iota + 1
	EventCountdown
	EventElapsed
	EventResult
	EventRestReminder
	EventSummary
	EventNotice
	EventError
)

type CountdownTick struct {
	Remaining time.Duration
	Fraction  float64
	Level     CountdownLevel
}

// Event is what a Listener receives. Only the fields of its Kind are set.
type Event struct {
	Kind      EventKind
	Question  Question
	Countdown CountdownTick
	Elapsed   time.Duration
	Result    Result
	Stats     Stats
	Summary   Summary
	// Notice is a message id.
	Notice string
	// Err is a failure of a timer driven operation.
	Err error
}

// Listener is called outside of the engine lock and may call back into the engine.
type Listener interface {
	OnEvent(event Event)
}

type ListenerFunc func(event Event)

func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithTickIntervals(countdown, session time.Duration) Option {
	return func(e *Engine) {
		if countdown > 0 {
			e.countdownInterval = countdown
		}
		if session > 0 {
			e.sessionInterval = session
		}
	}
}

type Engine struct {
	source            Source
	listener          Listener
	now               func() time.Time
	countdownInterval time.Duration
	sessionInterval   time.Duration

	mu            sync.Mutex
	state         State
	settings      Settings
	question      *Question
	questionStart time.Time
	input         string
	stats         Stats
	restPending   bool
	// generation changes whenever the current question is replaced or the session ends.
	generation   uint64
	countdown    *ticker
	sessionTimer *ticker

	activeCountdowns    atomic.Int32
	activeSessionTimers atomic.Int32
}

func NewEngine(source Source, listener Listener, opts ...Option) *Engine {
	e := &Engine{
		source:            source,
		listener:          listener,
		now:               time.Now,
		countdownInterval: DefaultCountdownTick,
		sessionInterval:   DefaultSessionTick,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *Engine) CurrentQuestion() (Question, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.question == nil {
		return Question{}, false
	}
	return *e.question, true
}

func (e *Engine) RestPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restPending
}

func (e *Engine) ActiveCountdowns() int {
	return int(e.activeCountdowns.Load())
}

func (e *Engine) ActiveSessionTimers() int {
	return int(e.activeSessionTimers.Load())
}

// Start begins a session and fetches its first question.
// A fetch failure leaves the session in progress without a question; Next retries.
func (e *Engine) Start(ctx context.Context, settings Settings) error {
	if settings.Difficulty == "" {
		e.emit(Event{Kind: EventNotice, Notice: "practice.select_difficulty"})
		return ErrNoDifficulty
	}
	if e.source.RequiresOperations() && len(settings.Operations) == 0 {
		e.emit(Event{Kind: EventNotice, Notice: "practice.select_operation"})
		return ErrNoOperations
	}

	e.mu.Lock()
	next, err := Transition(e.state, ActionStart)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = next
	e.settings = Settings{
		Difficulty: settings.Difficulty,
		Operations: append([]Operation(nil), settings.Operations...),
	}
	e.stats = Stats{StartTime: e.now()}
	e.restPending = false
	e.clearQuestionLocked()
	e.generation++
	gen := e.generation
	e.startSessionTimerLocked()
	snapshot := e.settings
	e.mu.Unlock()

	slog.Debug("practice started", "difficulty", settings.Difficulty, "operations", settings.Operations)
	return e.fetch(ctx, gen, snapshot)
}

// Next discards the current question, if any, and fetches a new one.
func (e *Engine) Next(ctx context.Context) error {
	e.mu.Lock()
	if e.restPending {
		e.mu.Unlock()
		return ErrRestPending
	}
	next, err := Transition(e.state, ActionNext)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = next
	e.stopCountdownLocked()
	e.clearQuestionLocked()
	e.generation++
	gen := e.generation
	snapshot := e.settings
	e.mu.Unlock()

	return e.fetch(ctx, gen, snapshot)
}

func (e *Engine) fetch(ctx context.Context, gen uint64, settings Settings) error {
	question, err := e.source.Fetch(ctx, settings)

	e.mu.Lock()
	if gen != e.generation || e.state != StateInProgress {
		e.mu.Unlock()
		slog.Debug("discarding a superseded question")
		return nil
	}
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("source.Fetch() > %w", err)
	}
	e.question = &question
	e.questionStart = e.now()
	e.input = ""
	e.stopCountdownLocked()
	if question.TimeLimit > 0 {
		e.startCountdownLocked(ctx, gen, Countdown{Limit: question.TimeLimit})
	}
	stats := e.stats
	e.mu.Unlock()

	e.emit(Event{Kind: EventQuestion, Question: question, Stats: stats})
	return nil
}

// SetInput replaces the answer typed so far. The countdown submits whatever was set last.
func (e *Engine) SetInput(input string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = input
}

// Submit grades the current input. Without a current question it does nothing.
func (e *Engine) Submit(ctx context.Context) error {
	return e.submit(ctx, false, 0)
}

func (e *Engine) submit(ctx context.Context, auto bool, autoGen uint64) error {
	e.mu.Lock()
	if e.question == nil || (auto && autoGen != e.generation) {
		e.mu.Unlock()
		return nil
	}
	next, err := Transition(e.state, ActionSubmit)
	if err != nil {
		e.mu.Unlock()
		if auto {
			return nil
		}
		return err
	}
	answer, parseErr := ParseAnswer(e.input)
	if parseErr != nil && !auto {
		e.mu.Unlock()
		e.emit(Event{Kind: EventNotice, Notice: "practice.invalid_answer"})
		return parseErr
	}
	e.state = next
	e.stopCountdownLocked()
	question := *e.question
	questionStart := e.questionStart
	timeSpent := e.now().Sub(questionStart)
	gen := e.generation
	e.mu.Unlock()

	submission := Submission{
		QuestionID: question.ID,
		Answer:     answer,
		TimeSpent:  timeSpent,
		Question:   question.Expression,
		Difficulty: question.Difficulty,
	}
	if parseErr != nil {
		// Nothing usable was typed before the time ran out.
		return e.resolve(gen, submission, Result{CorrectAnswer: question.Answer, TimedOut: true})
	}

	result, err := e.source.Grade(ctx, question, submission)
	if err != nil {
		e.mu.Lock()
		if gen == e.generation && e.state == StateGrading {
			e.state, _ = Transition(e.state, ActionGradeFailed)
			countdown := Countdown{Limit: question.TimeLimit}
			if !auto && question.TimeLimit > 0 && !countdown.Expired(e.now().Sub(questionStart)) {
				e.startCountdownLocked(ctx, gen, countdown)
			}
		}
		e.mu.Unlock()
		return fmt.Errorf("source.Grade() > %w", err)
	}
	result.TimedOut = auto
	return e.resolve(gen, submission, result)
}

func (e *Engine) resolve(gen uint64, submission Submission, result Result) error {
	e.mu.Lock()
	if gen != e.generation || e.state != StateGrading {
		e.mu.Unlock()
		slog.Debug("discarding a result of a superseded question", "question_id", submission.QuestionID)
		return nil
	}
	e.state, _ = Transition(e.state, ActionGraded)
	e.stats.TotalProblems++
	e.stats.TotalTime += submission.TimeSpent
	if result.Correct {
		e.stats.CorrectProblems++
	}
	e.restPending = result.NeedRest
	stats := e.stats
	e.mu.Unlock()

	e.emit(Event{Kind: EventResult, Result: result, Stats: stats})
	if result.NeedRest {
		e.emit(Event{Kind: EventRestReminder, Stats: stats})
	}
	return nil
}

// ContinueAfterRest dismisses the rest reminder.
func (e *Engine) ContinueAfterRest() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.restPending {
		return ErrNoRestPending
	}
	e.restPending = false
	return nil
}

// TakeRest ends the session from the rest reminder.
func (e *Engine) TakeRest() (Summary, error) {
	e.mu.Lock()
	pending := e.restPending
	e.mu.Unlock()
	if !pending {
		return Summary{}, ErrNoRestPending
	}
	return e.End()
}

// End stops every timer and computes the summary. A submission still in flight is discarded.
func (e *Engine) End() (Summary, error) {
	e.mu.Lock()
	next, err := Transition(e.state, ActionEnd)
	if err != nil {
		e.mu.Unlock()
		return Summary{}, err
	}
	e.state = next
	e.stopCountdownLocked()
	e.stopSessionTimerLocked()
	e.generation++
	e.clearQuestionLocked()
	e.restPending = false
	summary := e.stats.Summary(e.now())
	e.mu.Unlock()

	slog.Debug("practice ended", "total", summary.TotalProblems, "correct", summary.CorrectProblems)
	e.emit(Event{Kind: EventSummary, Summary: summary})
	return summary, nil
}

// Return goes back to the settings, clearing the difficulty and the finished session's stats.
func (e *Engine) Return() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := Transition(e.state, ActionReturn)
	if err != nil {
		return err
	}
	e.state = next
	e.settings.Difficulty = ""
	e.stats = Stats{}
	e.generation++
	return nil
}

// Stop cancels both timers whatever the state. It is the exit path when the terminal goes away.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCountdownLocked()
	e.stopSessionTimerLocked()
	e.generation++
}

func (e *Engine) emit(event Event) {
	if e.listener != nil {
		e.listener.OnEvent(event)
	}
}

func (e *Engine) clearQuestionLocked() {
	e.question = nil
	e.questionStart = time.Time{}
	e.input = ""
}

func (e *Engine) startCountdownLocked(ctx context.Context, gen uint64, countdown Countdown) {
	e.stopCountdownLocked()
	t := newTicker(func() {
		e.activeCountdowns.Add(-1)
	})
	e.activeCountdowns.Add(1)
	e.countdown = t
	t.start(e.countdownInterval, func() bool {
		return e.countdownTick(ctx, t, gen, countdown)
	})
}

func (e *Engine) stopCountdownLocked() {
	if e.countdown != nil {
		e.countdown.Stop()
		e.countdown = nil
	}
}

func (e *Engine) countdownTick(ctx context.Context, t *ticker, gen uint64, countdown Countdown) bool {
	e.mu.Lock()
	if e.countdown != t || gen != e.generation || e.state != StateInProgress {
		e.mu.Unlock()
		return false
	}
	elapsed := e.now().Sub(e.questionStart)
	e.mu.Unlock()

	e.emit(Event{Kind: EventCountdown, Countdown: CountdownTick{
		Remaining: countdown.Remaining(elapsed),
		Fraction:  countdown.Fraction(elapsed),
		Level:     countdown.Level(elapsed),
	}})
	if !countdown.Expired(elapsed) {
		return true
	}

	e.emit(Event{Kind: EventNotice, Notice: "practice.time_up"})
	if err := e.submit(ctx, true, gen); err != nil {
		e.emit(Event{Kind: EventError, Err: err})
	}
	return false
}

func (e *Engine) startSessionTimerLocked() {
	e.stopSessionTimerLocked()
	t := newTicker(func() {
		e.activeSessionTimers.Add(-1)
	})
	e.activeSessionTimers.Add(1)
	e.sessionTimer = t
	t.start(e.sessionInterval, func() bool {
		return e.sessionTick(t)
	})
}

func (e *Engine) stopSessionTimerLocked() {
	if e.sessionTimer != nil {
		e.sessionTimer.Stop()
		e.sessionTimer = nil
	}
}

func (e *Engine) sessionTick(t *ticker) bool {
	e.mu.Lock()
	if e.sessionTimer != t {
		e.mu.Unlock()
		return false
	}
	elapsed := e.now().Sub(e.stats.StartTime)
	e.mu.Unlock()

	e.emit(Event{Kind: EventElapsed, Elapsed: elapsed})
	return true
}
