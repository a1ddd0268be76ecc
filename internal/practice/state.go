package practice

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid transition")

type State int

const (
	// StateIdle is the settings screen.
	StateIdle State = iota
	// StateInProgress shows a question and accepts input.
	StateInProgress
	// StateGrading has a submission in flight.
	StateGrading
	// StateResolved shows the result and waits for the next question.
	StateResolved
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateGrading:
		return "grading"
	case StateResolved:
		return "resolved"
	case StateEnded:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Action int

const (
	ActionStart Action = iota
	ActionSubmit
	ActionGraded
	ActionGradeFailed
	ActionNext
	ActionEnd
	ActionReturn
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionSubmit:
		return "submit"
	case ActionGraded:
		return "graded"
	case ActionGradeFailed:
		return "grade_failed"
	case ActionNext:
		return "next"
	case ActionEnd:
		return "end"
	case ActionReturn:
		return "return"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

var transitions = map[State]map[Action]State{
	StateIdle: {
		ActionStart: StateInProgress,
	},
	StateInProgress: {
		ActionSubmit: StateGrading,
		// Next while a question is shown skips it without counting it.
		ActionNext: StateInProgress,
		ActionEnd:  StateEnded,
	},
	StateGrading: {
		ActionGraded:      StateResolved,
		ActionGradeFailed: StateInProgress,
		ActionEnd:         StateEnded,
	},
	StateResolved: {
		ActionNext: StateInProgress,
		ActionEnd:  StateEnded,
	},
	StateEnded: {
		ActionReturn: StateIdle,
	},
}

// Transition returns the state reached from s by a, or ErrInvalidTransition.
func Transition(s State, a Action) (State, error) {
	next, ok := transitions[s][a]
	if !ok {
		return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, a, s)
	}
	return next, nil
}
