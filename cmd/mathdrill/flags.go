package main

import (
	"fmt"

	"github.com/at-ishikawa/mathdrill/internal/history"
	"github.com/at-ishikawa/mathdrill/internal/practice"
	"github.com/at-ishikawa/mathdrill/internal/ranking"
	"github.com/at-ishikawa/mathdrill/internal/session"
	"github.com/spf13/pflag"
)

type DifficultyFlag practice.Difficulty

// Set implements pflag.Value.
func (d *DifficultyFlag) Set(v string) error {
	difficulty, err := practice.ParseDifficulty(v)
	if err != nil {
		return err
	}
	*d = DifficultyFlag(difficulty)
	return nil
}

// String implements pflag.Value.
func (d *DifficultyFlag) String() string {
	if d == nil {
		return ""
	}
	return string(*d)
}

// Type implements pflag.Value.
func (d *DifficultyFlag) Type() string {
	return "DifficultyFlag"
}

type ResultFlag history.Result

func (r *ResultFlag) Set(v string) error {
	result, err := history.ParseResult(v)
	if err != nil {
		return fmt.Errorf("invalid value %q, valid values are %q or %q", v, history.ResultCorrect, history.ResultIncorrect)
	}
	*r = ResultFlag(result)
	return nil
}

func (r *ResultFlag) String() string {
	if r == nil {
		return ""
	}
	return string(*r)
}

func (r *ResultFlag) Type() string {
	return "ResultFlag"
}

type WindowFlag ranking.Window

func (w *WindowFlag) Set(v string) error {
	window, err := ranking.ParseWindow(v)
	if err != nil {
		return fmt.Errorf("invalid value %q, valid values are %v", v, ranking.Windows())
	}
	*w = WindowFlag(window)
	return nil
}

func (w *WindowFlag) String() string {
	if w == nil {
		return ""
	}
	return string(*w)
}

func (w *WindowFlag) Type() string {
	return "WindowFlag"
}

type RoleFlag session.Role

func (r *RoleFlag) Set(v string) error {
	switch session.Role(v) {
	case session.RoleStudent, session.RoleTeacher:
		*r = RoleFlag(v)
	default:
		return fmt.Errorf("invalid value %q, valid values are %q or %q", v, session.RoleStudent, session.RoleTeacher)
	}
	return nil
}

func (r *RoleFlag) String() string {
	if r == nil {
		return ""
	}
	return string(*r)
}

func (r *RoleFlag) Type() string {
	return "RoleFlag"
}

var (
	_ pflag.Value = (*DifficultyFlag)(nil)
	_ pflag.Value = (*ResultFlag)(nil)
	_ pflag.Value = (*WindowFlag)(nil)
	_ pflag.Value = (*RoleFlag)(nil)
)
