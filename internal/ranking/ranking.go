// Package ranking loads the hot-score leaderboards.
package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/at-ishikawa/mathdrill/internal/api"
)

// ErrNotLoggedIn is returned without contacting the server when there is no session.
var ErrNotLoggedIn = errors.New("not logged in")

type Window string

const (
	WindowHourly Window = "hourly"
	WindowDaily  Window = "daily"
	WindowWeekly Window = "weekly"
)

func Windows() []Window {
	return []Window{WindowHourly, WindowDaily, WindowWeekly}
}

func ParseWindow(s string) (Window, error) {
	for _, w := range Windows() {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown ranking window: %s", s)
}

//go:generate mockgen -source=ranking.go -destination=../mocks/ranking/mock_ranking.go -package=mock_ranking
type Gateway interface {
	Rankings(ctx context.Context, window string) ([]api.RankingEntry, error)
}

type TokenSource interface {
	CurrentToken() string
}

type Row struct {
	Rank     int
	Username string
	HotScore string
}

func NewRow(entry api.RankingEntry) Row {
	return Row{
		Rank:     entry.Rank,
		Username: entry.Username,
		HotScore: fmt.Sprintf("%.1f", entry.HotScore),
	}
}

// Board fetches a leaderboard every time a window is selected. Nothing is cached.
type Board struct {
	gateway Gateway
	tokens  TokenSource
	window  Window
}

func NewBoard(gateway Gateway, tokens TokenSource) *Board {
	return &Board{
		gateway: gateway,
		tokens:  tokens,
		window:  WindowHourly,
	}
}

func (b *Board) Window() Window {
	return b.window
}

// Select switches to window and loads it.
func (b *Board) Select(ctx context.Context, window Window) ([]Row, error) {
	b.window = window
	return b.Fetch(ctx)
}

func (b *Board) Fetch(ctx context.Context) ([]Row, error) {
	if b.tokens.CurrentToken() == "" {
		return nil, ErrNotLoggedIn
	}
	entries, err := b.gateway.Rankings(ctx, string(b.window))
	if err != nil {
		return nil, fmt.Errorf("gateway.Rankings(%s) > %w", b.window, err)
	}
	rows := make([]Row, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, NewRow(entry))
	}
	return rows, nil
}
