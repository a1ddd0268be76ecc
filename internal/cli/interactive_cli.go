// Package cli implements the terminal front end: the practice loop, the
// authentication prompts and the history, calendar and ranking views.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/at-ishikawa/mathdrill/internal/i18n"
	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	errEnd = errors.New("end")
)

// InteractiveCLI holds what every interactive command shares: the line
// reader, a serialized writer and the localizer.
type InteractiveCLI struct {
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	localizer    *i18n.Localizer
	// passwordFD is the terminal read without echo, or -1 to read passwords as plain lines.
	passwordFD int

	// mu serializes output. Timer events print from other goroutines.
	mu      sync.Mutex
	bold    *color.Color
	success *color.Color
	failure *color.Color
	warning *color.Color
	faint   *color.Color
}

func NewInteractiveCLI(stdin io.Reader, stdout io.Writer, localizer *i18n.Localizer) *InteractiveCLI {
	return &InteractiveCLI{
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		localizer:    localizer,
		passwordFD:   -1,
		bold:         color.New(color.Bold),
		success:      color.New(color.FgGreen),
		failure:      color.New(color.FgRed),
		warning:      color.New(color.FgYellow),
		faint:        color.New(color.Faint),
	}
}

// NewStdioCLI is the InteractiveCLI bound to the process terminal.
func NewStdioCLI(localizer *i18n.Localizer) *InteractiveCLI {
	cli := NewInteractiveCLI(os.Stdin, os.Stdout, localizer)
	cli.passwordFD = int(os.Stdin.Fd())
	return cli
}

func (cli *InteractiveCLI) T(msgID string) string {
	return cli.localizer.T(msgID)
}

func (cli *InteractiveCLI) Td(msgID string, data map[string]any) string {
	return cli.localizer.Td(msgID, data)
}

func (cli *InteractiveCLI) printf(c *color.Color, format string, args ...any) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	if c == nil {
		_, _ = fmt.Fprintf(cli.stdoutWriter, format, args...)
		return
	}
	_, _ = c.Fprintf(cli.stdoutWriter, format, args...)
}

func (cli *InteractiveCLI) println(c *color.Color, line string) {
	cli.printf(c, "%s\n", line)
}

// readLine returns the next trimmed line. At the end of the input the last
// partial line is returned together with io.EOF.
func (cli *InteractiveCLI) readLine() (string, error) {
	line, err := cli.stdinReader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimSpace(line), err
}

func (cli *InteractiveCLI) prompt(label string) (string, error) {
	cli.printf(nil, "%s", label)
	line, err := cli.readLine()
	if errors.Is(err, io.EOF) && line != "" {
		return line, nil
	}
	return line, err
}

func (cli *InteractiveCLI) promptPassword(label string) (string, error) {
	if cli.passwordFD < 0 || !term.IsTerminal(cli.passwordFD) {
		return cli.prompt(label)
	}
	cli.printf(nil, "%s", label)
	password, err := term.ReadPassword(cli.passwordFD)
	cli.println(nil, "")
	if err != nil {
		return "", fmt.Errorf("term.ReadPassword() > %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}

//go:generate mockgen -source=interactive_cli.go -destination=../mocks/cli/mock_session.go -package=mock_cli Session

type Session interface {
	Session(ctx context.Context) error
}

// Run calls session.Session until it reports the end, fails, or the
// process is interrupted.
func (cli *InteractiveCLI) Run(ctx context.Context, session Session) error {
	ctx, cancel := signal.NotifyContext(
		ctx,
		os.Interrupt,
	)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := session.Session(ctx); err != nil {
				if errors.Is(err, errEnd) {
					return
				}
				errCh <- err
				return
			}
		}
	}()
	select {
	case <-ctx.Done():
		cli.println(nil, "")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
	}
	return nil
}
