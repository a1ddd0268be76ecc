package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/at-ishikawa/mathdrill/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configFile string
	debugMode  bool
	language   string
)

func setupLogger(debugMode bool) {
	setupLoggerWithWriter(os.Stderr, debugMode)
}

func setupLoggerWithWriter(w io.Writer, debugMode bool) {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	slog.SetDefault(slog.New(handler))
}

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "mathdrill",
		Short:         "Arithmetic practice in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(debugMode)
		},
	}
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is ./config.yml or $HOME/.config/mathdrill/config.yml)")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug logging")
	flags.StringVar(&language, "lang", "", "Language of the messages. Options: en, zh")

	rootCommand.AddCommand(
		newLoginCommand(),
		newRegisterCommand(),
		newLogoutCommand(),
		newStatusCommand(),
		newPracticeCommand(),
		newStatsCommand(),
		newHistoryCommand(),
		newCalendarCommand(),
		newRankCommand(),
		newReportCommand(),
	)
	return rootCommand
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// The message was already shown to the user.
		if errors.Is(err, cli.ErrSessionExpired) {
			os.Exit(1)
		}
		fmt.Printf("failed to execute a command: %+v\n", err)
		os.Exit(1)
	}
}
