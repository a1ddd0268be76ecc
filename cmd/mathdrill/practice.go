package main

import (
	"fmt"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/cli"
	"github.com/at-ishikawa/mathdrill/internal/config"
	"github.com/at-ishikawa/mathdrill/internal/practice"
	"github.com/spf13/cobra"
)

func newPracticeCommand() *cobra.Command {
	var difficulty DifficultyFlag
	var operations []string
	command := &cobra.Command{
		Use:   "practice",
		Short: "Solve arithmetic problems one after another",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			flags := cmd.Flags()
			if !flags.Changed("difficulty") && a.cfg.Practice.Difficulty != "" {
				if err := difficulty.Set(a.cfg.Practice.Difficulty); err != nil {
					return fmt.Errorf("invalid practice.difficulty: %w", err)
				}
			}
			if !flags.Changed("operations") {
				operations = a.cfg.Practice.Operations
			}
			settings, err := practiceSettings(difficulty, operations)
			if err != nil {
				return err
			}

			source, err := practice.NewSource(a.cfg.Practice.APIVariant, a.gateway)
			if err != nil {
				return fmt.Errorf("practice.NewSource() > %w", err)
			}

			base := a.newCLI(cmd)
			if err := base.RequireLogin(a.sessions.Current()); err != nil {
				return err
			}
			practiceCLI := cli.NewPracticeCLI(base, source, settings, tickIntervals(a.cfg.Practice))
			return practiceCLI.Run(cmd.Context())
		},
	}
	flags := command.Flags()
	flags.Var(&difficulty, "difficulty", "Difficulty of the problems. Options: easy, medium, hard")
	flags.StringSliceVar(&operations, "operations", nil, "Operations to practice. Options: add, subtract, multiply, divide")
	return command
}

func practiceSettings(difficulty DifficultyFlag, operations []string) (practice.Settings, error) {
	ops, err := practice.ParseOperations(operations)
	if err != nil {
		return practice.Settings{}, fmt.Errorf("practice.ParseOperations() > %w", err)
	}
	return practice.Settings{
		Difficulty: practice.Difficulty(difficulty),
		Operations: ops,
	}, nil
}

func tickIntervals(cfg config.PracticeConfig) practice.Option {
	countdown := practice.DefaultCountdownTick
	if cfg.CountdownTickMillis > 0 {
		countdown = time.Duration(cfg.CountdownTickMillis) * time.Millisecond
	}
	return practice.WithTickIntervals(countdown, practice.DefaultSessionTick)
}
