package main

import (
	"github.com/at-ishikawa/mathdrill/internal/cli"
	"github.com/at-ishikawa/mathdrill/internal/session"
	"github.com/spf13/cobra"
)

func newLoginCommand() *cobra.Command {
	var username string
	command := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			return cli.NewAuthCLI(a.newCLI(cmd), a.gateway, a.sessions).Login(cmd.Context(), username)
		},
	}
	command.Flags().StringVar(&username, "username", "", "Username. Prompted when empty")
	return command
}

func newRegisterCommand() *cobra.Command {
	var username string
	role := RoleFlag(session.RoleStudent)
	command := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			return cli.NewAuthCLI(a.newCLI(cmd), a.gateway, a.sessions).Register(cmd.Context(), username, session.Role(role))
		},
	}
	flags := command.Flags()
	flags.StringVar(&username, "username", "", "Username. Prompted when empty")
	flags.Var(&role, "role", "Account role. Options: student, teacher")
	return command
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			return cli.NewAuthCLI(a.newCLI(cmd), a.gateway, a.sessions).Logout(cmd.Context())
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			cli.NewAuthCLI(a.newCLI(cmd), a.gateway, a.sessions).Status()
			return nil
		},
	}
}
