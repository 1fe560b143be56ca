package main

import (
	"fmt"

	"live-voting/internal/domain"

	"github.com/spf13/cobra"
)

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative actions on the voting server",
	}

	cmd.AddCommand(
		newAdminActionCommand("reset", "Clear all votes and start a new round",
			func(a *app, cmd *cobra.Command) (*domain.AdminResponse, error) {
				return a.client.ResetVotes(commandContext(cmd))
			}),
		newAdminActionCommand("unlock", "Allow every client to vote again",
			func(a *app, cmd *cobra.Command) (*domain.AdminResponse, error) {
				return a.client.UnlockClients(commandContext(cmd))
			}),
		newAdminStatusCommand(),
	)
	return cmd
}

func newAdminActionCommand(use, short string,
	action func(a *app, cmd *cobra.Command) (*domain.AdminResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := action(a, cmd)
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("%s failed: %s", use, resp.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func newAdminStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status and the vote title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := commandContext(cmd)
			status, err := a.client.GetServerStatus(ctx)
			if err != nil {
				return err
			}
			title, err := a.client.GetVoteTitle(ctx)
			if err != nil {
				a.log.Warn("Failed to load vote title", "error", err)
			}

			out := cmd.OutOrStdout()
			if title != "" {
				fmt.Fprintf(out, "Title:       %s\n", title)
			}
			fmt.Fprintf(out, "Running:     %t\n", status.Running)
			fmt.Fprintf(out, "Port:        %d\n", status.Port)
			fmt.Fprintf(out, "Candidates:  %d\n", status.TotalCandidates)
			fmt.Fprintf(out, "Total votes: %d\n", status.TotalVotes)
			return nil
		},
	}
}
