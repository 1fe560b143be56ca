package main

import (
	"context"
	"encoding/json"
	"fmt"

	"live-voting/internal/store"

	"github.com/spf13/cobra"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newResultsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Print the current ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			rs, err := a.client.GetResults(commandContext(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(store.WithPercentage(*rs))
			}

			sorted := store.SortResults(*rs)
			fmt.Fprintf(out, "Results (%d votes)\n", rs.TotalVotes)
			writeResults(out, rs.TotalVotes, sorted)
			if winner := store.Winner(sorted); winner != nil && rs.TotalVotes > 0 {
				fmt.Fprintf(out, "Leading: %s\n", winner.CandidateName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results with percentages as JSON")
	return cmd
}

func newCandidatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List the candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			candidates, err := a.client.GetCandidates(commandContext(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range candidates {
				if c.Description != "" {
					fmt.Fprintf(out, "%4d  %s (%s)\n", c.ID, c.Name, c.Description)
				} else {
					fmt.Fprintf(out, "%4d  %s\n", c.ID, c.Name)
				}
			}
			return nil
		},
	}
}

func newClientIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "client-id",
		Short: "Print this client's persisted identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.clientID(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
