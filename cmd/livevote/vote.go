package main

import (
	"fmt"
	"strconv"

	"live-voting/internal/services"
	"live-voting/internal/store"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func newVoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <candidate-id>",
		Short: "Cast this client's vote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidateID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid candidate id %q: %w", args[0], err)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := commandContext(cmd)
			clientID, err := a.clientID(ctx)
			if err != nil {
				return err
			}

			st := store.New(a.cfg.Store, clockwork.NewRealClock(), a.log)
			defer st.Close()
			voting := services.NewVotingService(a.client, st, clientID, a.log)

			if err := voting.CheckVoteStatus(ctx); err != nil {
				return err
			}
			if st.VoteStatus.Get().HasVoted {
				fmt.Fprintln(cmd.OutOrStdout(), "This client has already voted in this round")
				return nil
			}

			if err := voting.CastVote(ctx, candidateID); err != nil {
				return err
			}
			if n := st.Notification.Get(); n != nil {
				fmt.Fprintln(cmd.OutOrStdout(), n.Message)
			}
			return nil
		},
	}
}
