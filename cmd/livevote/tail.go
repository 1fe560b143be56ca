package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"live-voting/internal/domain"
	"live-voting/internal/infrastructure/mysql"
	"live-voting/internal/infrastructure/redis"
	"live-voting/internal/store"

	"github.com/spf13/cobra"
)

type tailOptions struct {
	history int
}

func newTailCommand() *cobra.Command {
	opts := &tailOptions{}

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow envelopes mirrored to Redis by a running watch",
		Long: `Print the last results snapshot a watch process saved to Redis, then
stream every push envelope it republishes. With --history and MySQL enabled,
the most recent journaled votes are printed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.history, "history", 0, "Print this many journaled votes from MySQL before following")
	return cmd
}

func runTail(cmd *cobra.Command, opts *tailOptions) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()

	if opts.history > 0 {
		if !a.cfg.MySQL.Enabled {
			return errors.New("--history requires mysql.enabled")
		}
		db, err := connectMysql(ctx, a)
		if err != nil {
			return err
		}
		events, err := mysql.NewMySQLVoteEventRepository(db).ListVoteEvents(ctx, opts.history)
		db.Close()
		if err != nil {
			return err
		}
		for i := len(events) - 1; i >= 0; i-- {
			e := events[i]
			fmt.Fprintf(out, "%s vote for %s (%d)\n", e.ReceivedAt.Format("15:04:05"), e.CandidateName, e.CandidateID)
		}
	}

	rdb, err := connectRedis(ctx, a)
	if err != nil {
		return err
	}
	defer rdb.Close()

	snapshot, err := redis.NewResultsCache(rdb, a.cfg.Redis.SnapshotKey).GetResults(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fmt.Fprintln(out, "No results snapshot yet")
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "Snapshot (%d votes)\n", snapshot.TotalVotes)
		writeResults(out, snapshot.TotalVotes, store.SortResults(*snapshot))
	}

	subscriber := redis.NewEnvelopeSubscriber(rdb, a.cfg.Redis.Channel, a.log)
	err = subscriber.Subscribe(ctx, func(msg domain.Message) error {
		_, err := fmt.Fprintf(out, "%s %s\n", msg.Type, msg.Data)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
