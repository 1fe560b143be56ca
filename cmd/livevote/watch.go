package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live-voting/internal/api/handlers"
	"live-voting/internal/infrastructure/leader"
	"live-voting/internal/infrastructure/mysql"
	"live-voting/internal/infrastructure/redis"
	"live-voting/internal/infrastructure/websocket"
	"live-voting/internal/metrics"
	"live-voting/internal/services"
	"live-voting/internal/store"
	"live-voting/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	listen string
	quiet  bool
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay connected and print live results",
		Long: `Open the push channel and keep it open, reconnecting at a fixed interval
whenever it drops. Results, notifications and errors are printed as they
change. With --listen (or view.listen) the current views are also served as
JSON together with /health and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "Serve the view API on this address, e.g. :8080")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print live updates")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *watchOptions) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	cfg, log := a.cfg, a.log

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clientID, err := a.clientID(ctx)
	if err != nil {
		return err
	}
	log.Info("Starting live watch", "client_id", clientID, "config", cfg.GetConfigString())

	clock := clockwork.NewRealClock()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	channelMetrics := metrics.NewChannelMetrics(registry)

	st := store.New(cfg.Store, clock, log)
	defer st.Close()

	dispatcher := websocket.NewDispatcher(log, channelMetrics)
	policy := websocket.NewReconnectPolicy(clock, cfg.Channel.ReconnectInterval)
	dialer := websocket.NewGorillaDialer(cfg.Channel.HandshakeTimeout, http.Header{
		"User-Agent": []string{cfg.Identity.UserAgent},
	})
	channel := websocket.NewChannel(cfg.WebSocketURL(), dialer, dispatcher, policy, log, channelMetrics)

	voting := services.NewVotingService(a.client, st, clientID, log)
	liveSync := services.NewLiveSync(dispatcher, st, voting, log)
	liveSync.Start(ctx)
	defer liveSync.Stop()
	channel.OnStateChange(liveSync.HandleStateChange)

	if !opts.quiet {
		out := newPrinter(cmd.OutOrStdout())
		detach := out.attach(st)
		defer detach()
		channel.OnStateChange(out.state)
	}

	if cfg.Redis.Enabled {
		rdb, err := connectRedis(ctx, a)
		if err != nil {
			return err
		}
		defer rdb.Close()

		mirror := services.NewMirror(dispatcher,
			redis.NewEnvelopePublisher(rdb, cfg.Redis.Channel),
			redis.NewResultsCache(rdb, cfg.Redis.SnapshotKey),
			st, log)
		if cfg.Redis.LeaseTTL > 0 {
			lease := leader.NewRedisLease(rdb, cfg.Redis.LeaseKey, utils.GenerateID("watch"), cfg.Redis.LeaseTTL, log)
			mirror.SetLease(lease)
			leaseCtx, stopLease := context.WithCancel(ctx)
			leaseDone := make(chan struct{})
			go func() {
				defer close(leaseDone)
				lease.Run(leaseCtx)
			}()
			defer func() {
				stopLease()
				<-leaseDone
			}()
		}
		mirror.Start(ctx)
		defer mirror.Stop()
	}

	if cfg.MySQL.Enabled {
		db, err := connectMysql(ctx, a)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := mysql.NewMySQLVoteEventRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		recorder := services.NewVoteRecorder(dispatcher, repo, clientID, clock, log)
		recorder.Start(ctx)
		defer recorder.Stop()
	}

	resync := services.NewCronResync(cfg.Resync.Interval, voting, log)
	if err := resync.Start(ctx); err != nil {
		return err
	}
	defer resync.Stop()

	listen := opts.listen
	if listen == "" {
		listen = cfg.View.Listen
	}
	if listen != "" {
		e := handlers.NewViewServer(handlers.NewViewHandler(st, channel, log), registry)
		go func() {
			log.Info("Starting view API", "address", listen)
			if err := e.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("View API failed", "error", err)
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				log.Error("View API forced to shutdown", "error", err)
			}
		}()
	}

	channel.Connect()
	<-ctx.Done()

	log.Info("Shutting down live watch")
	channel.Close()
	return nil
}

func connectRedis(ctx context.Context, a *app) (*redisClient.Client, error) {
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     a.cfg.Redis.Address,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	a.log.Info("Connected to Redis", "address", a.cfg.Redis.Address)
	return rdb, nil
}

func connectMysql(ctx context.Context, a *app) (*sql.DB, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	db, err := utils.InitializeMysql(pingCtx, a.cfg.MySQL)
	if err != nil {
		return nil, err
	}
	a.log.Info("Connected to MySQL")
	return db, nil
}

var _ handlers.StateSource = (*websocket.Channel)(nil)
