package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cppla/focusstreak/client"
	"github.com/cppla/focusstreak/streak"
	"github.com/cppla/focusstreak/utils"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server   string
	Cache    string
	User     string
	TZ       string
	Token    string
	LogLevel string

	clock  streak.Clock
	logger *zap.Logger
}

// NewRootCommand creates the root command for streakctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(streak.SystemClock{})
}

func newRootCommand(clock streak.Clock) *cobra.Command {
	opts := &RootOptions{clock: clock}

	cmd := &cobra.Command{
		Use:   "streakctl",
		Short: "Track a daily focus streak",
		Long: `streakctl keeps a daily check-in streak toward a goal.

State lives in a local cache file. With --server it is reconciled with the
remote Record Store on every run; the newer copy wins.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.location(); err != nil {
				return err
			}
			opts.logger = utils.NewConsoleLogger(opts.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", os.Getenv("FOCUSSTREAK_SERVER"), "Record Store base URL (empty: offline)")
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", client.DefaultCachePath(), "local cache file")
	cmd.PersistentFlags().StringVar(&opts.User, "user", os.Getenv("FOCUSSTREAK_USER"), "user id (default: generated per device)")
	cmd.PersistentFlags().StringVar(&opts.TZ, "tz", "", "IANA time zone for calendar days (default: local)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("FOCUSSTREAK_TOKEN"), "bearer token for the server")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewCheckInCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewGoalCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewWhoAmICommand(opts))

	return cmd
}

func (o *RootOptions) location() (*time.Location, error) {
	if o.TZ == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(o.TZ)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz %q: %w", o.TZ, err)
	}
	return loc, nil
}

func (o *RootOptions) log() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

func (o *RootOptions) remote() *client.RemoteRepo {
	if o.Server == "" {
		return nil
	}
	var opts []client.RemoteOption
	if o.Token != "" {
		opts = append(opts, client.WithToken(o.Token))
	}
	return client.NewRemoteRepo(o.Server, opts...)
}

// openTracker resolves the identity and loads the reconciled record.
func (o *RootOptions) openTracker(ctx context.Context) (*client.Tracker, error) {
	loc, err := o.location()
	if err != nil {
		return nil, err
	}
	cache := client.NewLocalCache(o.Cache, o.log())
	userID, err := client.ResolveUserID(o.User, cache)
	if err != nil {
		return nil, err
	}

	topts := client.Options{
		UserID:   userID,
		Local:    cache,
		Calendar: streak.NewCalendar(loc),
		Clock:    o.clock,
		Logger:   o.log(),
	}
	// Keep Remote a nil interface when offline.
	if r := o.remote(); r != nil {
		topts.Remote = r
	}
	tr := client.NewTracker(topts)
	if err := tr.Open(ctx); err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}
	return tr, nil
}
