package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cppla/focusstreak/client"
	"github.com/cppla/focusstreak/streak"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current streak and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			return printStatus(cmd.Context(), cmd.OutOrStdout(), tr, opts)
		},
	}
}

// NewCheckInCommand creates the checkin command.
func NewCheckInCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin",
		Short: "Check in for today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			changed, err := tr.CheckIn(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			st := tr.Status()
			if changed {
				fmt.Fprintf(out, "Checked in. Streak: %s\n", days(st.DisplayStreak))
			} else {
				fmt.Fprintf(out, "Already checked in today. Streak: %s\n", days(st.DisplayStreak))
			}
			if st.Progress.GoalReached {
				fmt.Fprintln(out, "Goal achieved!")
			}
			return nil
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the streak to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			if err := tr.Reset(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Streak reset.")
			fmt.Fprintf(out, "Choose a new goal: streakctl goal <days> (%s)\n", joinInts(goalOptions(cmd.Context(), opts)))
			return nil
		},
	}
}

// NewGoalCommand creates the goal command.
func NewGoalCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "goal [days]",
		Short: "Set the streak goal, or list the suggested goals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "Suggested goals: %s days\n", joinInts(goalOptions(cmd.Context(), opts)))
				return nil
			}
			goal, err := strconv.Atoi(args[0])
			if err != nil || goal <= 0 {
				return fmt.Errorf("invalid goal %q: must be a positive number of days", args[0])
			}

			tr, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			if err := tr.SetGoal(cmd.Context(), goal); err != nil {
				return err
			}
			st := tr.Status()
			fmt.Fprintf(out, "Goal set to %s. %d to go.\n", days(goal), st.Progress.DaysRemaining)
			return nil
		},
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := opts.openTracker(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			entries := client.Recent(tr.History(), client.HistoryShown)
			if len(entries) == 0 {
				fmt.Fprintln(out, "No activity yet.")
				return nil
			}
			fmt.Fprintln(out, "Recent activity:")
			for _, e := range entries {
				label := e.Date
				if d, err := streak.ParseDay(e.Date); err == nil {
					label = time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("Mon, Jan 2")
				}
				fmt.Fprintf(out, "  %-12s %d day streak\n", label, e.Streak)
			}
			return nil
		},
	}
}

// NewWhoAmICommand creates the whoami command.
func NewWhoAmICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the user id this device syncs as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := client.ResolveUserID(opts.User, client.NewLocalCache(opts.Cache, opts.log()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func printStatus(ctx context.Context, out io.Writer, tr *client.Tracker, opts *RootOptions) error {
	loc, err := opts.location()
	if err != nil {
		return err
	}
	st := tr.Status()
	fmt.Fprintf(out, "User:     %s\n", tr.UserID())
	fmt.Fprintf(out, "Streak:   %s (goal %s)\n", days(st.DisplayStreak), days(st.Goal))
	fmt.Fprintf(out, "Progress: %.2f%% (%d days remaining)\n", st.Progress.Percentage, st.Progress.DaysRemaining)
	if st.HasCheckedInToday {
		fmt.Fprintln(out, "Today:    checked in")
	} else {
		fmt.Fprintln(out, "Today:    not checked in")
	}
	if rec := tr.Record(); rec != nil && rec.CurrentStreak > 0 {
		fmt.Fprintf(out, "Last checked in: %s\n", rec.LastCheckInDate.In(loc).Format("Mon, Jan 2 2006 15:04"))
	}
	if st.Progress.GoalReached {
		fmt.Fprintln(out, "Goal achieved!")
	}
	if st.NeedsGoal {
		fmt.Fprintf(out, "Choose a goal: streakctl goal <days> (%s)\n", joinInts(goalOptions(ctx, opts)))
	}
	return nil
}

// goalOptions asks the server for its goal list and falls back to the
// built-in one.
func goalOptions(ctx context.Context, opts *RootOptions) []int {
	r := opts.remote()
	if r == nil {
		return streak.GoalOptions
	}
	cfg, err := r.Config(ctx)
	if err != nil || len(cfg.GoalOptions) == 0 {
		if err != nil {
			opts.log().Warn("fetch goal options failed", zap.Error(err))
		}
		return streak.GoalOptions
	}
	return cfg.GoalOptions
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
