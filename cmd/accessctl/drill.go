package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/emergency"
)

var drillCmd = &cobra.Command{
	Use:   "drill",
	Short: "Rehearse the emergency countdown",
	Long: `Opens the emergency panel, starts the countdown on the real clock and
prints every state change. No alert leaves the process.

Examples:
  # Run a full 5 second countdown
  drill --seconds 5

  # Cancel two seconds in
  drill --seconds 5 --cancel-after 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		seconds, _ := f.GetInt("seconds")
		cancelAfter, _ := f.GetInt("cancel-after")
		tick, _ := f.GetDuration("tick")

		if seconds <= 0 {
			return fmt.Errorf("--seconds must be positive")
		}
		if cancelAfter < 0 || (cancelAfter > 0 && cancelAfter >= seconds) {
			return fmt.Errorf("--cancel-after must be between 1 and %d", seconds-1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runDrill(ctx, cmd.OutOrStdout(), drillOptions{
			seconds:     seconds,
			cancelAfter: cancelAfter,
			tick:        tick,
		}, log)
	},
}

func init() {
	f := drillCmd.Flags()
	f.Int("seconds", emergency.CountdownSeconds, "countdown length in ticks")
	f.Int("cancel-after", 0, "cancel after this many ticks (0 lets the alert fire)")
	f.Duration("tick", time.Second, "tick interval")
	_ = f.MarkHidden("tick")
	rootCmd.AddCommand(drillCmd)
}

type drillOptions struct {
	seconds     int
	cancelAfter int
	tick        time.Duration
}

func runDrill(ctx context.Context, out io.Writer, opts drillOptions, logger *slog.Logger) error {
	updates := make(chan emergency.Snapshot, opts.seconds+8)
	alerted := make(chan struct{}, 1)

	session := emergency.NewSession("drill", emergency.SessionConfig{
		Countdown:    opts.seconds,
		TickInterval: opts.tick,
	}, emergency.RealClock(), func(context.Context, string, *domain.Coordinates) error {
		alerted <- struct{}{}
		return nil
	}, logger)
	defer session.Stop()

	unsubscribe := session.Subscribe(func(snap emergency.Snapshot) {
		select {
		case updates <- snap:
		default:
		}
	})
	defer unsubscribe()

	printSnapshot(out, session.Snapshot())
	if _, err := session.Open(); err != nil {
		return err
	}
	if _, err := session.Confirm(nil); err != nil {
		return err
	}

	cancelled := false
	for {
		var snap emergency.Snapshot
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap = <-updates:
		}
		printSnapshot(out, snap)

		switch snap.State {
		case emergency.StateConfirming:
			elapsed := snap.Countdown - snap.Remaining
			if opts.cancelAfter > 0 && !cancelled && elapsed >= opts.cancelAfter {
				// The last tick may win the race; the sent state follows.
				if _, err := session.Cancel(); err != nil && !errors.Is(err, emergency.ErrInvalidTransition) {
					return err
				}
				cancelled = true
			}

		case emergency.StatePanelOpen:
			if cancelled {
				fmt.Fprintln(out, "countdown cancelled")
				if _, err := session.Close(); err != nil {
					return err
				}
			}

		case emergency.StateSent:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-alerted:
			}
			fmt.Fprintln(out, "alert dispatched")
			if _, err := session.Close(); err != nil {
				return err
			}

		case emergency.StateIdle:
			return nil
		}
	}
}

func printSnapshot(out io.Writer, snap emergency.Snapshot) {
	fmt.Fprintf(out, "%-11s remaining=%d/%d\n", snap.State, snap.Remaining, snap.Countdown)
}
