package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2beens/gymstreak/internal/streaks"
)

func newStatusCmd(appFn func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show streaks, balances and the current week (finalizes ended weeks first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			snapshot, err := a.service.Snapshot(cmd.Context(), a.userID, a.now())
			if err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), snapshot)
			return nil
		},
	}
}

func newFinalizeCmd(appFn func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize",
		Short: "Finalize all ended weeks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			result, err := a.service.Finalize(cmd.Context(), a.userID, a.now())
			if err != nil {
				return err
			}
			printFinalizeResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newCarryoverCmd(appFn func() *app) *cobra.Command {
	var week, track string
	cmd := &cobra.Command{
		Use:   "carryover",
		Short: "Spend a carryover credit as one workout in the current or next week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			summary, err := a.service.ApplyCarryover(
				cmd.Context(),
				a.userID,
				streaks.CarryoverTarget(week),
				streaks.CarryoverTrack(track),
				a.now(),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "carryover applied to %s: weights %d, abs %d\n",
				summary.WeekID, summary.EffectiveWeights(), summary.EffectiveAbs())
			return nil
		},
	}
	cmd.Flags().StringVar(&week, "week", string(streaks.TargetCurrentWeek), "target week [current | next]")
	cmd.Flags().StringVar(&track, "track", string(streaks.CarryoverWeights), "track [weights | abs]")
	return cmd
}

func newRescueCmd(appFn func() *app) *cobra.Command {
	rescueCmd := &cobra.Command{
		Use:   "rescue",
		Short: "Handle a pending save token rescue (prompt rescue policy)",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the pending rescue, if any",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			pending, err := a.service.PendingRescue(cmd.Context(), a.userID, a.now())
			if err != nil {
				return err
			}
			if pending == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending rescue")
				return nil
			}
			printRescue(cmd.OutOrStdout(), pending)
			return nil
		},
	}

	resolve := func(confirm bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a := appFn()
			pending, err := a.service.PendingRescue(cmd.Context(), a.userID, a.now())
			if err != nil {
				return err
			}
			if pending == nil {
				return streaks.ErrNoPendingRescue
			}

			var result *streaks.FinalizeResult
			if confirm {
				result, err = a.service.ConfirmRescue(cmd.Context(), a.userID, pending.WeekID, pending.Track, a.now())
			} else {
				result, err = a.service.DeclineRescue(cmd.Context(), a.userID, pending.WeekID, pending.Track, a.now())
			}
			if err != nil {
				return err
			}
			printFinalizeResult(cmd.OutOrStdout(), result)
			return nil
		}
	}

	rescueCmd.AddCommand(
		showCmd,
		&cobra.Command{
			Use:   "confirm",
			Short: "Spend save tokens to keep the streak of the pending rescue",
			Args:  cobra.NoArgs,
			RunE:  resolve(true),
		},
		&cobra.Command{
			Use:   "decline",
			Short: "Let the streak of the pending rescue reset",
			Args:  cobra.NoArgs,
			RunE:  resolve(false),
		},
	)
	return rescueCmd
}

func printSnapshot(w io.Writer, s *streaks.Snapshot) {
	fmt.Fprintf(w, "week %s (last finalized: %s)\n", s.CurrentWeekID, orNone(s.State.LastFinalizedWeekID))
	for _, track := range streaks.Tracks {
		fmt.Fprintf(w, "  %-8s current %3d  best %3d  tokens %d  qualifies now: %t\n",
			track,
			s.State.Current(track),
			s.State.Best(track),
			s.State.SaveTokens(track),
			s.Provisional.Get(track),
		)
	}
	fmt.Fprintf(w, "  carryover credits: %d\n", s.State.GeneralCarryoverCredits)
	fmt.Fprintf(w, "  this week: weights %d, abs %d\n", s.CurrentWeek.EffectiveWeights(), s.CurrentWeek.EffectiveAbs())
	if s.PendingRescue != nil {
		printRescue(w, s.PendingRescue)
	}
}

func printFinalizeResult(w io.Writer, r *streaks.FinalizeResult) {
	if len(r.Weeks) == 0 {
		fmt.Fprintln(w, "nothing to finalize")
	}
	for _, outcome := range r.Weeks {
		if outcome.AlreadyFinalized {
			continue
		}
		fmt.Fprintf(w, "%s qualified: [%s]", outcome.WeekID, joinTracks(outcome.Qualified))
		if len(outcome.Rescued) > 0 {
			fmt.Fprintf(w, " rescued: [%s]", joinTracks(outcome.Rescued))
		}
		if len(outcome.Reset) > 0 {
			fmt.Fprintf(w, " reset: [%s]", joinTracks(outcome.Reset))
		}
		for _, award := range outcome.TokensAwarded {
			fmt.Fprintf(w, " +token %s@%d", award.Track, award.Milestone)
		}
		if outcome.CreditEarned {
			fmt.Fprint(w, " +carryover credit")
		}
		fmt.Fprintln(w)
	}
	if r.PendingRescue != nil {
		printRescue(w, r.PendingRescue)
	}
}

func printRescue(w io.Writer, r *streaks.RescueRequest) {
	fmt.Fprintf(w, "pending rescue: %s %s, streak %d, costs %d of %d tokens (streakctl rescue confirm|decline)\n",
		r.WeekID, r.Track, r.Current, r.Cost, r.Balance)
}

func joinTracks(tracks []streaks.Track) string {
	parts := make([]string, 0, len(tracks))
	for _, t := range tracks {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, " ")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
