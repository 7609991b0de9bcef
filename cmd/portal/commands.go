package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"kdo-portal/internal/models"
	"kdo-portal/internal/report"
)

func resetRaceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-race",
		Short: "Put every pilot back to Pending for the next race",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.registration.ResetForNewRace(cmd.Context(), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pilots reset to %s\n", n, models.StatusPending)
			return nil
		},
	}
}

func exportCommand() *cobra.Command {
	var (
		format       string
		category     string
		championship string
		session      string
		event        string
	)
	cmd := &cobra.Command{
		Use:       "export <report>",
		Short:     "Write a report to stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := report.ParseKind(args[0])
			if err != nil {
				return err
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			board := a.live.Latest(ctx)
			doc, err := report.Build(kind, report.Input{
				Pilots:       a.repo.GetPilots(ctx),
				Categories:   a.repo.GetCategories(ctx),
				Category:     category,
				Championship: championship,
				Session:      session,
				Event:        event,
				Flag:         board.Flag,
				Timing:       board.Rows,
				Now:          time.Now(),
			})
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), f, doc)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv, text or yaml")
	cmd.Flags().StringVar(&category, "category", "", "category filter")
	cmd.Flags().StringVar(&championship, "championship", "", "championship title for standings")
	cmd.Flags().StringVar(&session, "session", "", "session name for results")
	cmd.Flags().StringVar(&event, "event", "", "event name for results")
	return cmd
}

func kindNames() []string {
	out := make([]string, len(report.Kinds))
	for i, k := range report.Kinds {
		out[i] = string(k)
	}
	return out
}

// seedCheckCommand prints what the configured store holds. Collections that
// were never written report their seed values.
func seedCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-check",
		Short: "Show collection sizes and settings of the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			r := a.repo
			settings := r.GetSettings(ctx)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "STORE\t%s\n", cfg.StoreDriver)
			fmt.Fprintf(w, "pilots\t%d\n", len(r.GetPilots(ctx)))
			fmt.Fprintf(w, "championships\t%d\n", len(r.GetChampionships(ctx)))
			fmt.Fprintf(w, "regulations\t%d\n", len(r.GetRegulations(ctx)))
			fmt.Fprintf(w, "news\t%d\n", len(r.GetPressReleases(ctx)))
			fmt.Fprintf(w, "penalties\t%d\n", len(r.GetPenalties(ctx)))
			fmt.Fprintf(w, "marketplace\t%d\n", len(r.GetMarketplace(ctx)))
			fmt.Fprintf(w, "admins\t%d\n", len(r.GetAdminUsers(ctx)))
			fmt.Fprintf(w, "audit logs\t%d\n", len(r.GetAuditLogs(ctx)))
			fmt.Fprintf(w, "voted pilots\t%d\n", len(r.GetVotes(ctx)))
			fmt.Fprintf(w, "categories\t%d\n", len(r.GetCategories(ctx)))
			fmt.Fprintf(w, "track flag\t%s\n", r.GetTrackStatus(ctx))
			fmt.Fprintf(w, "registrations open\t%t\n", settings.RegistrationsOpen)
			fmt.Fprintf(w, "voting active\t%t\n", settings.ActiveVoting)
			fmt.Fprintf(w, "maintenance\t%t\n", settings.MaintenanceMode)
			return w.Flush()
		},
	}
}
