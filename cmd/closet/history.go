package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/closetkit/closet/pkg/models"
	"github.com/spf13/cobra"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Record and list worn or planned outfits",
	}
	cmd.AddCommand(
		newHistoryAddCmd(configPath),
		newHistoryListCmd(configPath),
		newHistoryPruneCmd(configPath),
	)
	return cmd
}

func newHistoryAddCmd(configPath *string) *cobra.Command {
	var (
		date      string
		items     []string
		eventID   string
		eventType string
		location  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an outfit for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(items) == 0 {
				return fmt.Errorf("--items is required")
			}
			day := time.Now()
			if date != "" {
				t, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date (use YYYY-MM-DD): %w", err)
				}
				day = t
			}

			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			h, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()

			rec, err := h.Record(cmd.Context(), models.HistoryRecord{
				Date:      day,
				ItemIDs:   items,
				EventID:   eventID,
				EventType: eventType,
				Location:  location,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s.\n", rec.ID, rec.Date.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date worn or planned (YYYY-MM-DD, default today)")
	cmd.Flags().StringSliceVar(&items, "items", nil, "comma-separated item ids")
	cmd.Flags().StringVar(&eventID, "event-id", "", "calendar event id")
	cmd.Flags().StringVar(&eventType, "event-type", "", "event type, e.g. work")
	cmd.Flags().StringVar(&location, "location", "", "location")
	return cmd
}

func newHistoryListCmd(configPath *string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List outfits in the rolling history window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			h, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()

			if days <= 0 {
				days = a.cfg.History.WindowDays
			}
			records, err := h.Window(cmd.Context(), time.Now(), days)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No outfits recorded in this window.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tEVENT TYPE\tLOCATION\tITEMS\tID")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.Date.Format("2006-01-02"), orDash(r.EventType), orDash(r.Location),
					strings.Join(r.ItemIDs, ","), r.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "window in days (default from config)")
	return cmd
}

func newHistoryPruneCmd(configPath *string) *cobra.Command {
	var olderThan int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete outfits older than the given number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			h, err := a.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()

			if olderThan <= 0 {
				olderThan = a.cfg.History.WindowDays
			}
			n, err := h.Prune(cmd.Context(), time.Now().AddDate(0, 0, -olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d outfits.\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&olderThan, "older-than-days", 0, "age cutoff in days (default: history window)")
	return cmd
}
