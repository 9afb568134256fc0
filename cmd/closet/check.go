package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/closetkit/closet/pkg/models"
	"github.com/closetkit/closet/pkg/similarity"
	"github.com/spf13/cobra"
)

func newCheckCmd(configPath *string) *cobra.Command {
	var (
		items     []string
		date      string
		eventID   string
		eventType string
		location  string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Warn if a proposed outfit repeats one from recent history",
		Example: `  closet check --items top1:top,jeans2:bottom,boots:shoes --event-type work
  closet check --items dress4:dress --date 2026-05-02 --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outfitItems, err := parseItems(items)
			if err != nil {
				return err
			}
			when := time.Now()
			if date != "" {
				t, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date (use YYYY-MM-DD): %w", err)
				}
				when = t
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

			records, err := h.Window(cmd.Context(), when, a.cfg.History.WindowDays)
			if err != nil {
				return err
			}
			proposed := models.Outfit{
				Items:     outfitItems,
				EventID:   eventID,
				EventType: eventType,
				Location:  location,
			}
			warnings := a.checker().Check(proposed, records, when)
			a.log.Debug("repeat check", "history", len(records), "warnings", len(warnings))

			if !all {
				if w, ok := similarity.Worst(warnings); ok {
					warnings = []models.RepeatWarning{w}
				}
			}
			return writeWarnings(cmd.OutOrStdout(), warnings)
		},
	}

	cmd.Flags().StringSliceVar(&items, "items", nil, "comma-separated id:category pairs")
	cmd.Flags().StringVar(&date, "date", "", "date the outfit is planned for (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&eventID, "event-id", "", "calendar event id")
	cmd.Flags().StringVar(&eventType, "event-type", "", "event type, e.g. work")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().BoolVar(&all, "all", false, "show every warning instead of the most severe")
	return cmd
}

// parseItems turns "id:category" pairs into outfit items. A bare id has no category.
func parseItems(pairs []string) ([]models.OutfitItem, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("--items is required")
	}
	items := make([]models.OutfitItem, 0, len(pairs))
	for _, p := range pairs {
		id, category, _ := strings.Cut(strings.TrimSpace(p), ":")
		if id == "" {
			return nil, fmt.Errorf("invalid item %q: missing id", p)
		}
		items = append(items, models.OutfitItem{ID: id, Category: category})
	}
	return items, nil
}

func writeWarnings(out io.Writer, warnings []models.RepeatWarning) error {
	if len(warnings) == 0 {
		fmt.Fprintln(out, "No repeats found. This outfit looks fresh.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEVERITY\tWORN ON\tDAYS AGO\tSIMILARITY\tCONTEXT\tSUGGESTION")
	for _, r := range warnings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f%%\t%s\t%s\n",
			r.Severity, r.Date.Format("2006-01-02"), r.DaysAgo, r.Similarity*100, r.ContextNote, r.Suggestion)
	}
	return w.Flush()
}
