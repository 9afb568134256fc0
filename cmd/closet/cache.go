package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/closetkit/closet/pkg/models"
	"github.com/closetkit/closet/pkg/respcache"
	"github.com/spf13/cobra"
)

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the weather-picks response cache",
	}
	cmd.AddCommand(
		newCacheStatusCmd(configPath),
		newCacheShowCmd(configPath),
		newCacheSaveCmd(configPath),
		newCacheClearCmd(configPath),
	)
	return cmd
}

func newCacheStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show entry count, age and freshness of the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			c, cleanup, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key:     %s\n", c.Key())
			fmt.Fprintf(out, "Entries: %d / %d\n", len(c.Entries()), a.cfg.Cache.MaxEntries)
			if age, ok := c.AgeMinutes(); ok {
				fmt.Fprintf(out, "Latest:  %d min ago\n", age)
			} else {
				fmt.Fprintln(out, "Latest:  none")
			}
			fmt.Fprintf(out, "Fresh:   %t (within %s)\n", c.IsFresh(a.cfg.Cache.FreshFor), a.cfg.Cache.FreshFor)
			return nil
		},
	}
}

func newCacheShowCmd(configPath *string) *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			c, cleanup, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if latest {
				e, ok := c.Latest()
				if !ok {
					fmt.Fprintln(out, "The cache is empty.")
					return nil
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(e)
			}

			entries := c.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "The cache is empty.")
				return nil
			}
			return writeEntries(out, entries, time.Now())
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "print the latest entry as JSON")
	return cmd
}

func writeEntries(out io.Writer, entries []models.CacheEntry, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSAVED\tAGE\tFEATURE\tOCCASION\tWEATHER\tSUGGESTIONS")
	for i, e := range entries {
		weather := "-"
		if e.Context.Weather != nil {
			weather = fmt.Sprintf("%.1f°C %s", e.Context.Weather.TempC, e.Context.Weather.Condition)
		}
		var suggestions []json.RawMessage
		count := "?"
		if err := json.Unmarshal(e.Payload, &suggestions); err == nil {
			count = fmt.Sprint(len(suggestions))
		}
		fmt.Fprintf(w, "%d\t%s\t%dm\t%s\t%s\t%s\t%s\n",
			i+1, e.Timestamp.Format("2006-01-02T15:04:05"), int(now.Sub(e.Timestamp)/time.Minute),
			orDash(e.Context.Feature), orDash(e.Context.Occasion), weather, count)
	}
	return w.Flush()
}

func newCacheSaveCmd(configPath *string) *cobra.Command {
	var (
		payloadPath string
		feature     string
		occasion    string
		location    string
		tempC       float64
		condition   string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Store a suggestion payload (JSON) as the newest cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if payloadPath == "" {
				return fmt.Errorf("--payload is required (use - for stdin)")
			}
			payload, err := readPayload(cmd.InOrStdin(), payloadPath)
			if err != nil {
				return err
			}

			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			c, cleanup, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			sc := models.SuggestionContext{Feature: feature, Occasion: occasion, Location: location}
			if cmd.Flags().Changed("temp") || condition != "" {
				sc.Weather = &models.WeatherSnapshot{TempC: tempC, Condition: condition}
			}

			res := c.Save(cmd.Context(), sc, payload)
			switch res.Outcome {
			case respcache.OutcomeStored:
				fmt.Fprintf(cmd.OutOrStdout(), "Saved. %d entries cached.\n", len(c.Entries()))
				return nil
			case respcache.OutcomeRejected:
				return fmt.Errorf("payload rejected: %w", res.Err)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Storage write failed; cache cleared (%s).\n", res.Outcome)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&payloadPath, "payload", "", "path to a JSON payload file, or - for stdin")
	cmd.Flags().StringVar(&feature, "feature", "weather-picks", "feature that produced the payload")
	cmd.Flags().StringVar(&occasion, "occasion", "", "occasion label")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().Float64Var(&tempC, "temp", 0, "temperature in °C the picks were generated for")
	cmd.Flags().StringVar(&condition, "condition", "", "weather condition, e.g. rain")
	return cmd
}

func readPayload(stdin io.Reader, path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return json.RawMessage(data), nil
}

func newCacheClearCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			c, cleanup, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
