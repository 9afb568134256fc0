package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/closetkit/closet/pkg/models"
)

// formatCacheStatus formats cache state as text.
func formatCacheStatus(key string, stats models.CacheStats, age int, hasAge, fresh bool, freshFor time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cache %s\n", key)
	fmt.Fprintf(&b, "  Entries:    %d\n", stats.Entries)
	if hasAge {
		fmt.Fprintf(&b, "  Latest:     %d min ago\n", age)
	} else {
		b.WriteString("  Latest:     none\n")
	}
	fmt.Fprintf(&b, "  Fresh:      %t (within %s)\n", fresh, freshFor)
	fmt.Fprintf(&b, "  Hits:       %d\n", stats.Hits)
	fmt.Fprintf(&b, "  Misses:     %d\n", stats.Misses)
	fmt.Fprintf(&b, "  Recoveries: %d\n", stats.Recoveries)
	return b.String()
}

// formatCacheEntry formats one entry with its context and payload.
func formatCacheEntry(e models.CacheEntry, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Saved:    %s (%d min ago)\n",
		e.Timestamp.Format(time.RFC3339), int(now.Sub(e.Timestamp)/time.Minute))
	if e.Context.Feature != "" {
		fmt.Fprintf(&b, "Feature:  %s\n", e.Context.Feature)
	}
	if e.Context.Occasion != "" {
		fmt.Fprintf(&b, "Occasion: %s\n", e.Context.Occasion)
	}
	if e.Context.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", e.Context.Location)
	}
	if w := e.Context.Weather; w != nil {
		fmt.Fprintf(&b, "Weather:  %.1f°C %s\n", w.TempC, w.Condition)
	}
	fmt.Fprintf(&b, "\n%s\n", e.Payload)
	return b.String()
}

// formatWarnings formats repeat warnings as a text table.
func formatWarnings(warnings []models.RepeatWarning) string {
	if len(warnings) == 0 {
		return "No repeats found. This outfit looks fresh."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-12s %6s %10s  %-30s %s\n",
		"Severity", "Worn On", "Days", "Similarity", "Context", "Suggestion")
	b.WriteString(strings.Repeat("-", 110) + "\n")
	for _, w := range warnings {
		fmt.Fprintf(&b, "%-8s %-12s %6d %9.0f%%  %-30s %s\n",
			w.Severity, w.Date.Format("2006-01-02"), w.DaysAgo, w.Similarity*100, w.ContextNote, w.Suggestion)
	}
	return b.String()
}

// formatHistory formats history records as a text table.
func formatHistory(records []models.HistoryRecord) string {
	if len(records) == 0 {
		return "No outfits recorded in this window."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-12s %-15s %s\n", "Date", "Event Type", "Location", "Items")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-12s %-12s %-15s %s\n",
			r.Date.Format("2006-01-02"), r.EventType, r.Location, strings.Join(r.ItemIDs, ", "))
	}
	return b.String()
}
