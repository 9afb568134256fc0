// Package similarity detects proposed outfits that repeat something worn recently.
package similarity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/closetkit/closet/pkg/models"
)

const (
	// DefaultThreshold is the Jaccard score above which an outfit counts as a repeat.
	DefaultThreshold = 0.8
	// DefaultHighWithinDays: repeats younger than this are high severity.
	DefaultHighWithinDays = 7
	// DefaultMediumWithinDays: repeats younger than this (and not high) are medium.
	DefaultMediumWithinDays = 14
)

// swapOrder is the order categories are offered for swapping.
var swapOrder = []string{"top", "bottom", "shoes"}

const fallbackSwap = "accessory"

// Jaccard returns |A ∩ B| / |A ∪ B| over the distinct identifiers of a and b.
// Two empty outfits score 0.
func Jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	inter := 0
	for id := range setA {
		if _, ok := setB[id]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Checker flags repeats against a history window. It holds no state between calls.
type Checker struct {
	Threshold        float64
	HighWithinDays   int
	MediumWithinDays int
}

// Default returns a Checker with the default threshold and day boundaries.
func Default() *Checker {
	return &Checker{
		Threshold:        DefaultThreshold,
		HighWithinDays:   DefaultHighWithinDays,
		MediumWithinDays: DefaultMediumWithinDays,
	}
}

// Check compares proposed against every record in history and returns a warning
// for each record whose similarity is strictly above the threshold, in history
// order. The caller chooses the window; Check does not filter by date.
func (c *Checker) Check(proposed models.Outfit, history []models.HistoryRecord, now time.Time) []models.RepeatWarning {
	ids := proposed.ItemIDs()
	var warnings []models.RepeatWarning
	for _, rec := range history {
		score := Jaccard(ids, rec.ItemIDs)
		if score <= c.Threshold {
			continue
		}
		days := DaysBetween(rec.Date, now)
		swap := SwapCategory(proposed.Items)
		warnings = append(warnings, models.RepeatWarning{
			Record:       rec,
			Date:         rec.Date,
			DaysAgo:      days,
			Similarity:   score,
			ContextNote:  ContextNote(proposed, rec),
			Severity:     c.Severity(days),
			SwapCategory: swap,
			Suggestion:   fmt.Sprintf("Try swapping the %s to make this look feel new.", swap),
		})
	}
	return warnings
}

// Severity tiers a repeat by the days since it was worn.
func (c *Checker) Severity(daysAgo int) models.Severity {
	switch {
	case daysAgo < c.HighWithinDays:
		return models.SeverityHigh
	case daysAgo < c.MediumWithinDays:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// DaysBetween counts calendar days from then to now, comparing UTC dates.
// Records dated after now give a negative count.
func DaysBetween(then, now time.Time) int {
	a := civilDate(then)
	b := civilDate(now)
	return int(b.Sub(a).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ContextNote explains how the occasions of the two outfits relate. The first
// matching rule wins: same event, same event type, same location.
func ContextNote(proposed models.Outfit, rec models.HistoryRecord) string {
	switch {
	case proposed.EventID != "" && proposed.EventID == rec.EventID:
		return "Same event"
	case proposed.EventType != "" && strings.EqualFold(proposed.EventType, rec.EventType):
		return fmt.Sprintf("Same event type (%s)", rec.EventType)
	case proposed.Location != "" && strings.EqualFold(proposed.Location, rec.Location):
		return fmt.Sprintf("Same location (%s)", rec.Location)
	default:
		return "Different context"
	}
}

// SwapCategory picks the category to suggest changing: the first of top,
// bottom and shoes present in items, else accessory.
func SwapCategory(items []models.OutfitItem) string {
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[strings.ToLower(strings.TrimSpace(it.Category))] = true
	}
	for _, cat := range swapOrder {
		if present[cat] {
			return cat
		}
	}
	return fallbackSwap
}

// Worst returns the warning to surface first: highest severity, then highest
// similarity, then most recent.
func Worst(warnings []models.RepeatWarning) (models.RepeatWarning, bool) {
	if len(warnings) == 0 {
		return models.RepeatWarning{}, false
	}
	sorted := make([]models.RepeatWarning, len(warnings))
	copy(sorted, warnings)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return a.DaysAgo < b.DaysAgo
	})
	return sorted[0], true
}
