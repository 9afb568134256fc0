package models

import "time"

// OutfitItem is a wardrobe item reference. Items are owned by the wardrobe;
// the planner only holds identifiers and categories.
type OutfitItem struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name,omitempty"`
}

// Outfit is a proposed set of items plus the occasion it is planned for.
type Outfit struct {
	Items     []OutfitItem `json:"items"`
	EventID   string       `json:"event_id,omitempty"`
	EventType string       `json:"event_type,omitempty"`
	Location  string       `json:"location,omitempty"`
}

// ItemIDs returns the identifiers of the outfit's items in order.
func (o Outfit) ItemIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

// HistoryRecord is an outfit that was worn or planned on a given day.
type HistoryRecord struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	ItemIDs   []string  `json:"item_ids"`
	EventID   string    `json:"event_id,omitempty"`
	EventType string    `json:"event_type,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Severity ranks a repeat warning by how recently the outfit was worn.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RepeatWarning flags a proposed outfit that closely matches a past one.
type RepeatWarning struct {
	Record       HistoryRecord `json:"record"`
	Date         time.Time     `json:"date"`
	DaysAgo      int           `json:"days_ago"`
	Similarity   float64       `json:"similarity"`
	ContextNote  string        `json:"context_note"`
	Severity     Severity      `json:"severity"`
	SwapCategory string        `json:"swap_category"`
	Suggestion   string        `json:"suggestion"`
}
