package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/closetkit/closet/pkg/models"
)

// Tool argument structs.

type checkRepeatArgs struct {
	Items     []models.OutfitItem `json:"items"`
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Location  string              `json:"location"`
	Date      string              `json:"date"`
}

type historyArgs struct {
	Days int `json:"days"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"closet_cache_status": handleCacheStatus,
	"closet_cache_latest": handleCacheLatest,
	"closet_check_repeat": handleCheckRepeat,
	"closet_history":      handleHistory,
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "closet_cache_status",
		Description: "Show the weather-picks cache: entry count, age of the latest result, freshness and hit counters.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "closet_cache_latest",
		Description: "Return the most recent cached outfit suggestions with the weather and occasion they were generated for.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "closet_check_repeat",
		Description: "Check a proposed outfit against recent outfit history and list repeat warnings with severity and a swap suggestion.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"items"},
			"properties": map[string]any{
				"items": map[string]any{
					"type":        "array",
					"description": "Items in the proposed outfit",
					"items": map[string]any{
						"type":     "object",
						"required": []string{"id"},
						"properties": map[string]any{
							"id":       map[string]any{"type": "string"},
							"category": map[string]any{"type": "string", "description": "top, bottom, shoes, ..."},
						},
					},
				},
				"event_id":   map[string]any{"type": "string", "description": "Calendar event id (optional)"},
				"event_type": map[string]any{"type": "string", "description": "Event type such as work or party (optional)"},
				"location":   map[string]any{"type": "string", "description": "Location (optional)"},
				"date": map[string]any{
					"type":        "string",
					"description": "Date the outfit is planned for in YYYY-MM-DD format (optional, defaults to today)",
				},
			},
		},
	},
	{
		Name:        "closet_history",
		Description: "List outfits worn or planned in the last N days.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"days": map[string]any{
					"type":        "integer",
					"description": "Window in days (optional, defaults to the configured window)",
				},
			},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

func handleCacheStatus(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Response cache is not configured.")
	}
	age, hasAge := s.cache.AgeMinutes()
	fresh := s.cache.IsFresh(s.settings.FreshFor)
	return textResult(formatCacheStatus(s.cache.Key(), s.cache.Stats(), age, hasAge, fresh, s.settings.FreshFor))
}

func handleCacheLatest(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Response cache is not configured.")
	}
	entry, ok := s.cache.Latest()
	if !ok {
		return textResult("The cache is empty.")
	}
	return textResult(formatCacheEntry(entry, s.settings.Now()))
}

func handleCheckRepeat(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.history == nil {
		return textResult("Outfit history is not configured.")
	}
	var args checkRepeatArgs
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return errorResult("Invalid arguments: " + err.Error())
		}
	}
	if len(args.Items) == 0 {
		return errorResult("items is required")
	}

	when := s.settings.Now()
	if args.Date != "" {
		t, err := time.Parse("2006-01-02", args.Date)
		if err != nil {
			return errorResult("Invalid date (use YYYY-MM-DD): " + err.Error())
		}
		when = t
	}

	records, err := s.history.Window(ctx, when, s.settings.WindowDays)
	if err != nil {
		return errorResult("Error fetching history: " + err.Error())
	}

	proposed := models.Outfit{
		Items:     args.Items,
		EventID:   args.EventID,
		EventType: args.EventType,
		Location:  args.Location,
	}
	return textResult(formatWarnings(s.checker.Check(proposed, records, when)))
}

func handleHistory(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.history == nil {
		return textResult("Outfit history is not configured.")
	}
	var args historyArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	days := args.Days
	if days <= 0 {
		days = s.settings.WindowDays
	}
	records, err := s.history.Window(ctx, s.settings.Now(), days)
	if err != nil {
		return errorResult("Error fetching history: " + err.Error())
	}
	return textResult(formatHistory(records))
}
