package models

// SuggestionContext records the inputs that produced a cached suggestion list.
// It is kept for display and debugging only.
type SuggestionContext struct {
	Feature  string           `json:"feature,omitempty"`
	Occasion string           `json:"occasion,omitempty"`
	Location string           `json:"location,omitempty"`
	Weather  *WeatherSnapshot `json:"weather,omitempty"`
}

// Clone returns a deep copy of c.
func (c SuggestionContext) Clone() SuggestionContext {
	if c.Weather != nil {
		w := *c.Weather
		c.Weather = &w
	}
	return c
}

// WeatherSnapshot is the forecast a weather pick was generated against.
type WeatherSnapshot struct {
	TempC     float64 `json:"temp_c"`
	Condition string  `json:"condition,omitempty"`
	Humidity  int     `json:"humidity,omitempty"`
	WindKph   float64 `json:"wind_kph,omitempty"`
}

// OutfitSuggestion is a single suggested outfit returned by the suggestion provider.
type OutfitSuggestion struct {
	Title   string   `json:"title"`
	Reason  string   `json:"reason,omitempty"`
	ItemIDs []string `json:"item_ids"`
}
