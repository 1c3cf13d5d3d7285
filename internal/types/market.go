package types

import "time"

// Bar is one instrument's market data for one trading date.
// Immutable once constructed.
type Bar struct {
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Date   time.Time `yaml:"date" json:"date" csv:"date"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
	// Extra holds heterogeneous per-bar signals (e.g. news sentiment scores)
	// keyed by signal name.
	Extra map[string]any `yaml:"extra,omitempty" json:"extra,omitempty" csv:"-"`
}
