package sim

import "fmt"

// Range is a half-open magnitude interval [Min, Max) expressed as a fraction.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (r Range) draw(src Source) float64 {
	return r.Min + src.Float64()*(r.Max-r.Min)
}

// Tuning holds the game-feel probabilities and magnitudes of the event
// overlay. Nothing outside event rolling depends on the exact values.
type Tuning struct {
	EventDayThreshold float64 `json:"event_day_threshold" yaml:"event_day_threshold"`
	MaxEventSymbols   int     `json:"max_event_symbols" yaml:"max_event_symbols"`
	QuietBelow        float64 `json:"quiet_below" yaml:"quiet_below"`
	MinorBelow        float64 `json:"minor_below" yaml:"minor_below"`
	SoftRumorShare    float64 `json:"soft_rumor_share" yaml:"soft_rumor_share"`
	BigEventShare     float64 `json:"big_event_share" yaml:"big_event_share"`
	SoftRumor         Range   `json:"soft_rumor" yaml:"soft_rumor"`
	StrongRumor       Range   `json:"strong_rumor" yaml:"strong_rumor"`
	BigEvent          Range   `json:"big_event" yaml:"big_event"`
	UltraEvent        Range   `json:"ultra_event" yaml:"ultra_event"`
}

// DefaultTuning returns the stock game constants.
func DefaultTuning() Tuning {
	return Tuning{
		EventDayThreshold: 0.88,
		MaxEventSymbols:   4,
		QuietBelow:        0.80,
		MinorBelow:        0.95,
		SoftRumorShare:    0.65,
		BigEventShare:     0.90,
		SoftRumor:         Range{Min: 0.01, Max: 0.02},
		StrongRumor:       Range{Min: 0.02, Max: 0.03},
		BigEvent:          Range{Min: 0.07, Max: 0.12},
		UltraEvent:        Range{Min: 0.12, Max: 0.20},
	}
}

// Validate checks that thresholds are ordered probabilities and that every
// magnitude range is a non-empty interval inside (0, 1).
func (t Tuning) Validate() error {
	probs := []struct {
		name string
		v    float64
	}{
		{"event_day_threshold", t.EventDayThreshold},
		{"quiet_below", t.QuietBelow},
		{"minor_below", t.MinorBelow},
		{"soft_rumor_share", t.SoftRumorShare},
		{"big_event_share", t.BigEventShare},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("events.%s must be between 0 and 1", p.name)
		}
	}
	if t.QuietBelow > t.MinorBelow {
		return fmt.Errorf("events.quiet_below must not exceed events.minor_below")
	}
	if t.MaxEventSymbols < 1 {
		return fmt.Errorf("events.max_event_symbols must be at least 1")
	}
	ranges := []struct {
		name string
		r    Range
	}{
		{"soft_rumor", t.SoftRumor},
		{"strong_rumor", t.StrongRumor},
		{"big_event", t.BigEvent},
		{"ultra_event", t.UltraEvent},
	}
	for _, r := range ranges {
		if r.r.Min <= 0 || r.r.Max >= 1 || r.r.Max < r.r.Min {
			return fmt.Errorf("events.%s range must satisfy 0 < min <= max < 1", r.name)
		}
	}
	return nil
}
