package game

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/stocksim/sim"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPlaying   Status = "playing"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether no further play is possible.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusAbandoned
}

// CustomDifficulty is the id of the user-parameterised tier.
const CustomDifficulty = "custom"

// Difficulty is a starting capital and a target expressed as a multiple of it.
type Difficulty struct {
	ID               string  `json:"id" yaml:"id"`
	Label            string  `json:"label" yaml:"label"`
	StartCapital     float64 `json:"start_capital" yaml:"start_capital"`
	TargetMultiplier float64 `json:"target_multiplier" yaml:"target_multiplier"`
}

// Target is the absolute portfolio value that wins the game.
func (d Difficulty) Target() float64 {
	return d.StartCapital * d.TargetMultiplier
}

// DefaultDifficulties are the built-in presets.
func DefaultDifficulties() []Difficulty {
	return []Difficulty{
		{ID: "easy", Label: "Easy – start 100 000, target +5%", StartCapital: 100000, TargetMultiplier: 1.05},
		{ID: "normal", Label: "Normal – start 50 000, target +20%", StartCapital: 50000, TargetMultiplier: 1.2},
		{ID: "hard", Label: "Hard – start 10 000, target +100%", StartCapital: 10000, TargetMultiplier: 2.0},
		{ID: CustomDifficulty, Label: "Custom – set your own values", StartCapital: 10000, TargetMultiplier: 1.5},
	}
}

// FindDifficulty looks up a tier by id.
func FindDifficulty(list []Difficulty, id string) (Difficulty, bool) {
	for _, d := range list {
		if d.ID == id {
			return d, true
		}
	}
	return Difficulty{}, false
}

// ValidateCustom checks an explicit start/target pair.
func ValidateCustom(start, target float64) error {
	if !(start > 0) || !(target > start) {
		return fmt.Errorf("%w: target must be greater than start capital and start must be positive", ErrInvalidConfig)
	}
	return nil
}

// SimMode is the player's market setting. It combines a drift bias for
// the price model with an optional forced direction for random events.
type SimMode string

const (
	ModeNeutral        SimMode = "neutral"
	ModePositive       SimMode = "positive"
	ModeNegative       SimMode = "negative"
	ModePositiveEvents SimMode = "positive_events"
	ModeNegativeEvents SimMode = "negative_events"
)

// ParseSimMode accepts the five mode names, case-insensitively, plus the
// bull and bear shorthands.
func ParseSimMode(s string) (SimMode, error) {
	m := SimMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return ModeNeutral, nil
	case ModeNeutral, ModePositive, ModeNegative, ModePositiveEvents, ModeNegativeEvents:
		return m, nil
	case "pos", "bull":
		return ModePositive, nil
	case "neg", "bear":
		return ModeNegative, nil
	}
	return ModeNeutral, fmt.Errorf("unknown sim mode %q", s)
}

// Market is the drift bias passed to the simulator.
func (m SimMode) Market() sim.Mode {
	switch {
	case strings.HasPrefix(string(m), "positive"):
		return sim.Positive
	case strings.HasPrefix(string(m), "negative"):
		return sim.Negative
	}
	return sim.Neutral
}

// EventBias is the forced event direction, if any.
func (m SimMode) EventBias() sim.EventBias {
	switch m {
	case ModePositiveEvents:
		return sim.BiasUp
	case ModeNegativeEvents:
		return sim.BiasDown
	}
	return sim.BiasNeutral
}
