package sim

import "math"

// EventBias forces the direction of rolled events. It is independent of Mode.
type EventBias string

const (
	BiasNeutral EventBias = "neutral"
	BiasUp      EventBias = "up"
	BiasDown    EventBias = "down"
)

// EventType is the magnitude tier of a market event.
type EventType string

const (
	EventNone   EventType = "none"
	SoftRumor   EventType = "soft_rumor"
	StrongRumor EventType = "strong_rumor"
	BigEvent    EventType = "big_event"
	UltraEvent  EventType = "ultra_event"
)

// Major reports whether the tier belongs to the large-move bucket.
func (t EventType) Major() bool {
	return t == BigEvent || t == UltraEvent
}

// Sentiment classifies an event by tier and direction.
type Sentiment string

const (
	SentimentNeutral         Sentiment = "neutral"
	SentimentPositive        Sentiment = "positive"
	SentimentNegative        Sentiment = "negative"
	SentimentExtremePositive Sentiment = "extreme_positive"
	SentimentExtremeNegative Sentiment = "extreme_negative"
)

// Positive reports whether the sentiment pushed the price up.
func (s Sentiment) Positive() bool {
	return s == SentimentPositive || s == SentimentExtremePositive
}

// Event is the outcome of one symbol's roll on one day. Events are values
// and are never mutated after creation.
type Event struct {
	Type        EventType `json:"type"`
	Sentiment   Sentiment `json:"sentiment"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	ImpactPct   float64   `json:"impactPct"`
	// RNGValue is the main roll scaled to 0..1000; nil when the symbol was
	// not selected.
	RNGValue *int `json:"rngValue,omitempty"`
}

type tierText struct {
	label, description string
}

var tierTexts = map[EventType]tierText{
	SoftRumor: {
		label:       "Soft rumor / light information noise",
		description: "Minor rumors or information noise appear – a slight move in the price.",
	},
	StrongRumor: {
		label:       "Stronger rumor / small news",
		description: "A more concrete piece of information or news appears – the price moves noticeably.",
	},
	BigEvent: {
		label:       "Very large market event",
		description: "Strong news, a macro shift or a big earnings surprise – a very strong move.",
	},
	UltraEvent: {
		label:       "ULTRA large market event",
		description: "An extreme situation – outright panic or euphoria. A candle to remember.",
	},
}

var (
	unselectedEvent = Event{
		Type:        EventNone,
		Sentiment:   SentimentNeutral,
		Label:       "Quiet day for this company",
		Description: "This company was not drawn for a market event today.",
	}
	quietEvent = Event{
		Type:        EventNone,
		Sentiment:   SentimentNeutral,
		Label:       "No significant information",
		Description: "The market is calm – nothing material is moving the price.",
	}
)

func direction(bias EventBias, src Source) bool {
	switch bias {
	case BiasUp:
		return true
	case BiasDown:
		return false
	}
	return src.Float64() < 0.5
}

// RollEvent decides whether base is hit by an event and returns the
// adjusted price with the event record. When shouldRoll is false nothing is
// drawn and the price is unchanged.
func RollEvent(base float64, shouldRoll bool, bias EventBias, t Tuning, src Source) (float64, Event) {
	if !shouldRoll {
		return base, unselectedEvent
	}

	main := src.Float64()
	rng := int(math.Round(main * 1000))

	if main < t.QuietBelow {
		ev := quietEvent
		ev.RNGValue = &rng
		return base, ev
	}

	var (
		typ       EventType
		magnitude float64
	)
	tier := src.Float64()
	if main < t.MinorBelow {
		if tier < t.SoftRumorShare {
			typ, magnitude = SoftRumor, t.SoftRumor.draw(src)
		} else {
			typ, magnitude = StrongRumor, t.StrongRumor.draw(src)
		}
	} else {
		if tier < t.BigEventShare {
			typ, magnitude = BigEvent, t.BigEvent.draw(src)
		} else {
			typ, magnitude = UltraEvent, t.UltraEvent.draw(src)
		}
	}

	up := direction(bias, src)
	signed := magnitude
	if !up {
		signed = -magnitude
	}

	text := tierTexts[typ]
	ev := Event{
		Type:      typ,
		Label:     text.label,
		ImpactPct: signed * 100,
		RNGValue:  &rng,
	}
	switch {
	case typ.Major() && up:
		ev.Sentiment = SentimentExtremePositive
		ev.Description = text.description + " The price jumps up in a single candle."
	case typ.Major():
		ev.Sentiment = SentimentExtremeNegative
		ev.Description = text.description + " The price drops in a single candle."
	case up:
		ev.Sentiment = SentimentPositive
		ev.Description = text.description + " Sentiment acts positively on the quotes."
	default:
		ev.Sentiment = SentimentNegative
		ev.Description = text.description + " Sentiment acts negatively on the quotes."
	}

	return base * (1 + signed), ev
}

// PickEventSymbols rolls whether today is an event day and, if so, picks a
// random subset of 1..min(MaxEventSymbols, len(symbols)) symbols that may
// roll an event. symbols should be in a stable order for reproducibility.
func PickEventSymbols(symbols []string, t Tuning, src Source) (float64, []string) {
	dayRoll := src.Float64()
	if dayRoll < t.EventDayThreshold || len(symbols) == 0 {
		return dayRoll, nil
	}

	capped := t.MaxEventSymbols
	if capped > len(symbols) {
		capped = len(symbols)
	}
	n := int(math.Floor(src.Float64()*float64(capped))) + 1
	if n > capped {
		n = capped
	}

	idx := make([]int, len(symbols))
	for i := range idx {
		idx[i] = i
	}
	for i := len(idx) - 1; i > 0; i-- {
		j := int(src.Float64() * float64(i+1))
		if j > i {
			j = i
		}
		idx[i], idx[j] = idx[j], idx[i]
	}

	picked := make([]string, 0, n)
	for _, i := range idx[:n] {
		picked = append(picked, symbols[i])
	}
	return dayRoll, picked
}
