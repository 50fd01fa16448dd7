package models

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"
)

// Meter names one of the four bounded restaurant resources.
type Meter string

const (
	Reputation   Meter = "reputation"
	Profit       Meter = "profit"
	CustomerFlow Meter = "customerFlow"
	StaffMorale  Meter = "staffMorale"
)

// Meters lists every meter in canonical order.
var Meters = []Meter{Reputation, Profit, CustomerFlow, StaffMorale}

const (
	MeterMin     = 0
	MeterMax     = 100
	MeterDefault = 50

	// MaxEffect bounds a single meter change in any event card.
	MaxEffect = 50
)

// MeterSet is a snapshot of the four meters. Values are kept in [0,100].
type MeterSet struct {
	Reputation   int `json:"reputation" yaml:"reputation"`
	Profit       int `json:"profit" yaml:"profit"`
	CustomerFlow int `json:"customerFlow" yaml:"customer_flow"`
	StaffMorale  int `json:"staffMorale" yaml:"staff_morale"`
}

// DefaultMeters is the snapshot every session starts from.
func DefaultMeters() MeterSet {
	return MeterSet{
		Reputation:   MeterDefault,
		Profit:       MeterDefault,
		CustomerFlow: MeterDefault,
		StaffMorale:  MeterDefault,
	}
}

// Get returns the value of a single meter.
func (m MeterSet) Get(meter Meter) int {
	switch meter {
	case Reputation:
		return m.Reputation
	case Profit:
		return m.Profit
	case CustomerFlow:
		return m.CustomerFlow
	case StaffMorale:
		return m.StaffMorale
	}
	return 0
}

// EffectDelta is the change a single choice applies. Nil fields leave the meter alone.
type EffectDelta struct {
	Reputation   *int `json:"reputation,omitempty" yaml:"reputation,omitempty"`
	Profit       *int `json:"profit,omitempty" yaml:"profit,omitempty"`
	CustomerFlow *int `json:"customerFlow,omitempty" yaml:"customer_flow,omitempty"`
	StaffMorale  *int `json:"staffMorale,omitempty" yaml:"staff_morale,omitempty"`
}

// Get returns the change for a meter, 0 when absent.
func (d EffectDelta) Get(meter Meter) int {
	var p *int
	switch meter {
	case Reputation:
		p = d.Reputation
	case Profit:
		p = d.Profit
	case CustomerFlow:
		p = d.CustomerFlow
	case StaffMorale:
		p = d.StaffMorale
	}
	if p == nil {
		return 0
	}
	return *p
}

// Magnitude is the sum of absolute changes across all meters.
func (d EffectDelta) Magnitude() int {
	total := 0
	for _, m := range Meters {
		v := d.Get(m)
		if v < 0 {
			v = -v
		}
		total += v
	}
	return total
}

// Validate checks every present change against MaxEffect.
func (d EffectDelta) Validate() error {
	for _, m := range Meters {
		if v := d.Get(m); v < -MaxEffect || v > MaxEffect {
			return fmt.Errorf("%w: %s effect %d outside [-%d,%d]", ErrValidation, m, v, MaxEffect, MaxEffect)
		}
	}
	return nil
}

// Delta builds an EffectDelta from a map, mostly for tests and fixtures.
func Delta(values map[Meter]int) EffectDelta {
	var d EffectDelta
	for m, v := range values {
		switch m {
		case Reputation:
			d.Reputation = &v
		case Profit:
			d.Profit = &v
		case CustomerFlow:
			d.CustomerFlow = &v
		case StaffMorale:
			d.StaffMorale = &v
		}
	}
	return d
}

// Side is the direction the player swiped.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ParseSide accepts "left" or "right".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Left, Right:
		return Side(s), nil
	}
	return "", fmt.Errorf("%w: choice must be left or right, got %q", ErrValidation, s)
}

type Category string

const (
	CategoryDaily       Category = "daily"
	CategoryCrisis      Category = "crisis"
	CategoryOpportunity Category = "opportunity"
	CategoryEnding      Category = "ending"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// EventCard is a single decision offered to the player.
type EventCard struct {
	ID           int         `json:"id" yaml:"id"`
	Title        string      `json:"title" yaml:"title"`
	Description  string      `json:"description" yaml:"description"`
	Category     Category    `json:"category" yaml:"category"`
	LeftChoice   string      `json:"leftChoice" yaml:"left_choice"`
	RightChoice  string      `json:"rightChoice" yaml:"right_choice"`
	LeftEffects  EffectDelta `json:"leftEffects" yaml:"left_effects"`
	RightEffects EffectDelta `json:"rightEffects" yaml:"right_effects"`
	Rarity       Rarity      `json:"rarity" yaml:"rarity"`
	Generated    bool        `json:"isAIGenerated" yaml:"generated"`
}

// Effects returns the delta attached to one side of the card.
func (e EventCard) Effects(side Side) EffectDelta {
	if side == Left {
		return e.LeftEffects
	}
	return e.RightEffects
}

// Validate enforces the card's text lengths, enums and effect bounds.
func (e EventCard) Validate() error {
	if err := checkLen("title", e.Title, 1, 100); err != nil {
		return err
	}
	if err := checkLen("description", e.Description, 10, 500); err != nil {
		return err
	}
	if err := checkLen("leftChoice", e.LeftChoice, 1, 100); err != nil {
		return err
	}
	if err := checkLen("rightChoice", e.RightChoice, 1, 100); err != nil {
		return err
	}
	switch e.Category {
	case CategoryDaily, CategoryCrisis, CategoryOpportunity, CategoryEnding:
	default:
		return fmt.Errorf("%w: unknown category %q", ErrValidation, e.Category)
	}
	switch e.Rarity {
	case RarityCommon, RarityUncommon, RarityRare, RarityLegendary:
	default:
		return fmt.Errorf("%w: unknown rarity %q", ErrValidation, e.Rarity)
	}
	if err := e.LeftEffects.Validate(); err != nil {
		return fmt.Errorf("leftEffects: %w", err)
	}
	if err := e.RightEffects.Validate(); err != nil {
		return fmt.Errorf("rightEffects: %w", err)
	}
	return nil
}

func checkLen(field, s string, min, max int) error {
	n := utf8.RuneCountInString(s)
	if n < min || n > max {
		return fmt.Errorf("%w: %s length %d outside [%d,%d]", ErrValidation, field, n, min, max)
	}
	return nil
}

// PlayerTag is a behavioural label derived from recent choices.
type PlayerTag string

const (
	TagProfitFocused    PlayerTag = "profit_focused"
	TagReputationLover  PlayerTag = "reputation_lover"
	TagRiskTaker        PlayerTag = "risk_taker"
	TagConservative     PlayerTag = "conservative"
	TagStaffFriendly    PlayerTag = "staff_friendly"
	TagCustomerFirst    PlayerTag = "customer_first"
	TagSocialMediaSavvy PlayerTag = "social_media_savvy"

	// Reserved, never derived yet.
	TagTrendy      PlayerTag = "trendy"
	TagTraditional PlayerTag = "traditional"
	TagCrisisProne PlayerTag = "crisis_prone"
)

// ChoiceRecord is one resolved turn. Records are append-only.
type ChoiceRecord struct {
	Day       int         `json:"day" yaml:"day"`
	Side      Side        `json:"choice" yaml:"choice"`
	EventID   int         `json:"eventCardId" yaml:"event_id"`
	Effects   EffectDelta `json:"effects" yaml:"effects"`
	Before    MeterSet    `json:"beforeValues" yaml:"before"`
	After     MeterSet    `json:"afterValues" yaml:"after"`
	Generated *EventCard  `json:"aiGeneratedContent,omitempty" yaml:"generated,omitempty"`
	CreatedAt time.Time   `json:"createdAt" yaml:"created_at"`
}

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Session is one playthrough.
type Session struct {
	ID           string         `json:"id" yaml:"id"`
	PlayerID     string         `json:"playerId" yaml:"player_id"`
	Seed         int            `json:"seed" yaml:"seed"`
	Meters       MeterSet       `json:"meters" yaml:"meters"`
	Day          int            `json:"currentDay" yaml:"current_day"`
	Status       Status         `json:"gameStatus" yaml:"game_status"`
	EndingID     string         `json:"endingType,omitempty" yaml:"ending_type,omitempty"`
	EndingTitle  string         `json:"endingTitle,omitempty" yaml:"ending_title,omitempty"`
	Tags         []PlayerTag    `json:"playerTags" yaml:"player_tags"`
	History      []ChoiceRecord `json:"history,omitempty" yaml:"history"`
	PendingEvent *EventCard     `json:"pendingEvent,omitempty" yaml:"pending_event,omitempty"`
	Revision     int            `json:"revision" yaml:"revision"`
	CreatedAt    time.Time      `json:"createdAt" yaml:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" yaml:"updated_at"`
}

// NewSession returns a fresh session at day 1 with every meter at the midpoint.
func NewSession(id, playerID string, seed int, now time.Time) Session {
	return Session{
		ID:        id,
		PlayerID:  playerID,
		Seed:      seed,
		Meters:    DefaultMeters(),
		Day:       1,
		Status:    StatusActive,
		Tags:      []PlayerTag{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (s Session) Clone() Session {
	c := s
	c.Tags = slices.Clone(s.Tags)
	c.History = slices.Clone(s.History)
	if s.PendingEvent != nil {
		ev := *s.PendingEvent
		c.PendingEvent = &ev
	}
	return c
}

// Sides returns the chosen sides in order, most recent last.
func (s Session) Sides() []Side {
	sides := make([]Side, len(s.History))
	for i, rec := range s.History {
		sides[i] = rec.Side
	}
	return sides
}

// Ending is one of the static terminal outcomes.
type Ending struct {
	ID            string `json:"endingId" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	Description   string `json:"description" yaml:"description"`
	Rarity        string `json:"rarity" yaml:"rarity"`
	ShareTemplate string `json:"-" yaml:"share_template"`
}
