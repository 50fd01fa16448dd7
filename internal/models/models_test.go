package models

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSessionYAMLKeepsAbsentEffects(t *testing.T) {
	session := NewSession("s1", "p1", 7, fixedNow)
	session.History = []ChoiceRecord{
		{
			Day:     1,
			Side:    Left,
			Effects: Delta(map[Meter]int{Reputation: 8, Profit: -5}),
			Before:  DefaultMeters(),
			After:   MeterSet{Reputation: 58, Profit: 45, CustomerFlow: 50, StaffMorale: 50},
		},
	}

	data, err := yaml.Marshal(session)
	if err != nil {
		t.Fatalf("Failed to marshal session: %v", err)
	}

	var session2 Session
	if err := yaml.Unmarshal(data, &session2); err != nil {
		t.Fatalf("Failed to unmarshal session: %v", err)
	}

	if len(session2.History) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(session2.History))
	}
	eff := session2.History[0].Effects
	if eff.CustomerFlow != nil || eff.StaffMorale != nil {
		t.Errorf("Expected absent meters to stay absent, got %+v", eff)
	}
	if eff.Get(Reputation) != 8 || eff.Get(Profit) != -5 {
		t.Errorf("Unexpected effects after round trip: %+v", eff)
	}
}

func TestEffectDelta(t *testing.T) {
	d := Delta(map[Meter]int{Reputation: -8, CustomerFlow: 10})
	if got := d.Magnitude(); got != 18 {
		t.Errorf("Magnitude = %d, want 18", got)
	}
	if got := d.Get(StaffMorale); got != 0 {
		t.Errorf("absent meter = %d, want 0", got)
	}
	if err := Delta(map[Meter]int{Profit: 51}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for 51, got %v", err)
	}
	if err := Delta(map[Meter]int{Profit: -50}).Validate(); err != nil {
		t.Errorf("-50 should be accepted: %v", err)
	}
}

func TestEventCardValidate(t *testing.T) {
	valid := EventCard{
		Title:        "供货商的诱惑",
		Description:  "供货商推荐了一款便宜的冷冻西兰花。",
		Category:     CategoryDaily,
		LeftChoice:   "不用",
		RightChoice:  "就用这个",
		LeftEffects:  Delta(map[Meter]int{Reputation: 3}),
		RightEffects: Delta(map[Meter]int{Profit: 6}),
		Rarity:       RarityCommon,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid card rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*EventCard)
	}{
		{"empty title", func(e *EventCard) { e.Title = "" }},
		{"long title", func(e *EventCard) { e.Title = strings.Repeat("菜", 101) }},
		{"short description", func(e *EventCard) { e.Description = "太短了" }},
		{"long description", func(e *EventCard) { e.Description = strings.Repeat("a", 501) }},
		{"empty right choice", func(e *EventCard) { e.RightChoice = "" }},
		{"bad category", func(e *EventCard) { e.Category = "festival" }},
		{"bad rarity", func(e *EventCard) { e.Rarity = "mythic" }},
		{"effect too large", func(e *EventCard) { e.LeftEffects = Delta(map[Meter]int{StaffMorale: -60}) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			card := valid
			tc.mutate(&card)
			if err := card.Validate(); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide("left"); err != nil || s != Left {
		t.Errorf("ParseSide(left) = %q, %v", s, err)
	}
	if _, err := ParseSide("up"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSessionCloneDoesNotAlias(t *testing.T) {
	fresh := NewSession("s1", "p1", 1, fixedNow)
	if c := fresh.Clone(); !reflect.DeepEqual(c, fresh) {
		t.Errorf("clone of a new session differs:\n got %+v\nwant %+v", c, fresh)
	}

	s := NewSession("s1", "p1", 1, fixedNow)
	s.PendingEvent = &EventCard{ID: 1, Title: "x"}
	c := s.Clone()
	c.Tags = append(c.Tags, TagRiskTaker)
	c.PendingEvent.Title = "y"
	if len(s.Tags) != 0 || s.PendingEvent.Title != "x" {
		t.Errorf("clone aliases original: %+v", s)
	}
}
