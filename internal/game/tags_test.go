package game

import (
	"slices"
	"testing"

	"github.com/tatianab/kitchen-wars/internal/models"
)

func record(d map[models.Meter]int) models.ChoiceRecord {
	return models.ChoiceRecord{Side: models.Right, Effects: models.Delta(d)}
}

func repeat(n int, d map[models.Meter]int) []models.ChoiceRecord {
	out := make([]models.ChoiceRecord, n)
	for i := range out {
		out[i] = record(d)
		out[i].Day = i + 1
	}
	return out
}

func TestAnalyzeNeedsThreeChoices(t *testing.T) {
	h := repeat(2, map[models.Meter]int{models.Profit: 30})
	if tags := Analyze(h, models.MeterSet{Reputation: 90, Profit: 90, CustomerFlow: 90, StaffMorale: 90}); len(tags) != 0 {
		t.Errorf("expected no tags, got %v", tags)
	}
}

func TestAnalyzeProfitFocused(t *testing.T) {
	h := repeat(5, map[models.Meter]int{models.Profit: 5, models.Reputation: -2})
	tags := Analyze(h, models.DefaultMeters())
	if !slices.Contains(tags, models.TagProfitFocused) {
		t.Errorf("expected profit_focused in %v", tags)
	}
	if slices.Contains(tags, models.TagReputationLover) {
		t.Errorf("unexpected reputation_lover in %v", tags)
	}
}

func TestAnalyzeRules(t *testing.T) {
	tests := []struct {
		name    string
		history []models.ChoiceRecord
		meters  models.MeterSet
		want    []models.PlayerTag
	}{
		{
			name:    "balanced small effects",
			history: repeat(4, map[models.Meter]int{models.Profit: 3, models.Reputation: 3}),
			meters:  models.DefaultMeters(),
			want:    []models.PlayerTag{models.TagConservative},
		},
		{
			name:    "reputation and risk",
			history: repeat(5, map[models.Meter]int{models.Reputation: 12, models.Profit: -8}),
			meters:  models.DefaultMeters(),
			want:    []models.PlayerTag{models.TagReputationLover, models.TagRiskTaker},
		},
		{
			name:    "meter tags in fixed order",
			history: append(repeat(3, map[models.Meter]int{models.Profit: 20}), repeat(2, map[models.Meter]int{models.Profit: 1})...),
			meters:  models.MeterSet{Reputation: 71, Profit: 50, CustomerFlow: 80, StaffMorale: 75},
			want:    []models.PlayerTag{models.TagProfitFocused, models.TagSocialMediaSavvy, models.TagStaffFriendly},
		},
		{
			name:    "at threshold is not above",
			history: repeat(3, map[models.Meter]int{models.StaffMorale: 5}),
			meters:  models.MeterSet{Reputation: 70, Profit: 50, CustomerFlow: 70, StaffMorale: 70},
			want:    []models.PlayerTag{models.TagConservative},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Analyze(tc.history, tc.meters)
			if !slices.Equal(got, tc.want) {
				t.Errorf("Analyze = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAnalyzeUsesWindow(t *testing.T) {
	h := append(repeat(10, map[models.Meter]int{models.Reputation: 2}), repeat(5, map[models.Meter]int{models.Profit: 2})...)
	tags := Analyze(h, models.DefaultMeters())
	if len(tags) == 0 || tags[0] != models.TagProfitFocused {
		t.Errorf("older choices leaked into window: %v", tags)
	}
	if len(tags) > MaxTags {
		t.Errorf("got %d tags, cap is %d", len(tags), MaxTags)
	}
}
