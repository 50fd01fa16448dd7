package game

import "github.com/tatianab/kitchen-wars/internal/models"

const (
	// MaxTags caps the number of tags reported at once.
	MaxTags = 3
	// MinTaggedChoices is the history length below which no tags are derived.
	MinTaggedChoices = 3
	// TagWindow is how many of the most recent choices are inspected.
	TagWindow = 5
	// HighImpact is the magnitude above which a choice counts as risky.
	HighImpact = 15
	// TagMeterThreshold is the meter level above which a meter contributes a tag.
	TagMeterThreshold = 70
)

// Analyze derives behavioural tags from the choice history and the current meters,
// most significant first.
func Analyze(history []models.ChoiceRecord, current models.MeterSet) []models.PlayerTag {
	tags := []models.PlayerTag{}
	if len(history) < MinTaggedChoices {
		return tags
	}

	window := history
	if len(window) > TagWindow {
		window = window[len(window)-TagWindow:]
	}

	var profitN, repN, riskN int
	for _, rec := range window {
		if rec.Effects.Get(models.Profit) > 0 {
			profitN++
		}
		if rec.Effects.Get(models.Reputation) > 0 {
			repN++
		}
		if rec.Effects.Magnitude() > HighImpact {
			riskN++
		}
	}

	switch {
	case profitN > repN:
		tags = append(tags, models.TagProfitFocused)
	case repN > profitN:
		tags = append(tags, models.TagReputationLover)
	}

	// Compare counts scaled by 10 to keep the 60%/30% thresholds in integers.
	n := len(window)
	switch {
	case riskN*10 > n*6:
		tags = append(tags, models.TagRiskTaker)
	case riskN*10 < n*3:
		tags = append(tags, models.TagConservative)
	}

	if current.Reputation > TagMeterThreshold {
		tags = append(tags, models.TagSocialMediaSavvy)
	}
	if current.StaffMorale > TagMeterThreshold {
		tags = append(tags, models.TagStaffFriendly)
	}
	if current.CustomerFlow > TagMeterThreshold {
		tags = append(tags, models.TagCustomerFirst)
	}

	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}
