package engine

import "github.com/tatianab/kitchen-wars/internal/models"

const (
	// GeneratedIDBase offsets the ids of generated cards.
	GeneratedIDBase = 2000
	// DefaultIDBase offsets the ids of the fallback card.
	DefaultIDBase = 3000
)

// DefaultEvent is the single card served when generation fails.
func DefaultEvent(day int) models.EventCard {
	return models.EventCard{
		ID:           day + DefaultIDBase,
		Title:        "平凡的一天",
		Description:  "今天餐厅一切正常，没有什么特别的事情发生。你要如何度过这平静的一天？",
		Category:     models.CategoryDaily,
		LeftChoice:   "专注提升菜品质量",
		RightChoice:  "优化运营降低成本",
		LeftEffects:  models.Delta(map[models.Meter]int{models.Reputation: 5, models.Profit: -5}),
		RightEffects: models.Delta(map[models.Meter]int{models.Reputation: -3, models.Profit: 8}),
		Rarity:       models.RarityCommon,
	}
}
