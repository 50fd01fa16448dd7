package game

import (
	_ "embed"
	"fmt"

	"github.com/tatianab/kitchen-wars/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// OpeningEventID is the fixed id of the day-1 card.
const OpeningEventID = 1

// authoredIDBase offsets ids of authored cards drawn after day 1.
const authoredIDBase = 1000

var catalog = mustLoadCatalog(catalogYAML)

func mustLoadCatalog(data []byte) []models.EventCard {
	cards, err := parseCatalog(data)
	if err != nil {
		panic(fmt.Sprintf("game: embedded catalog: %v", err))
	}
	return cards
}

func parseCatalog(data []byte) ([]models.EventCard, error) {
	var cards []models.EventCard
	if err := yaml.Unmarshal(data, &cards); err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	for i := range cards {
		if cards[i].Rarity == "" {
			cards[i].Rarity = models.RarityCommon
		}
		if err := cards[i].Validate(); err != nil {
			return nil, fmt.Errorf("card %d (%s): %w", i, cards[i].Title, err)
		}
	}
	return cards, nil
}

// Catalog returns a copy of the authored event templates.
func Catalog() []models.EventCard {
	return append([]models.EventCard(nil), catalog...)
}

// InitialEvent picks the authored card for a day. Day 1 is always the opening card;
// later days filter by phase and index with (day + seed*1000) mod n, so the same pair
// always yields the same card. Ids are derived from the day and only unique within a
// session.
func InitialEvent(day, seed int) models.EventCard {
	if day <= 1 {
		card := catalog[0]
		card.ID = OpeningEventID
		return card
	}

	suitable := make([]models.EventCard, 0, len(catalog))
	for _, c := range catalog {
		if fitsPhase(c.Category, day) {
			suitable = append(suitable, c)
		}
	}

	n := len(suitable)
	idx := ((day+seed*1000)%n + n) % n
	card := suitable[idx]
	card.ID = day + authoredIDBase
	card.Generated = false
	return card
}

func fitsPhase(cat models.Category, day int) bool {
	switch {
	case day <= 3:
		return cat == models.CategoryDaily
	case day <= 10:
		return cat != models.CategoryEnding
	default:
		return true
	}
}
