package game

import (
	"fmt"
	"time"

	"github.com/tatianab/kitchen-wars/internal/models"
)

// Outcome is the result of resolving one choice. Session is the full next state;
// nothing has been persisted yet.
type Outcome struct {
	Session models.Session
	Record  models.ChoiceRecord
	Ending  *models.Ending
}

// Resolve applies side of ev to s and returns the next state. s is taken by value and
// never mutated, so a failed commit leaves the caller's copy untouched.
func Resolve(s models.Session, ev models.EventCard, side models.Side, now time.Time) (Outcome, error) {
	if s.Status != models.StatusActive {
		return Outcome{}, fmt.Errorf("%w: session %s has status %s", models.ErrInvalidState, s.ID, s.Status)
	}
	if side != models.Left && side != models.Right {
		return Outcome{}, fmt.Errorf("%w: unknown side %q", models.ErrValidation, side)
	}

	next := s.Clone()
	delta := ev.Effects(side)
	before := s.Meters
	after := ApplyDelta(before, delta)
	ending, ended := Evaluate(after)

	rec := models.ChoiceRecord{
		Day:       s.Day,
		Side:      side,
		EventID:   ev.ID,
		Effects:   delta,
		Before:    before,
		After:     after,
		CreatedAt: now,
	}
	if ev.Generated {
		card := ev
		rec.Generated = &card
	}
	next.History = append(next.History, rec)

	next.Meters = after
	next.Day = s.Day + 1
	next.PendingEvent = nil
	next.Revision = s.Revision + 1
	next.UpdatedAt = now

	out := Outcome{Record: rec}
	if ended {
		next.Status = models.StatusEnded
		next.EndingID = ending.ID
		next.EndingTitle = ending.Title
		out.Ending = &ending
	}
	next.Tags = Analyze(next.History, after)
	out.Session = next
	return out, nil
}

// Restart returns s reset to its opening state, keeping identity and seed.
func Restart(s models.Session, now time.Time) models.Session {
	fresh := models.NewSession(s.ID, s.PlayerID, s.Seed, s.CreatedAt)
	fresh.Revision = s.Revision + 1
	fresh.UpdatedAt = now
	return fresh
}
