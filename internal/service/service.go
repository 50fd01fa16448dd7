// Package service is the command and query surface over sessions. The HTTP server,
// the CLI and the terminal client all drive the game through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/tatianab/kitchen-wars/internal/engine"
	"github.com/tatianab/kitchen-wars/internal/game"
	"github.com/tatianab/kitchen-wars/internal/logger"
	"github.com/tatianab/kitchen-wars/internal/models"
	"github.com/tatianab/kitchen-wars/internal/store"
)

const (
	// HistoryLimit caps History results.
	HistoryLimit = 20
	// RecentChoicesLimit caps State.RecentChoices.
	RecentChoicesLimit = 10
	// achievementScan bounds how many sessions are read to build achievements.
	achievementScan = 1000
	maxSeed         = 1_000_000
)

// Notifier receives every committed session state.
type Notifier interface {
	Publish(s models.Session)
}

// Options configures a Service.
type Options struct {
	Logger   *logger.Logger
	Notifier Notifier
	// Now replaces the clock in tests.
	Now func() time.Time
	// Seed replaces the session seed source in tests.
	Seed func() int
}

// Service coordinates the store, the content provider and the game rules.
type Service struct {
	store    store.Store
	provider *engine.Provider
	log      *logger.Logger
	notifier Notifier
	now      func() time.Time
	seed     func() int

	mu      sync.Mutex
	entropy *rand.Rand
	locks   map[string]*sessionLock
	cancels map[string]context.CancelFunc
}

// New builds a Service.
func New(st store.Store, provider *engine.Provider, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	svc := &Service{
		store:    st,
		provider: provider,
		log:      opts.Logger,
		notifier: opts.Notifier,
		now:      opts.Now,
		seed:     opts.Seed,
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
		locks:    make(map[string]*sessionLock),
		cancels:  make(map[string]context.CancelFunc),
	}
	if svc.seed == nil {
		svc.seed = func() int {
			svc.mu.Lock()
			defer svc.mu.Unlock()
			return svc.entropy.Intn(maxSeed)
		}
	}
	return svc
}

// NewGuestID returns a player id for someone who did not supply one.
func NewGuestID() string {
	return "guest-" + uuid.NewString()
}

func (s *Service) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// sessionLock serializes work on one session. The entry is dropped from the map
// once no caller holds or waits for it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (s *Service) acquire(id string) *sessionLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	return l
}

func (s *Service) release(id string, l *sessionLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

// lockSession blocks until id is free and returns the matching unlock.
func (s *Service) lockSession(id string) func() {
	l := s.acquire(id)
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.release(id, l)
	}
}

// tryLockSession is lockSession without waiting.
func (s *Service) tryLockSession(id string) (func(), bool) {
	l := s.acquire(id)
	if !l.mu.TryLock() {
		s.release(id, l)
		return nil, false
	}
	return func() {
		l.mu.Unlock()
		s.release(id, l)
	}, true
}

func (s *Service) registerCancel(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()
}

func (s *Service) clearCancel(id string) {
	s.mu.Lock()
	delete(s.cancels, id)
	s.mu.Unlock()
}

func (s *Service) cancelGeneration(id string) {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Service) publish(sess models.Session) {
	if s.notifier != nil {
		s.notifier.Publish(sess)
	}
}

// CreateSession starts a new run for playerID and pins its opening card.
func (s *Service) CreateSession(ctx context.Context, playerID string) (*models.Session, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", models.ErrValidation)
	}

	sess := models.NewSession(s.newID(), playerID, s.seed(), s.now())
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.log.Event("create", sess.ID, "player "+playerID)

	pinned, err := s.pinNext(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.publish(pinned)
	return &pinned, nil
}

// pinNext fetches the card for sess's current day and stores it as pending. A result
// produced after the caller gave up, or against a revision that has since moved on,
// is dropped and the stored session is returned instead.
func (s *Service) pinNext(ctx context.Context, sess models.Session) (models.Session, error) {
	genCtx, cancel := context.WithCancel(ctx)
	s.registerCancel(sess.ID, cancel)
	defer func() {
		cancel()
		s.clearCancel(sess.ID)
	}()

	ev := s.provider.NextEvent(genCtx, engine.RequestFor(sess))
	if genCtx.Err() != nil {
		s.log.Warn("discarding card for session %s day %d: %v", sess.ID, sess.Day, genCtx.Err())
		return s.reload(ctx, sess)
	}

	err := s.store.SetPendingEvent(ctx, sess.ID, sess.Revision, ev)
	if errors.Is(err, models.ErrConflict) {
		s.log.Warn("discarding stale card for session %s revision %d", sess.ID, sess.Revision)
		return s.reload(ctx, sess)
	}
	if err != nil {
		return sess, fmt.Errorf("pinning event: %w", err)
	}
	sess.PendingEvent = &ev
	return sess, nil
}

func (s *Service) reload(ctx context.Context, sess models.Session) (models.Session, error) {
	if ctx.Err() != nil {
		return sess, ctx.Err()
	}
	return s.store.GetSession(ctx, sess.ID)
}

// State is the read model of a session.
type State struct {
	Session       models.Session        `json:"session"`
	CurrentEvent  *models.EventCard     `json:"currentEvent,omitempty"`
	RecentChoices []models.ChoiceRecord `json:"recentChoices"`
	NextEventHint string                `json:"nextEventHint,omitempty"`
}

// GetState returns the session and its current card, pinning one if an active
// session has none yet.
func (s *Service) GetState(ctx context.Context, id string) (*State, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.StatusActive && sess.PendingEvent == nil {
		unlock := s.lockSession(id)
		sess, err = s.store.GetSession(ctx, id)
		if err == nil && sess.Status == models.StatusActive && sess.PendingEvent == nil {
			sess, err = s.pinNext(ctx, sess)
		}
		unlock()
		if err != nil {
			return nil, err
		}
	}
	return buildState(sess), nil
}

func buildState(sess models.Session) *State {
	st := &State{
		CurrentEvent:  sess.PendingEvent,
		RecentChoices: make([]models.ChoiceRecord, 0, RecentChoicesLimit),
	}
	for i := len(sess.History) - 1; i >= 0 && len(st.RecentChoices) < RecentChoicesLimit; i-- {
		st.RecentChoices = append(st.RecentChoices, sess.History[i])
	}
	if sess.Status == models.StatusActive {
		req := engine.RequestFor(sess)
		st.NextEventHint = engine.DayPhase(sess.Day)
		if engine.NeedsCrisis(req) {
			st.NextEventHint += "·危机预警"
		}
	}
	sess.History = nil
	st.Session = sess
	return st
}

// ChoiceResult reports the effect of one resolved choice.
type ChoiceResult struct {
	SessionID      string             `json:"sessionId"`
	NewMeters      models.MeterSet    `json:"newMeters"`
	EffectsApplied models.EffectDelta `json:"effectsApplied"`
	Ending         *models.Ending     `json:"ending,omitempty"`
	NewDay         int                `json:"newDay"`
	Status         models.Status      `json:"gameStatus"`
	Tags           []models.PlayerTag `json:"playerTags"`
	NextEvent      *models.EventCard  `json:"nextEvent,omitempty"`
}

// ResolveChoice applies side to the session's pending card. Only one choice per
// session may be in flight; the lock is held until the next card has been pinned.
func (s *Service) ResolveChoice(ctx context.Context, id string, side models.Side, eventID *int) (*ChoiceResult, error) {
	if side != models.Left && side != models.Right {
		return nil, fmt.Errorf("%w: choice must be left or right, got %q", models.ErrValidation, side)
	}
	unlock, ok := s.tryLockSession(id)
	if !ok {
		return nil, models.ErrChoicePending
	}
	defer unlock()

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: session %s has ended", models.ErrInvalidState, id)
	}
	if sess.PendingEvent == nil {
		return nil, fmt.Errorf("%w: session %s has no current event", models.ErrInvalidState, id)
	}
	if eventID != nil && *eventID != sess.PendingEvent.ID {
		return nil, fmt.Errorf("%w: event %d is not the current event of session %s", models.ErrNotFound, *eventID, id)
	}

	out, err := game.Resolve(sess, *sess.PendingEvent, side, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CommitChoice(ctx, sess.Revision, out.Session, out.Record); err != nil {
		return nil, fmt.Errorf("committing choice: %w", err)
	}
	s.log.Event("choice", id, fmt.Sprintf("day %d %s", out.Record.Day, side))

	next := out.Session
	if out.Ending != nil {
		s.log.Event("ending", id, out.Ending.ID)
	} else {
		next, err = s.pinNext(ctx, out.Session)
		if err != nil {
			s.log.Error("pinning next card for session %s: %v", id, err)
			next = out.Session
		}
	}
	s.publish(next)

	return &ChoiceResult{
		SessionID:      id,
		NewMeters:      out.Session.Meters,
		EffectsApplied: out.Record.Effects,
		Ending:         out.Ending,
		NewDay:         out.Session.Day,
		Status:         out.Session.Status,
		Tags:           out.Session.Tags,
		NextEvent:      next.PendingEvent,
	}, nil
}

// Restart resets a session to day 1, cancelling any card still being generated for it.
func (s *Service) Restart(ctx context.Context, id string) (*models.Session, error) {
	s.cancelGeneration(id)
	defer s.lockSession(id)()

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	fresh := game.Restart(sess, s.now())
	if err := s.store.ResetSession(ctx, sess.Revision, fresh); err != nil {
		return nil, fmt.Errorf("restarting session: %w", err)
	}
	s.log.Event("restart", id, fmt.Sprintf("revision %d", fresh.Revision))

	pinned, err := s.pinNext(ctx, fresh)
	if err != nil {
		return nil, err
	}
	s.publish(pinned)
	return &pinned, nil
}

// History lists a player's most recent sessions, newest first.
func (s *Service) History(ctx context.Context, playerID string) ([]models.Session, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, fmt.Errorf("%w: player id is required", models.ErrValidation)
	}
	return s.store.ListSessions(ctx, playerID, HistoryLimit)
}

// Achievement summarises how often a player reached one ending.
type Achievement struct {
	Ending    models.Ending `json:"ending"`
	Count     int           `json:"count"`
	BestDays  int           `json:"bestDays"`
	LastRunAt time.Time     `json:"lastRunAt"`
}

// Achievements lists the endings a player has reached, in ending order.
func (s *Service) Achievements(ctx context.Context, playerID string) ([]Achievement, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, fmt.Errorf("%w: player id is required", models.ErrValidation)
	}
	sessions, err := s.store.ListSessions(ctx, playerID, achievementScan)
	if err != nil {
		return nil, err
	}

	byID := map[string]*Achievement{}
	for _, sess := range sessions {
		if sess.Status != models.StatusEnded {
			continue
		}
		a, ok := byID[sess.EndingID]
		if !ok {
			ending, known := game.EndingByID(sess.EndingID)
			if !known {
				continue
			}
			a = &Achievement{Ending: ending}
			byID[sess.EndingID] = a
		}
		a.Count++
		if days := game.SurvivalDays(sess); days > a.BestDays {
			a.BestDays = days
		}
		if sess.UpdatedAt.After(a.LastRunAt) {
			a.LastRunAt = sess.UpdatedAt
		}
	}

	out := []Achievement{}
	for _, e := range game.Endings() {
		if a, ok := byID[e.ID]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

// PreviewEvent produces a card for an arbitrary state without touching any session.
// It always returns a card.
func (s *Service) PreviewEvent(ctx context.Context, req engine.Request) models.EventCard {
	if req.Day < 1 {
		req.Day = 1
	}
	// A zero delta still clamps out-of-range input.
	req.Meters = game.ApplyDelta(req.Meters, models.EffectDelta{})
	return s.provider.Preview(ctx, req)
}

// Commentary evaluates a session's run so far.
func (s *Service) Commentary(ctx context.Context, id string) (string, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	return s.provider.Commentary(ctx, sess), nil
}

// ShareText renders the shareable summary of a session.
func (s *Service) ShareText(ctx context.Context, id string) (string, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	return game.ShareText(sess), nil
}

// Endings lists every ending.
func (s *Service) Endings() []models.Ending {
	return game.Endings()
}
