// Package engine supplies event cards to sessions, from the authored catalog or
// from a text generator, and never lets a generation failure reach the player.
package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tatianab/kitchen-wars/internal/game"
	"github.com/tatianab/kitchen-wars/internal/logger"
	"github.com/tatianab/kitchen-wars/internal/models"
)

const (
	// AuthoredDays is the last day always served from the catalog.
	AuthoredDays = 3
	// DefaultTimeout bounds one generation call.
	DefaultTimeout = 8 * time.Second
	// RecentSides is how many past sides are sent with a request.
	RecentSides = 10
)

// Request is the state a source needs to produce the card for one day.
type Request struct {
	Day    int                `json:"day"`
	Seed   int                `json:"seed"`
	Meters models.MeterSet    `json:"meters"`
	Tags   []models.PlayerTag `json:"tags"`
	Recent []models.Side      `json:"recent"`
}

// RequestFor builds the request for a session's current day.
func RequestFor(s models.Session) Request {
	sides := s.Sides()
	if len(sides) > RecentSides {
		sides = sides[len(sides)-RecentSides:]
	}
	return Request{
		Day:    s.Day,
		Seed:   s.Seed,
		Meters: s.Meters,
		Tags:   append([]models.PlayerTag(nil), s.Tags...),
		Recent: sides,
	}
}

// Source produces an event card or fails.
type Source interface {
	Event(ctx context.Context, req Request) (models.EventCard, error)
}

// CatalogSource serves authored cards. It never fails.
type CatalogSource struct{}

func (CatalogSource) Event(_ context.Context, req Request) (models.EventCard, error) {
	return game.InitialEvent(req.Day, req.Seed), nil
}

// Options configures a Provider. Zero values select defaults.
type Options struct {
	// Events generates card JSON. Nil means offline: the catalog serves every day.
	Events Generator
	// Commentary generates end-of-run text. Nil uses the local fallback.
	Commentary Generator
	Timeout    time.Duration
	Logger     *logger.Logger
	// Rand picks the suggested event type.
	Rand *rand.Rand
}

// Provider decides where each day's card comes from.
type Provider struct {
	catalog    Source
	generative *FallbackSource
	commentary Generator
	timeout    time.Duration
	log        *logger.Logger
}

// NewProvider builds a provider from opts.
func NewProvider(opts Options) *Provider {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	p := &Provider{
		catalog:    CatalogSource{},
		commentary: opts.Commentary,
		timeout:    opts.Timeout,
		log:        opts.Logger,
	}
	if opts.Events != nil {
		fb := Fallback(NewGenerativeSource(opts.Events, newPicker(opts.Rand)), DefaultEvent)
		fb.Timeout = opts.Timeout
		fb.OnError = func(req Request, err error) {
			p.log.Warn("event generation for day %d failed, using default card: %v", req.Day, err)
		}
		p.generative = fb
	}
	return p
}

// Online reports whether a generator is configured.
func (p *Provider) Online() bool {
	return p.generative != nil
}

// NextEvent returns the card for req.Day. The catalog serves the first days and every
// day when offline; later days are generated, with the default card substituted on any
// failure or once the timeout expires.
func (p *Provider) NextEvent(ctx context.Context, req Request) models.EventCard {
	if req.Day <= AuthoredDays || p.generative == nil {
		ev, _ := p.catalog.Event(ctx, req)
		return ev
	}
	return p.generative.NextEvent(ctx, req)
}

// Preview generates a card for an arbitrary state, regardless of the day. It is
// the same fallback path as NextEvent, bypassing the catalog.
func (p *Provider) Preview(ctx context.Context, req Request) models.EventCard {
	if p.generative == nil {
		ev, _ := p.catalog.Event(ctx, req)
		return ev
	}
	return p.generative.NextEvent(ctx, req)
}

// FallbackSource wraps a Source so that callers always get a card.
type FallbackSource struct {
	Primary Source
	Default func(day int) models.EventCard
	// Timeout bounds Primary even when it ignores its context.
	Timeout time.Duration
	OnError func(Request, error)
}

// Fallback pairs src with a default card builder.
func Fallback(src Source, def func(day int) models.EventCard) *FallbackSource {
	return &FallbackSource{Primary: src, Default: def, Timeout: DefaultTimeout}
}

type sourceResult struct {
	ev  models.EventCard
	err error
}

// NextEvent asks Primary and returns Default on error, timeout or cancellation.
func (f *FallbackSource) NextEvent(ctx context.Context, req Request) models.EventCard {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	done := make(chan sourceResult, 1)
	go func() {
		ev, err := f.Primary.Event(ctx, req)
		done <- sourceResult{ev, err}
	}()

	var err error
	select {
	case r := <-done:
		if r.err == nil {
			return r.ev
		}
		err = r.err
	case <-ctx.Done():
		err = &ContentError{Kind: kindFor(ctx.Err()), Err: ctx.Err()}
	}
	if f.OnError != nil {
		f.OnError(req, err)
	}
	return f.Default(req.Day)
}

// picker is a goroutine-safe wrapper around a rand source.
type picker struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newPicker(r *rand.Rand) *picker {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &picker{r: r}
}

func (p *picker) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.IntN(n)
}
