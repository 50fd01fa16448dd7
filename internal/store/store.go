// Package store persists sessions and their choice history.
package store

import (
	"context"
	"fmt"

	"github.com/tatianab/kitchen-wars/internal/config"
	"github.com/tatianab/kitchen-wars/internal/models"
)

// Store is the persistence contract used by the session service. Every mutating
// call that takes an expected revision fails with models.ErrConflict when the stored
// revision differs, and with models.ErrNotFound when the session does not exist.
type Store interface {
	// CreateSession inserts a new session. History must be empty.
	CreateSession(ctx context.Context, s models.Session) error

	// GetSession loads a session with its full history.
	GetSession(ctx context.Context, id string) (models.Session, error)

	// SetPendingEvent pins ev as the current card if the session is still at
	// expectedRevision and has no pending card.
	SetPendingEvent(ctx context.Context, id string, expectedRevision int, ev models.EventCard) error

	// CommitChoice writes the resolved session and appends rec in one atomic step.
	CommitChoice(ctx context.Context, expectedRevision int, s models.Session, rec models.ChoiceRecord) error

	// ResetSession overwrites the session with s and drops its history atomically.
	ResetSession(ctx context.Context, expectedRevision int, s models.Session) error

	// ListSessions returns a player's sessions newest first, without history.
	ListSessions(ctx context.Context, playerID string, limit int) ([]models.Session, error)

	Close() error
}

// Open returns the store selected by cfg.DBDialect.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.DBDialect {
	case config.DialectSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.DialectPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case config.DialectFile:
		return NewFileStore(cfg.SaveDir)
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", cfg.DBDialect)
	}
}
