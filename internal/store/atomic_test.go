package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tatianab/kitchen-wars/internal/models"
)

// A choice row for the same day already exists, so the insert fails after the
// session update has run inside the transaction.
func TestCommitChoiceRollsBackSQL(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	before, out := played(t, s, "01JATOMIC")

	_, err := s.db.ExecContext(ctx, `INSERT INTO player_choices
		(session_id, day, choice, event_id, effects, before_values, after_values, created_at)
		VALUES (?, 1, 'right', 1, '{}', '{}', '{}', ?)`, before.ID, formatTime(created))
	if err != nil {
		t.Fatalf("seed conflicting row: %v", err)
	}

	if err := s.CommitChoice(ctx, before.Revision, out.Session, out.Record); err == nil {
		t.Fatal("expected commit to fail")
	}

	var day, revision, profit int
	row := s.db.QueryRowContext(ctx, "SELECT current_day, revision, profit FROM game_sessions WHERE id = ?", before.ID)
	if err := row.Scan(&day, &revision, &profit); err != nil {
		t.Fatal(err)
	}
	if day != 1 || revision != before.Revision || profit != 50 {
		t.Errorf("session update was not rolled back: day=%d revision=%d profit=%d", day, revision, profit)
	}

	got, err := s.GetSession(ctx, before.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.History) != 1 || got.History[0].Side != models.Right {
		t.Errorf("history changed: %+v", got.History)
	}
	if got.PendingEvent == nil {
		t.Error("pending event cleared by failed commit")
	}
}

func TestCommitChoiceRollsBackFile(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	before, out := played(t, s, "01JATOMIC")

	s.rename = func(string, string) error { return errors.New("disk full") }
	if err := s.CommitChoice(ctx, before.Revision, out.Session, out.Record); err == nil {
		t.Fatal("expected commit to fail")
	}

	got, err := s.GetSession(ctx, before.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Day != 1 || len(got.History) != 0 || got.Meters != models.DefaultMeters() || got.Revision != before.Revision {
		t.Errorf("partial state visible after failed commit: %+v", got)
	}
	if !got.UpdatedAt.Before(created.Add(time.Minute)) {
		t.Errorf("updated_at moved: %v", got.UpdatedAt)
	}
}
