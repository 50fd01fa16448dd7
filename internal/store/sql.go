package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/tatianab/kitchen-wars/internal/models"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

// Fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const sessionColumns = "id, player_id, seed, reputation, profit, customer_flow, staff_morale, current_day, " +
	"game_status, ending_type, ending_title, player_tags, pending_event, revision, created_at, updated_at"

// SQLStore implements Store on database/sql for SQLite and PostgreSQL.
type SQLStore struct {
	dialect dialect
	db      *sql.DB
}

// OpenSQLite opens or creates a SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	return openSQL(ctx, dialectSQLite, "sqlite", path+"?_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres store requires a DSN")
	}
	return openSQL(ctx, dialectPostgres, "pgx", dsn)
}

func openSQL(ctx context.Context, d dialect, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}
	if d == dialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", d, err)
	}

	s := &SQLStore{dialect: d, db: db}
	if err := s.applyMigrations(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) bind(pos int) string {
	if s.dialect == dialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// rebind rewrites ? placeholders for the active dialect.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteString(s.bind(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", s.dialect))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		err = s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
			q := s.rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)")
			if _, err := tx.ExecContext(ctx, q, base, formatTime(time.Now())); err != nil {
				return fmt.Errorf("record migration %s: %w", file, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLStore) CreateSession(ctx context.Context, sess models.Session) error {
	q := s.rebind("INSERT INTO game_sessions (" + sessionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, q,
		sess.ID, sess.PlayerID, sess.Seed,
		sess.Meters.Reputation, sess.Meters.Profit, sess.Meters.CustomerFlow, sess.Meters.StaffMorale,
		sess.Day, string(sess.Status), nullString(sess.EndingID), nullString(sess.EndingTitle),
		asJSON(tagsOrEmpty(sess.Tags)), pendingJSON(sess.PendingEvent), sess.Revision,
		formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (models.Session, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+sessionColumns+" FROM game_sessions WHERE id = ?"), id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, fmt.Errorf("%w: session %s", models.ErrNotFound, id)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}

	history, err := s.loadChoices(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	sess.History = history
	return sess, nil
}

func (s *SQLStore) loadChoices(ctx context.Context, id string) ([]models.ChoiceRecord, error) {
	q := s.rebind(`SELECT day, choice, event_id, effects, before_values, after_values, generated_content, created_at
		FROM player_choices WHERE session_id = ? ORDER BY day`)
	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("load choices for %s: %w", id, err)
	}
	defer rows.Close()

	var out []models.ChoiceRecord
	for rows.Next() {
		var (
			rec                          models.ChoiceRecord
			side, effects, before, after string
			generated                    sql.NullString
			createdAt                    string
		)
		if err := rows.Scan(&rec.Day, &side, &rec.EventID, &effects, &before, &after, &generated, &createdAt); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		rec.Side = models.Side(side)
		if err := json.Unmarshal([]byte(effects), &rec.Effects); err != nil {
			return nil, fmt.Errorf("decode effects for day %d: %w", rec.Day, err)
		}
		if err := json.Unmarshal([]byte(before), &rec.Before); err != nil {
			return nil, fmt.Errorf("decode before values for day %d: %w", rec.Day, err)
		}
		if err := json.Unmarshal([]byte(after), &rec.After); err != nil {
			return nil, fmt.Errorf("decode after values for day %d: %w", rec.Day, err)
		}
		if generated.Valid && generated.String != "" {
			var card models.EventCard
			if err := json.Unmarshal([]byte(generated.String), &card); err != nil {
				return nil, fmt.Errorf("decode generated content for day %d: %w", rec.Day, err)
			}
			rec.Generated = &card
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetPendingEvent(ctx context.Context, id string, expectedRevision int, ev models.EventCard) error {
	q := s.rebind(`UPDATE game_sessions SET pending_event = ?, updated_at = ?
		WHERE id = ? AND revision = ? AND pending_event IS NULL`)
	res, err := s.db.ExecContext(ctx, q, asJSON(ev), formatTime(time.Now()), id, expectedRevision)
	if err != nil {
		return fmt.Errorf("pin event for %s: %w", id, err)
	}
	return s.checkGuarded(ctx, s.db, res, id)
}

func (s *SQLStore) CommitChoice(ctx context.Context, expectedRevision int, sess models.Session, rec models.ChoiceRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.updateSession(ctx, tx, expectedRevision, sess); err != nil {
			return err
		}
		var generated any
		if rec.Generated != nil {
			generated = asJSON(rec.Generated)
		}
		q := s.rebind(`INSERT INTO player_choices
			(session_id, day, choice, event_id, effects, before_values, after_values, generated_content, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		_, err := tx.ExecContext(ctx, q,
			sess.ID, rec.Day, string(rec.Side), rec.EventID,
			asJSON(rec.Effects), asJSON(rec.Before), asJSON(rec.After), generated, formatTime(rec.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert choice for %s day %d: %w", sess.ID, rec.Day, err)
		}
		return nil
	})
}

func (s *SQLStore) ResetSession(ctx context.Context, expectedRevision int, sess models.Session) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.updateSession(ctx, tx, expectedRevision, sess); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM player_choices WHERE session_id = ?"), sess.ID); err != nil {
			return fmt.Errorf("clear choices for %s: %w", sess.ID, err)
		}
		return nil
	})
}

func (s *SQLStore) updateSession(ctx context.Context, tx *sql.Tx, expectedRevision int, sess models.Session) error {
	q := s.rebind(`UPDATE game_sessions SET
			reputation = ?, profit = ?, customer_flow = ?, staff_morale = ?,
			current_day = ?, game_status = ?, ending_type = ?, ending_title = ?,
			player_tags = ?, pending_event = ?, revision = ?, updated_at = ?
		WHERE id = ? AND revision = ?`)
	res, err := tx.ExecContext(ctx, q,
		sess.Meters.Reputation, sess.Meters.Profit, sess.Meters.CustomerFlow, sess.Meters.StaffMorale,
		sess.Day, string(sess.Status), nullString(sess.EndingID), nullString(sess.EndingTitle),
		asJSON(tagsOrEmpty(sess.Tags)), pendingJSON(sess.PendingEvent), sess.Revision, formatTime(sess.UpdatedAt),
		sess.ID, expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sess.ID, err)
	}
	return s.checkGuarded(ctx, tx, res, sess.ID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkGuarded turns a zero-row guarded update into ErrNotFound or ErrConflict.
func (s *SQLStore) checkGuarded(ctx context.Context, q queryer, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var one int
	err = q.QueryRowContext(ctx, s.rebind("SELECT 1 FROM game_sessions WHERE id = ?"), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: session %s", models.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("check session %s: %w", id, err)
	}
	return fmt.Errorf("%w: session %s was modified concurrently", models.ErrConflict, id)
}

func (s *SQLStore) ListSessions(ctx context.Context, playerID string, limit int) ([]models.Session, error) {
	q := s.rebind("SELECT " + sessionColumns + " FROM game_sessions WHERE player_id = ? ORDER BY created_at DESC, id DESC LIMIT ?")
	rows, err := s.db.QueryContext(ctx, q, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", playerID, err)
	}
	defer rows.Close()

	out := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (models.Session, error) {
	var (
		sess                  models.Session
		status, tags          string
		endingID, endingTitle sql.NullString
		pending               sql.NullString
		createdAt, updatedAt  string
	)
	err := row.Scan(
		&sess.ID, &sess.PlayerID, &sess.Seed,
		&sess.Meters.Reputation, &sess.Meters.Profit, &sess.Meters.CustomerFlow, &sess.Meters.StaffMorale,
		&sess.Day, &status, &endingID, &endingTitle, &tags, &pending, &sess.Revision, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Session{}, err
	}
	sess.Status = models.Status(status)
	sess.EndingID = endingID.String
	sess.EndingTitle = endingTitle.String
	sess.Tags = []models.PlayerTag{}
	if err := json.Unmarshal([]byte(tags), &sess.Tags); err != nil {
		return models.Session{}, fmt.Errorf("decode tags: %w", err)
	}
	if pending.Valid && pending.String != "" {
		var ev models.EventCard
		if err := json.Unmarshal([]byte(pending.String), &ev); err != nil {
			return models.Session{}, fmt.Errorf("decode pending event: %w", err)
		}
		sess.PendingEvent = &ev
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Session{}, err
	}
	if sess.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

func asJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func pendingJSON(ev *models.EventCard) any {
	if ev == nil {
		return nil
	}
	return asJSON(ev)
}

func tagsOrEmpty(tags []models.PlayerTag) []models.PlayerTag {
	if tags == nil {
		return []models.PlayerTag{}
	}
	return tags
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
