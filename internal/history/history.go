// Package history persists a local record of play sessions: which cards were
// played, which tricks appeared on the table, and when. SQLite is the default
// backend; PostgreSQL is available for players who keep their record on a
// shared host.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/opentichu/tichu/client/internal/config"
)

// Store wraps the database connection and provides history operations.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Session is one recorded connection to a game server.
type Session struct {
	ID        string
	Username  string
	Server    string
	StartedAt time.Time
}

// Play is one recorded play action within a session.
type Play struct {
	SessionID string
	Cards     []string
	PlayedAt  time.Time
}

// Trick is one trick observed on the table within a session.
type Trick struct {
	SessionID string
	Cards     []string
	SeenAt    time.Time
}

// Open opens the history store described by the configuration.
func Open(cfg config.HistoryConfig) (*Store, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch dialect.DriverName() {
	case "sqlite":
		dir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		dsn = cfg.SQLitePath
	case "postgres":
		p := cfg.Postgres
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize history database: %w", err)
		}
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run history migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the history schema if it doesn't exist.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			server TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS plays (
			id %s,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			cards TEXT NOT NULL,
			played_at TIMESTAMP NOT NULL
		)`, s.dialect.AutoIncrementPK()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tricks (
			id %s,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			cards TEXT NOT NULL,
			seen_at TIMESTAMP NOT NULL
		)`, s.dialect.AutoIncrementPK()),
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// BeginSession records the start of a session and returns its identifier.
func (s *Store) BeginSession(username, server string) (string, error) {
	id := uuid.NewString()
	query := fmt.Sprintf(
		"INSERT INTO sessions (id, username, server, started_at) VALUES (%s, %s, %s, %s)",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2),
		s.dialect.Placeholder(3), s.dialect.Placeholder(4))

	if _, err := s.db.Exec(query, id, username, server, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to record session: %w", err)
	}
	return id, nil
}

// RecordPlay records cards submitted to the table.
func (s *Store) RecordPlay(sessionID string, cards []string) error {
	query := fmt.Sprintf(
		"INSERT INTO plays (session_id, cards, played_at) VALUES (%s, %s, %s)",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3))

	if _, err := s.db.Exec(query, sessionID, joinCards(cards), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// RecordTrick records a trick observed on the table.
func (s *Store) RecordTrick(sessionID string, cards []string) error {
	query := fmt.Sprintf(
		"INSERT INTO tricks (session_id, cards, seen_at) VALUES (%s, %s, %s)",
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3))

	if _, err := s.db.Exec(query, sessionID, joinCards(cards), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record trick: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	query := fmt.Sprintf(
		"SELECT id, username, server, started_at FROM sessions ORDER BY started_at DESC LIMIT %s",
		s.dialect.Placeholder(1))

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Username, &sess.Server, &sess.StartedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// PlaysForSession returns the plays recorded for a session, oldest first.
func (s *Store) PlaysForSession(sessionID string) ([]Play, error) {
	query := fmt.Sprintf(
		"SELECT session_id, cards, played_at FROM plays WHERE session_id = %s ORDER BY played_at",
		s.dialect.Placeholder(1))

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var p Play
		var cards string
		if err := rows.Scan(&p.SessionID, &cards, &p.PlayedAt); err != nil {
			return nil, err
		}
		p.Cards = splitCards(cards)
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

// TricksForSession returns the tricks recorded for a session, oldest first.
func (s *Store) TricksForSession(sessionID string) ([]Trick, error) {
	query := fmt.Sprintf(
		"SELECT session_id, cards, seen_at FROM tricks WHERE session_id = %s ORDER BY seen_at",
		s.dialect.Placeholder(1))

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tricks: %w", err)
	}
	defer rows.Close()

	var tricks []Trick
	for rows.Next() {
		var tr Trick
		var cards string
		if err := rows.Scan(&tr.SessionID, &cards, &tr.SeenAt); err != nil {
			return nil, err
		}
		tr.Cards = splitCards(cards)
		tricks = append(tricks, tr)
	}
	return tricks, rows.Err()
}

// Card lists are stored comma-joined. Card names are short fixed tokens that
// never contain commas.
func joinCards(cards []string) string {
	return strings.Join(cards, ",")
}

func splitCards(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
