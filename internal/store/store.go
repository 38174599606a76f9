// Package store handles SQL persistence of users and sessions.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/verte-zerg/typetrack/internal/model"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// createdAt is stored as fixed-width UTC text so lexical order is time order
// on every driver.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("already exists")
)

// Error wraps a failure reported by the database driver.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store wraps SQL access for user and session data.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens or creates the database and applies migrations. For sqlite the
// dsn is a file path whose parent directory is created when missing.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	store, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection and applies migrations.
func New(db *sqlx.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &Error{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			wpm DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			total_errors INTEGER NOT NULL,
			error_words TEXT NOT NULL,
			typing_durations TEXT NOT NULL,
			duration INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_created ON sessions(user_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return &Error{Op: "migrate", Err: err}
		}
	}
	return nil
}

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (r userRow) toModel() (model.User, error) {
	created, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    created,
	}, nil
}

// CreateUser stores a new user, assigning its id and creation time.
// It returns ErrConflict when the username or email is taken.
func (s *Store) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	user.ID = uuid.NewString()
	user.CreatedAt = s.now().UTC()
	query := s.db.Rebind(`INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrConflict
		}
		return model.User{}, &Error{Op: "create user", Err: err}
	}
	return user, nil
}

// UserByID looks up a user by id.
func (s *Store) UserByID(ctx context.Context, id string) (model.User, error) {
	return s.userBy(ctx, "id", id)
}

// UserByEmail looks up a user by normalized email.
func (s *Store) UserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.userBy(ctx, "email", email)
}

// UserByUsername looks up a user by username.
func (s *Store) UserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.userBy(ctx, "username", username)
}

func (s *Store) userBy(ctx context.Context, column, value string) (model.User, error) {
	query := s.db.Rebind(fmt.Sprintf(`SELECT id, username, email, password_hash, created_at
		FROM users WHERE %s = ?`, column))
	var row userRow
	if err := s.db.GetContext(ctx, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, &Error{Op: "get user", Err: err}
	}
	user, err := row.toModel()
	if err != nil {
		return model.User{}, &Error{Op: "decode user", Err: err}
	}
	return user, nil
}

type sessionRow struct {
	ID              string  `db:"id"`
	UserID          string  `db:"user_id"`
	WPM             float64 `db:"wpm"`
	Accuracy        float64 `db:"accuracy"`
	TotalErrors     int     `db:"total_errors"`
	ErrorWords      string  `db:"error_words"`
	TypingDurations string  `db:"typing_durations"`
	Duration        int     `db:"duration"`
	CreatedAt       string  `db:"created_at"`
}

func (r sessionRow) toModel() (model.Session, error) {
	created, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return model.Session{}, err
	}
	out := model.Session{
		ID:          r.ID,
		UserID:      r.UserID,
		WPM:         r.WPM,
		Accuracy:    r.Accuracy,
		TotalErrors: r.TotalErrors,
		Duration:    r.Duration,
		CreatedAt:   created,
	}
	if err := json.Unmarshal([]byte(r.ErrorWords), &out.ErrorWords); err != nil {
		return model.Session{}, fmt.Errorf("decode error words: %w", err)
	}
	if err := json.Unmarshal([]byte(r.TypingDurations), &out.TypingDurations); err != nil {
		return model.Session{}, fmt.Errorf("decode typing durations: %w", err)
	}
	return out, nil
}

const sessionColumns = `id, user_id, wpm, accuracy, total_errors, error_words, typing_durations, duration, created_at`

// AppendSession stores a validated session for its owner and returns the
// record with its assigned id and creation time.
func (s *Store) AppendSession(ctx context.Context, session model.Session) (model.Session, error) {
	if session.UserID == "" {
		return model.Session{}, fmt.Errorf("session owner is required")
	}
	if session.ErrorWords == nil {
		session.ErrorWords = []string{}
	}
	if session.TypingDurations == nil {
		session.TypingDurations = []float64{}
	}
	errorWords, err := json.Marshal(session.ErrorWords)
	if err != nil {
		return model.Session{}, fmt.Errorf("encode error words: %w", err)
	}
	durations, err := json.Marshal(session.TypingDurations)
	if err != nil {
		return model.Session{}, fmt.Errorf("encode typing durations: %w", err)
	}
	session.ID = uuid.NewString()
	session.CreatedAt = s.now().UTC()

	query := s.db.Rebind(`INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.WPM,
		session.Accuracy,
		session.TotalErrors,
		string(errorWords),
		string(durations),
		session.Duration,
		session.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return model.Session{}, &Error{Op: "append session", Err: err}
	}
	return session, nil
}

// SessionsByOwner returns up to limit sessions of the owner, newest first.
func (s *Store) SessionsByOwner(ctx context.Context, ownerID string, limit int) ([]model.Session, error) {
	if limit <= 0 {
		return []model.Session{}, nil
	}
	query := s.db.Rebind(`SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`)
	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, query, ownerID, limit); err != nil {
		return nil, &Error{Op: "list sessions", Err: err}
	}
	sessions := make([]model.Session, 0, len(rows))
	for _, row := range rows {
		session, err := row.toModel()
		if err != nil {
			return nil, &Error{Op: "decode session", Err: err}
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// FindSession looks up a session by id within one owner's records. A session
// of another owner is reported as ErrNotFound.
func (s *Store) FindSession(ctx context.Context, id, ownerID string) (model.Session, error) {
	query := s.db.Rebind(`SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = ? AND user_id = ?`)
	var row sessionRow
	if err := s.db.GetContext(ctx, &row, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, &Error{Op: "find session", Err: err}
	}
	session, err := row.toModel()
	if err != nil {
		return model.Session{}, &Error{Op: "decode session", Err: err}
	}
	return session, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
