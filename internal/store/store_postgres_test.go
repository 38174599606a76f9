package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/verte-zerg/typetrack/internal/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_sessions_user_created").WillReturnResult(sqlmock.NewResult(0, 0))

	st, err := New(sqlx.NewDb(db, DriverPostgres))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	st.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return st, mock
}

func TestPostgresAppendSession(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "u1", 55.0, 98.0, 2, `["fox"]`, `[0.5,1]`, 30, "2024-05-06T07:08:09.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	saved, err := st.AppendSession(context.Background(), model.Session{
		UserID:          "u1",
		WPM:             55,
		Accuracy:        98,
		TotalErrors:     2,
		ErrorWords:      []string{"fox"},
		TypingDurations: []float64{0.5, 1},
		Duration:        30,
	})
	if err != nil {
		t.Fatalf("AppendSession() error: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresSessionsByOwnerUsesDollarPlaceholders(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "wpm", "accuracy", "total_errors", "error_words", "typing_durations", "duration", "created_at"}).
		AddRow("s2", "u1", 61.0, 95.0, 4, `["lazy"]`, `[1.5]`, 15, "2024-05-06T07:08:10.000000000Z").
		AddRow("s1", "u1", 48.0, 90.0, 7, `[]`, `[]`, 30, "2024-05-06T07:08:09.000000000Z")
	mock.ExpectQuery(`WHERE user_id = \$1`).
		WithArgs("u1", 10).
		WillReturnRows(rows)

	sessions, err := st.SessionsByOwner(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("SessionsByOwner() error: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "s2" {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
	if sessions[0].ErrorWords[0] != "lazy" || sessions[0].TypingDurations[0] != 1.5 {
		t.Fatalf("unexpected decoded arrays %+v", sessions[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresFindSessionNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE id = \$1 AND user_id = \$2`).
		WithArgs("s1", "u2").
		WillReturnError(sql.ErrNoRows)

	_, err := st.FindSession(context.Background(), "s1", "u2")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresDriverErrorIsWrapped(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE id = \$1 AND user_id = \$2`).
		WithArgs("s1", "u1").
		WillReturnError(errors.New("connection reset"))

	_, err := st.FindSession(context.Background(), "s1", "u1")
	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if storeErr.Op != "find session" {
		t.Fatalf("unexpected op %q", storeErr.Op)
	}
}

func TestPostgresCreateUserConflict(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := st.CreateUser(context.Background(), model.User{Username: "ada", Email: "ada@example.com", PasswordHash: "h"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
