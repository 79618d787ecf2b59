package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/research-assistant/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection; a single connection keeps them in effect
	// and serializes writers.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	document_text TEXT NOT NULL,
	filename      TEXT NOT NULL,
	summary       TEXT NOT NULL,
	uploaded_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS session_turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	asked_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_uploaded_at ON sessions(uploaded_at);
CREATE INDEX IF NOT EXISTS idx_session_turns_session_id ON session_turns(session_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, sess model.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_turns WHERE session_id = ?`, sess.Key); err != nil {
		return eris.Wrapf(err, "sqlite: reset turns %s", sess.Key)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, document_text, filename, summary, uploaded_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_text = excluded.document_text,
			filename = excluded.filename,
			summary = excluded.summary,
			uploaded_at = excluded.uploaded_at`,
		sess.Key, sess.DocumentText, sess.Filename, sess.Summary, sess.UploadedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert session %s", sess.Key)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_text, filename, summary, uploaded_at FROM sessions WHERE id = ?`,
		key,
	).Scan(&sess.Key, &sess.DocumentText, &sess.Filename, &sess.Summary, &sess.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get session %s", key)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer, asked_at FROM session_turns WHERE session_id = ? ORDER BY id`,
		key,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get turns %s", key)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.Question, &t.Answer, &t.AskedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan turn")
		}
		sess.Turns = append(sess.Turns, t)
	}
	return &sess, eris.Wrap(rows.Err(), "sqlite: iterate turns")
}

func (s *SQLiteStore) AppendTurn(ctx context.Context, key string, turn model.Turn) error {
	askedAt := turn.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO session_turns (session_id, question, answer, asked_at)
		SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ?)`,
		key, turn.Question, turn.Answer, askedAt.UTC(), key,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: append turn %s", key)
	}
	return checkRowsAffected(res, key)
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, uploaded_at FROM sessions ORDER BY uploaded_at, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.SessionSummary
	for rows.Next() {
		var ss model.SessionSummary
		if err := rows.Scan(&ss.Key, &ss.Filename, &ss.UploadedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate sessions")
	}
	sortSummaries(out)
	return out, nil
}

func checkRowsAffected(res sql.Result, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(key)
	}
	return nil
}
