package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/research-assistant/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters. Zero values
// keep the defaults of 10 max and 1 min connections.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := parsePoolConfig(connString, poolCfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

func parsePoolConfig(connString string, poolCfg *PoolConfig) (*pgxpool.Config, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
	return pgxCfg, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	document_text TEXT NOT NULL,
	filename      TEXT NOT NULL,
	summary       TEXT NOT NULL,
	uploaded_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS session_turns (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	asked_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_uploaded_at ON sessions(uploaded_at);
CREATE INDEX IF NOT EXISTS idx_session_turns_session_id ON session_turns(session_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, sess model.Session) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM session_turns WHERE session_id = $1`, sess.Key); err != nil {
		return eris.Wrapf(err, "postgres: reset turns %s", sess.Key)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, document_text, filename, summary, uploaded_at) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			document_text = EXCLUDED.document_text,
			filename = EXCLUDED.filename,
			summary = EXCLUDED.summary,
			uploaded_at = EXCLUDED.uploaded_at`,
		sess.Key, sess.DocumentText, sess.Filename, sess.Summary, sess.UploadedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert session %s", sess.Key)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*model.Session, error) {
	var sess model.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, document_text, filename, summary, uploaded_at FROM sessions WHERE id = $1`,
		key,
	).Scan(&sess.Key, &sess.DocumentText, &sess.Filename, &sess.Summary, &sess.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get session %s", key)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT question, answer, asked_at FROM session_turns WHERE session_id = $1 ORDER BY id`,
		key,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get turns %s", key)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.Question, &t.Answer, &t.AskedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan turn")
		}
		sess.Turns = append(sess.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate turns")
	}
	return &sess, nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, key string, turn model.Turn) error {
	askedAt := turn.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now()
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO session_turns (session_id, question, answer, asked_at)
		SELECT $1, $2, $3, $4 WHERE EXISTS (SELECT 1 FROM sessions WHERE id = $1)`,
		key, turn.Question, turn.Answer, askedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: append turn %s", key)
	}
	if tag.RowsAffected() == 0 {
		return notFound(key)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.SessionSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, filename, uploaded_at FROM sessions ORDER BY uploaded_at, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var out []model.SessionSummary
	for rows.Next() {
		var ss model.SessionSummary
		if err := rows.Scan(&ss.Key, &ss.Filename, &ss.UploadedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		out = append(out, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate sessions")
	}
	return out, nil
}
