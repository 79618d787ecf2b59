package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/research-assistant/internal/model"
)

// appendTurnScript pushes a turn only when the session hash exists.
var appendTurnScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('RPUSH', KEYS[2], ARGV[1])
`)

// RedisStore implements Store with a hash per session, a list of JSON turns
// per session and a sorted set indexing sessions by upload time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a RedisStore. Connectivity is checked by Migrate.
func NewRedis(addr, password string, db int, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "assistant"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: prefix,
	}
}

func (r *RedisStore) sessionKey(id string) string { return r.prefix + ":session:" + id }

func (r *RedisStore) turnsKey(id string) string { return r.prefix + ":session:" + id + ":turns" }

func (r *RedisStore) indexKey() string { return r.prefix + ":sessions" }

// Migrate verifies the server is reachable; there is no schema.
func (r *RedisStore) Migrate(ctx context.Context) error {
	pong, err := r.client.Ping(ctx).Result()
	if err != nil {
		return eris.Wrap(err, "redis: ping")
	}
	if pong != "PONG" {
		return eris.Errorf("redis: expected PONG, got %s", pong)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Create(ctx context.Context, sess model.Session) error {
	uploaded := sess.UploadedAt.UTC()
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.sessionKey(sess.Key), r.turnsKey(sess.Key))
		p.HSet(ctx, r.sessionKey(sess.Key), sessionFields(sess))
		p.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(uploaded.UnixMilli()), Member: sess.Key})
		return nil
	})
	return eris.Wrapf(err, "redis: create session %s", sess.Key)
}

func (r *RedisStore) Get(ctx context.Context, key string) (*model.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.sessionKey(key)).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get session %s", key)
	}
	if len(fields) == 0 {
		return nil, notFound(key)
	}
	sess, err := sessionFromFields(key, fields)
	if err != nil {
		return nil, err
	}

	raw, err := r.client.LRange(ctx, r.turnsKey(key), 0, -1).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get turns %s", key)
	}
	for _, item := range raw {
		var t model.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, eris.Wrap(err, "redis: decode turn")
		}
		sess.Turns = append(sess.Turns, t)
	}
	return sess, nil
}

func (r *RedisStore) AppendTurn(ctx context.Context, key string, turn model.Turn) error {
	if turn.AskedAt.IsZero() {
		turn.AskedAt = time.Now()
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return eris.Wrap(err, "redis: encode turn")
	}
	n, err := appendTurnScript.Run(ctx, r.client,
		[]string{r.sessionKey(key), r.turnsKey(key)}, string(data),
	).Int64()
	if err != nil {
		return eris.Wrapf(err, "redis: append turn %s", key)
	}
	if n < 0 {
		return notFound(key)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context) ([]model.SessionSummary, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, eris.Wrap(err, "redis: list sessions")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.SliceCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HMGet(ctx, r.sessionKey(id), "filename", "uploaded_at")
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "redis: list session fields")
	}

	out := make([]model.SessionSummary, 0, len(ids))
	for i, id := range ids {
		vals := cmds[i].Val()
		if len(vals) != 2 || vals[0] == nil {
			continue
		}
		filename, _ := vals[0].(string)
		uploaded, _ := vals[1].(string)
		ts, err := time.Parse(time.RFC3339Nano, uploaded)
		if err != nil {
			return nil, eris.Wrapf(err, "redis: parse uploaded_at for %s", id)
		}
		out = append(out, model.SessionSummary{Key: id, Filename: filename, UploadedAt: ts})
	}
	sortSummaries(out)
	return out, nil
}

func sessionFields(s model.Session) map[string]any {
	return map[string]any{
		"document_text": s.DocumentText,
		"filename":      s.Filename,
		"summary":       s.Summary,
		"uploaded_at":   s.UploadedAt.UTC().Format(time.RFC3339Nano),
	}
}

func sessionFromFields(key string, fields map[string]string) (*model.Session, error) {
	ts, err := time.Parse(time.RFC3339Nano, fields["uploaded_at"])
	if err != nil {
		return nil, eris.Wrapf(err, "redis: parse uploaded_at for %s", key)
	}
	return &model.Session{
		Key:          key,
		DocumentText: fields["document_text"],
		Filename:     fields["filename"],
		Summary:      fields["summary"],
		UploadedAt:   ts,
	}, nil
}
