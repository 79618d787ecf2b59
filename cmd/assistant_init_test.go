package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-assistant/internal/assistant"
	"github.com/sells-group/research-assistant/internal/config"
	"github.com/sells-group/research-assistant/internal/store"
)

func TestAssistantEnv_Close_Nil(t *testing.T) {
	env := &assistantEnv{}
	assert.NotPanics(t, env.Close)
}

func TestInitStore_Drivers(t *testing.T) {
	testConfig(t)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = filepath.Join(t.TempDir(), "test.db")
	st, err = initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, st)
	require.NoError(t, st.Close())

	cfg.Store.Driver = "redis"
	st, err = initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.RedisStore{}, st)
	require.NoError(t, st.Close())

	cfg.Store.Driver = "mongo"
	_, err = initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestPoolConfig(t *testing.T) {
	pc := poolConfig(config.StoreConfig{Driver: "postgres", MaxConns: 20, MinConns: 2})
	assert.Equal(t, &store.PoolConfig{MaxConns: 20, MinConns: 2}, pc)
}

func TestInitAssistant_RuleBasedOnly(t *testing.T) {
	testConfig(t)

	env, err := initAssistant(context.Background(), "cli")
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, []string{"rule_based"}, env.Chain.Names())
	require.NotNil(t, env.Metrics)

	res, err := env.Service.Upload(context.Background(), assistant.UploadInput{
		Filename: "energy.txt",
		Data:     []byte("Solar power is cheap. Wind power is clean. Storage is improving."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Solar power is cheap. Wind power is clean. Storage is improving.", res.Summary)
}

func TestInitAssistant_InvalidConfig(t *testing.T) {
	testConfig(t)
	cfg.Session.KeyStrategy = "sequential"

	env, err := initAssistant(context.Background(), "cli")
	assert.Nil(t, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.key_strategy")
}

func TestSummarizeCommand(t *testing.T) {
	testConfig(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Alpha is first. Beta is second."), 0o644))

	var out bytes.Buffer
	summarizeCmd.SetOut(&out)
	summarizeCmd.SetContext(context.Background())
	t.Cleanup(func() { summarizeCmd.SetOut(nil) })

	require.NoError(t, summarizeCmd.RunE(summarizeCmd, []string{path}))
	assert.Contains(t, out.String(), "File:    notes.txt")
	assert.Contains(t, out.String(), "Alpha is first. Beta is second.")
}

func TestSummarizeCommand_MissingFile(t *testing.T) {
	testConfig(t)
	summarizeCmd.SetContext(context.Background())

	err := summarizeCmd.RunE(summarizeCmd, []string{filepath.Join(t.TempDir(), "missing.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read")
}

func TestSessionsCommand_Empty(t *testing.T) {
	testConfig(t)

	var out bytes.Buffer
	sessionsCmd.SetOut(&out)
	sessionsCmd.SetContext(context.Background())
	t.Cleanup(func() { sessionsCmd.SetOut(nil) })

	require.NoError(t, sessionsCmd.RunE(sessionsCmd, nil))
	assert.Equal(t, "No sessions.\n", out.String())
}

func TestSessionsCommand_SQLite(t *testing.T) {
	testConfig(t)
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = filepath.Join(t.TempDir(), "sessions.db")

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("Revenue grew. Costs fell."), 0o644))
	summarizeCmd.SetOut(&bytes.Buffer{})
	summarizeCmd.SetContext(context.Background())
	t.Cleanup(func() { summarizeCmd.SetOut(nil) })
	require.NoError(t, summarizeCmd.RunE(summarizeCmd, []string{path}))

	var out bytes.Buffer
	sessionsCmd.SetOut(&out)
	sessionsCmd.SetContext(context.Background())
	t.Cleanup(func() { sessionsCmd.SetOut(nil) })

	require.NoError(t, sessionsCmd.RunE(sessionsCmd, nil))
	assert.Contains(t, out.String(), "SESSION")
	assert.Contains(t, out.String(), "report.txt")
}
