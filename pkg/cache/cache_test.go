package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakurai/bojstat-go/pkg/boj"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), time.Hour, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestManager_MissWhenEmpty(t *testing.T) {
	m := newTestManager(t)
	hit, err := m.Get("some-key", boj.CacheIfStale, false)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestManager_RoundTripComplete(t *testing.T) {
	m := newTestManager(t)
	payload := json.RawMessage(`{"records":[1,2,3]}`)
	require.NoError(t, m.Set("k1", payload, true, nil, "20260101"))

	hit, err := m.Get("k1", boj.CacheIfStale, false)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.False(t, hit.Stale)
	assert.JSONEq(t, string(payload), string(hit.Entry.Payload))
}

func TestManager_IncompleteEntryIsMissByDefault(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("k1", json.RawMessage(`{}`), false, nil, ""))

	hit, err := m.Get("k1", boj.CacheIfStale, false)
	require.NoError(t, err)
	assert.Nil(t, hit) // P8

	hit, err = m.Get("k1", boj.CacheIfStale, true)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.False(t, hit.Entry.Complete)
}

func TestManager_ForceRefreshAlwaysMisses(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("k1", json.RawMessage(`{}`), true, nil, ""))

	hit, err := m.Get("k1", boj.CacheForceRefresh, false)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestManager_OffModeAlwaysMisses(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Set("k1", json.RawMessage(`{}`), true, nil, ""))

	hit, err := m.Get("k1", boj.CacheOff, true)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestManager_StaleAfterTTL(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Set("k1", json.RawMessage(`{}`), true, nil, ""))

	time.Sleep(5 * time.Millisecond)
	hit, err := m.Get("k1", boj.CacheIfStale, false)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.True(t, hit.Stale)
}

func TestManager_CorruptEntryIsQuarantinedAndMisses(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, time.Hour, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, m.Set("k1", json.RawMessage(`{}`), true, nil, ""))
	path := m.pathFor("k1")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	hit, err := m.Get("k1", boj.CacheIfStale, false)
	require.NoError(t, err)
	assert.Nil(t, hit)

	_, statErr := os.Stat(path + ".broken")
	assert.NoError(t, statErr)
}

func TestManager_ZeroDirDisablesCache(t *testing.T) {
	m, err := NewManager("", time.Hour, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Set("k1", json.RawMessage(`{}`), true, nil, ""))

	hit, err := m.Get("k1", boj.CacheIfStale, true)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestManager_NoTempFilesLeftBehindAfterWrite(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, time.Hour, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Set("k1", json.RawMessage(`{}`), true, nil, ""))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, filepath.Ext(e.Name()) == ".tmp")
	}
}
