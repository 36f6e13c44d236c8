package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := NewCacheAt(t.TempDir(), ttl)
	require.NoError(t, err)
	return c
}

func TestNewCacheAtCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	c, err := NewCacheAt(dir, time.Hour)

	require.NoError(t, err)
	require.NotNil(t, c)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestGenerateHash(t *testing.T) {
	c := &Cache{}

	hash1 := c.GenerateHash("review prompt")
	hash2 := c.GenerateHash("review prompt")
	hash3 := c.GenerateHash("other prompt")

	assert.Equal(t, hash1, hash2)
	assert.NotEqual(t, hash1, hash3)
	assert.Len(t, hash1, 64)
}

func TestSetAndGet(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	type review struct {
		Summary string `json:"summary"`
	}
	hash := c.GenerateHash("auth.py:content")

	require.NoError(t, c.Set(hash, review{Summary: "looks good"}))

	resp, found, err := c.Get(hash)
	require.NoError(t, err)
	require.True(t, found)

	var got review
	require.NoError(t, json.Unmarshal(resp, &got))
	assert.Equal(t, "looks good", got.Summary)
}

func TestGetMiss(t *testing.T) {
	c := setupTestCache(t, time.Hour)

	_, found, err := c.Get("no-such-hash")

	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetExpiredEntryIsRemoved(t *testing.T) {
	c := setupTestCache(t, 10*time.Millisecond)
	hash := "stale"
	require.NoError(t, c.Set(hash, "old data"))

	time.Sleep(20 * time.Millisecond)

	_, found, err := c.Get(hash)
	require.NoError(t, err)
	assert.False(t, found)

	_, statErr := os.Stat(filepath.Join(c.cacheDir, hash+".json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanExpired(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	require.NoError(t, c.Set("fresh", "data"))
	require.NoError(t, c.Set("old", "data"))

	oldFile := filepath.Join(c.cacheDir, "old.json")
	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	require.NoError(t, c.CleanExpired())

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(c.cacheDir, "fresh.json"))
	assert.NoError(t, err)
}

func TestClean(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	require.NoError(t, c.Set("h1", "data"))

	require.NoError(t, c.Clean())

	_, err := os.Stat(c.cacheDir)
	assert.True(t, os.IsNotExist(err))
}

func TestGetCorruptEntry(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(c.cacheDir, "bad.json"), []byte("not json{"), 0644))

	_, found, err := c.Get("bad")

	assert.Error(t, err)
	assert.False(t, found)
}
