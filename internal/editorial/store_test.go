package editorial

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atcpro/atcpro/pkg/models"
)

func TestOpen_MissingFile(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "editorials.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editorials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestStore_PutAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "editorials.json")
	store, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, store.Put("abc300_a", &models.Editorial{
		Text:  "全探索で解けます",
		Codes: []string{"print(1)"},
	}))
	require.NoError(t, store.Put("abc300_h", nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "全探索")
	assert.Contains(t, string(raw), `"abc300_h": null`)

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())

	e, ok := reopened.Get("abc300_a")
	require.True(t, ok)
	require.NotNil(t, e)
	assert.Equal(t, []string{"print(1)"}, e.Codes)

	e, ok = reopened.Get("abc300_h")
	assert.True(t, ok, "checked-but-unavailable key must survive a reload")
	assert.Nil(t, e)

	_, ok = reopened.Get("abc300_b")
	assert.False(t, ok)
	assert.False(t, reopened.Has("abc300_b"))
	assert.True(t, reopened.Has("abc300_h"))
}

func TestStore_PutAllAndCorpusSnapshot(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "editorials.json"))
	require.NoError(t, err)

	require.NoError(t, store.PutAll(map[string]*models.Editorial{
		"a": {Text: "x"},
		"b": nil,
	}))

	corpus := store.Corpus()
	assert.Len(t, corpus, 2)

	corpus["c"] = &models.Editorial{Text: "y"}
	assert.False(t, store.Has("c"))
}

func TestStore_FlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "editorials.json"))
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put(id, &models.Editorial{Text: id}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "editorials.json", entries[0].Name())
}

func TestStore_SharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editorials.json")
	server, err := Open(path)
	require.NoError(t, err)
	scraper, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, scraper.Put("abc300_a", &models.Editorial{Text: "二分探索"}))

	corpus := server.Corpus()
	require.Contains(t, corpus, "abc300_a")
	assert.Equal(t, "二分探索", corpus["abc300_a"].Text)
	assert.True(t, server.Has("abc300_a"))

	require.NoError(t, server.Put("abc300_b", nil))
	require.NoError(t, scraper.Put("abc300_c", &models.Editorial{Text: "DP"}))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 3, reopened.Len())
	for _, id := range []string{"abc300_a", "abc300_b", "abc300_c"} {
		assert.True(t, reopened.Has(id), id)
	}
}

func TestStore_RefreshKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editorials.json")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put("a", &models.Editorial{Text: "x"}))

	require.NoError(t, os.WriteFile(path, []byte(`{"b": null}`), 0o644))
	require.NoError(t, store.Refresh())

	assert.True(t, store.Has("a"))
	assert.True(t, store.Has("b"))
}

func TestStore_PutAllLeavesUndecodableFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editorials.json")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put("a", &models.Editorial{Text: "x"}))

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	assert.Error(t, store.Put("b", nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(raw))

	corpus := store.Corpus()
	assert.Contains(t, corpus, "a")
}
