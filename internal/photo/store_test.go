package photo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_CreatesCategoryDirs(t *testing.T) {
	base := t.TempDir()
	_, err := NewStore(base)
	require.NoError(t, err)

	for _, cat := range []string{CategoryParty, CategoryFilm, CategoryPuzzle} {
		info, err := os.Stat(filepath.Join(base, cat))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSave_WritesFileUnderCategory(t *testing.T) {
	base := t.TempDir()
	store, err := NewStore(base)
	require.NoError(t, err)

	rel, err := store.Save(CategoryFilm, 42, []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, CategoryFilm, filepath.Dir(rel))

	data, err := os.ReadFile(filepath.Join(base, rel))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestSave_RapidSavesDoNotCollide(t *testing.T) {
	base := t.TempDir()
	store, err := NewStore(base)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rel, err := store.Save(CategoryParty, 7, []byte{byte(i)})
		require.NoError(t, err)
		assert.False(t, seen[rel], "duplicate path %s", rel)
		seen[rel] = true
	}
}
