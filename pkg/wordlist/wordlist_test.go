package wordlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bkimball/guessbot/pkg/repositories"
	"github.com/bkimball/guessbot/pkg/repositories/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wordlist.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	path := writeTestFile(t, `[animals]
cat
dog

[trees]
oak
`)

	wordlist, err := ParseFile(path)
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"animals": {"cat", "dog"},
		"trees":   {"oak"},
	}, wordlist)
}

func TestParseFile_NoCategories(t *testing.T) {
	path := writeTestFile(t, "")

	_, err := ParseFile(path)
	assert.Error(t, err)
}

func TestParseFile_WordsOutsideCategory(t *testing.T) {
	path := writeTestFile(t, `stray
[animals]
cat
`)

	_, err := ParseFile(path)
	assert.Error(t, err)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.ini"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "guessbot.db")
	repo, err := repositories.NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	defer repo.Close(ctx)

	require.NoError(t, Apply(ctx, repo, map[string][]string{
		"animals": {"cat", "dog"},
	}))

	words, err := repo.GetWords(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.WordEntry{
		{Word: "cat", Category: "animals"},
		{Word: "dog", Category: "animals"},
	}, words)

	// The round is flagged for an update so the next startup recalculates.
	updateRound, err := repo.GetMeta(ctx, "update_round")
	require.NoError(t, err)
	assert.Equal(t, "true", updateRound)
}
