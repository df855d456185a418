package game

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/bkimball/guessbot/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (repositories.Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guessbot.db")
	repo, err := repositories.NewSQLiteRepository(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Close(context.Background())
	})
	return repo, path
}

func newTestEngine(t *testing.T, repo repositories.Repository) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background(), NewEngineOptions{
		Repository: repo,
		Rand:       rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	return engine
}

func addTestWords(t *testing.T, repo repositories.Repository, count int) {
	t.Helper()
	words := make([]string, count)
	for i := range words {
		words[i] = fmt.Sprintf("word%03d", i)
	}
	require.NoError(t, repo.AddWords(context.Background(), words, "test"))
}

func TestNewEngine_EmptyWordlist(t *testing.T) {
	repo, _ := newTestRepository(t)
	engine := newTestEngine(t, repo)

	assert.False(t, engine.Running())
}

func TestNewEngine_FreshRound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	addTestWords(t, repo, 3)

	engine := newTestEngine(t, repo)

	assert.True(t, engine.Running())
	assert.NotEmpty(t, engine.Word())
	assert.Equal(t, "test", engine.Category())
	assert.Equal(t, 3, engine.PointValue())

	// The word in play was consumed at selection time.
	count, err := repo.RemainingWordCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChooseNewWord(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	engine := newTestEngine(t, repo)

	// Empty wordlist leaves the round untouched.
	chose, err := engine.ChooseNewWord(ctx)
	require.NoError(t, err)
	assert.False(t, chose)
	assert.Empty(t, engine.Word())

	addTestWords(t, repo, 5)

	chose, err = engine.ChooseNewWord(ctx)
	require.NoError(t, err)
	assert.True(t, chose)
	assert.NotEmpty(t, engine.Word())

	// The selected word is gone from the store.
	words, err := repo.GetWords(ctx)
	require.NoError(t, err)
	assert.Len(t, words, 4)
	for _, entry := range words {
		assert.NotEqual(t, engine.Word(), entry.Word)
	}
}

func TestUpdatePointValue(t *testing.T) {
	tests := []struct {
		remaining int
		want      int
	}{
		{remaining: 25, want: 1},
		{remaining: 21, want: 1},
		{remaining: 20, want: 2},
		{remaining: 11, want: 2},
		{remaining: 10, want: 3},
		{remaining: 1, want: 3},
		{remaining: 0, want: 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d words", tt.remaining), func(t *testing.T) {
			ctx := context.Background()
			repo, _ := newTestRepository(t)
			engine := newTestEngine(t, repo)
			addTestWords(t, repo, tt.remaining)

			require.NoError(t, engine.UpdatePointValue(ctx))
			assert.Equal(t, tt.want, engine.PointValue())
		})
	}
}

func TestProcess_Miss(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.AddWords(ctx, []string{"gopher", "badger"}, "animals"))
	engine := newTestEngine(t, repo)

	word := engine.Word()

	result, err := engine.Process(ctx, "alice", "totally unrelated chatter")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Empty(t, result.Word)
	assert.Zero(t, result.Score)
	// The count includes the word in play.
	assert.Equal(t, 2, result.WordsRemaining)

	// A miss mutates nothing.
	assert.Equal(t, word, engine.Word())
	_, err = repo.GetScore(ctx, "alice")
	assert.True(t, repositories.IsUserNotFound(err))
}

func TestProcess_WinRoundContinues(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.AddWords(ctx, []string{"gopher", "badger"}, "animals"))
	engine := newTestEngine(t, repo)

	word := engine.Word()
	points := engine.PointValue()

	result, err := engine.Process(ctx, "alice", "is it a "+word+"?")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, word, result.Word)
	assert.Equal(t, points, result.Score)
	assert.Equal(t, 1, result.WordsRemaining)

	// The winner is credited; the account is created on first score.
	score, err := repo.GetScore(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, points, score)

	// A new word is in play.
	assert.True(t, engine.Running())
	assert.NotEqual(t, word, engine.Word())
}

func TestProcess_WinPoolExhausted(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.AddWords(ctx, []string{"gopher"}, "animals"))
	engine := newTestEngine(t, repo)

	result, err := engine.Process(ctx, "alice", "gopher")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.WordsRemaining)

	// No new word is selected; ending the round is the caller's call.
	assert.True(t, engine.Running())
}

func TestProcess_SubstringMatch(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.AddWords(ctx, []string{"cat"}, "animals"))
	engine := newTestEngine(t, repo)

	// The match is plain containment: "cat" inside "category" wins.
	result, err := engine.Process(ctx, "alice", "is this a category?")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestProcess_CaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.AddWords(ctx, []string{"cat"}, "animals"))
	engine := newTestEngine(t, repo)

	result, err := engine.Process(ctx, "alice", "CAT")
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestProcess_NotRunning(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	engine := newTestEngine(t, repo)

	_, err := engine.Process(ctx, "alice", "anything")
	assert.Error(t, err)
}

func TestEndRound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.AddUser(ctx, "alice", 5, 0))
	require.NoError(t, repo.AddUser(ctx, "bob", 5, 0))
	require.NoError(t, repo.AddUser(ctx, "carol", 4, 0))
	require.NoError(t, repo.AddUser(ctx, "dave", 3, 0))
	addTestWords(t, repo, 2)
	engine := newTestEngine(t, repo)

	highscores, err := engine.EndRound(ctx)
	require.NoError(t, err)
	assert.Len(t, highscores, 4)

	// 3 tokens for the top score, 2 above the lowest returned, 1 for the rest.
	wantTokens := map[string]int{"alice": 3, "bob": 3, "carol": 2, "dave": 1}
	for username, want := range wantTokens {
		tokens, err := repo.GetTokens(ctx, username)
		require.NoError(t, err)
		assert.Equal(t, want, tokens, username)

		score, err := repo.GetScore(ctx, username)
		require.NoError(t, err)
		assert.Equal(t, 0, score, username)
	}

	assert.False(t, engine.Running())
	assert.Empty(t, engine.Word())

	roundEnd, err := repo.GetMeta(ctx, "round_end")
	require.NoError(t, err)
	assert.Equal(t, "true", roundEnd)
	distribute, err := repo.GetMeta(ctx, "distribute_points")
	require.NoError(t, err)
	assert.Equal(t, "false", distribute)
}

func TestEndRound_AllTied(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.AddUser(ctx, "alice", 2, 0))
	require.NoError(t, repo.AddUser(ctx, "bob", 2, 0))
	engine := newTestEngine(t, repo)

	_, err := engine.EndRound(ctx)
	require.NoError(t, err)

	// Everyone holds the top score, so everyone gets 3 tokens.
	for _, username := range []string{"alice", "bob"} {
		tokens, err := repo.GetTokens(ctx, username)
		require.NoError(t, err)
		assert.Equal(t, 3, tokens, username)
	}
}

func TestEndRound_NobodyScored(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	engine := newTestEngine(t, repo)

	highscores, err := engine.EndRound(ctx)
	require.NoError(t, err)
	assert.Empty(t, highscores)
	assert.False(t, engine.Running())
}

func TestTeardownRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepository(t)
	addTestWords(t, repo, 3)

	first := newTestEngine(t, repo)
	require.True(t, first.Running())
	word := first.Word()
	category := first.Category()
	points := first.PointValue()

	require.NoError(t, first.Teardown(ctx))
	require.NoError(t, repo.Close(ctx))

	// A fresh process against the same store resumes the exact round.
	reopened, err := repositories.NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	second := newTestEngine(t, reopened)
	assert.True(t, second.Running())
	assert.Equal(t, word, second.Word())
	assert.Equal(t, category, second.Category())
	assert.Equal(t, points, second.PointValue())

	// Resuming does not consume another word.
	count, err := reopened.RemainingWordCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTeardown_NotRunning(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	engine := newTestEngine(t, repo)
	require.False(t, engine.Running())

	// Idempotent: a second teardown changes nothing.
	require.NoError(t, engine.Teardown(ctx))
	require.NoError(t, engine.Teardown(ctx))

	roundEnd, err := repo.GetMeta(ctx, "round_end")
	require.NoError(t, err)
	assert.Equal(t, "true", roundEnd)

	second := newTestEngine(t, repo)
	assert.False(t, second.Running())
}

func TestRecovery_Ended(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	addTestWords(t, repo, 3)
	require.NoError(t, repo.SetMeta(ctx, "round_end", "true"))

	engine := newTestEngine(t, repo)

	assert.False(t, engine.Running())

	// No word was consumed.
	count, err := repo.RemainingWordCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRecovery_EndedPendingPayout(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	require.NoError(t, repo.AddUser(ctx, "alice", 5, 0))
	require.NoError(t, repo.SetMeta(ctx, "round_end", "true"))
	require.NoError(t, repo.SetMeta(ctx, "distribute_points", "true"))

	engine := newTestEngine(t, repo)

	assert.False(t, engine.Running())

	// The interrupted payout was replayed exactly once.
	tokens, err := repo.GetTokens(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, tokens)

	score, err := repo.GetScore(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	distribute, err := repo.GetMeta(ctx, "distribute_points")
	require.NoError(t, err)
	assert.Equal(t, "false", distribute)
}

func TestRecovery_WordlistChanged(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	addTestWords(t, repo, 25)
	require.NoError(t, repo.SetMeta(ctx, "cur_word", "gopher"))
	require.NoError(t, repo.SetMeta(ctx, "cur_cat", "animals"))
	require.NoError(t, repo.SetMeta(ctx, "cur_points", "3"))
	require.NoError(t, repo.ResetRound(ctx))

	engine := newTestEngine(t, repo)

	// The saved word survives but the point value tracks the new pool size.
	assert.True(t, engine.Running())
	assert.Equal(t, "gopher", engine.Word())
	assert.Equal(t, "animals", engine.Category())
	assert.Equal(t, 1, engine.PointValue())

	// The flag is consumed.
	updateRound, err := repo.GetMeta(ctx, "update_round")
	require.NoError(t, err)
	assert.Equal(t, "false", updateRound)
}
