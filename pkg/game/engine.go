package game

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/bkimball/guessbot/pkg/log"
	"github.com/bkimball/guessbot/pkg/repositories"
	"github.com/bkimball/guessbot/pkg/repositories/models"
)

// Engine runs the word-guessing round against a repository. It is not safe
// for concurrent use; the caller must serialize calls into it, e.g. by
// processing one chat message at a time.
type Engine struct {
	repository repositories.Repository
	rng        *rand.Rand
	round      Round
}

// NewEngineOptions contains options for creating a new Engine.
type NewEngineOptions struct {
	Repository repositories.Repository
	// Rand is the source used for word selection. Defaults to a time-seeded
	// source when nil.
	Rand *rand.Rand
}

// NewEngine creates an Engine and recovers the round state persisted by the
// previous process, starting a new round if there is none.
func NewEngine(ctx context.Context, opts NewEngineOptions) (*Engine, error) {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		repository: opts.Repository,
		rng:        rng,
	}

	if err := e.recover(ctx); err != nil {
		return nil, fmt.Errorf("failed to recover round state: %v", err)
	}

	return e, nil
}

// Word returns the currently selected word.
func (e *Engine) Word() string {
	return e.round.CurrentWord
}

// Category returns the current word's category.
func (e *Engine) Category() string {
	return e.round.CurrentCategory
}

// PointValue returns the score awarded for guessing the current word.
func (e *Engine) PointValue() int {
	return e.round.PointValue
}

// Running reports whether a round is in progress.
func (e *Engine) Running() bool {
	return e.round.Running
}

func (e *Engine) recover(ctx context.Context) error {
	updateRound, err := e.getFlag(ctx, metaUpdateRound)
	if err != nil {
		return err
	}
	roundEnded, err := e.getFlag(ctx, metaRoundEnd)
	if err != nil {
		return err
	}
	distributePoints, err := e.getFlag(ctx, metaDistributePoints)
	if err != nil {
		return err
	}
	hasSaved, err := e.hasSavedRound(ctx)
	if err != nil {
		return err
	}

	state := ComputeRecoveryState(roundEnded, distributePoints, hasSaved)
	log.Info("Recovering round state: %s", state)

	switch state {
	case RecoveryEndedPendingPayout:
		e.round.Running = false
		log.Info("Replaying interrupted round-end payout")
		if _, err := e.EndRound(ctx); err != nil {
			return fmt.Errorf("failed to replay round-end payout: %v", err)
		}
		return nil
	case RecoveryEnded:
		e.round.Running = false
		return nil
	case RecoveryResuming:
		// The flag is consumed here; teardown rewrites it as false.
		if err := e.repository.SetMeta(ctx, metaUpdateRound, "false"); err != nil {
			return err
		}
		if err := e.loadSavedRound(ctx); err != nil {
			return err
		}
		if updateRound {
			log.Info("Wordlist changed since last save, recalculating point value")
			if err := e.UpdatePointValue(ctx); err != nil {
				return err
			}
		}
		e.round.Running = true
		return nil
	default:
		if err := e.repository.SetMeta(ctx, metaUpdateRound, "false"); err != nil {
			return err
		}
		chose, err := e.ChooseNewWord(ctx)
		if err != nil {
			return err
		}
		if chose {
			if err := e.UpdatePointValue(ctx); err != nil {
				return err
			}
		}
		e.round.Running = chose
		return nil
	}
}

// getFlag reads a boolean meta flag, defaulting to false when the key is
// absent or unparsable.
func (e *Engine) getFlag(ctx context.Context, key string) (bool, error) {
	value, err := e.repository.GetMeta(ctx, key)
	if err != nil {
		if repositories.IsMetaNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read meta %s: %v", key, err)
	}

	flag, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn("Meta %s holds %q, treating as false", key, value)
		return false, nil
	}
	return flag, nil
}

func (e *Engine) hasSavedRound(ctx context.Context) (bool, error) {
	word, err := e.repository.GetMeta(ctx, metaCurrentWord)
	if err != nil {
		if repositories.IsMetaNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read meta %s: %v", metaCurrentWord, err)
	}
	return word != "", nil
}

func (e *Engine) loadSavedRound(ctx context.Context) error {
	word, err := e.repository.GetMeta(ctx, metaCurrentWord)
	if err != nil {
		return fmt.Errorf("failed to read saved word: %v", err)
	}
	category, err := e.repository.GetMeta(ctx, metaCurrentCategory)
	if err != nil {
		return fmt.Errorf("failed to read saved category: %v", err)
	}
	pointsValue, err := e.repository.GetMeta(ctx, metaCurrentPoints)
	if err != nil {
		return fmt.Errorf("failed to read saved point value: %v", err)
	}
	points, err := strconv.Atoi(pointsValue)
	if err != nil {
		return fmt.Errorf("failed to parse saved point value %q: %v", pointsValue, err)
	}

	e.round.CurrentWord = word
	e.round.CurrentCategory = category
	e.round.PointValue = points

	log.Info("Resumed round with saved word")
	return nil
}

// ChooseNewWord selects a word/category pair uniformly at random and removes
// it from the store, so the word in play is never visible to anyone else.
// Returns false without mutating the round when the wordlist is empty.
func (e *Engine) ChooseNewWord(ctx context.Context) (bool, error) {
	words, err := e.repository.GetWords(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get wordlist: %v", err)
	}
	if len(words) == 0 {
		log.Info("Wordlist is empty, no word chosen")
		return false, nil
	}

	entry := words[e.rng.Intn(len(words))]

	// The word was just listed; failing to remove it means the store is
	// corrupt or another writer raced us. Not recoverable.
	if err := e.repository.RemoveWord(ctx, entry.Word); err != nil {
		return false, fmt.Errorf("failed to remove chosen word %q: %v", entry.Word, err)
	}

	e.round.CurrentWord = entry.Word
	e.round.CurrentCategory = entry.Category

	log.Debug("Chose a new word in category %s", entry.Category)
	return true, nil
}

// UpdatePointValue recomputes the per-guess score from the number of words
// left in the store: 1 point above 20 words, 2 points for 11-20, 3 points for
// 10 or fewer.
func (e *Engine) UpdatePointValue(ctx context.Context) error {
	count, err := e.repository.RemainingWordCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count remaining words: %v", err)
	}

	switch {
	case count > 20:
		e.round.PointValue = 1
	case count >= 11:
		e.round.PointValue = 2
	default:
		e.round.PointValue = 3
	}

	return nil
}

// ProcessResult reports the outcome of processing one chat message.
type ProcessResult struct {
	// Success is true when the message contained the current word.
	Success bool
	// Word and Score are only set on success.
	Word  string
	Score int
	// WordsRemaining counts the words left to be guessed. On a miss it
	// includes the word currently in play; on a win it is the number of words
	// left after the guessed one.
	WordsRemaining int
}

// Process checks one chat message for the current word. A win credits the
// guesser and advances the round to the next word, unless the pool is
// exhausted, in which case ending the round is left to the caller. A miss
// changes no state.
//
// The word match is a plain substring test: no token boundaries and no case
// folding. A message containing "category" wins when the word is "cat". This
// is deliberate.
func (e *Engine) Process(ctx context.Context, username string, message string) (ProcessResult, error) {
	if !e.round.Running {
		return ProcessResult{}, fmt.Errorf("round is not running")
	}

	count, err := e.repository.RemainingWordCount(ctx)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("failed to count remaining words: %v", err)
	}

	if !strings.Contains(message, e.round.CurrentWord) {
		// The in-play word left the store at selection time; the externally
		// visible count adds it back in.
		return ProcessResult{WordsRemaining: count + 1}, nil
	}

	log.Debug("%s guessed the current word", username)

	result := ProcessResult{
		Success:        true,
		Word:           e.round.CurrentWord,
		Score:          e.round.PointValue,
		WordsRemaining: count,
	}

	if err := e.repository.AddScore(ctx, username, e.round.PointValue); err != nil {
		if !repositories.IsUserNotFound(err) {
			return ProcessResult{}, fmt.Errorf("failed to add score: %v", err)
		}
		log.Info("Creating account for %s", username)
		if err := e.repository.AddUser(ctx, username, e.round.PointValue, 0); err != nil {
			return ProcessResult{}, fmt.Errorf("failed to create user %s: %v", username, err)
		}
	}

	if count == 0 {
		log.Info("No words remaining, round end is up to the caller")
		return result, nil
	}

	if _, err := e.ChooseNewWord(ctx); err != nil {
		return ProcessResult{}, err
	}
	if err := e.UpdatePointValue(ctx); err != nil {
		return ProcessResult{}, err
	}

	return result, nil
}

// EndRound pays out tokens to the round's top scorers, resets all scores and
// stops the round. The pre-payout ranking is returned for announcing.
func (e *Engine) EndRound(ctx context.Context) ([]models.Highscore, error) {
	// Mark the payout as pending first, so a crash between here and the flag
	// writes below is replayed at the next startup instead of being lost.
	if err := e.repository.SetMeta(ctx, metaDistributePoints, "true"); err != nil {
		return nil, fmt.Errorf("failed to mark payout pending: %v", err)
	}

	highscores, err := e.repository.GetHighscores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get highscores: %v", err)
	}

	if err := e.distributeTokens(ctx, highscores); err != nil {
		return nil, err
	}

	if err := e.repository.ResetScores(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset scores: %v", err)
	}

	metaWrites := [][2]string{
		{metaRoundEnd, "true"},
		{metaDistributePoints, "false"},
		{metaCurrentWord, ""},
		{metaCurrentCategory, ""},
		{metaCurrentPoints, "0"},
	}
	for _, kv := range metaWrites {
		if err := e.repository.SetMeta(ctx, kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("failed to set meta %s: %v", kv[0], err)
		}
	}

	e.round = Round{}

	log.Info("Round ended, %d users on the scoreboard", len(highscores))
	return highscores, nil
}

// distributeTokens pays 3 tokens to every user holding the top score, 2 to
// users above the lowest returned score, and 1 to the rest. The ranking is
// already capped at 6 rows by the store; a 7-way tie for first drops one
// winner, which is accepted.
func (e *Engine) distributeTokens(ctx context.Context, users []models.Highscore) error {
	if len(users) == 0 {
		log.Info("No users scored this round, skipping payout")
		return nil
	}

	high := users[0].Score
	low := users[len(users)-1].Score

	for _, user := range users {
		amount := 1
		switch {
		case user.Score == high:
			amount = 3
		case user.Score > low:
			amount = 2
		}
		if err := e.repository.AddTokens(ctx, user.Username, amount); err != nil {
			return fmt.Errorf("failed to pay out tokens to %s: %v", user.Username, err)
		}
	}

	return nil
}

// Teardown persists the round state for the next process. Safe to call more
// than once.
func (e *Engine) Teardown(ctx context.Context) error {
	var metaWrites [][2]string
	if !e.round.Running {
		log.Info("Round not running, persisting ended state")
		metaWrites = [][2]string{
			{metaRoundEnd, "true"},
			{metaDistributePoints, "false"},
			{metaUpdateRound, "false"},
		}
	} else {
		log.Info("Round running, persisting snapshot for resume")
		metaWrites = [][2]string{
			{metaCurrentWord, e.round.CurrentWord},
			{metaCurrentCategory, e.round.CurrentCategory},
			{metaCurrentPoints, strconv.Itoa(e.round.PointValue)},
			{metaRoundEnd, "false"},
			{metaDistributePoints, "false"},
			{metaUpdateRound, "false"},
		}
	}

	for _, kv := range metaWrites {
		if err := e.repository.SetMeta(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to set meta %s: %v", kv[0], err)
		}
	}

	return nil
}
