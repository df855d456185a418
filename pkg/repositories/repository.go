package repositories

import (
	"context"

	"github.com/bkimball/guessbot/pkg/repositories/models"
)

type Repository interface {
	Close(ctx context.Context) error

	// Wordlist
	GetWords(ctx context.Context) ([]models.WordEntry, error)
	AddWord(ctx context.Context, word string, category string) error
	AddWords(ctx context.Context, words []string, category string) error
	SetWordlist(ctx context.Context, wordlist map[string][]string) error
	RemoveWord(ctx context.Context, word string) error
	RemainingWordCount(ctx context.Context) (int, error)
	GetCategory(ctx context.Context, word string) (string, error)

	// Users
	AddUser(ctx context.Context, username string, score int, tokens int) error
	GetScore(ctx context.Context, username string) (int, error)
	AddScore(ctx context.Context, username string, amount int) error
	ResetScores(ctx context.Context) error
	GetHighscores(ctx context.Context) ([]models.Highscore, error)
	GetTokens(ctx context.Context, username string) (int, error)
	SetTokens(ctx context.Context, username string, amount int) error
	AddTokens(ctx context.Context, username string, amount int) error
	RemoveTokens(ctx context.Context, username string, amount int) error
	MigrateUser(ctx context.Context, oldUsername string, newUsername string) error

	// Redeems
	AddRedeem(ctx context.Context, name string, cost int) error
	RemoveRedeem(ctx context.Context, name string) error
	ModifyRedeem(ctx context.Context, name string, newName string, newCost int) error
	GetAllRedeems(ctx context.Context) ([]models.Redeem, error)
	GetRedeemCost(ctx context.Context, name string) (int, error)

	// Meta
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key string, value string) error
	ResetRound(ctx context.Context) error
}
