package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bkimball/guessbot/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE COLLATE NOCASE,
		score INTEGER NOT NULL DEFAULT 0,
		tokens INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY NOT NULL UNIQUE,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE
	);`,
	`CREATE TABLE IF NOT EXISTS wordlist (
		id INTEGER PRIMARY KEY NOT NULL UNIQUE,
		word TEXT NOT NULL UNIQUE COLLATE NOCASE,
		category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE RESTRICT
	);`,
	`CREATE TABLE IF NOT EXISTS redeems (
		id INTEGER PRIMARY KEY NOT NULL UNIQUE,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		cost INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS meta (
		name TEXT PRIMARY KEY NOT NULL UNIQUE,
		data TEXT NOT NULL
	);`,
}

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %v", err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) GetWords(ctx context.Context) ([]models.WordEntry, error) {
	q := `
	SELECT wl.word, c.name FROM wordlist AS wl
	JOIN categories AS c ON c.id = wl.category_id;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query wordlist: %v", err)
	}
	defer rows.Close()

	var words []models.WordEntry
	for rows.Next() {
		var entry models.WordEntry
		if err := rows.Scan(&entry.Word, &entry.Category); err != nil {
			return nil, fmt.Errorf("failed to scan word: %v", err)
		}
		words = append(words, entry)
	}

	return words, rows.Err()
}

func (r *SQLiteRepository) AddWord(ctx context.Context, word string, category string) error {
	var categoryID int64
	q := `SELECT id FROM categories WHERE name = ?;`
	if err := r.db.QueryRowContext(ctx, q, category).Scan(&categoryID); err != nil {
		if err == sql.ErrNoRows {
			return &ErrCategoryNotFound{}
		}
		return fmt.Errorf("failed to query category: %v", err)
	}

	var exists int
	q = `SELECT COUNT(*) FROM wordlist WHERE word = ?;`
	if err := r.db.QueryRowContext(ctx, q, word).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query word: %v", err)
	}
	if exists > 0 {
		return &ErrWordExists{}
	}

	q = `INSERT INTO wordlist (word, category_id) VALUES (?, ?);`
	if _, err := r.db.ExecContext(ctx, q, word, categoryID); err != nil {
		return fmt.Errorf("failed to insert word: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) AddWords(ctx context.Context, words []string, category string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var categoryID int64
	q := `SELECT id FROM categories WHERE name = ?;`
	if err := tx.QueryRowContext(ctx, q, category).Scan(&categoryID); err != nil {
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to query category: %v", err)
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?);`, category)
		if err != nil {
			return fmt.Errorf("failed to insert category: %v", err)
		}
		categoryID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get category id: %v", err)
		}
	}

	for _, word := range words {
		q := `INSERT INTO wordlist (word, category_id) VALUES (?, ?);`
		if _, err := tx.ExecContext(ctx, q, word, categoryID); err != nil {
			return fmt.Errorf("failed to insert word %s: %v", word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// SetWordlist replaces the entire wordlist and category set in one transaction.
func (r *SQLiteRepository) SetWordlist(ctx context.Context, wordlist map[string][]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wordlist;`); err != nil {
		return fmt.Errorf("failed to clear wordlist: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories;`); err != nil {
		return fmt.Errorf("failed to clear categories: %v", err)
	}

	for category, words := range wordlist {
		res, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?);`, category)
		if err != nil {
			return fmt.Errorf("failed to insert category %s: %v", category, err)
		}
		categoryID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get category id: %v", err)
		}
		for _, word := range words {
			q := `INSERT INTO wordlist (word, category_id) VALUES (?, ?);`
			if _, err := tx.ExecContext(ctx, q, word, categoryID); err != nil {
				return fmt.Errorf("failed to insert word %s: %v", word, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// RemoveWord deletes a word by exact key. If the word was the last one in its
// category, the category is removed as well.
func (r *SQLiteRepository) RemoveWord(ctx context.Context, word string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var categoryID int64
	q := `SELECT category_id FROM wordlist WHERE word = ?;`
	if err := tx.QueryRowContext(ctx, q, word).Scan(&categoryID); err != nil {
		if err == sql.ErrNoRows {
			return &ErrWordNotFound{}
		}
		return fmt.Errorf("failed to query word: %v", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM wordlist WHERE word = ?;`, word); err != nil {
		return fmt.Errorf("failed to delete word: %v", err)
	}

	var remaining int
	q = `SELECT COUNT(word) FROM wordlist WHERE category_id = ?;`
	if err := tx.QueryRowContext(ctx, q, categoryID).Scan(&remaining); err != nil {
		return fmt.Errorf("failed to count category words: %v", err)
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?;`, categoryID); err != nil {
			return fmt.Errorf("failed to delete empty category: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) RemainingWordCount(ctx context.Context) (int, error) {
	var count int
	q := `SELECT COUNT(word) FROM wordlist;`
	if err := r.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count words: %v", err)
	}
	return count, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, word string) (string, error) {
	var category string
	q := `
	SELECT c.name FROM categories AS c
	JOIN wordlist AS wl ON wl.category_id = c.id
	WHERE wl.word = ?;
	`
	if err := r.db.QueryRowContext(ctx, q, word).Scan(&category); err != nil {
		if err == sql.ErrNoRows {
			return "", &ErrWordNotFound{}
		}
		return "", fmt.Errorf("failed to query category: %v", err)
	}
	return category, nil
}

func (r *SQLiteRepository) AddUser(ctx context.Context, username string, score int, tokens int) error {
	var exists int
	q := `SELECT COUNT(*) FROM users WHERE username = ?;`
	if err := r.db.QueryRowContext(ctx, q, username).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query user: %v", err)
	}
	if exists > 0 {
		return &ErrUserExists{}
	}

	q = `INSERT INTO users (username, score, tokens) VALUES (?, ?, ?);`
	if _, err := r.db.ExecContext(ctx, q, username, score, tokens); err != nil {
		return fmt.Errorf("failed to insert user: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) GetScore(ctx context.Context, username string) (int, error) {
	var score int
	q := `SELECT score FROM users WHERE username = ?;`
	if err := r.db.QueryRowContext(ctx, q, username).Scan(&score); err != nil {
		if err == sql.ErrNoRows {
			return 0, &ErrUserNotFound{}
		}
		return 0, fmt.Errorf("failed to query score: %v", err)
	}
	return score, nil
}

func (r *SQLiteRepository) AddScore(ctx context.Context, username string, amount int) error {
	q := `UPDATE users SET score = score + ? WHERE username = ?;`
	res, err := r.db.ExecContext(ctx, q, amount, username)
	if err != nil {
		return fmt.Errorf("failed to update score: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if affected == 0 {
		return &ErrUserNotFound{}
	}
	return nil
}

func (r *SQLiteRepository) ResetScores(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET score = 0;`); err != nil {
		return fmt.Errorf("failed to reset scores: %v", err)
	}
	return nil
}

// GetHighscores returns the users holding the top three distinct non-zero
// scores, descending. Ties are included up to a cap of 6 rows.
func (r *SQLiteRepository) GetHighscores(ctx context.Context) ([]models.Highscore, error) {
	q := `
	SELECT username, score FROM users
	WHERE score > 0 AND score IN (
		SELECT DISTINCT score FROM users WHERE score > 0
		ORDER BY score DESC LIMIT 3
	)
	ORDER BY score DESC, username ASC LIMIT 6;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query highscores: %v", err)
	}
	defer rows.Close()

	var highscores []models.Highscore
	for rows.Next() {
		var hs models.Highscore
		if err := rows.Scan(&hs.Username, &hs.Score); err != nil {
			return nil, fmt.Errorf("failed to scan highscore: %v", err)
		}
		highscores = append(highscores, hs)
	}

	return highscores, rows.Err()
}

func (r *SQLiteRepository) GetTokens(ctx context.Context, username string) (int, error) {
	var tokens int
	q := `SELECT tokens FROM users WHERE username = ?;`
	if err := r.db.QueryRowContext(ctx, q, username).Scan(&tokens); err != nil {
		if err == sql.ErrNoRows {
			return 0, &ErrUserNotFound{}
		}
		return 0, fmt.Errorf("failed to query tokens: %v", err)
	}
	return tokens, nil
}

func (r *SQLiteRepository) SetTokens(ctx context.Context, username string, amount int) error {
	if amount < 0 {
		amount = 0
	}

	q := `UPDATE users SET tokens = ? WHERE username = ?;`
	res, err := r.db.ExecContext(ctx, q, amount, username)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if affected == 0 {
		return &ErrUserNotFound{}
	}
	return nil
}

// AddTokens adjusts a user's token balance by amount, clamping the result
// to a minimum of 0.
func (r *SQLiteRepository) AddTokens(ctx context.Context, username string, amount int) error {
	q := `UPDATE users SET tokens = MAX(tokens + ?, 0) WHERE username = ?;`
	res, err := r.db.ExecContext(ctx, q, amount, username)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if affected == 0 {
		return &ErrUserNotFound{}
	}
	return nil
}

func (r *SQLiteRepository) RemoveTokens(ctx context.Context, username string, amount int) error {
	return r.AddTokens(ctx, username, -amount)
}

// MigrateUser moves an account to a new username. If the new username already
// exists, the old account's score and tokens are merged into it.
func (r *SQLiteRepository) MigrateUser(ctx context.Context, oldUsername string, newUsername string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var score, tokens int
	q := `SELECT score, tokens FROM users WHERE username = ?;`
	if err := tx.QueryRowContext(ctx, q, oldUsername).Scan(&score, &tokens); err != nil {
		if err == sql.ErrNoRows {
			return &ErrUserNotFound{}
		}
		return fmt.Errorf("failed to query user: %v", err)
	}

	var exists int
	q = `SELECT COUNT(*) FROM users WHERE username = ?;`
	if err := tx.QueryRowContext(ctx, q, newUsername).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query user: %v", err)
	}

	if exists > 0 {
		q = `UPDATE users SET score = score + ?, tokens = tokens + ? WHERE username = ?;`
		if _, err := tx.ExecContext(ctx, q, score, tokens, newUsername); err != nil {
			return fmt.Errorf("failed to merge user: %v", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = ?;`, oldUsername); err != nil {
			return fmt.Errorf("failed to delete user: %v", err)
		}
	} else {
		q = `UPDATE users SET username = ? WHERE username = ?;`
		if _, err := tx.ExecContext(ctx, q, newUsername, oldUsername); err != nil {
			return fmt.Errorf("failed to rename user: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) AddRedeem(ctx context.Context, name string, cost int) error {
	var exists int
	q := `SELECT COUNT(*) FROM redeems WHERE name = ?;`
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query redeem: %v", err)
	}
	if exists > 0 {
		return &ErrRedeemExists{}
	}

	q = `INSERT INTO redeems (name, cost) VALUES (?, ?);`
	if _, err := r.db.ExecContext(ctx, q, name, cost); err != nil {
		return fmt.Errorf("failed to insert redeem: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveRedeem(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM redeems WHERE name = ?;`, name)
	if err != nil {
		return fmt.Errorf("failed to delete redeem: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if affected == 0 {
		return &ErrRedeemNotFound{}
	}
	return nil
}

func (r *SQLiteRepository) ModifyRedeem(ctx context.Context, name string, newName string, newCost int) error {
	q := `UPDATE redeems SET name = ?, cost = ? WHERE name = ?;`
	res, err := r.db.ExecContext(ctx, q, newName, newCost, name)
	if err != nil {
		return fmt.Errorf("failed to update redeem: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %v", err)
	}
	if affected == 0 {
		return &ErrRedeemNotFound{}
	}
	return nil
}

func (r *SQLiteRepository) GetAllRedeems(ctx context.Context) ([]models.Redeem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, cost FROM redeems;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query redeems: %v", err)
	}
	defer rows.Close()

	var redeems []models.Redeem
	for rows.Next() {
		var redeem models.Redeem
		if err := rows.Scan(&redeem.Name, &redeem.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan redeem: %v", err)
		}
		redeems = append(redeems, redeem)
	}

	return redeems, rows.Err()
}

func (r *SQLiteRepository) GetRedeemCost(ctx context.Context, name string) (int, error) {
	var cost int
	q := `SELECT cost FROM redeems WHERE name = ?;`
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&cost); err != nil {
		if err == sql.ErrNoRows {
			return 0, &ErrRedeemNotFound{}
		}
		return 0, fmt.Errorf("failed to query redeem: %v", err)
	}
	return cost, nil
}

func (r *SQLiteRepository) GetMeta(ctx context.Context, key string) (string, error) {
	var data string
	q := `SELECT data FROM meta WHERE name = ?;`
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return "", &ErrMetaNotFound{}
		}
		return "", fmt.Errorf("failed to query meta: %v", err)
	}
	return data, nil
}

func (r *SQLiteRepository) SetMeta(ctx context.Context, key string, value string) error {
	q := `INSERT OR REPLACE INTO meta (name, data) VALUES (?, ?);`
	if _, err := r.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("failed to set meta: %v", err)
	}
	return nil
}

// ResetRound marks the round as updated and not ended, so the next engine
// startup recomputes the point value against the changed wordlist.
func (r *SQLiteRepository) ResetRound(ctx context.Context) error {
	if err := r.SetMeta(ctx, "update_round", "true"); err != nil {
		return err
	}
	return r.SetMeta(ctx, "round_end", "false")
}
