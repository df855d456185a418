package repositories

import (
	"context"
	"fmt"

	"github.com/bkimball/guessbot/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		tokens INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_idx ON users (LOWER(username));`,
	`CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS categories_name_idx ON categories (LOWER(name));`,
	`CREATE TABLE IF NOT EXISTS wordlist (
		id SERIAL PRIMARY KEY,
		word TEXT NOT NULL,
		category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE RESTRICT
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS wordlist_word_idx ON wordlist (LOWER(word));`,
	`CREATE TABLE IF NOT EXISTS redeems (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		cost INTEGER NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS redeems_name_idx ON redeems (LOWER(name));`,
	`CREATE TABLE IF NOT EXISTS meta (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);`,
}

// NewPostgresRepository creates a new PostgresRepository.
// It panics if it is unable to connect to the database.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) Repository {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Unable to connect to database: %v\n", err))
	}

	for _, stmt := range postgresSchema {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			panic(fmt.Sprintf("Unable to create schema: %v\n", err))
		}
	}

	return &PostgresRepository{
		conn: conn,
	}
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) GetWords(ctx context.Context) ([]models.WordEntry, error) {
	q := `
	SELECT wl.word, c.name FROM wordlist AS wl
	JOIN categories AS c ON c.id = wl.category_id;
	`
	rows, err := r.conn.Query(ctx, q)
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

func (r *PostgresRepository) AddWord(ctx context.Context, word string, category string) error {
	var categoryID int64
	q := `SELECT id FROM categories WHERE LOWER(name) = LOWER($1);`
	if err := r.conn.QueryRow(ctx, q, category).Scan(&categoryID); err != nil {
		if err == pgx.ErrNoRows {
			return &ErrCategoryNotFound{}
		}
		return fmt.Errorf("failed to query category: %v", err)
	}

	var exists int
	q = `SELECT COUNT(*) FROM wordlist WHERE LOWER(word) = LOWER($1);`
	if err := r.conn.QueryRow(ctx, q, word).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query word: %v", err)
	}
	if exists > 0 {
		return &ErrWordExists{}
	}

	q = `INSERT INTO wordlist (word, category_id) VALUES ($1, $2);`
	if _, err := r.conn.Exec(ctx, q, word, categoryID); err != nil {
		return fmt.Errorf("failed to insert word: %v", err)
	}

	return nil
}

func (r *PostgresRepository) AddWords(ctx context.Context, words []string, category string) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	var categoryID int64
	q := `SELECT id FROM categories WHERE LOWER(name) = LOWER($1);`
	if err := tx.QueryRow(ctx, q, category).Scan(&categoryID); err != nil {
		if err != pgx.ErrNoRows {
			return fmt.Errorf("failed to query category: %v", err)
		}
		q = `INSERT INTO categories (name) VALUES ($1) RETURNING id;`
		if err := tx.QueryRow(ctx, q, category).Scan(&categoryID); err != nil {
			return fmt.Errorf("failed to insert category: %v", err)
		}
	}

	for _, word := range words {
		q := `INSERT INTO wordlist (word, category_id) VALUES ($1, $2);`
		if _, err := tx.Exec(ctx, q, word, categoryID); err != nil {
			return fmt.Errorf("failed to insert word %s: %v", word, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *PostgresRepository) SetWordlist(ctx context.Context, wordlist map[string][]string) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM wordlist;`); err != nil {
		return fmt.Errorf("failed to clear wordlist: %v", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM categories;`); err != nil {
		return fmt.Errorf("failed to clear categories: %v", err)
	}

	for category, words := range wordlist {
		var categoryID int64
		q := `INSERT INTO categories (name) VALUES ($1) RETURNING id;`
		if err := tx.QueryRow(ctx, q, category).Scan(&categoryID); err != nil {
			return fmt.Errorf("failed to insert category %s: %v", category, err)
		}
		for _, word := range words {
			q := `INSERT INTO wordlist (word, category_id) VALUES ($1, $2);`
			if _, err := tx.Exec(ctx, q, word, categoryID); err != nil {
				return fmt.Errorf("failed to insert word %s: %v", word, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *PostgresRepository) RemoveWord(ctx context.Context, word string) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	var categoryID int64
	q := `SELECT category_id FROM wordlist WHERE LOWER(word) = LOWER($1);`
	if err := tx.QueryRow(ctx, q, word).Scan(&categoryID); err != nil {
		if err == pgx.ErrNoRows {
			return &ErrWordNotFound{}
		}
		return fmt.Errorf("failed to query word: %v", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM wordlist WHERE LOWER(word) = LOWER($1);`, word); err != nil {
		return fmt.Errorf("failed to delete word: %v", err)
	}

	var remaining int
	q = `SELECT COUNT(word) FROM wordlist WHERE category_id = $1;`
	if err := tx.QueryRow(ctx, q, categoryID).Scan(&remaining); err != nil {
		return fmt.Errorf("failed to count category words: %v", err)
	}
	if remaining == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1;`, categoryID); err != nil {
			return fmt.Errorf("failed to delete empty category: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *PostgresRepository) RemainingWordCount(ctx context.Context) (int, error) {
	var count int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(word) FROM wordlist;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count words: %v", err)
	}
	return count, nil
}

func (r *PostgresRepository) GetCategory(ctx context.Context, word string) (string, error) {
	var category string
	q := `
	SELECT c.name FROM categories AS c
	JOIN wordlist AS wl ON wl.category_id = c.id
	WHERE LOWER(wl.word) = LOWER($1);
	`
	if err := r.conn.QueryRow(ctx, q, word).Scan(&category); err != nil {
		if err == pgx.ErrNoRows {
			return "", &ErrWordNotFound{}
		}
		return "", fmt.Errorf("failed to query category: %v", err)
	}
	return category, nil
}

func (r *PostgresRepository) AddUser(ctx context.Context, username string, score int, tokens int) error {
	var exists int
	q := `SELECT COUNT(*) FROM users WHERE LOWER(username) = LOWER($1);`
	if err := r.conn.QueryRow(ctx, q, username).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query user: %v", err)
	}
	if exists > 0 {
		return &ErrUserExists{}
	}

	q = `INSERT INTO users (username, score, tokens) VALUES ($1, $2, $3);`
	if _, err := r.conn.Exec(ctx, q, username, score, tokens); err != nil {
		return fmt.Errorf("failed to insert user: %v", err)
	}

	return nil
}

func (r *PostgresRepository) GetScore(ctx context.Context, username string) (int, error) {
	var score int
	q := `SELECT score FROM users WHERE LOWER(username) = LOWER($1);`
	if err := r.conn.QueryRow(ctx, q, username).Scan(&score); err != nil {
		if err == pgx.ErrNoRows {
			return 0, &ErrUserNotFound{}
		}
		return 0, fmt.Errorf("failed to query score: %v", err)
	}
	return score, nil
}

func (r *PostgresRepository) AddScore(ctx context.Context, username string, amount int) error {
	q := `UPDATE users SET score = score + $1 WHERE LOWER(username) = LOWER($2);`
	res, err := r.conn.Exec(ctx, q, amount, username)
	if err != nil {
		return fmt.Errorf("failed to update score: %v", err)
	}
	if res.RowsAffected() == 0 {
		return &ErrUserNotFound{}
	}
	return nil
}

func (r *PostgresRepository) ResetScores(ctx context.Context) error {
	if _, err := r.conn.Exec(ctx, `UPDATE users SET score = 0;`); err != nil {
		return fmt.Errorf("failed to reset scores: %v", err)
	}
	return nil
}

func (r *PostgresRepository) GetHighscores(ctx context.Context) ([]models.Highscore, error) {
	q := `
	SELECT username, score FROM users
	WHERE score > 0 AND score IN (
		SELECT DISTINCT score FROM users WHERE score > 0
		ORDER BY score DESC LIMIT 3
	)
	ORDER BY score DESC, username ASC LIMIT 6;
	`
	rows, err := r.conn.Query(ctx, q)
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

func (r *PostgresRepository) GetTokens(ctx context.Context, username string) (int, error) {
	var tokens int
	q := `SELECT tokens FROM users WHERE LOWER(username) = LOWER($1);`
	if err := r.conn.QueryRow(ctx, q, username).Scan(&tokens); err != nil {
		if err == pgx.ErrNoRows {
			return 0, &ErrUserNotFound{}
		}
		return 0, fmt.Errorf("failed to query tokens: %v", err)
	}
	return tokens, nil
}

func (r *PostgresRepository) SetTokens(ctx context.Context, username string, amount int) error {
	if amount < 0 {
		amount = 0
	}

	q := `UPDATE users SET tokens = $1 WHERE LOWER(username) = LOWER($2);`
	res, err := r.conn.Exec(ctx, q, amount, username)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %v", err)
	}
	if res.RowsAffected() == 0 {
		return &ErrUserNotFound{}
	}
	return nil
}

func (r *PostgresRepository) AddTokens(ctx context.Context, username string, amount int) error {
	q := `UPDATE users SET tokens = GREATEST(tokens + $1, 0) WHERE LOWER(username) = LOWER($2);`
	res, err := r.conn.Exec(ctx, q, amount, username)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %v", err)
	}
	if res.RowsAffected() == 0 {
		return &ErrUserNotFound{}
	}
	return nil
}

func (r *PostgresRepository) RemoveTokens(ctx context.Context, username string, amount int) error {
	return r.AddTokens(ctx, username, -amount)
}

func (r *PostgresRepository) MigrateUser(ctx context.Context, oldUsername string, newUsername string) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	var score, tokens int
	q := `SELECT score, tokens FROM users WHERE LOWER(username) = LOWER($1);`
	if err := tx.QueryRow(ctx, q, oldUsername).Scan(&score, &tokens); err != nil {
		if err == pgx.ErrNoRows {
			return &ErrUserNotFound{}
		}
		return fmt.Errorf("failed to query user: %v", err)
	}

	var exists int
	q = `SELECT COUNT(*) FROM users WHERE LOWER(username) = LOWER($1);`
	if err := tx.QueryRow(ctx, q, newUsername).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query user: %v", err)
	}

	if exists > 0 {
		q = `UPDATE users SET score = score + $1, tokens = tokens + $2 WHERE LOWER(username) = LOWER($3);`
		if _, err := tx.Exec(ctx, q, score, tokens, newUsername); err != nil {
			return fmt.Errorf("failed to merge user: %v", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE LOWER(username) = LOWER($1);`, oldUsername); err != nil {
			return fmt.Errorf("failed to delete user: %v", err)
		}
	} else {
		q = `UPDATE users SET username = $1 WHERE LOWER(username) = LOWER($2);`
		if _, err := tx.Exec(ctx, q, newUsername, oldUsername); err != nil {
			return fmt.Errorf("failed to rename user: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *PostgresRepository) AddRedeem(ctx context.Context, name string, cost int) error {
	var exists int
	q := `SELECT COUNT(*) FROM redeems WHERE LOWER(name) = LOWER($1);`
	if err := r.conn.QueryRow(ctx, q, name).Scan(&exists); err != nil {
		return fmt.Errorf("failed to query redeem: %v", err)
	}
	if exists > 0 {
		return &ErrRedeemExists{}
	}

	q = `INSERT INTO redeems (name, cost) VALUES ($1, $2);`
	if _, err := r.conn.Exec(ctx, q, name, cost); err != nil {
		return fmt.Errorf("failed to insert redeem: %v", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveRedeem(ctx context.Context, name string) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM redeems WHERE LOWER(name) = LOWER($1);`, name)
	if err != nil {
		return fmt.Errorf("failed to delete redeem: %v", err)
	}
	if res.RowsAffected() == 0 {
		return &ErrRedeemNotFound{}
	}
	return nil
}

func (r *PostgresRepository) ModifyRedeem(ctx context.Context, name string, newName string, newCost int) error {
	q := `UPDATE redeems SET name = $1, cost = $2 WHERE LOWER(name) = LOWER($3);`
	res, err := r.conn.Exec(ctx, q, newName, newCost, name)
	if err != nil {
		return fmt.Errorf("failed to update redeem: %v", err)
	}
	if res.RowsAffected() == 0 {
		return &ErrRedeemNotFound{}
	}
	return nil
}

func (r *PostgresRepository) GetAllRedeems(ctx context.Context) ([]models.Redeem, error) {
	rows, err := r.conn.Query(ctx, `SELECT name, cost FROM redeems;`)
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

func (r *PostgresRepository) GetRedeemCost(ctx context.Context, name string) (int, error) {
	var cost int
	q := `SELECT cost FROM redeems WHERE LOWER(name) = LOWER($1);`
	if err := r.conn.QueryRow(ctx, q, name).Scan(&cost); err != nil {
		if err == pgx.ErrNoRows {
			return 0, &ErrRedeemNotFound{}
		}
		return 0, fmt.Errorf("failed to query redeem: %v", err)
	}
	return cost, nil
}

func (r *PostgresRepository) GetMeta(ctx context.Context, key string) (string, error) {
	var data string
	q := `SELECT data FROM meta WHERE name = $1;`
	if err := r.conn.QueryRow(ctx, q, key).Scan(&data); err != nil {
		if err == pgx.ErrNoRows {
			return "", &ErrMetaNotFound{}
		}
		return "", fmt.Errorf("failed to query meta: %v", err)
	}
	return data, nil
}

func (r *PostgresRepository) SetMeta(ctx context.Context, key string, value string) error {
	q := `
	INSERT INTO meta (name, data) VALUES ($1, $2)
	ON CONFLICT (name) DO UPDATE SET data = $2;
	`
	if _, err := r.conn.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("failed to set meta: %v", err)
	}
	return nil
}

func (r *PostgresRepository) ResetRound(ctx context.Context) error {
	if err := r.SetMeta(ctx, "update_round", "true"); err != nil {
		return err
	}
	return r.SetMeta(ctx, "round_end", "false")
}
