package models

// WordEntry is a guessable word and the category it belongs to.
// Words are keyed case-insensitively by the store.
type WordEntry struct {
	Word     string `json:"word"`
	Category string `json:"category"`
}

// Highscore is one row of the round's ranking.
type Highscore struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Redeem is a reward that can be purchased with tokens.
type Redeem struct {
	Name string `json:"name"`
	Cost int    `json:"cost"`
}
