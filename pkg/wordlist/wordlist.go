package wordlist

import (
	"context"
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/bkimball/guessbot/pkg/repositories"
)

// ParseFile reads an INI wordlist file. Each section is a category and each
// key inside it is a word; values are ignored.
func ParseFile(path string) (map[string][]string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wordlist file: %v", err)
	}

	wordlist := make(map[string][]string)
	for _, section := range cfg.Sections() {
		if section.Name() == ini.DefaultSection {
			if len(section.KeyStrings()) > 0 {
				return nil, fmt.Errorf("wordlist file has words outside a category")
			}
			continue
		}
		wordlist[section.Name()] = section.KeyStrings()
	}

	if len(wordlist) == 0 {
		return nil, fmt.Errorf("wordlist file has no categories")
	}

	return wordlist, nil
}

// Apply replaces the store's wordlist and flags the round for an update, so
// the next engine startup recomputes the point value.
func Apply(ctx context.Context, repository repositories.Repository, wordlist map[string][]string) error {
	if err := repository.SetWordlist(ctx, wordlist); err != nil {
		return fmt.Errorf("failed to set wordlist: %v", err)
	}
	if err := repository.ResetRound(ctx); err != nil {
		return fmt.Errorf("failed to reset round: %v", err)
	}
	return nil
}
