package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bkimball/guessbot/pkg/log"
	"github.com/bkimball/guessbot/pkg/messages"
	"github.com/bkimball/guessbot/pkg/repositories"
)

func (b *Bot) handleCommand(ctx context.Context, msg messages.ChatMessage) {
	fields := strings.Fields(strings.TrimPrefix(msg.Text, b.prefix))
	if len(fields) == 0 {
		return
	}

	command := strings.ToLower(fields[0])
	args := fields[1:]

	log.Debug("Handling command %s from %s", command, msg.Username)

	switch command {
	case "score":
		b.sayScore(ctx, msg)
	case "tokens":
		b.sayTokens(ctx, msg)
	case "highscores", "highscore":
		b.sayHighscores(ctx)
	case "hint", "category":
		b.sayHint()
	case "wordsremaining", "remaining", "words":
		b.sayWordsRemaining(ctx)
	case "redeems", "listredeems":
		b.sayRedeems(ctx)
	case "redeem":
		b.redeem(ctx, msg, args)
	case "help":
		b.sender.Say("Guess the hidden word to score points! Commands: " +
			"score, tokens, highscores, hint, wordsremaining, redeems, redeem <name>.")
	case "endround":
		if b.checkPrivileged(msg) {
			b.endRound(ctx)
		}
	case "addtokens":
		if b.checkPrivileged(msg) {
			b.addTokens(ctx, args)
		}
	case "removetokens":
		if b.checkPrivileged(msg) {
			b.removeTokens(ctx, args)
		}
	case "migrateuser", "migrate":
		if b.checkPrivileged(msg) {
			b.migrateUser(ctx, args)
		}
	}
	// Unknown commands are ignored; they may belong to another bot.
}

func (b *Bot) checkPrivileged(msg messages.ChatMessage) bool {
	if !msg.IsPrivileged() {
		log.Info("%s is not allowed to run moderator commands", msg.Username)
		return false
	}
	return true
}

func (b *Bot) sayScore(ctx context.Context, msg messages.ChatMessage) {
	score, err := b.repository.GetScore(ctx, msg.Username)
	if err != nil && !repositories.IsUserNotFound(err) {
		log.Error("Failed to get score for %s: %v", msg.Username, err)
		return
	}
	b.sender.Say(fmt.Sprintf("%s, your score is %d.", displayName(msg), score))
}

func (b *Bot) sayTokens(ctx context.Context, msg messages.ChatMessage) {
	tokens, err := b.repository.GetTokens(ctx, msg.Username)
	if err != nil && !repositories.IsUserNotFound(err) {
		log.Error("Failed to get tokens for %s: %v", msg.Username, err)
		return
	}
	b.sender.Say(fmt.Sprintf("%s, you have %d tokens.", displayName(msg), tokens))
}

func (b *Bot) sayHighscores(ctx context.Context) {
	highscores, err := b.repository.GetHighscores(ctx)
	if err != nil {
		log.Error("Failed to get highscores: %v", err)
		return
	}
	if len(highscores) == 0 {
		b.sender.Say("Nobody has scored yet this round.")
		return
	}
	b.sender.Say("Current highscores: " + formatHighscores(highscores))
}

func (b *Bot) sayHint() {
	if !b.engine.Running() {
		b.sender.Say("No round is running right now.")
		return
	}
	b.sender.Say("Hint: the current word's category is \"" + b.engine.Category() + "\".")
}

func (b *Bot) sayWordsRemaining(ctx context.Context) {
	count, err := b.repository.RemainingWordCount(ctx)
	if err != nil {
		log.Error("Failed to count remaining words: %v", err)
		return
	}
	if b.engine.Running() {
		// The word in play is not in the store.
		count++
	}
	b.sender.Say(fmt.Sprintf("There are %d words remaining this round.", count))
}

func (b *Bot) sayRedeems(ctx context.Context) {
	redeems, err := b.repository.GetAllRedeems(ctx)
	if err != nil {
		log.Error("Failed to list redeems: %v", err)
		return
	}
	if len(redeems) == 0 {
		b.sender.Say("No redeems are configured.")
		return
	}
	parts := make([]string, len(redeems))
	for i, redeem := range redeems {
		parts[i] = fmt.Sprintf("%s (%d tokens)", redeem.Name, redeem.Cost)
	}
	b.sender.Say("Available redeems: " + strings.Join(parts, ", "))
}

func (b *Bot) redeem(ctx context.Context, msg messages.ChatMessage, args []string) {
	if len(args) < 1 {
		b.sender.Say("Usage: " + b.prefix + "redeem <name>")
		return
	}
	name := args[0]

	cost, err := b.repository.GetRedeemCost(ctx, name)
	if err != nil {
		if repositories.IsRedeemNotFound(err) {
			b.sender.Say(fmt.Sprintf("There is no redeem called \"%s\".", name))
			return
		}
		log.Error("Failed to get redeem cost: %v", err)
		return
	}

	balance, err := b.repository.GetTokens(ctx, msg.Username)
	if err != nil && !repositories.IsUserNotFound(err) {
		log.Error("Failed to get tokens for %s: %v", msg.Username, err)
		return
	}
	if balance < cost {
		b.sender.Say(fmt.Sprintf("%s, you need %d tokens to redeem \"%s\" but have %d.",
			displayName(msg), cost, name, balance))
		return
	}

	if err := b.repository.RemoveTokens(ctx, msg.Username, cost); err != nil {
		log.Error("Failed to spend tokens for %s: %v", msg.Username, err)
		return
	}
	b.sender.Say(fmt.Sprintf("%s redeemed \"%s\" for %d tokens!", displayName(msg), name, cost))
}

func (b *Bot) addTokens(ctx context.Context, args []string) {
	username, amount, ok := b.parseUserAmount(args, "addtokens")
	if !ok {
		return
	}

	if err := b.repository.AddTokens(ctx, username, amount); err != nil {
		if !repositories.IsUserNotFound(err) {
			log.Error("Failed to add tokens to %s: %v", username, err)
			return
		}
		if err := b.repository.AddUser(ctx, username, 0, amount); err != nil {
			log.Error("Failed to create user %s: %v", username, err)
			return
		}
	}
	b.sender.Say(fmt.Sprintf("Gave %d tokens to %s.", amount, username))
}

func (b *Bot) removeTokens(ctx context.Context, args []string) {
	username, amount, ok := b.parseUserAmount(args, "removetokens")
	if !ok {
		return
	}

	if err := b.repository.RemoveTokens(ctx, username, amount); err != nil {
		if repositories.IsUserNotFound(err) {
			b.sender.Say(fmt.Sprintf("There is no user called \"%s\".", username))
			return
		}
		log.Error("Failed to remove tokens from %s: %v", username, err)
		return
	}
	b.sender.Say(fmt.Sprintf("Removed %d tokens from %s.", amount, username))
}

func (b *Bot) migrateUser(ctx context.Context, args []string) {
	if len(args) < 2 {
		b.sender.Say("Usage: " + b.prefix + "migrateuser <old> <new>")
		return
	}
	oldUsername := ParseUsername(args[0])
	newUsername := ParseUsername(args[1])

	if err := b.repository.MigrateUser(ctx, oldUsername, newUsername); err != nil {
		if repositories.IsUserNotFound(err) {
			b.sender.Say(fmt.Sprintf("There is no user called \"%s\".", oldUsername))
			return
		}
		log.Error("Failed to migrate %s to %s: %v", oldUsername, newUsername, err)
		return
	}
	b.sender.Say(fmt.Sprintf("Migrated %s to %s.", oldUsername, newUsername))
}

func (b *Bot) parseUserAmount(args []string, command string) (string, int, bool) {
	if len(args) < 2 {
		b.sender.Say("Usage: " + b.prefix + command + " <user> <amount>")
		return "", 0, false
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		b.sender.Say(fmt.Sprintf("\"%s\" is not a number.", args[1]))
		return "", 0, false
	}
	return ParseUsername(args[0]), amount, true
}
