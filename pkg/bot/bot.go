package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bkimball/guessbot/pkg/game"
	"github.com/bkimball/guessbot/pkg/log"
	"github.com/bkimball/guessbot/pkg/messages"
	"github.com/bkimball/guessbot/pkg/queue"
	"github.com/bkimball/guessbot/pkg/repositories"
	"github.com/bkimball/guessbot/pkg/repositories/models"
)

// Sender delivers chat output.
type Sender interface {
	Say(text string)
}

// Bot drains the inbound chat queue and drives the round engine. All engine
// and repository calls happen on the dispatch goroutine, which is the
// serialization the engine requires.
type Bot struct {
	engine       *game.Engine
	repository   repositories.Repository
	messageQueue queue.Queue
	sender       Sender
	prefix       string
	pollInterval time.Duration
}

// NewBotOptions contains options for creating a new Bot.
type NewBotOptions struct {
	Engine       *game.Engine
	Repository   repositories.Repository
	MessageQueue queue.Queue
	Sender       Sender
	// Prefix marks chat messages as commands. Defaults to "!".
	Prefix string
	// PollInterval is how often the queue is drained. Defaults to 100ms.
	PollInterval time.Duration
}

func NewBot(opts NewBotOptions) *Bot {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "!"
	}
	pollInterval := opts.PollInterval
	if pollInterval == 0 {
		pollInterval = 100 * time.Millisecond
	}

	return &Bot{
		engine:       opts.Engine,
		repository:   opts.Repository,
		messageQueue: opts.MessageQueue,
		sender:       opts.Sender,
		prefix:       prefix,
		pollInterval: pollInterval,
	}
}

// Start runs the dispatch loop until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.processPendingMessages(ctx)
		}
	}
}

func (b *Bot) processPendingMessages(ctx context.Context) {
	pending, err := b.messageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read chat messages: %v", err)
		return
	}

	for _, item := range pending {
		msg, ok := item.(*messages.ChatMessage)
		if !ok {
			log.Error("Unexpected message type: %T", item)
			continue
		}
		b.HandleMessage(ctx, *msg)
	}
}

// HandleMessage processes one chat message: commands are dispatched to their
// handlers, everything else is checked as a guess. Command messages are never
// treated as guesses.
func (b *Bot) HandleMessage(ctx context.Context, msg messages.ChatMessage) {
	if msg.Username == RestreamBotName {
		username, text, ok := ParseRestreamMessage(msg.Text)
		if ok {
			msg.Username = username
			msg.DisplayName = ""
			msg.Text = text
			msg.Moderator = false
			msg.Broadcaster = false
		}
	}

	if strings.HasPrefix(msg.Text, b.prefix) {
		b.handleCommand(ctx, msg)
		return
	}

	if b.engine.Running() {
		b.processGuess(ctx, msg)
	}
}

func (b *Bot) processGuess(ctx context.Context, msg messages.ChatMessage) {
	result, err := b.engine.Process(ctx, msg.Username, msg.Text)
	if err != nil {
		log.Error("Failed to process guess from %s: %v", msg.Username, err)
		return
	}
	if !result.Success {
		return
	}

	b.sender.Say(fmt.Sprintf("%s found the word \"%s\" (+%d points)! %d words remaining.",
		displayName(msg), result.Word, result.Score, result.WordsRemaining))

	if result.WordsRemaining == 0 {
		b.endRound(ctx)
	}
}

func (b *Bot) endRound(ctx context.Context) {
	highscores, err := b.engine.EndRound(ctx)
	if err != nil {
		log.Error("Failed to end round: %v", err)
		return
	}

	if len(highscores) == 0 {
		b.sender.Say("The round has ended! Nobody scored this time.")
		return
	}

	b.sender.Say("The round has ended! Top scorers: " + formatHighscores(highscores))
}

func formatHighscores(highscores []models.Highscore) string {
	parts := make([]string, len(highscores))
	for i, hs := range highscores {
		parts[i] = fmt.Sprintf("%d. %s (%d)", i+1, hs.Username, hs.Score)
	}
	return strings.Join(parts, ", ")
}

func displayName(msg messages.ChatMessage) string {
	if msg.DisplayName != "" {
		return msg.DisplayName
	}
	return msg.Username
}
