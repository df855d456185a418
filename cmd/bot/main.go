package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bkimball/guessbot/pkg/bot"
	"github.com/bkimball/guessbot/pkg/config"
	"github.com/bkimball/guessbot/pkg/game"
	"github.com/bkimball/guessbot/pkg/log"
	"github.com/bkimball/guessbot/pkg/queue"
	"github.com/bkimball/guessbot/pkg/repositories"
	"github.com/bkimball/guessbot/pkg/twitch"
	"github.com/bkimball/guessbot/pkg/version"
	"github.com/bkimball/guessbot/pkg/wordlist"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level")
	envFile := flag.String("env-file", "", "Path to a .env file to load")
	wordlistFile := flag.String("wordlist", "", "INI wordlist file to import before starting (replaces the existing wordlist)")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting guessbot version %s", version.Get())

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			panic(fmt.Sprintf("Failed to load env file: %v", err))
		}
	} else {
		// A .env file is optional; the environment may already be set.
		_ = godotenv.Load()
	}

	settings, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load settings: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repository repositories.Repository
	switch settings.DatabaseDriver {
	case "sqlite3":
		repository, err = repositories.NewSQLiteRepository(ctx, settings.DatabaseDSN)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
	case "postgres":
		repository = repositories.NewPostgresRepository(ctx, settings.DatabaseDSN)
	default:
		panic(fmt.Sprintf("Unknown database driver: %s", settings.DatabaseDriver))
	}
	defer repository.Close(context.Background())

	if *wordlistFile != "" {
		words, err := wordlist.ParseFile(*wordlistFile)
		if err != nil {
			panic(fmt.Sprintf("Failed to parse wordlist file: %v", err))
		}
		if err := wordlist.Apply(ctx, repository, words); err != nil {
			panic(fmt.Sprintf("Failed to apply wordlist: %v", err))
		}
		log.Info("Imported wordlist with %d categories", len(words))
	}

	engine, err := game.NewEngine(ctx, game.NewEngineOptions{
		Repository: repository,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize game engine: %v", err))
	}

	chatMessageQueue := queue.NewInMemoryQueue(10000)

	chatClient := twitch.NewClient(twitch.NewClientOptions{
		Username:     settings.Username,
		Token:        settings.Token,
		Channel:      settings.Channel,
		MessageQueue: chatMessageQueue,
	})
	go func() {
		if err := chatClient.Connect(); err != nil {
			log.Error("Chat connection closed: %v", err)
			stop()
		}
	}()

	chatBot := bot.NewBot(bot.NewBotOptions{
		Engine:       engine,
		Repository:   repository,
		MessageQueue: chatMessageQueue,
		Sender:       chatClient,
		Prefix:       settings.Prefix,
	})

	log.Info("Starting chat dispatcher")
	if err := chatBot.Start(ctx); err != nil {
		log.Error("Dispatcher stopped: %v", err)
	}

	log.Info("Shutting down")
	if err := chatClient.Disconnect(); err != nil {
		log.Error("Failed to disconnect from chat: %v", err)
	}
	if err := engine.Teardown(context.Background()); err != nil {
		log.Error("Failed to save round state: %v", err)
	}
}
