package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"

	"crew-relay/intent"
	"crew-relay/notify"
	"crew-relay/relay"
	"crew-relay/repositories"
	"crew-relay/runtime"
	"crew-relay/schedule"
	"crew-relay/translation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	messages := repositories.NewMessageRepository(db, log)
	commands := repositories.NewCommandRepository(db, log)
	jobsites := repositories.NewJobsiteRepository(db, log)
	reactions := repositories.NewReactionRepository(db, log)

	// 3. Translation chain. Providers are tried in order; the dictionary
	// never fails, so a turn always produces text.
	var providers []translation.Provider
	var completer intent.Completer
	var healthProbe func(ctx context.Context) error
	if config.OpenAIAPIKey != "" {
		openAI := translation.NewOpenAIProvider(config.OpenAIAPIKey, config.OpenAIBaseURL, config.OpenAIModel)
		providers = append(providers, openAI)
		completer = openAI
	}
	if config.LocalLLMURL != "" {
		local := translation.NewLocalProvider(config.LocalLLMURL)
		providers = append(providers, local)
		if completer == nil {
			completer = local
		}
		healthProbe = local.Healthy
	}
	providers = append(providers, translation.NewStaticProvider())
	pipeline := translation.NewPipeline(log, providers...)

	classifier, err := intent.NewClassifier(log, completer)
	if err != nil {
		return fmt.Errorf("classifier setup failed: %w", err)
	}

	// 4. Notifications
	var notifier notify.Notifier = notify.LogNotifier{Log: log}
	if config.TelegramBotToken != "" {
		telegram, err := notify.NewTelegramNotifier(config.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("telegram setup failed: %w", err)
		}
		notifier = telegram
	}
	recipients := lo.Map(
		strings.FieldsFunc(config.NotifyRecipients, func(r rune) bool { return r == ',' }),
		func(raw string, _ int) notify.Recipient { return notify.Recipient(strings.TrimSpace(raw)) },
	)

	// 5. Relay wiring
	hub := relay.NewHub(log)
	replies := relay.NewReplyBook(jobsites, commands)
	commandHandler := relay.NewCommandHandler(commands, jobsites, classifier, notifier, recipients, hub, log)
	chatHandler := relay.NewChatHandler(messages, pipeline, replies, log)
	calendarHandler := relay.NewCalendarHandler(messages, jobsites, reactions, hub, log)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := relay.NewServer(address, hub, commandHandler, chatHandler, calendarHandler,
		config.DefaultUserID, healthProbe, log)
	summary := schedule.NewSummaryWorker(config.SummarySchedule,
		jobsites, messages, hub, notifier, recipients, log)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Supervised workers block until shutdown.
	sup := runtime.NewSupervisor(log, config.RestartInterval)
	sup.Add(server, summary)
	log.Info("Starting relay", "address", address)
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
