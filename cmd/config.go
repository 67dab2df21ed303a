package main

import "time"

type Config struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8080"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	DefaultUserID   string        `env:"DEFAULT_USER_ID,default=boss"`

	// Translation providers. Each one is optional; the deterministic
	// dictionary always runs last.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL"`
	LocalLLMURL   string `env:"LOCAL_LLM_URL"`

	// Crew notifications. Without a bot token they land in the log.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	NotifyRecipients string `env:"NOTIFY_RECIPIENTS"`

	SummarySchedule string `env:"SUMMARY_SCHEDULE,default=0 7 * * *"`
}
