// Interactive relay tester. Reads lines from stdin and sends them as
// frames: plain lines go out as chat messages, lines starting with "/"
// as commands. Responses and broadcast updates print as they arrive.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"

	"crew-relay/client"
)

type Config struct {
	RelayURL string `env:"RELAY_URL,default=ws://localhost:8080/ws"`
	Role     string `env:"ROLE,default=boss"`
	UserID   string `env:"USER_ID,default=tester"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Tester error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, config.RelayURL, log)
	if err != nil {
		return err
	}
	defer c.Close()

	c.OnPush = func(frame json.RawMessage) {
		fmt.Println(color.New(color.FgYellow).Render("<< " + string(frame)))
	}

	fmt.Printf(">>> Connected to %s as %s/%s. Type to chat, /text for commands, Ctrl+C to quit.\n",
		config.RelayURL, config.Role, config.UserID)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Stopping tester...")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			var frame map[string]any
			if text, isCommand := strings.CutPrefix(line, "/"); isCommand {
				frame = map[string]any{
					"type":    "command",
					"command": text,
					"userId":  config.UserID,
				}
			} else {
				frame = map[string]any{
					"type":   "chat-message",
					"text":   line,
					"role":   config.Role,
					"userId": config.UserID,
				}
			}

			answer, err := c.Request(ctx, frame)
			if err != nil {
				fmt.Println(color.New(color.FgRed).Render("!! " + err.Error()))
				continue
			}
			fmt.Println(color.New(color.FgGreen).Render("<< " + string(answer)))
		}
	}
}
