package main

import (
	"buddychat/auth"
	"buddychat/client"
	"buddychat/domain"
	"buddychat/projection"
	pb "buddychat/proto/chat"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const usage = `usage: client <command> [args]

  send <to> <text...>      send a message
  history <with>           print the conversation
  watch <with>             print the conversation then follow it
  search <with> <query>    search the conversation
  contacts                 list counterparts
  block <other>            stop receiving messages from other
  unblock <other>          receive messages from other again`

// Config defines the client-side environment variables.
// Without BUDDYCHAT_TOKEN, a short lived token is minted for BUDDYCHAT_USER with AUTH_SECRET.
type Config struct {
	ServerAddress string        `env:"BUDDYCHAT_ADDR,default=localhost:50051"`
	Token         string        `env:"BUDDYCHAT_TOKEN"`
	User          string        `env:"BUDDYCHAT_USER"`
	AuthSecret    string        `env:"AUTH_SECRET"`
	TokenTTL      time.Duration `env:"BUDDYCHAT_TOKEN_TTL,default=1h"`
	LogLevel      string        `env:"LOG_LEVEL,default=WARN"`
}

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	if len(args) == 0 {
		return exitConfig, errors.New(usage)
	}
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	token, err := resolveToken(config)
	if err != nil {
		return exitConfig, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(config.ServerAddress, token)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Debug("Closing connection...")
		_ = c.Close()
	}()

	if err := dispatch(ctx, c, args); err != nil {
		if ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, err
	}
	return exitOK, nil
}

func resolveToken(config Config) (string, error) {
	if config.Token != "" {
		return config.Token, nil
	}
	if config.User == "" || config.AuthSecret == "" {
		return "", errors.New("set BUDDYCHAT_TOKEN, or BUDDYCHAT_USER and AUTH_SECRET")
	}
	tokens, err := auth.NewTokens(config.AuthSecret)
	if err != nil {
		return "", err
	}
	return tokens.GenerateToken(config.User, config.TokenTTL)
}

func dispatch(ctx context.Context, c *client.Client, args []string) error {
	command, rest := args[0], args[1:]
	need := func(n int) error {
		if len(rest) < n {
			return fmt.Errorf("%s: missing arguments\n%s", command, usage)
		}
		return nil
	}

	switch command {
	case "send":
		if err := need(2); err != nil {
			return err
		}
		msg, repairPending, err := c.Send(ctx, domain.UserID(rest[0]), strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		color.Green.Printf("sent %s at %s\n", msg.ID, msg.At.Format(time.TimeOnly))
		if repairPending {
			color.Yellow.Println("the recipient will see it once the server repairs the delivery")
		}
	case "history", "watch":
		if err := need(1); err != nil {
			return err
		}
		with := domain.UserID(rest[0])
		timeline := projection.NewTimeline("", with)
		if err := c.History(ctx, with, timeline); err != nil {
			return err
		}
		for _, m := range timeline.Messages() {
			printEntry(with, m)
		}
		if command == "watch" {
			return c.Watch(ctx, with, timeline, func(m domain.DeliveredMessage) { printEntry(with, m) })
		}
	case "search":
		if err := need(2); err != nil {
			return err
		}
		resp, err := c.Chat.Search(ctx, &pb.SearchRequest{CounterpartId: rest[0], Query: strings.Join(rest[1:], " ")})
		if err != nil {
			return err
		}
		for _, m := range resp.Messages {
			printEntry(domain.UserID(rest[0]), domain.DeliveredMessage{Message: client.FromPbMessage(m)})
		}
	case "contacts":
		resp, err := c.Chat.ListCounterparts(ctx, &pb.ListCounterpartsRequest{})
		if err != nil {
			return err
		}
		for _, id := range resp.CounterpartIds {
			color.Cyan.Println(id)
		}
	case "block", "unblock":
		if err := need(1); err != nil {
			return err
		}
		req := &pb.RelationRequest{OtherId: rest[0]}
		var resp *pb.RelationResponse
		var err error
		if command == "block" {
			resp, err = c.Relation.Block(ctx, req)
		} else {
			resp, err = c.Relation.Unblock(ctx, req)
		}
		if err != nil {
			return err
		}
		color.Yellow.Printf("%s blocked: %t\n", rest[0], resp.Blocked)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	return nil
}

func printEntry(with domain.UserID, m domain.DeliveredMessage) {
	at := m.Message.At.Format(time.TimeOnly)
	if m.Message.FromID == with {
		color.Cyan.Printf("[%s] %s: %s\n", at, m.Message.FromID, m.Message.Payload.Text)
		return
	}
	color.Green.Printf("[%s] %s: %s\n", at, m.Message.FromID, m.Message.Payload.Text)
}
