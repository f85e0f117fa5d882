package internal

import (
	"buddychat/domain"
	"buddychat/moderation"
	"buddychat/runtime"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config of the chat server, read from the environment with Netflix/go-env.
type Config struct {
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	Host           string `env:"HOST,default=0.0.0.0"`
	Port           int    `env:"PORT,default=50051"`
	HTTPPort       int    `env:"HTTP_PORT,default=8080"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	// A message is acknowledged only once its write reached the disk.
	SyncWrites bool `env:"BADGER_SYNC_WRITES,default=true"`
	// Port of the badger inspect page, served only at DEBUG level.
	DebugPort int `env:"DEBUG_PORT,default=8081"`
	// Empty keeps the search index in memory; it is rebuilt by cmd/reindex.
	BlugeFilepath string `env:"BLUGE_FILEPATH"`
	AuthSecret    string `env:"AUTH_SECRET,required=true"`

	MaxTextLength       int    `env:"MAX_TEXT_LENGTH,default=4000"`
	DeliveryBlockPolicy string `env:"DELIVERY_BLOCK_POLICY,default=hide_new"`
	ModerationMode      string `env:"MODERATION_MODE,default=off"`
	CharReplacement     string `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`

	StoreRetryAttempts       int           `env:"STORE_RETRY_ATTEMPTS,default=3"`
	StoreRetryBaseDelay      time.Duration `env:"STORE_RETRY_BASE_DELAY,default=20ms"`
	StoreRetryMaxDelay       time.Duration `env:"STORE_RETRY_MAX_DELAY,default=500ms"`
	ResolveBackoffBase       time.Duration `env:"RESOLVE_BACKOFF_BASE,default=50ms"`
	ResolveBackoffMax        time.Duration `env:"RESOLVE_BACKOFF_MAX,default=2s"`
	SubscriptionPollInterval time.Duration `env:"SUBSCRIPTION_POLL_INTERVAL,default=1s"`
	FanoutRepairInterval     time.Duration `env:"FANOUT_REPAIR_INTERVAL,default=5s"`
	StatsInterval            time.Duration `env:"STATS_INTERVAL,default=30s"`
	EventBufferSize          int           `env:"EVENT_BUFFER_SIZE,default=1024"`
	SinkTimeout              time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval          time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout          time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Runtime checks the enums and builds the orchestrator configuration.
func (c Config) Runtime() (runtime.Config, error) {
	policy, err := ParseBlockPolicy(c.DeliveryBlockPolicy)
	if err != nil {
		return runtime.Config{}, err
	}
	if c.MaxTextLength <= 0 {
		return runtime.Config{}, fmt.Errorf("MAX_TEXT_LENGTH must be positive, got %d", c.MaxTextLength)
	}
	if c.StoreRetryAttempts < 1 {
		return runtime.Config{}, fmt.Errorf("STORE_RETRY_ATTEMPTS must be at least 1, got %d", c.StoreRetryAttempts)
	}
	return runtime.Config{
		MaxTextLength:   c.MaxTextLength,
		StoreRetry:      runtime.NewRetryPolicy(c.StoreRetryAttempts, c.StoreRetryBaseDelay, c.StoreRetryMaxDelay),
		RepairInterval:  c.FanoutRepairInterval,
		StatsInterval:   c.StatsInterval,
		EventBufferSize: c.EventBufferSize,
		SinkTimeout:     c.SinkTimeout,
		Subscription: runtime.SubscriptionConfig{
			Policy:         policy,
			PollInterval:   c.SubscriptionPollInterval,
			ResolveBackoff: runtime.NewRetryPolicy(0, c.ResolveBackoffBase, c.ResolveBackoffMax),
		},
	}, nil
}

// PayloadFilter builds the moderation filter selected by MODERATION_MODE.
func (c Config) PayloadFilter(log *slog.Logger) (moderation.PayloadFilter, error) {
	mode, err := moderation.ParseMode(c.ModerationMode)
	if err != nil {
		return nil, err
	}
	replacement, err := CharacterRune(c.CharReplacement)
	if err != nil {
		return nil, err
	}
	return moderation.NewPayloadFilter(mode, replacement, log)
}

func ParseBlockPolicy(s string) (domain.BlockPolicy, error) {
	policy := domain.BlockPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !policy.IsValid() {
		return "", fmt.Errorf("DELIVERY_BLOCK_POLICY must be one of none, hide_new, hide_all, got %q", s)
	}
	return policy, nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
