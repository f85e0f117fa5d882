package moderation

import (
	"buddychat/domain"
	"fmt"
	"log/slog"
	"strings"
)

// Mode selects what happens to message text before it is stored.
type Mode string

const (
	ModeOff  Mode = "off"
	ModeMask Mode = "mask"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOff, "":
		return ModeOff, nil
	case ModeMask:
		return ModeMask, nil
	}
	return "", fmt.Errorf("unknown moderation mode %q", s)
}

// PayloadFilter rewrites a payload before it is persisted.
type PayloadFilter interface {
	Filter(payload domain.Payload) domain.Payload
}

// NoFilter leaves payloads untouched.
type NoFilter struct{}

func (NoFilter) Filter(payload domain.Payload) domain.Payload { return payload }

// MaskFilter censors dictionary words in the text of a payload.
type MaskFilter struct {
	moderator Moderator
	log       *slog.Logger
}

func NewMaskFilter(moderator Moderator, log *slog.Logger) MaskFilter {
	return MaskFilter{moderator: moderator, log: log}
}

func (f MaskFilter) Filter(payload domain.Payload) domain.Payload {
	text, words := f.moderator.Censor(payload.Text)
	if len(words) > 0 {
		f.log.Debug("Payload masked", "words", len(words))
	}
	payload.Text = text
	return payload
}

// NewPayloadFilter builds the filter matching mode, loading the embedded dictionaries when needed.
func NewPayloadFilter(mode Mode, replacement rune, log *slog.Logger) (PayloadFilter, error) {
	if mode != ModeMask {
		return NoFilter{}, nil
	}
	data, err := NewEmbeddedLoader().LoadAll("censored")
	if err != nil {
		return nil, err
	}
	moderator, err := NewModerator(data.Words, replacement, log)
	if err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "languages", data.Languages, "words", len(data.Words))
	return NewMaskFilter(moderator, log), nil
}
