package domain

import (
	"buddychat/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SendCommand is the only write intent accepted by the chat core.
// FromID comes from the authenticated caller, never from the request body.
type SendCommand struct {
	FromID  UserID `validate:"required,max=128,excludes=:,nefield=ToID"`
	ToID    UserID `validate:"required,max=128,excludes=:"`
	Payload Payload
}

type ListFeedCommand struct {
	Owner       UserID `validate:"required,max=128,excludes=:"`
	Counterpart UserID `validate:"required,max=128,excludes=:,nefield=Owner"`
	Cursor      Cursor
	Limit       int `validate:"gte=0,lte=500"`
}

type SubscribeCommand struct {
	Owner       UserID `validate:"required,max=128,excludes=:"`
	Counterpart UserID `validate:"required,max=128,excludes=:,nefield=Owner"`
	Cursor      Cursor
}

type SearchCommand struct {
	Viewer      UserID `validate:"required,max=128,excludes=:"`
	Counterpart UserID `validate:"required,max=128,excludes=:,nefield=Viewer"`
	Query       string `validate:"required,max=512"`
}

type RelationCommand struct {
	Owner UserID `validate:"required,max=128,excludes=:"`
	Other UserID `validate:"required,max=128,excludes=:,nefield=Owner"`
}

// Validate checks struct tags. Violations are reported as ErrInvalidCommand.
func Validate(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	return nil
}
