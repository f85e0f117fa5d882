package domain

import "time"

// Clock provides the server-side creation time of messages.
type Clock interface {
	Now() time.Time
}
