package notify

import (
	"context"
	"errors"
	"fmt"
)

// Format is the markup hint passed along with message text.
type Format string

const (
	FormatPlain      Format = ""
	FormatHTML       Format = "HTML"
	FormatMarkdownV2 Format = "MarkdownV2"
)

// Kind classifies delivery failures.
type Kind string

const (
	// KindRecipientUnavailable: chat deleted, bot removed or blocked, user deactivated.
	KindRecipientUnavailable Kind = "recipient_unavailable"
	// KindTransient: rate limits and network trouble.
	KindTransient Kind = "transient"
	KindUnknown   Kind = "unknown"
)

// DeliveryError is returned by a Deliverer when a message could not be sent.
type DeliveryError struct {
	Kind Kind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed (%s): %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind of err, KindUnknown if unclassified.
func KindOf(err error) Kind {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// Deliverer sends text to a chat, optionally into a topic thread (0 = none).
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string, format Format, threadID int) error
}
