// Package notify delivers comment notifications to place owners outside the
// request path.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrQueueFull = errors.New("notify: queue is full")
	ErrClosed    = errors.New("notify: publisher is closed")
)

// CommentPosted is emitted after a comment on someone else's place is committed.
type CommentPosted struct {
	CommentID      uint      `json:"comment_id"`
	PlaceID        uint      `json:"place_id"`
	PlaceName      string    `json:"place_name"`
	SenderID       uint      `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	RecipientID    uint      `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	Text           string    `json:"text"`
	PostedAt       time.Time `json:"posted_at"`
}

// Message is the inbox text stored for the recipient.
func (e CommentPosted) Message() string {
	return fmt.Sprintf("%s commented on your place '%s': %s", e.SenderName, e.PlaceName, e.Text)
}

type Publisher interface {
	Publish(ctx context.Context, event CommentPosted) error
}

type Handler interface {
	Handle(ctx context.Context, event CommentPosted) error
}

type HandlerFunc func(ctx context.Context, event CommentPosted) error

func (f HandlerFunc) Handle(ctx context.Context, event CommentPosted) error {
	return f(ctx, event)
}

// Fanout runs every handler and joins their errors.
type Fanout []Handler

func (f Fanout) Handle(ctx context.Context, event CommentPosted) error {
	var errs []error
	for _, h := range f {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event. Used when notifications are disabled.
type Discard struct{}

func (Discard) Publish(context.Context, CommentPosted) error { return nil }
