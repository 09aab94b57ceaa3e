package notify

import (
	"context"
	"fmt"

	"github.com/roadrunner/api-go/config"
	"github.com/roadrunner/api-go/models"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// StoreHandler writes the recipient's inbox row.
type StoreHandler struct {
	DB *gorm.DB
}

func (h StoreHandler) Handle(ctx context.Context, event CommentPosted) error {
	n := models.Notification{
		RecipientID: event.RecipientID,
		SenderID:    event.SenderID,
		Message:     event.Message(),
	}
	if err := h.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailHandler emails the place owner about the new comment.
type MailHandler struct {
	Sender MailSender
	From   string
}

func NewMailHandler(cfg config.MailConfig) *MailHandler {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &MailHandler{
		Sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		From:   from,
	}
}

func (h *MailHandler) Handle(_ context.Context, event CommentPosted) error {
	if event.RecipientEmail == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", h.From)
	m.SetHeader("To", event.RecipientEmail)
	m.SetHeader("Subject", MailSubject(event))
	m.SetBody("text/plain", MailBody(event))
	if err := h.Sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send notification mail: %w", err)
	}
	return nil
}

func MailSubject(event CommentPosted) string {
	return "New comment on your place: " + event.PlaceName
}

func MailBody(event CommentPosted) string {
	return fmt.Sprintf("Hi,\n\n%s commented on your place \"%s\":\n\n\"%s\"\n\nCheck it out on the platform!\n\nRegards,\nYour Platform Team\n",
		event.SenderName, event.PlaceName, event.Text)
}
