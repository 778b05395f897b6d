package mailer

import (
	"context"
	"net/mail"
	"sync"

	"learningsite/logger"
)

// ConsoleMailer writes messages to the log instead of sending them.
type ConsoleMailer struct {
	from mail.Address
	log  *logger.Logger
}

var _ Mailer = (*ConsoleMailer)(nil)

func NewConsoleMailer(appName, fromEmail string, log *logger.Logger) *ConsoleMailer {
	return &ConsoleMailer{
		from: mail.Address{Name: appName, Address: fromEmail},
		log:  log.With("client", "ConsoleMailer"),
	}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	from := m.from
	if msg.From != nil {
		from = *msg.From
	}
	replyTo := ""
	if msg.ReplyTo != nil {
		replyTo = msg.ReplyTo.String()
	}
	m.log.Info("email",
		"from", from.String(),
		"reply_to", replyTo,
		"to", joinAddresses(msg.To),
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}

// Outbox records messages in memory. Err, when set, is returned by Send
// instead of recording the message.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

var _ Mailer = (*Outbox)(nil)

func (o *Outbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.messages = append(o.messages, msg)
	return nil
}

func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}
