// Package mailer delivers transactional notifications.
package mailer

import (
	"context"
	"net/mail"
	"strings"
)

type Message struct {
	From    *mail.Address
	ReplyTo *mail.Address
	To      []mail.Address
	Subject string
	Text    string
	HTML    string
}

func (m Message) HasRecipients() bool { return len(m.To) > 0 }
func (m Message) HasContent() bool    { return m.Text != "" || m.HTML != "" }

// Mailer is any transport that can deliver a Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func joinAddresses(addrs []mail.Address) string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return strings.Join(out, ", ")
}
