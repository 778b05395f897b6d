package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"learningsite/logger"
)

type SendGridMailer struct {
	client *sendgrid.Client
	from   mail.Address
	log    *logger.Logger
}

var _ Mailer = (*SendGridMailer)(nil)

func NewSendGridMailer(apiKey, appName, fromEmail string, log *logger.Logger) (*SendGridMailer, error) {
	if apiKey == "" {
		return nil, errors.New("missing SENDGRID_API_KEY")
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.Address{Name: appName, Address: fromEmail},
		log:    log.With("client", "SendGridMailer"),
	}, nil
}

func (m *SendGridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	from := m.from
	if msg.From != nil {
		from = *msg.From
	}

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(sgmail.NewEmail(from.Name, from.Address))
	v3.Subject = msg.Subject
	v3.AddPersonalizations(p)
	if msg.ReplyTo != nil {
		v3.SetReplyTo(sgmail.NewEmail(msg.ReplyTo.Name, msg.ReplyTo.Address))
	}
	if msg.Text != "" {
		v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return v3
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if !msg.HasRecipients() || !msg.HasContent() {
		return errors.New("sendgrid: message needs recipients and content")
	}
	resp, err := m.client.SendWithContext(ctx, m.prepare(msg))
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid http %d: %s", resp.StatusCode, resp.Body)
	}
	m.log.Debug("mail sent", "to", joinAddresses(msg.To), "status", resp.StatusCode)
	return nil
}
