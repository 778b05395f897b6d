package services

import (
	"context"
	"fmt"
	"net/mail"

	"learningsite/forms"
	"learningsite/logger"
	"learningsite/mailer"
)

type SuggestionService struct {
	mailer    mailer.Mailer
	recipient mail.Address
	log       *logger.Logger
}

func NewSuggestionService(m mailer.Mailer, recipient string, log *logger.Logger) *SuggestionService {
	return &SuggestionService{
		mailer:    m,
		recipient: mail.Address{Address: recipient},
		log:       log.With("service", "SuggestionService"),
	}
}

// Send mails the suggestion to the site owner. Delivery errors are
// returned as-is; there is no retry.
func (s *SuggestionService) Send(ctx context.Context, form *forms.SuggestionForm) error {
	msg := mailer.Message{
		To:      []mail.Address{s.recipient},
		ReplyTo: &mail.Address{Name: form.Name, Address: form.Email},
		Subject: fmt.Sprintf("Suggestion from %s", form.Name),
		Text:    form.Suggestion,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send suggestion: %w", err)
	}
	s.log.Info("suggestion sent", "from", form.Email)
	return nil
}
