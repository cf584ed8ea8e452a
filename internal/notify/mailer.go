package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"eventnest/internal/domain"
	"eventnest/internal/models"
	"eventnest/internal/worker"

	"github.com/rs/zerolog"
)

// Email templates carried on outbox tasks.
const (
	TemplateQuoteReceived = "quote_received"
	TemplateQuoteAccepted = "quote_accepted"
	TemplateQuoteDeclined = "quote_declined"
)

// OutboxMailer implements domain.Mailer by scheduling email tasks on the
// outbox. Delivery happens out of band; a full outbox never fails the
// triggering workflow.
type OutboxMailer struct {
	outbox domain.OutboxEnqueuer
	logger *zerolog.Logger
}

func NewOutboxMailer(outbox domain.OutboxEnqueuer, logger *zerolog.Logger) *OutboxMailer {
	return &OutboxMailer{outbox: outbox, logger: logger}
}

func (m *OutboxMailer) SendQuoteReceived(ctx context.Context, customerID int64, quote *models.Quote) {
	m.enqueue(ctx, customerID, TemplateQuoteReceived, quote)
}

func (m *OutboxMailer) SendQuoteAccepted(ctx context.Context, vendorID int64, quote *models.Quote) {
	m.enqueue(ctx, vendorID, TemplateQuoteAccepted, quote)
}

func (m *OutboxMailer) SendQuoteDeclined(ctx context.Context, vendorID int64, quote *models.Quote) {
	m.enqueue(ctx, vendorID, TemplateQuoteDeclined, quote)
}

func (m *OutboxMailer) enqueue(ctx context.Context, userID int64, template string, quote *models.Quote) {
	if m.outbox == nil {
		return
	}
	payload, err := json.Marshal(worker.DeliveryPayload{
		Template: template,
		Title:    quote.Title,
		Body:     fmt.Sprintf("%s — %.2f", quote.Title, quote.Price),
		QuoteID:  quote.ID,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("template", template).Msg("encode email payload failed")
		return
	}
	task := &models.OutboxTask{TaskType: models.TaskEmail, UserID: userID, Payload: string(payload)}
	if err := m.outbox.Enqueue(ctx, task); err != nil {
		m.logger.Error().Err(err).Str("template", template).Int64("user_id", userID).Msg("enqueue email failed")
	}
}

var _ domain.Mailer = (*OutboxMailer)(nil)

// EmailSender is the outbound mail collaborator. The platform's transactional
// email service sits behind this interface; LogEmailSender stands in when
// none is wired.
type EmailSender interface {
	Send(ctx context.Context, userID int64, template, subject, body string) error
}

// LogEmailSender records would-be emails in the log.
type LogEmailSender struct {
	Logger *zerolog.Logger
}

func (s *LogEmailSender) Send(ctx context.Context, userID int64, template, subject, body string) error {
	s.Logger.Info().Int64("user_id", userID).Str("template", template).Str("subject", subject).Msg("email (log only)")
	return nil
}

// EmailChannel delivers email outbox tasks through an EmailSender.
type EmailChannel struct {
	sender EmailSender
}

func NewEmailChannel(sender EmailSender) *EmailChannel {
	return &EmailChannel{sender: sender}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(ctx context.Context, userID int64, payload worker.DeliveryPayload) error {
	return c.sender.Send(ctx, userID, payload.Template, payload.Title, payload.Body)
}

var _ worker.Channel = (*EmailChannel)(nil)
