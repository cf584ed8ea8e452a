package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"eventnest/internal/models"
	"eventnest/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOutbox captures enqueued tasks.
type fakeOutbox struct {
	tasks []*models.OutboxTask
	err   error
}

func (o *fakeOutbox) Enqueue(_ context.Context, task *models.OutboxTask) error {
	if o.err != nil {
		return o.err
	}
	o.tasks = append(o.tasks, task)
	return nil
}

func TestOutboxMailer_EnqueuesEmailTasks(t *testing.T) {
	logger := zerolog.Nop()
	outbox := &fakeOutbox{}
	m := NewOutboxMailer(outbox, &logger)
	quote := &models.Quote{ID: 11, Title: "Wedding photography", Price: 1000}

	ctx := context.Background()
	m.SendQuoteReceived(ctx, 5, quote)
	m.SendQuoteAccepted(ctx, 6, quote)
	m.SendQuoteDeclined(ctx, 6, quote)

	require.Len(t, outbox.tasks, 3)
	for _, task := range outbox.tasks {
		assert.Equal(t, models.TaskEmail, task.TaskType)
	}
	assert.Equal(t, int64(5), outbox.tasks[0].UserID)

	var payload worker.DeliveryPayload
	require.NoError(t, json.Unmarshal([]byte(outbox.tasks[0].Payload), &payload))
	assert.Equal(t, TemplateQuoteReceived, payload.Template)
	assert.Equal(t, "Wedding photography", payload.Title)
	assert.Equal(t, int64(11), payload.QuoteID)

	require.NoError(t, json.Unmarshal([]byte(outbox.tasks[1].Payload), &payload))
	assert.Equal(t, TemplateQuoteAccepted, payload.Template)
}

func TestOutboxMailer_NilOutbox(t *testing.T) {
	logger := zerolog.Nop()
	m := NewOutboxMailer(nil, &logger)
	// Must not panic without an outbox.
	m.SendQuoteReceived(context.Background(), 1, &models.Quote{Title: "x", Price: 1})
}

func TestOutboxMailer_EnqueueErrorSwallowed(t *testing.T) {
	logger := zerolog.Nop()
	m := NewOutboxMailer(&fakeOutbox{err: errors.New("queue full")}, &logger)
	m.SendQuoteAccepted(context.Background(), 1, &models.Quote{Title: "x", Price: 1})
}

// fakeBot records sent telegram messages.
type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.err != nil {
		return tgbotapi.Message{}, b.err
	}
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramChannel_Deliver(t *testing.T) {
	logger := zerolog.Nop()
	bot := &fakeBot{}
	ch := NewTelegramChannel(bot, map[int64]int64{42: 100500}, &logger)

	payload := worker.DeliveryPayload{Title: "New message", Body: "hello"}
	require.NoError(t, ch.Deliver(context.Background(), 42, payload))
	require.Len(t, bot.sent, 1)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(100500), msg.ChatID)
	assert.Equal(t, "New message\nhello", msg.Text)
}

func TestTelegramChannel_SkipsUnmappedUser(t *testing.T) {
	logger := zerolog.Nop()
	bot := &fakeBot{}
	ch := NewTelegramChannel(bot, map[int64]int64{}, &logger)

	err := ch.Deliver(context.Background(), 7, worker.DeliveryPayload{Title: "x"})
	require.NoError(t, err)
	assert.Empty(t, bot.sent)
}

func TestTelegramChannel_SendError(t *testing.T) {
	logger := zerolog.Nop()
	bot := &fakeBot{err: errors.New("flood wait")}
	ch := NewTelegramChannel(bot, map[int64]int64{1: 2}, &logger)

	err := ch.Deliver(context.Background(), 1, worker.DeliveryPayload{Title: "x"})
	assert.ErrorContains(t, err, "telegram send")
}

func TestEmailChannel_DelegatesToSender(t *testing.T) {
	logger := zerolog.Nop()
	sender := &LogEmailSender{Logger: &logger}
	ch := NewEmailChannel(sender)

	assert.Equal(t, "email", ch.Name())
	err := ch.Deliver(context.Background(), 1, worker.DeliveryPayload{
		Template: TemplateQuoteAccepted, Title: "Catering", Body: "Catering — 800.00",
	})
	require.NoError(t, err)
}
