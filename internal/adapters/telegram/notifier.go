package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"athena/internal/adapters/config"
	"athena/pkg/errors"
	"athena/pkg/logger"
	"athena/pkg/templates"
)

// Telegram caps messages at 4096 characters.
const maxMessageLen = 4096

// Notifier pushes decision summaries to a single Telegram chat.
type Notifier struct {
	api     *tgbotapi.BotAPI
	chatID  int64
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewNotifier creates a notifier for the configured chat.
func NewNotifier(cfg config.TelegramConfig) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, errors.Wrap(errors.ErrInvalidInput, "telegram bot token and chat id are required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}

	return &Notifier{
		api:    api,
		chatID: cfg.ChatID,
		// Telegram allows ~30 msg/sec; one loop never needs that much.
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		log:     logger.Get().With("component", "telegram"),
	}, nil
}

// DecisionStep is one line of the execution section.
type DecisionStep struct {
	Action  string
	Outcome string
}

// Decision is the data rendered into the notification template.
type Decision struct {
	Symbol     string
	Action     string
	Mode       string
	TradeDate  string
	Position   string
	Transition string
	Steps      []DecisionStep
	Summary    string
}

// NotifyDecision renders and sends one decision summary.
func (n *Notifier) NotifyDecision(ctx context.Context, decision Decision) error {
	decision.Summary = templates.Truncate(decision.Summary, 1500)

	text, err := templates.Get().Render("telegram/decision", decision)
	if err != nil {
		return errors.Wrap(err, "render decision notification")
	}

	return n.Send(ctx, text)
}

// Send delivers a Markdown message to the chat.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, templates.Truncate(text, maxMessageLen))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		n.log.Warnw("telegram send failed", "error", err)
		return errors.Wrap(err, "send telegram message")
	}

	return nil
}
