package chat

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zunda/internal/metrics"
	"zunda/internal/responder"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	token   string
	handler Handler
}

func NewTelegram(token string, handler Handler) *Telegram {
	return &Telegram{
		token:   token,
		handler: handler,
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Run(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot: %w", err)
	}
	log.Info("Connected to telegram", "user", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	t.serve(ctx, bot, updates)
	return nil
}

// serve handles updates until ctx is done or updates is closed, then waits
// for replies still in flight.
func (t *Telegram) serve(ctx context.Context, s telegramSender, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.Text == "" || (msg.From != nil && msg.From.IsBot) {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				t.handle(ctx, s, msg.Chat.ID, msg.Text)
			}()
		}
	}
}

func (t *Telegram) handle(ctx context.Context, s telegramSender, chatID int64, text string) {
	resp := t.handler.Handle(ctx, text)
	if err := deliverTelegram(s, chatID, resp); err != nil {
		metrics.DeliveryFailures.WithLabelValues(t.Name()).Inc()
		log.Error("Failed to send to telegram", "chat", chatID, "err", err)
	}
}

func deliverTelegram(s telegramSender, chatID int64, resp responder.Response) error {
	switch r := resp.(type) {
	case responder.None:
		return nil
	case responder.Text:
		_, err := s.Send(tgbotapi.NewMessage(chatID, r.Message))
		return err
	case responder.TextWithAudio:
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  r.FileName,
			Bytes: r.Audio,
		})
		doc.Caption = r.Message
		_, err := s.Send(doc)
		return err
	default:
		panic(unhandled(resp))
	}
}
