package chat

import (
	"bytes"
	"context"
	"fmt"
	log "log/slog"

	"github.com/bwmarrin/discordgo"

	"zunda/internal/metrics"
	"zunda/internal/responder"
)

type discordSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Discord struct {
	token   string
	handler Handler
}

func NewDiscord(token string, handler Handler) *Discord {
	return &Discord{
		token:   token,
		handler: handler,
	}
}

func (d *Discord) Name() string {
	return "discord"
}

func (d *Discord) Run(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("Connected to discord", "user", r.User.Username)
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		resp := d.handler.Handle(ctx, m.Content)
		if err := deliverDiscord(s, m.ChannelID, resp); err != nil {
			metrics.DeliveryFailures.WithLabelValues(d.Name()).Inc()
			log.Error("Failed to send to discord", "channel", m.ChannelID, "err", err)
		}
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}

	<-ctx.Done()
	return session.Close()
}

func deliverDiscord(s discordSender, channelID string, resp responder.Response) error {
	switch r := resp.(type) {
	case responder.None:
		return nil
	case responder.Text:
		_, err := s.ChannelMessageSend(channelID, r.Message)
		return err
	case responder.TextWithAudio:
		_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content: r.Message,
			Files: []*discordgo.File{{
				Name:        r.FileName,
				ContentType: "audio/wav",
				Reader:      bytes.NewReader(r.Audio),
			}},
		})
		return err
	default:
		panic(unhandled(resp))
	}
}
