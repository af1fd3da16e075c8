package bot

import (
	"context"
	log "log/slog"

	"zunda/internal/metrics"
	"zunda/internal/nlu"
	"zunda/internal/responder"
)

type Responder interface {
	Respond(ctx context.Context, in nlu.Intent) responder.Response
}

// Bot turns raw chat text into a response. Transports call Handle once per
// inbound message, from as many goroutines as they like.
type Bot struct {
	matcher   *nlu.Matcher
	responder Responder
}

type Option func(*Bot)

func WithMatcher(m *nlu.Matcher) Option {
	return func(b *Bot) {
		b.matcher = m
	}
}

func New(r Responder, opts ...Option) *Bot {
	b := &Bot{
		matcher:   nlu.DefaultMatcher(),
		responder: r,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bot) Handle(ctx context.Context, raw string) responder.Response {
	in, ok := b.matcher.Match(nlu.Normalize(raw))
	if !ok {
		metrics.Messages.WithLabelValues("none").Inc()
		return responder.None{}
	}

	metrics.Messages.WithLabelValues(in.Name()).Inc()
	log.Info("Recognized", "intent", in.Name())

	resp := b.responder.Respond(ctx, in)
	metrics.Responses.WithLabelValues(resp.Kind()).Inc()

	log.Debug("Responded", "intent", in.Name(), "kind", resp.Kind())
	return resp
}
