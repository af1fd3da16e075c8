package chat

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"zunda/internal/metrics"
	"zunda/internal/responder"
)

const (
	KindMessage = "message"
	KindReply   = "reply"
)

type BusMessage struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Kind     string `json:"kind"`
	Content  string `json:"content"`
	Audio    []byte `json:"audio,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// Bus is a websocket message bus shard. Frames of kind "message" addressed
// to the shard (or to nobody) are handled; replies go back to the sender.
type Bus struct {
	url     string
	shard   string
	reconn  time.Duration
	handler Handler

	mu   sync.Mutex
	conn *ws.Conn
}

func NewBus(url, shard string, reconn time.Duration, handler Handler) *Bus {
	return &Bus{
		url:     url,
		shard:   shard,
		reconn:  reconn,
		handler: handler,
	}
}

func (b *Bus) Name() string {
	return "bus"
}

// Run fails only when the first dial fails; later disconnects are retried
// every reconn until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	if err := b.dial(ctx); err != nil {
		return fmt.Errorf("dial bus: %w", err)
	}
	log.Info("Connected to bus", "url", b.url)

	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.conn.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, data, err := b.current().ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("Bus read failed, reconnecting", "url", b.url, "err", err)
			if err := b.reconnect(ctx); err != nil {
				return nil
			}
			log.Info("Reconnected to bus", "url", b.url)
			continue
		}

		var m BusMessage
		if err := json.Unmarshal(data, &m); err != nil {
			log.Warn("Failed to parse bus frame", "frame", string(data), "err", err)
			continue
		}
		if !b.addressed(&m) {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			b.handle(ctx, &m)
		}()
	}
}

func (b *Bus) addressed(m *BusMessage) bool {
	return m.Kind == KindMessage && m.From != b.shard && (m.To == "" || m.To == b.shard)
}

func (b *Bus) handle(ctx context.Context, m *BusMessage) {
	reply := &BusMessage{
		From: b.shard,
		To:   m.From,
		Kind: KindReply,
	}

	switch r := b.handler.Handle(ctx, m.Content).(type) {
	case responder.None:
		return
	case responder.Text:
		reply.Content = r.Message
	case responder.TextWithAudio:
		reply.Content = r.Message
		reply.Audio = r.Audio
		reply.FileName = r.FileName
	default:
		panic(unhandled(r))
	}

	if err := b.write(reply); err != nil {
		metrics.DeliveryFailures.WithLabelValues(b.Name()).Inc()
		log.Error("Failed to send to bus", "to", reply.To, "err", err)
	}
}

func (b *Bus) write(m *BusMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteMessage(ws.TextMessage, data)
}

func (b *Bus) current() *ws.Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

func (b *Bus) dial(ctx context.Context) error {
	conn, _, err := ws.DefaultDialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
	}
	b.conn = conn
	return nil
}

func (b *Bus) reconnect(ctx context.Context) error {
	for {
		if err := b.dial(ctx); err == nil {
			if ctx.Err() != nil {
				b.current().Close()
				return ctx.Err()
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.reconn):
		}
	}
}
