package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zunda/internal/responder"
)

type fakeHub struct {
	conns chan *ws.Conn
}

func newFakeHub(t *testing.T) (*fakeHub, string) {
	t.Helper()

	hub := &fakeHub{conns: make(chan *ws.Conn, 4)}
	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.conns <- conn
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (h *fakeHub) accept(t *testing.T) *ws.Conn {
	t.Helper()
	select {
	case conn := <-h.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("bus never connected")
		return nil
	}
}

func runBus(t *testing.T, b *Bus) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()
	return cancel, done
}

func readReply(t *testing.T, conn *ws.Conn) BusMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m BusMessage
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestBusRepliesToSender(t *testing.T) {
	hub, url := newFakeHub(t)
	h := &stubHandler{resp: func(text string) responder.Response {
		if text == "!zunda say hi" {
			return responder.TextWithAudio{Message: "hi なのだ", FileName: "zundamon.wav", Audio: []byte{1, 2, 3}}
		}
		return responder.Text{Message: "text for " + text}
	}}

	cancel, done := runBus(t, NewBus(url, "zunda", 10*time.Millisecond, h))
	conn := hub.accept(t)

	require.NoError(t, conn.WriteJSON(BusMessage{From: "discord", To: "zunda", Kind: KindMessage, Content: "!zunda say hi"}))
	assert.Equal(t, BusMessage{
		From:     "zunda",
		To:       "discord",
		Kind:     KindReply,
		Content:  "hi なのだ",
		Audio:    []byte{1, 2, 3},
		FileName: "zundamon.wav",
	}, readReply(t, conn))

	require.NoError(t, conn.WriteJSON(BusMessage{From: "web", Kind: KindMessage, Content: "!zunda hello"}))
	assert.Equal(t, BusMessage{From: "zunda", To: "web", Kind: KindReply, Content: "text for !zunda hello"}, readReply(t, conn))

	cancel()
	require.NoError(t, <-done)
}

func TestBusSkipsFramesNotForIt(t *testing.T) {
	hub, url := newFakeHub(t)
	h := &stubHandler{resp: func(text string) responder.Response {
		return responder.Text{Message: text}
	}}

	cancel, done := runBus(t, NewBus(url, "zunda", 10*time.Millisecond, h))
	conn := hub.accept(t)

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(BusMessage{From: "web", To: "other", Kind: KindMessage, Content: "a"}))
	require.NoError(t, conn.WriteJSON(BusMessage{From: "web", Kind: KindReply, Content: "b"}))
	require.NoError(t, conn.WriteJSON(BusMessage{From: "zunda", Kind: KindMessage, Content: "c"}))
	require.NoError(t, conn.WriteJSON(BusMessage{From: "web", Kind: KindMessage, Content: "d"}))

	assert.Equal(t, "d", readReply(t, conn).Content)
	assert.Equal(t, []string{"d"}, h.seen())

	cancel()
	require.NoError(t, <-done)
}

func TestBusStaysSilentOnNone(t *testing.T) {
	hub, url := newFakeHub(t)
	h := &stubHandler{resp: func(text string) responder.Response {
		if text == "ignored" {
			return responder.None{}
		}
		return responder.Text{Message: text}
	}}

	cancel, done := runBus(t, NewBus(url, "zunda", 10*time.Millisecond, h))
	conn := hub.accept(t)

	require.NoError(t, conn.WriteJSON(BusMessage{From: "web", Kind: KindMessage, Content: "ignored"}))
	require.Eventually(t, func() bool { return len(h.seen()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, conn.WriteJSON(BusMessage{From: "web", Kind: KindMessage, Content: "answered"}))

	assert.Equal(t, "answered", readReply(t, conn).Content)

	cancel()
	require.NoError(t, <-done)
}

func TestBusReconnects(t *testing.T) {
	hub, url := newFakeHub(t)
	h := &stubHandler{resp: func(text string) responder.Response {
		return responder.Text{Message: text}
	}}

	cancel, done := runBus(t, NewBus(url, "zunda", 10*time.Millisecond, h))

	first := hub.accept(t)
	require.NoError(t, first.Close())

	second := hub.accept(t)
	require.NoError(t, second.WriteJSON(BusMessage{From: "web", Kind: KindMessage, Content: "again"}))
	assert.Equal(t, "again", readReply(t, second).Content)

	cancel()
	require.NoError(t, <-done)
}

func TestBusFailsWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	err := NewBus(url, "zunda", time.Millisecond, &stubHandler{}).Run(context.Background())
	assert.Error(t, err)
}
