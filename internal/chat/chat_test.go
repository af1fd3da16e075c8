package chat

import (
	"context"
	"sync"

	"zunda/internal/responder"
)

type stubHandler struct {
	mu    sync.Mutex
	texts []string
	resp  func(text string) responder.Response
}

func (h *stubHandler) Handle(_ context.Context, text string) responder.Response {
	h.mu.Lock()
	h.texts = append(h.texts, text)
	h.mu.Unlock()
	return h.resp(text)
}

func (h *stubHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.texts...)
}
