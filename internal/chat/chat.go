package chat

import (
	"context"
	"fmt"

	"zunda/internal/responder"
)

// Handler is the bot as seen by a transport: raw text in, response out.
type Handler interface {
	Handle(ctx context.Context, text string) responder.Response
}

// Adapter connects the bot to one chat platform. Run blocks until ctx is
// done or the connection fails for good.
type Adapter interface {
	Name() string
	Run(ctx context.Context) error
}

func unhandled(resp responder.Response) string {
	return fmt.Sprintf("chat: unhandled response %T", resp)
}
