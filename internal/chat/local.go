package chat

import (
	"context"

	"zunda/internal/ipc"
	"zunda/internal/responder"
)

// Local serves the console client over a unix socket.
type Local struct {
	path    string
	handler Handler
}

func NewLocal(path string, handler Handler) *Local {
	return &Local{
		path:    path,
		handler: handler,
	}
}

func (l *Local) Name() string {
	return "local"
}

func (l *Local) Run(ctx context.Context) error {
	return ipc.Serve(ctx, l.path, func(ctx context.Context, req ipc.Request) ipc.Reply {
		return toReply(l.handler.Handle(ctx, req.Text))
	})
}

func toReply(resp responder.Response) ipc.Reply {
	switch r := resp.(type) {
	case responder.None:
		return ipc.Reply{Kind: r.Kind()}
	case responder.Text:
		return ipc.Reply{Kind: r.Kind(), Message: r.Message}
	case responder.TextWithAudio:
		return ipc.Reply{Kind: r.Kind(), Message: r.Message, FileName: r.FileName, Audio: r.Audio}
	default:
		panic(unhandled(resp))
	}
}
