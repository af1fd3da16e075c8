package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const SocketPath = "/tmp/zunda.sock"

// RequestTimeout bounds how long a client may take to send its request.
const RequestTimeout = 10 * time.Second

// Request is a chat line typed on the local console.
type Request struct {
	Text string `json:"text"`
}

// Reply mirrors the bot's response. Kind is "none", "text" or "audio".
type Reply struct {
	Kind     string `json:"kind"`
	Message  string `json:"message,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Audio    []byte `json:"audio,omitempty"`
}

type HandlerFunc func(ctx context.Context, req Request) Reply

// Serve answers requests on a unix socket until ctx is done. Every
// connection carries one request and one reply.
func Serve(ctx context.Context, path string, handler HandlerFunc) error {
	os.Remove(path)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Info("Listening for local commands", "socket", path)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Warn("Failed to accept", "err", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, handler)
		}()
	}
}

func handleConn(ctx context.Context, conn net.Conn, handler HandlerFunc) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	conn.SetReadDeadline(time.Now().Add(RequestTimeout))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("Failed to decode request", "err", err)
		return
	}

	if err := json.NewEncoder(conn).Encode(handler(ctx, req)); err != nil {
		log.Warn("Failed to send reply", "err", err)
	}
}

// Send delivers one request to a running daemon and waits for its reply.
func Send(ctx context.Context, path string, req Request) (Reply, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(2 * time.Minute))
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Reply{}, fmt.Errorf("send request: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}
