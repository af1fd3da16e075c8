package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"zunda/internal/ipc"
	"zunda/internal/playback"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.SocketPath, "Unix socket of zunda-daemon")
	out := cli.StringP("out", "o", "", "Save attached audio to this file")
	play := cli.Bool("play", false, "Play attached audio")
	duck := cli.Bool("duck", true, "Lower other PulseAudio streams while playing")
	timeout := cli.Duration("timeout", 2*time.Minute, "How long to wait for a reply")
	cli.Parse()

	text := strings.Join(cli.Args(), " ")
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: zunda-ctl [flags] '!ずんだもん say こんにちは'")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := ipc.Send(ctx, *socket, ipc.Request{Text: text})
	if err != nil {
		fmt.Println("zunda-daemon not running:", err)
		os.Exit(1)
	}

	if reply.Kind == "none" {
		fmt.Println("(no response)")
		return
	}
	fmt.Println(reply.Message)

	if len(reply.Audio) == 0 {
		return
	}
	if *out != "" {
		if err := os.WriteFile(*out, reply.Audio, 0o644); err != nil {
			fmt.Println("failed to save audio:", err)
			os.Exit(1)
		}
		fmt.Println("saved", reply.FileName, "to", *out)
	}
	if *play {
		var ducker *playback.Ducker
		if *duck {
			ducker = playback.NewDucker(10, 200*time.Millisecond, "zunda-ctl")
		}
		if err := playback.Play(ctx, reply.Audio, ducker); err != nil {
			fmt.Println("failed to play audio:", err)
			os.Exit(1)
		}
	}
}
