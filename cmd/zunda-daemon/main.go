package main

import (
	"cmp"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/lmittmann/tint"
	log "log/slog"

	"zunda/internal/bot"
	"zunda/internal/chat"
	"zunda/internal/ipc"
	"zunda/internal/metrics"
	"zunda/internal/proxy"
	"zunda/internal/responder"
	"zunda/internal/tts"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	voicevoxURL := cli.StringP("voicevox", "v", "", "VOICEVOX engine url (default $VOICEVOX_URL or http://localhost:50021)")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for the VOICEVOX engine")
	timeout := cli.Duration("timeout", 60*time.Second, "VOICEVOX request timeout")
	socket := cli.StringP("socket", "s", ipc.SocketPath, "Unix socket for zunda-ctl, empty to disable")
	busURL := cli.String("bus", "", "Websocket bus url (default $BUS_URL)")
	shard := cli.String("shard", "zunda", "Name of this bot on the bus")
	metricsAddr := cli.String("metrics", "", "Address to serve /metrics on, empty to disable")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := proxy.NewClient(*proxyAddr, *timeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
		os.Exit(1)
	}

	endpoint := cmp.Or(*voicevoxURL, os.Getenv("VOICEVOX_URL"), "http://localhost:50021")

	voicevox, err := tts.NewVoicevox(ctx, endpoint, tts.WithHTTPClient(httpClient))
	if err != nil {
		log.Error("Failed to init VOICEVOX", "url", endpoint, "err", err)
		os.Exit(1)
	}

	log.Debug("Loaded VOICEVOX", "url", endpoint)

	zunda := bot.New(responder.New(voicevox))

	var adapters []chat.Adapter
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		adapters = append(adapters, chat.NewDiscord(token, zunda))
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		adapters = append(adapters, chat.NewTelegram(token, zunda))
	}
	if url := cmp.Or(*busURL, os.Getenv("BUS_URL")); url != "" {
		adapters = append(adapters, chat.NewBus(url, *shard, 5*time.Second, zunda))
	}
	if *socket != "" {
		adapters = append(adapters, chat.NewLocal(*socket, zunda))
	}

	if len(adapters) == 0 {
		log.Error("No transport enabled, set DISCORD_TOKEN, TELEGRAM_TOKEN, --bus or --socket")
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, a := range adapters {
		g.Go(func() error {
			log.Info("Starting transport", "name", a.Name())
			err := a.Run(ctx)
			if err != nil {
				log.Error("Transport stopped", "name", a.Name(), "err", err)
			}
			return err
		})
	}
	if *metricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, *metricsAddr)
		})
	}

	log.Info("Boot up - successful")

	if err := g.Wait(); err != nil {
		os.Exit(1)
	}
	log.Info("Shut down")
}
