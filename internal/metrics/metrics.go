package metrics

import (
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Messages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zunda_messages_total",
			Help: "Chat messages seen, by recognized intent (\"none\" when not addressed to the bot)",
		},
		[]string{"intent"},
	)

	Responses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zunda_responses_total",
			Help: "Responses produced, by kind",
		},
		[]string{"kind"},
	)

	SynthesisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zunda_synthesis_duration_seconds",
			Help:    "Time spent on successful speech synthesis",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		},
	)

	SynthesisFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zunda_synthesis_failures_total",
			Help: "Speech synthesis requests that failed",
		},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zunda_delivery_failures_total",
			Help: "Responses that could not be sent back, by transport",
		},
		[]string{"transport"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
