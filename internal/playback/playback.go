package playback

import (
	"bytes"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Open decodes a WAV file held in memory.
func Open(audio []byte) (beep.StreamSeekCloser, beep.Format, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(audio))
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode wav: %w", err)
	}
	return streamer, format, nil
}

// DuckFactor is how loud other streams stay while a clip plays.
const DuckFactor = 0.3

// Play blocks until the whole clip has been played on the default output or
// ctx is done. A non-nil ducker quiets other streams meanwhile.
func Play(ctx context.Context, audio []byte, ducker *Ducker) error {
	streamer, format, err := Open(audio)
	if err != nil {
		return err
	}
	defer streamer.Close()

	if ducker != nil {
		if err := ducker.Duck(ctx, DuckFactor); err != nil {
			log.Warn("Failed to duck other streams", "err", err)
		}
		defer func() {
			if err := ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to restore other streams", "err", err)
			}
		}()
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	defer speaker.Close()

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
