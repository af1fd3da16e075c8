package playback

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type pactlFunc func(ctx context.Context, args ...string) ([]byte, error)

func runPactl(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "pactl", args...).Output()
}

// Ducker lowers the volume of other PulseAudio streams while a clip plays
// and restores it afterwards. Streams whose application.name is in keep are
// left alone.
type Ducker struct {
	mu       sync.Mutex
	keep     map[string]bool
	floor    int
	fade     time.Duration
	original map[int]int
	pactl    pactlFunc
}

func NewDucker(floor int, fade time.Duration, keep ...string) *Ducker {
	d := &Ducker{
		keep:  make(map[string]bool, len(keep)),
		floor: min(max(floor, 0), maxVolume),
		fade:  fade,
		pactl: runPactl,
	}
	for _, name := range keep {
		d.keep[name] = true
	}
	return d
}

// Duck scales every other stream by factor, never below the floor.
// Calling it twice without Restore is a no-op.
func (d *Ducker) Duck(ctx context.Context, factor float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.original != nil {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	original := make(map[int]int, len(inputs))
	var steps []volumeStep
	for _, in := range inputs {
		to := int(math.Round(float64(in.Volume) * factor))
		original[in.ID] = in.Volume
		steps = append(steps, volumeStep{id: in.ID, from: in.Volume, to: min(max(to, d.floor), maxVolume)})
	}

	if err := d.ramp(ctx, steps); err != nil {
		return err
	}
	d.original = original
	return nil
}

// Restore brings ducked streams back to the volume they had before Duck.
// Streams that appeared in between are not touched.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.original == nil {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var steps []volumeStep
	for _, in := range inputs {
		if orig, ok := d.original[in.ID]; ok {
			steps = append(steps, volumeStep{id: in.ID, from: in.Volume, to: orig})
		}
	}

	if err := d.ramp(ctx, steps); err != nil {
		return err
	}
	d.original = nil
	return nil
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.pactl(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	var others []sinkInput
	for _, in := range parseSinkInputs(string(out)) {
		if !d.keep[in.AppName] {
			others = append(others, in)
		}
	}
	return others, nil
}

type volumeStep struct {
	id   int
	from int
	to   int
}

func (d *Ducker) ramp(ctx context.Context, steps []volumeStep) error {
	if len(steps) == 0 {
		return nil
	}

	n := max(int(d.fade/(10*time.Millisecond)), 1)
	tick := d.fade / time.Duration(n)

	for i := 1; i <= n; i++ {
		frac := float64(i) / float64(n)
		for _, s := range steps {
			v := int(math.Round(float64(s.from) + float64(s.to-s.from)*frac))
			if err := d.setVolume(ctx, s.id, v); err != nil {
				return err
			}
		}

		if i < n {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(tick):
			}
		}
	}
	return nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	percent = min(max(percent, 0), maxVolume)
	if _, err := d.pactl(ctx, "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", percent)); err != nil {
		return fmt.Errorf("set volume id=%d: %w", id, err)
	}
	return nil
}

// parseSinkInputs reads the output of `pactl list sink-inputs`.
func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	if len(blocks) <= 1 {
		return nil
	}

	var res []sinkInput
	for _, block := range blocks[1:] {
		head, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			}

			// application.name = "Firefox"
			if rest, ok := strings.CutPrefix(line, "application.name = "); ok && in.AppName == "" {
				in.AppName = strings.Trim(rest, `"`)
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}
	return res
}
