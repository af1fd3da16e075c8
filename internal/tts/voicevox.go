package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-audio/wav"

	"zunda/internal/metrics"
)

// Voicevox speaks through a VOICEVOX engine. Style ids are resolved once in
// NewVoicevox and never change afterwards, so a Voicevox is safe for
// concurrent use.
type Voicevox struct {
	client   *http.Client
	endpoint *url.URL
	speakers map[Character]int
}

type Option func(*Voicevox)

func WithHTTPClient(c *http.Client) Option {
	return func(v *Voicevox) {
		v.client = c
	}
}

type speakerStyle struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

type speaker struct {
	Name   string         `json:"name"`
	Styles []speakerStyle `json:"styles"`
}

// NewVoicevox reads the engine's speaker catalog and fails unless every
// character has a matching speaker and style.
func NewVoicevox(ctx context.Context, endpoint string, opts ...Option) (*Voicevox, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse endpoint: %q is not an absolute url", endpoint)
	}

	v := &Voicevox{
		client:   http.DefaultClient,
		endpoint: u,
	}
	for _, opt := range opts {
		opt(v)
	}

	catalog, err := v.fetchSpeakers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch speakers: %w", err)
	}

	speakers := make(map[Character]int, len(voices))
	for _, c := range Characters() {
		voice := c.Voice()
		id, ok := findStyleID(catalog, voice.Speaker, voice.Style)
		if !ok {
			return nil, fmt.Errorf("%w: %s (%s)", ErrVoiceNotFound, voice.Speaker, voice.Style)
		}
		log.Debug("Resolved voice", "speaker", voice.Speaker, "style", voice.Style, "id", id)
		speakers[c] = id
	}
	v.speakers = speakers

	return v, nil
}

func (v *Voicevox) fetchSpeakers(ctx context.Context) ([]speaker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint.JoinPath("speakers").String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out []speaker
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode speakers: %w", err)
	}
	return out, nil
}

func findStyleID(speakers []speaker, name, style string) (int, bool) {
	for _, sp := range speakers {
		if sp.Name != name {
			continue
		}
		for _, st := range sp.Styles {
			if st.Name == style {
				return st.ID, true
			}
		}
		return 0, false
	}
	return 0, false
}

// Synthesize asks the engine for an audio query and feeds it back,
// unmodified, to the synthesis endpoint.
func (v *Voicevox) Synthesize(ctx context.Context, c Character, text string) ([]byte, error) {
	id, ok := v.speakers[c]
	if !ok {
		metrics.SynthesisFailures.Inc()
		return nil, fmt.Errorf("%w: %w: %s", ErrSynthesis, ErrVoiceNotFound, c)
	}

	start := time.Now()
	speakerID := strconv.Itoa(id)

	query, err := v.post(ctx, "audio_query", url.Values{
		"text":    {text},
		"speaker": {speakerID},
	}, nil)
	if err != nil {
		metrics.SynthesisFailures.Inc()
		return nil, fmt.Errorf("%w: audio query: %w", ErrSynthesis, err)
	}

	audio, err := v.post(ctx, "synthesis", url.Values{
		"speaker": {speakerID},
	}, query)
	if err != nil {
		metrics.SynthesisFailures.Inc()
		return nil, fmt.Errorf("%w: synthesis: %w", ErrSynthesis, err)
	}

	if err := inspect(audio); err != nil {
		metrics.SynthesisFailures.Inc()
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	metrics.SynthesisDuration.Observe(time.Since(start).Seconds())
	return audio, nil
}

func (v *Voicevox) post(ctx context.Context, path string, query url.Values, body []byte) ([]byte, error) {
	u := v.endpoint.JoinPath(path)
	u.RawQuery = query.Encode()

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return data, nil
}

var errMalformedAudio = errors.New("malformed wav body")

func inspect(audio []byte) error {
	dec := wav.NewDecoder(bytes.NewReader(audio))
	if !dec.IsValidFile() {
		return errMalformedAudio
	}

	dur, err := dec.Duration()
	if err != nil {
		return fmt.Errorf("%w: %w", errMalformedAudio, err)
	}

	log.Debug("Synthesized", "bytes", len(audio), "duration", dur, "rate", dec.SampleRate, "channels", dec.NumChans)
	return nil
}
