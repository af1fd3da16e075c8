package responder

import (
	"context"
	"fmt"
	log "log/slog"
	"math/rand/v2"

	"zunda/internal/nlu"
	"zunda/internal/tts"
)

const (
	DefaultHelp = "> 僕はずんだもんbotなのだ\n> 僕に話しかけるには最初に `!ずんだもん` をつけて話しかけてほしいのだ"

	// SpeechSuffix is appended to everything the bot is asked to say.
	SpeechSuffix = " なのだ"

	AudioFileName = "zundamon.wav"
)

var (
	GoodMorningReplies = []string{
		"おはようなのだ！",
		"おはようございますなのだ！",
		"ぐっどもーにんぐなのだ！",
		"朝なのだ！僕の朝食を作るのだ！",
		"今日の朝ごはんはずんだもちなのだ！",
	}

	HelloReplies = []string{
		"こんにちはなのだ！",
		"はろーなのだ！",
		"今日の昼ごはんはずんだもちなのだ！",
	}

	GoodEveningReplies = []string{
		"こんばんわなのだ！",
	}
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// Engine answers intents. It holds no per-message state and is safe for
// concurrent use as long as its Synthesizer and Picker are.
type Engine struct {
	synth tts.Synthesizer
	help  string
	pick  Picker
}

type Option func(*Engine)

func WithHelp(text string) Option {
	return func(e *Engine) {
		e.help = text
	}
}

func WithPicker(p Picker) Option {
	return func(e *Engine) {
		e.pick = p
	}
}

func New(synth tts.Synthesizer, opts ...Option) *Engine {
	e := &Engine{
		synth: synth,
		help:  DefaultHelp,
		pick:  rand.IntN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Respond never fails: a synthesis error is logged and turned into None so
// that nothing is posted to the channel.
func (e *Engine) Respond(ctx context.Context, in nlu.Intent) Response {
	switch in := in.(type) {
	case nlu.Help:
		return Text{Message: e.help}
	case nlu.GoodMorning:
		return e.choose(GoodMorningReplies)
	case nlu.Hello:
		return e.choose(HelloReplies)
	case nlu.GoodEvening:
		return e.choose(GoodEveningReplies)
	case nlu.Say:
		return e.say(ctx, in.Text)
	default:
		panic(fmt.Sprintf("responder: unhandled intent %T", in))
	}
}

func (e *Engine) choose(replies []string) Response {
	return Text{Message: replies[e.pick(len(replies))]}
}

func (e *Engine) say(ctx context.Context, payload string) Response {
	text := payload + SpeechSuffix

	audio, err := e.synth.Synthesize(ctx, tts.Zundamon, text)
	if err != nil {
		log.Error("Failed to synthesize", "text", text, "err", err)
		return None{}
	}

	return TextWithAudio{
		Message:  text,
		FileName: AudioFileName,
		Audio:    audio,
	}
}
