package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zunda/internal/nlu"
	"zunda/internal/tts"
)

type stubSynth struct {
	audio []byte
	err   error

	character tts.Character
	text      string
	calls     int
}

func (s *stubSynth) Synthesize(_ context.Context, c tts.Character, text string) ([]byte, error) {
	s.calls++
	s.character = c
	s.text = text
	return s.audio, s.err
}

func TestRespondHelp(t *testing.T) {
	e := New(&stubSynth{})

	got := e.Respond(context.Background(), nlu.Help{})
	assert.Equal(t, Text{Message: "> 僕はずんだもんbotなのだ\n> 僕に話しかけるには最初に `!ずんだもん` をつけて話しかけてほしいのだ"}, got)
}

func TestRespondHelpOverride(t *testing.T) {
	e := New(&stubSynth{}, WithHelp("custom"))
	assert.Equal(t, Text{Message: "custom"}, e.Respond(context.Background(), nlu.Help{}))
}

func TestRespondGreetingsAreCanned(t *testing.T) {
	tests := []struct {
		name    string
		intent  nlu.Intent
		replies []string
	}{
		{name: "good morning", intent: nlu.GoodMorning{}, replies: GoodMorningReplies},
		{name: "hello", intent: nlu.Hello{}, replies: HelloReplies},
		{name: "good evening", intent: nlu.GoodEvening{}, replies: GoodEveningReplies},
	}

	e := New(&stubSynth{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 50 {
				got, ok := e.Respond(context.Background(), tt.intent).(Text)
				require.True(t, ok)
				assert.Contains(t, tt.replies, got.Message)
			}
		})
	}
}

func TestRespondUsesPicker(t *testing.T) {
	var sizes []int
	pick := func(n int) int {
		sizes = append(sizes, n)
		return n - 1
	}
	e := New(&stubSynth{}, WithPicker(pick))

	assert.Equal(t, Text{Message: "今日の朝ごはんはずんだもちなのだ！"}, e.Respond(context.Background(), nlu.GoodMorning{}))
	assert.Equal(t, Text{Message: "今日の昼ごはんはずんだもちなのだ！"}, e.Respond(context.Background(), nlu.Hello{}))
	assert.Equal(t, Text{Message: "こんばんわなのだ！"}, e.Respond(context.Background(), nlu.GoodEvening{}))
	assert.Equal(t, []int{5, 3, 1}, sizes)
}

func TestRespondSay(t *testing.T) {
	synth := &stubSynth{audio: []byte("RIFF....WAVE")}
	e := New(synth)

	got := e.Respond(context.Background(), nlu.Say{Text: "hi"})
	assert.Equal(t, TextWithAudio{
		Message:  "hi なのだ",
		FileName: "zundamon.wav",
		Audio:    []byte("RIFF....WAVE"),
	}, got)
	assert.Equal(t, tts.Zundamon, synth.character)
	assert.Equal(t, "hi なのだ", synth.text)
}

func TestRespondSayFailureIsSilent(t *testing.T) {
	synth := &stubSynth{err: errors.New("engine down")}
	e := New(synth)

	got := e.Respond(context.Background(), nlu.Say{Text: "hi"})
	assert.Equal(t, None{}, got)
	assert.Equal(t, 1, synth.calls)
}

func TestRespondSayEmptyPayload(t *testing.T) {
	synth := &stubSynth{audio: []byte{1}}
	e := New(synth)

	got := e.Respond(context.Background(), nlu.Say{})
	assert.Equal(t, TextWithAudio{Message: " なのだ", FileName: "zundamon.wav", Audio: []byte{1}}, got)
}

func TestRespondCoversEveryIntent(t *testing.T) {
	e := New(&stubSynth{audio: []byte{1}})
	for _, in := range []nlu.Intent{nlu.Help{}, nlu.GoodMorning{}, nlu.Hello{}, nlu.GoodEvening{}, nlu.Say{Text: "x"}} {
		assert.NotPanics(t, func() {
			assert.NotEqual(t, None{}, e.Respond(context.Background(), in))
		}, "intent %s", in.Name())
	}
}

func TestResponseKinds(t *testing.T) {
	assert.Equal(t, "none", None{}.Kind())
	assert.Equal(t, "text", Text{}.Kind())
	assert.Equal(t, "audio", TextWithAudio{}.Kind())
}
