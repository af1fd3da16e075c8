package tts

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSynthesis wraps every failure of a synthesis request.
	ErrSynthesis = errors.New("speech synthesis failed")

	// ErrVoiceNotFound means the engine does not offer a character's voice.
	ErrVoiceNotFound = errors.New("voice not found")
)

// Character is a persona the bot can speak as.
type Character int

const (
	Zundamon Character = iota
)

// Voice names a speaker and one of its styles in the engine's catalog.
type Voice struct {
	Speaker string
	Style   string
}

var voices = map[Character]Voice{
	Zundamon: {Speaker: "ずんだもん", Style: "あまあま"},
}

// Characters lists every persona that must be resolvable at startup.
func Characters() []Character {
	return []Character{Zundamon}
}

func (c Character) Voice() Voice {
	return voices[c]
}

func (c Character) String() string {
	if v, ok := voices[c]; ok {
		return v.Speaker
	}
	return fmt.Sprintf("Character(%d)", int(c))
}

// Synthesizer turns text into WAV audio spoken by a character.
type Synthesizer interface {
	Synthesize(ctx context.Context, c Character, text string) ([]byte, error)
}
