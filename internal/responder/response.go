package responder

// Response is what the bot sends back for an intent.
// The set of implementations is closed: only this package defines them.
type Response interface {
	Kind() string
	response()
}

// None means the bot stays silent.
type None struct{}

type Text struct {
	Message string
}

// TextWithAudio carries a message plus a WAV attachment. The receiver owns
// Audio once it has been returned.
type TextWithAudio struct {
	Message  string
	FileName string
	Audio    []byte
}

func (None) Kind() string          { return "none" }
func (Text) Kind() string          { return "text" }
func (TextWithAudio) Kind() string { return "audio" }

func (None) response()          {}
func (Text) response()          {}
func (TextWithAudio) response() {}
