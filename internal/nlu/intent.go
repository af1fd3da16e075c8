package nlu

// Intent is the meaning of a message addressed to the bot.
// The set of implementations is closed: only this package defines them.
type Intent interface {
	Name() string
	intent()
}

type Help struct{}

type GoodMorning struct{}

type Hello struct{}

type GoodEvening struct{}

// Say asks the bot to read Text aloud in its own voice.
type Say struct {
	Text string
}

func (Help) Name() string        { return "help" }
func (GoodMorning) Name() string { return "good_morning" }
func (Hello) Name() string       { return "hello" }
func (GoodEvening) Name() string { return "good_evening" }
func (Say) Name() string         { return "say" }

func (Help) intent()        {}
func (GoodMorning) intent() {}
func (Hello) intent()       {}
func (GoodEvening) intent() {}
func (Say) intent()         {}
