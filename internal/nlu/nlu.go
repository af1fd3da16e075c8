package nlu

import (
	log "log/slog"
	"regexp"
	"strings"
)

// Rule maps a pattern over the command text to an intent.
// Build receives the submatches of Pattern.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Build   func(groups []string) Intent
}

// Matcher recognizes commands addressed to the bot. The prefix must capture
// the command text in its first group; rules are tried in order and the
// first match wins.
type Matcher struct {
	prefix *regexp.Regexp
	rules  []Rule
}

func NewMatcher(prefix *regexp.Regexp, rules ...Rule) *Matcher {
	return &Matcher{prefix: prefix, rules: rules}
}

// space is Unicode White_Space; RE2's \s only covers ASCII.
const space = `[\s\x{85}\x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}]`

var (
	prefixRe = regexp.MustCompile(`^!` + space + `*(?:ずんだ(?:もん)?|ズンダ(?:モン)?|zunda(?:monn?)?)` + space + `+([\s\S]*)$`)

	defaultRules = []Rule{
		{
			Name:    "help",
			Pattern: regexp.MustCompile(`^(?:help|\?|へるぷ|ヘルプ)$`),
			Build:   func([]string) Intent { return Help{} },
		},
		{
			Name:    "good_morning",
			Pattern: regexp.MustCompile(`^(?:おはよう(?:ございます)?!?|ぐ(?:っど?)?もーにんぐ?!?)$`),
			Build:   func([]string) Intent { return GoodMorning{} },
		},
		{
			Name:    "hello",
			Pattern: regexp.MustCompile(`^(?:こんにち[はわ]|はろー|ハロー|hello)$`),
			Build:   func([]string) Intent { return Hello{} },
		},
		{
			Name:    "good_evening",
			Pattern: regexp.MustCompile(`^(?:こんばん[はわ])$`),
			Build:   func([]string) Intent { return GoodEvening{} },
		},
		{
			Name:    "say",
			Pattern: regexp.MustCompile(`^(?:say|せい|言って)` + space + `+([\s\S]+)$`),
			Build:   func(groups []string) Intent { return Say{Text: groups[1]} },
		},
	}

	defaultMatcher = NewMatcher(prefixRe, defaultRules...)
)

// DefaultMatcher returns the command grammar the bot answers to.
func DefaultMatcher() *Matcher {
	return defaultMatcher
}

// Match classifies normalized text with the default grammar.
func Match(normalized string) (Intent, bool) {
	return defaultMatcher.Match(normalized)
}

// Match returns false when the text is not addressed to the bot or is not a
// known command. It never fails otherwise.
func (m *Matcher) Match(normalized string) (Intent, bool) {
	groups := m.prefix.FindStringSubmatch(normalized)
	if len(groups) < 2 {
		return nil, false
	}

	text := strings.TrimSpace(groups[1])
	for _, rule := range m.rules {
		if sub := rule.Pattern.FindStringSubmatch(text); sub != nil {
			log.Debug("Matched rule", "rule", rule.Name)
			return rule.Build(sub), true
		}
	}

	return nil, false
}
