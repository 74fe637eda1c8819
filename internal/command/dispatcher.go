package command

import (
	"errors"
	"strings"
)

// Config holds the lookup tables the dispatcher resolves arguments against.
type Config struct {
	// Apps maps a spoken application name to the name the executor launches.
	Apps map[string]string `yaml:"apps"`
	// Websites maps a spoken site name to its URL.
	Websites map[string]string `yaml:"websites"`
}

// DefaultConfig returns the built-in application and website tables.
func DefaultConfig() Config {
	return Config{
		Apps: map[string]string{
			"chrome":             "Google Chrome",
			"safari":             "Safari",
			"firefox":            "Firefox",
			"terminal":           "Terminal",
			"notes":              "Notes",
			"calculator":         "Calculator",
			"system preferences": "System Preferences",
			"settings":           "System Settings",
			"mail":               "Mail",
			"messages":           "Messages",
			"calendar":           "Calendar",
			"photos":             "Photos",
			"music":              "Music",
			"maps":               "Maps",
			"finder":             "Finder",
			"preview":            "Preview",
			"textedit":           "TextEdit",
			"activity monitor":   "Activity Monitor",
			"app store":          "App Store",
			"facetime":           "FaceTime",
			"keynote":            "Keynote",
			"pages":              "Pages",
			"numbers":            "Numbers",
		},
		Websites: map[string]string{
			"gmail":    "https://mail.google.com",
			"youtube":  "https://www.youtube.com",
			"google":   "https://www.google.com",
			"maps":     "https://maps.google.com",
			"drive":    "https://drive.google.com",
			"calendar": "https://calendar.google.com",
			"github":   "https://github.com",
			"linkedin": "https://linkedin.com",
			"amazon":   "https://amazon.com",
			"netflix":  "https://netflix.com",
		},
	}
}

var directDomains = []string{".com", ".org", ".net", ".edu"}

// Dispatcher is stateless after construction and safe for concurrent use.
type Dispatcher struct {
	apps     map[string]string
	websites map[string]string
}

func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{
		apps:     lowerKeys(cfg.Apps),
		websites: lowerKeys(cfg.Websites),
	}
}

// Dispatch parses text into an Action. Rules are tried in the order returned
// by RuleNames and the first rule whose pattern matches decides the outcome,
// including its argument errors.
func (d *Dispatcher) Dispatch(text string) (Action, error) {
	in := newInput(text)
	if len(in.tokens) == 0 {
		return nil, &ParseError{Kind: ErrMissingArgument, Message: "No command received"}
	}

	for _, r := range rules {
		if !r.match(in) {
			continue
		}
		action, err := r.parse(d, in)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Command = in.text
			}
			return nil, err
		}
		return action, nil
	}

	return nil, &ParseError{
		Kind:    ErrUnrecognized,
		Command: in.text,
		Message: "I didn't understand that command. Say 'help' for available commands",
	}
}

func (d *Dispatcher) resolveApp(name string) string {
	if target, ok := d.apps[name]; ok {
		return target
	}
	return name
}

func (d *Dispatcher) resolveWebsite(name string) string {
	if url, ok := d.websites[name]; ok {
		return url
	}
	for _, suffix := range directDomains {
		if strings.HasSuffix(name, suffix) {
			return "https://" + name
		}
	}
	return ""
}

type input struct {
	text   string
	tokens []string
}

func newInput(text string) input {
	tokens := strings.Fields(strings.ToLower(text))
	return input{text: strings.Join(tokens, " "), tokens: tokens}
}

func (in input) first() string {
	if len(in.tokens) == 0 {
		return ""
	}
	return in.tokens[0]
}

func (in input) arg(i int) string {
	if i >= len(in.tokens) {
		return ""
	}
	return in.tokens[i]
}

func (in input) rest(from int) string {
	if from >= len(in.tokens) {
		return ""
	}
	return strings.Join(in.tokens[from:], " ")
}

func (in input) contains(sub string) bool {
	return strings.Contains(in.text, sub)
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
