package command

import (
	"math"
	"strconv"
	"strings"
)

type rule struct {
	name  string
	match func(in input) bool
	parse func(d *Dispatcher, in input) (Action, error)
}

// rules is ordered. Several patterns overlap ("kill" / "kill pids",
// "list ... process" / anything mentioning a process), so moving an entry
// changes which Action a sentence produces.
var rules = []rule{
	{
		name:  "kill",
		match: func(in input) bool { return in.first() == "kill" && len(in.tokens) > 1 && in.arg(1) != "pids" },
		parse: func(_ *Dispatcher, in input) (Action, error) {
			pid, ok := parsePID(in.arg(1))
			if !ok {
				return nil, invalid("kill", "Please provide a valid PID number")
			}
			return TerminateProcess{PID: pid}, nil
		},
	},
	{
		name:  "force kill",
		match: func(in input) bool { return in.first() == "force" && len(in.tokens) > 2 && in.arg(1) == "kill" },
		parse: func(_ *Dispatcher, in input) (Action, error) {
			pid, ok := parsePID(in.arg(2))
			if !ok {
				return nil, invalid("force kill", "Please provide a valid PID number")
			}
			return ForceKillProcess{PID: pid}, nil
		},
	},
	{
		name:  "kill pids",
		match: func(in input) bool { return in.first() == "kill" && in.arg(1) == "pids" },
		parse: func(_ *Dispatcher, in input) (Action, error) {
			if len(in.tokens) < 3 {
				return nil, missing("kill pids", "Please provide valid PID numbers")
			}
			action := TerminateProcesses{}
			for _, tok := range in.tokens[2:] {
				if pid, ok := parsePID(tok); ok {
					action.PIDs = append(action.PIDs, pid)
				} else {
					action.Invalid = append(action.Invalid, tok)
				}
			}
			return action, nil
		},
	},
	{
		name:  "info",
		match: func(in input) bool { return in.first() == "info" && len(in.tokens) > 1 },
		parse: func(_ *Dispatcher, in input) (Action, error) {
			pid, ok := parsePID(in.arg(1))
			if !ok {
				return nil, invalid("info", "Please provide a valid PID number")
			}
			return DescribeProcess{PID: pid}, nil
		},
	},
	{
		name:  "find",
		match: func(in input) bool { return in.first() == "find" && len(in.tokens) > 1 },
		parse: func(_ *Dispatcher, in input) (Action, error) {
			return FindProcesses{Term: in.rest(1)}, nil
		},
	},
	{
		name:  "monitor",
		match: func(in input) bool { return in.first() == "monitor" && len(in.tokens) > 1 },
		parse: func(_ *Dispatcher, in input) (Action, error) {
			pid, ok := parsePID(in.arg(1))
			if !ok {
				return nil, invalid("monitor", "Please provide a valid PID number")
			}
			threshold := DefaultMonitorThreshold
			if len(in.tokens) > 2 {
				v, err := strconv.ParseFloat(strings.TrimSuffix(in.arg(2), "%"), 64)
				if err != nil || math.IsNaN(v) || v < 0 || v > 100 {
					return nil, invalid("monitor", "Threshold should be between 0 and 100 percent")
				}
				threshold = v
			}
			return MonitorProcess{PID: pid, Threshold: threshold}, nil
		},
	},
	{
		name: "system control",
		match: func(in input) bool {
			_, exact := systemPhrases[in.text]
			return exact || in.contains("night mode") || in.contains("dark mode")
		},
		parse: func(_ *Dispatcher, in input) (Action, error) {
			if op, ok := systemPhrases[in.text]; ok {
				return SystemControl{Op: op}, nil
			}
			return SystemControl{Op: SystemNightMode}, nil
		},
	},
	{
		name:  "screenshot",
		match: func(in input) bool { return in.contains("screenshot") },
		parse: func(_ *Dispatcher, in input) (Action, error) {
			switch {
			case in.contains("window"):
				return TakeScreenshot{Area: ScreenshotWindow}, nil
			case in.contains("selection"), in.contains("area"):
				return TakeScreenshot{Area: ScreenshotSelection}, nil
			default:
				return TakeScreenshot{Area: ScreenshotFull}, nil
			}
		},
	},
	{
		name:  "open",
		match: func(in input) bool { return in.first() == "open" && len(in.tokens) > 1 },
		parse: func(d *Dispatcher, in input) (Action, error) {
			name := in.rest(1)
			if in.arg(1) == "website" {
				name = in.rest(2)
			}
			if name == "" {
				return nil, missing("open", "Please say which website to open")
			}
			return OpenWebsite{Name: name, URL: d.resolveWebsite(name)}, nil
		},
	},
	{
		name:  "switch",
		match: func(in input) bool { return in.first() == "switch" && lastIndex(in.tokens, "to") > 0 },
		parse: func(d *Dispatcher, in input) (Action, error) {
			app := in.rest(lastIndex(in.tokens, "to") + 1)
			if app == "" {
				return nil, missing("switch", "Please say which application to switch to")
			}
			return SwitchToApp{App: app, Target: d.resolveApp(app)}, nil
		},
	},
	{
		name:  "start",
		match: func(in input) bool { return in.first() == "start" },
		parse: func(d *Dispatcher, in input) (Action, error) {
			name := in.rest(1)
			if name == "" {
				return nil, missing("start", "Please say which application to start")
			}
			return StartProcess{Name: name, Target: d.resolveApp(name)}, nil
		},
	},
	{
		name:  "stop",
		match: func(in input) bool { return in.first() == "stop" },
		parse: func(d *Dispatcher, in input) (Action, error) {
			name := in.rest(1)
			if name == "" {
				return nil, missing("stop", "Please say which application to stop")
			}
			return StopProcess{Name: name, Target: d.resolveApp(name)}, nil
		},
	},
	{
		name:  "focus",
		match: func(in input) bool { return in.first() == "focus" },
		parse: func(d *Dispatcher, in input) (Action, error) {
			app := in.rest(1)
			if app == "" {
				return nil, missing("focus", "Please say which application to focus")
			}
			return FocusApp{App: app, Target: d.resolveApp(app)}, nil
		},
	},
	{
		name:  "list processes",
		match: func(in input) bool { return in.contains("list") && in.contains("process") },
		parse: func(_ *Dispatcher, _ input) (Action, error) { return ListProcesses{}, nil },
	},
	{
		name:  "volume",
		match: func(in input) bool { return in.first() == "volume" },
		parse: func(_ *Dispatcher, in input) (Action, error) {
			level, err := strconv.Atoi(in.arg(1))
			if err != nil {
				return nil, invalid("volume", "Please specify a volume level between 0 and 100")
			}
			if !validPercent(level) {
				return nil, invalid("volume", "Volume level should be between 0 and 100")
			}
			return SetVolume{Level: level}, nil
		},
	},
	{
		name:  "system stats",
		match: func(in input) bool { return in.text == "system stats" },
		parse: func(_ *Dispatcher, _ input) (Action, error) { return ShowSystemStats{}, nil },
	},
	{
		name:  "brightness",
		match: func(in input) bool { return in.contains("brightness") },
		parse: parseBrightness,
	},
	{
		name:  "help",
		match: func(in input) bool { return in.text == "help" },
		parse: func(_ *Dispatcher, _ input) (Action, error) {
			return ShowHelp{Lines: HelpLines()}, nil
		},
	},
}

var systemPhrases = map[string]SystemOp{
	"sleep":       SystemSleep,
	"go to sleep": SystemSleep,
	"restart":     SystemRestart,
	"shutdown":    SystemShutdown,
	"lock":        SystemLock,
	"lock screen": SystemLock,
}

// RuleNames returns the rule names in evaluation order.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}

// parseBrightness keeps the "last number wins" reading, so "set brightness to
// about 40 percent please" means 40 even if other numbers precede it.
func parseBrightness(_ *Dispatcher, in input) (Action, error) {
	if len(in.tokens) < 2 {
		return nil, missing("brightness", "Please specify brightness level. You can say: brightness up, down, maximum, minimum, or a number between 0 and 100 percent")
	}

	second := in.arg(1)
	switch {
	case second == "up" || in.contains("increase"):
		return AdjustBrightness{Direction: DirectionUp}, nil
	case second == "down" || in.contains("decrease"):
		return AdjustBrightness{Direction: DirectionDown}, nil
	case second == "maximum" || second == "max" || in.contains("full"):
		return SetBrightness{Level: 100}, nil
	case second == "minimum" || second == "min":
		return SetBrightness{Level: 0}, nil
	}

	stripped := strings.ReplaceAll(strings.ReplaceAll(in.text, "%", ""), "percent", "")
	found := false
	level := 0
	for _, tok := range strings.Fields(stripped) {
		if !isDigits(tok) {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			n = math.MaxInt
		}
		level = n
		found = true
	}

	if !found {
		return nil, missing("brightness", "Please specify a valid brightness level between 0 and 100 percent")
	}
	if !validPercent(level) {
		return nil, invalid("brightness", "Brightness level should be between 0 and 100 percent")
	}
	return SetBrightness{Level: level}, nil
}

func parsePID(tok string) (int, bool) {
	pid, err := strconv.Atoi(tok)
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func validPercent(v int) bool {
	return v >= 0 && v <= 100
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func lastIndex(tokens []string, word string) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i] == word {
			return i
		}
	}
	return -1
}
