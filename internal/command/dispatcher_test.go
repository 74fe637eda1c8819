package command

import (
	"errors"
	"reflect"
	"testing"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(DefaultConfig())
}

func TestDispatchActions(t *testing.T) {
	d := newTestDispatcher()

	tests := []struct {
		text string
		want Action
	}{
		{"kill 123", TerminateProcess{PID: 123}},
		{"force kill 42", ForceKillProcess{PID: 42}},
		{"kill pids 10 abc 12", TerminateProcesses{PIDs: []int{10, 12}, Invalid: []string{"abc"}}},
		{"info 7", DescribeProcess{PID: 7}},
		{"find google chrome", FindProcesses{Term: "google chrome"}},
		{"monitor 99", MonitorProcess{PID: 99, Threshold: DefaultMonitorThreshold}},
		{"monitor 99 50", MonitorProcess{PID: 99, Threshold: 50}},
		{"go to sleep", SystemControl{Op: SystemSleep}},
		{"lock screen", SystemControl{Op: SystemLock}},
		{"shutdown", SystemControl{Op: SystemShutdown}},
		{"turn on dark mode", SystemControl{Op: SystemNightMode}},
		{"take a screenshot", TakeScreenshot{Area: ScreenshotFull}},
		{"screenshot window", TakeScreenshot{Area: ScreenshotWindow}},
		{"screenshot of this area", TakeScreenshot{Area: ScreenshotSelection}},
		{"open gmail", OpenWebsite{Name: "gmail", URL: "https://mail.google.com"}},
		{"open website example.org", OpenWebsite{Name: "example.org", URL: "https://example.org"}},
		{"open somewhere", OpenWebsite{Name: "somewhere"}},
		{"switch over to chrome", SwitchToApp{App: "chrome", Target: "Google Chrome"}},
		{"start notes", StartProcess{Name: "notes", Target: "Notes"}},
		{"stop spotify", StopProcess{Name: "spotify", Target: "spotify"}},
		{"focus activity monitor", FocusApp{App: "activity monitor", Target: "Activity Monitor"}},
		{"list processes", ListProcesses{}},
		{"please list every process", ListProcesses{}},
		{"volume 50", SetVolume{Level: 50}},
		{"volume 0", SetVolume{Level: 0}},
		{"volume 100", SetVolume{Level: 100}},
		{"system stats", ShowSystemStats{}},
		{"brightness up", AdjustBrightness{Direction: DirectionUp}},
		{"decrease the brightness", AdjustBrightness{Direction: DirectionDown}},
		{"brightness max", SetBrightness{Level: 100}},
		{"brightness minimum", SetBrightness{Level: 0}},
		{"brightness 75%", SetBrightness{Level: 75}},
		{"brightness set to about 40 percent please", SetBrightness{Level: 40}},
		{"brightness 10 no 30", SetBrightness{Level: 30}},
		{"  Volume   50 ", SetVolume{Level: 50}},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got, err := d.Dispatch(tc.text)
			if err != nil {
				t.Fatalf("Dispatch(%q) failed: %v", tc.text, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestDispatchErrors(t *testing.T) {
	d := newTestDispatcher()

	tests := []struct {
		text string
		kind error
	}{
		{"", ErrMissingArgument},
		{"   ", ErrMissingArgument},
		{"kill abc", ErrInvalidArgument},
		{"kill -5", ErrInvalidArgument},
		{"force kill x", ErrInvalidArgument},
		{"kill pids", ErrMissingArgument},
		{"info nope", ErrInvalidArgument},
		{"monitor 5 500", ErrInvalidArgument},
		{"monitor 5 lots", ErrInvalidArgument},
		{"switch to", ErrMissingArgument},
		{"start", ErrMissingArgument},
		{"stop", ErrMissingArgument},
		{"focus", ErrMissingArgument},
		{"open website", ErrMissingArgument},
		{"volume", ErrInvalidArgument},
		{"volume loud", ErrInvalidArgument},
		{"volume 150", ErrInvalidArgument},
		{"volume -1", ErrInvalidArgument},
		{"brightness", ErrMissingArgument},
		{"brightness please", ErrMissingArgument},
		{"brightness 120", ErrInvalidArgument},
		{"kill", ErrUnrecognized},
		{"force", ErrUnrecognized},
		{"force kill", ErrUnrecognized},
		{"make me a sandwich", ErrUnrecognized},
		{"sleep now", ErrUnrecognized},
		{"system stats please", ErrUnrecognized},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			action, err := d.Dispatch(tc.text)
			if err == nil {
				t.Fatalf("expected error for %q, got action %#v", tc.text, action)
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Message == "" {
				t.Fatal("expected a narration message")
			}
		})
	}
}

func TestDispatchRecordsCommandOnError(t *testing.T) {
	d := newTestDispatcher()

	_, err := d.Dispatch("Volume 150")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Command != "volume 150" {
		t.Fatalf("expected command %q, got %q", "volume 150", pe.Command)
	}
	if pe.Rule != "volume" {
		t.Fatalf("expected rule volume, got %q", pe.Rule)
	}
}

func TestRuleOrder(t *testing.T) {
	want := []string{
		"kill", "force kill", "kill pids", "info", "find", "monitor",
		"system control", "screenshot", "open", "switch", "start", "stop",
		"focus", "list processes", "volume", "system stats", "brightness", "help",
	}
	if got := RuleNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected rule order %v, got %v", want, got)
	}
}

func TestOverlappingRulesFirstMatchWins(t *testing.T) {
	d := newTestDispatcher()

	// "stop" is checked before "list processes".
	got, err := d.Dispatch("stop list process viewer")
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if _, ok := got.(StopProcess); !ok {
		t.Fatalf("expected StopProcess, got %#v", got)
	}

	// "screenshot" is checked before "open".
	got, err = d.Dispatch("open screenshot folder")
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if _, ok := got.(TakeScreenshot); !ok {
		t.Fatalf("expected TakeScreenshot, got %#v", got)
	}
}

func TestHelpReturnsCopy(t *testing.T) {
	d := newTestDispatcher()

	got, err := d.Dispatch("help")
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	help, ok := got.(ShowHelp)
	if !ok || len(help.Lines) == 0 {
		t.Fatalf("expected ShowHelp with lines, got %#v", got)
	}
	help.Lines[0] = "mutated"
	if HelpLines()[0] == "mutated" {
		t.Fatal("help lines share storage with the package table")
	}
}

func TestCustomTables(t *testing.T) {
	d := NewDispatcher(Config{
		Apps:     map[string]string{" Editor ": "Zed"},
		Websites: map[string]string{"Docs": "https://docs.example.com"},
	})

	got, err := d.Dispatch("start editor")
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got != (StartProcess{Name: "editor", Target: "Zed"}) {
		t.Fatalf("unexpected action %#v", got)
	}

	got, err = d.Dispatch("open docs")
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got != (OpenWebsite{Name: "docs", URL: "https://docs.example.com"}) {
		t.Fatalf("unexpected action %#v", got)
	}
}
