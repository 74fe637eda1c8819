// Package command maps a finished spoken command to exactly one typed Action.
package command

import (
	"fmt"
	"strings"
)

// Action is a fully parsed user intent. The set of implementations is closed.
type Action interface {
	// Kind is a stable snake_case name used in logs, history and events.
	Kind() string
	fmt.Stringer
	sealed()
}

type SystemOp string

const (
	SystemSleep     SystemOp = "sleep"
	SystemRestart   SystemOp = "restart"
	SystemShutdown  SystemOp = "shutdown"
	SystemLock      SystemOp = "lock"
	SystemNightMode SystemOp = "night mode"
)

type ScreenshotKind string

const (
	ScreenshotFull      ScreenshotKind = "full"
	ScreenshotWindow    ScreenshotKind = "window"
	ScreenshotSelection ScreenshotKind = "selection"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// DefaultMonitorThreshold is used when "monitor <pid>" names no threshold.
const DefaultMonitorThreshold = 80.0

type TerminateProcess struct{ PID int }

type ForceKillProcess struct{ PID int }

// TerminateProcesses carries every id that parsed; tokens that were not
// integers are kept in Invalid so they can be reported one by one.
type TerminateProcesses struct {
	PIDs    []int
	Invalid []string
}

type DescribeProcess struct{ PID int }

type FindProcesses struct{ Term string }

type MonitorProcess struct {
	PID       int
	Threshold float64
}

type SystemControl struct{ Op SystemOp }

type TakeScreenshot struct{ Area ScreenshotKind }

// OpenWebsite.URL is empty when the name matched no known site or domain.
type OpenWebsite struct {
	Name string
	URL  string
}

// Target fields hold the application name after alias resolution.
type SwitchToApp struct {
	App    string
	Target string
}

type StartProcess struct {
	Name   string
	Target string
}

type StopProcess struct {
	Name   string
	Target string
}

type FocusApp struct {
	App    string
	Target string
}

type ListProcesses struct{}

type SetVolume struct{ Level int }

type ShowSystemStats struct{}

type AdjustBrightness struct{ Direction Direction }

type SetBrightness struct{ Level int }

type ShowHelp struct{ Lines []string }

func (TerminateProcess) Kind() string   { return "terminate_process" }
func (ForceKillProcess) Kind() string   { return "force_kill_process" }
func (TerminateProcesses) Kind() string { return "terminate_processes" }
func (DescribeProcess) Kind() string    { return "describe_process" }
func (FindProcesses) Kind() string      { return "find_processes" }
func (MonitorProcess) Kind() string     { return "monitor_process" }
func (SystemControl) Kind() string      { return "system_control" }
func (TakeScreenshot) Kind() string     { return "take_screenshot" }
func (OpenWebsite) Kind() string        { return "open_website" }
func (SwitchToApp) Kind() string        { return "switch_to_app" }
func (StartProcess) Kind() string       { return "start_process" }
func (StopProcess) Kind() string        { return "stop_process" }
func (FocusApp) Kind() string           { return "focus_app" }
func (ListProcesses) Kind() string      { return "list_processes" }
func (SetVolume) Kind() string          { return "set_volume" }
func (ShowSystemStats) Kind() string    { return "show_system_stats" }
func (AdjustBrightness) Kind() string   { return "adjust_brightness" }
func (SetBrightness) Kind() string      { return "set_brightness" }
func (ShowHelp) Kind() string           { return "show_help" }

func (a TerminateProcess) String() string { return fmt.Sprintf("terminate pid %d", a.PID) }
func (a ForceKillProcess) String() string { return fmt.Sprintf("force kill pid %d", a.PID) }
func (a TerminateProcesses) String() string {
	ids := make([]string, 0, len(a.PIDs))
	for _, pid := range a.PIDs {
		ids = append(ids, fmt.Sprint(pid))
	}
	return "terminate pids " + strings.Join(ids, " ")
}
func (a DescribeProcess) String() string { return fmt.Sprintf("describe pid %d", a.PID) }
func (a FindProcesses) String() string   { return fmt.Sprintf("find processes matching %q", a.Term) }
func (a MonitorProcess) String() string {
	return fmt.Sprintf("monitor pid %d above %.1f%%", a.PID, a.Threshold)
}
func (a SystemControl) String() string  { return "system " + string(a.Op) }
func (a TakeScreenshot) String() string { return string(a.Area) + " screenshot" }
func (a OpenWebsite) String() string    { return "open website " + a.Name }
func (a SwitchToApp) String() string    { return "switch to " + a.Target }
func (a StartProcess) String() string   { return "start " + a.Target }
func (a StopProcess) String() string    { return "stop " + a.Target }
func (a FocusApp) String() string       { return "focus " + a.Target }
func (ListProcesses) String() string    { return "list processes" }
func (a SetVolume) String() string      { return fmt.Sprintf("volume %d%%", a.Level) }
func (ShowSystemStats) String() string  { return "system stats" }
func (a AdjustBrightness) String() string {
	return "brightness " + string(a.Direction)
}
func (a SetBrightness) String() string { return fmt.Sprintf("brightness %d%%", a.Level) }
func (ShowHelp) String() string        { return "help" }

func (TerminateProcess) sealed()   {}
func (ForceKillProcess) sealed()   {}
func (TerminateProcesses) sealed() {}
func (DescribeProcess) sealed()    {}
func (FindProcesses) sealed()      {}
func (MonitorProcess) sealed()     {}
func (SystemControl) sealed()      {}
func (TakeScreenshot) sealed()     {}
func (OpenWebsite) sealed()        {}
func (SwitchToApp) sealed()        {}
func (StartProcess) sealed()       {}
func (StopProcess) sealed()        {}
func (FocusApp) sealed()           {}
func (ListProcesses) sealed()      {}
func (SetVolume) sealed()          {}
func (ShowSystemStats) sealed()    {}
func (AdjustBrightness) sealed()   {}
func (SetBrightness) sealed()      {}
func (ShowHelp) sealed()           {}
