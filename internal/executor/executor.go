// Package executor carries out dispatched actions.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sjawhar/chanti/internal/command"
)

var (
	// ErrUnsupported is returned for actions the host platform cannot perform.
	ErrUnsupported = errors.New("not supported on this platform")
	// ErrProcessNotFound is returned when a pid names no running process.
	ErrProcessNotFound = errors.New("process not found")
)

// Result is what an action produced. Say is a short sentence suitable for
// speech; Details are extra lines for display and history.
type Result struct {
	Say     string   `json:"say"`
	Details []string `json:"details,omitempty"`
}

// Executor has one method per action plus the feedback hooks the session
// uses. Implementations must be safe to call from a single goroutine; the
// session never calls them concurrently.
type Executor interface {
	Acknowledge(ctx context.Context) error
	Speak(ctx context.Context, msg string) error

	TerminateProcess(ctx context.Context, a command.TerminateProcess) (Result, error)
	ForceKillProcess(ctx context.Context, a command.ForceKillProcess) (Result, error)
	TerminateProcesses(ctx context.Context, a command.TerminateProcesses) (Result, error)
	DescribeProcess(ctx context.Context, a command.DescribeProcess) (Result, error)
	FindProcesses(ctx context.Context, a command.FindProcesses) (Result, error)
	MonitorProcess(ctx context.Context, a command.MonitorProcess) (Result, error)
	SystemControl(ctx context.Context, a command.SystemControl) (Result, error)
	TakeScreenshot(ctx context.Context, a command.TakeScreenshot) (Result, error)
	OpenWebsite(ctx context.Context, a command.OpenWebsite) (Result, error)
	SwitchToApp(ctx context.Context, a command.SwitchToApp) (Result, error)
	StartProcess(ctx context.Context, a command.StartProcess) (Result, error)
	StopProcess(ctx context.Context, a command.StopProcess) (Result, error)
	FocusApp(ctx context.Context, a command.FocusApp) (Result, error)
	ListProcesses(ctx context.Context, a command.ListProcesses) (Result, error)
	SetVolume(ctx context.Context, a command.SetVolume) (Result, error)
	ShowSystemStats(ctx context.Context, a command.ShowSystemStats) (Result, error)
	AdjustBrightness(ctx context.Context, a command.AdjustBrightness) (Result, error)
	SetBrightness(ctx context.Context, a command.SetBrightness) (Result, error)
	ShowHelp(ctx context.Context, a command.ShowHelp) (Result, error)
}

// Apply routes action to the matching Executor method.
func Apply(ctx context.Context, ex Executor, action command.Action) (Result, error) {
	switch a := action.(type) {
	case command.TerminateProcess:
		return ex.TerminateProcess(ctx, a)
	case command.ForceKillProcess:
		return ex.ForceKillProcess(ctx, a)
	case command.TerminateProcesses:
		return ex.TerminateProcesses(ctx, a)
	case command.DescribeProcess:
		return ex.DescribeProcess(ctx, a)
	case command.FindProcesses:
		return ex.FindProcesses(ctx, a)
	case command.MonitorProcess:
		return ex.MonitorProcess(ctx, a)
	case command.SystemControl:
		return ex.SystemControl(ctx, a)
	case command.TakeScreenshot:
		return ex.TakeScreenshot(ctx, a)
	case command.OpenWebsite:
		return ex.OpenWebsite(ctx, a)
	case command.SwitchToApp:
		return ex.SwitchToApp(ctx, a)
	case command.StartProcess:
		return ex.StartProcess(ctx, a)
	case command.StopProcess:
		return ex.StopProcess(ctx, a)
	case command.FocusApp:
		return ex.FocusApp(ctx, a)
	case command.ListProcesses:
		return ex.ListProcesses(ctx, a)
	case command.SetVolume:
		return ex.SetVolume(ctx, a)
	case command.ShowSystemStats:
		return ex.ShowSystemStats(ctx, a)
	case command.AdjustBrightness:
		return ex.AdjustBrightness(ctx, a)
	case command.SetBrightness:
		return ex.SetBrightness(ctx, a)
	case command.ShowHelp:
		return ex.ShowHelp(ctx, a)
	case nil:
		return Result{}, errors.New("nil action")
	default:
		return Result{}, fmt.Errorf("unknown action %T", action)
	}
}

func unknownWebsite(name string) error {
	return fmt.Errorf("website %s not found in known websites", name)
}

var (
	_ Executor = (*System)(nil)
	_ Executor = (*Narrator)(nil)
)
