package executor

import (
	"context"

	"github.com/sjawhar/chanti/internal/command"
	"github.com/sjawhar/chanti/internal/logging"
)

// Narrator is a dry-run Executor: it performs nothing and reports what it
// would have done.
type Narrator struct{}

func NewNarrator() *Narrator { return &Narrator{} }

func (n *Narrator) Acknowledge(context.Context) error {
	logging.Infow("wake acknowledged")
	return nil
}

func (n *Narrator) Speak(_ context.Context, msg string) error {
	logging.Infow("narration", "message", msg)
	return nil
}

func (n *Narrator) describe(a command.Action) (Result, error) {
	logging.Infow("dry run", "action", a.Kind(), "detail", a.String())
	return Result{Say: "Would " + a.String()}, nil
}

func (n *Narrator) TerminateProcess(_ context.Context, a command.TerminateProcess) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) ForceKillProcess(_ context.Context, a command.ForceKillProcess) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) TerminateProcesses(_ context.Context, a command.TerminateProcesses) (Result, error) {
	res, err := n.describe(a)
	for _, tok := range a.Invalid {
		res.Details = append(res.Details, "Invalid PID: "+tok)
	}
	return res, err
}

func (n *Narrator) DescribeProcess(_ context.Context, a command.DescribeProcess) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) FindProcesses(_ context.Context, a command.FindProcesses) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) MonitorProcess(_ context.Context, a command.MonitorProcess) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) SystemControl(_ context.Context, a command.SystemControl) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) TakeScreenshot(_ context.Context, a command.TakeScreenshot) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) OpenWebsite(_ context.Context, a command.OpenWebsite) (Result, error) {
	if a.URL == "" {
		return Result{}, unknownWebsite(a.Name)
	}
	return n.describe(a)
}

func (n *Narrator) SwitchToApp(_ context.Context, a command.SwitchToApp) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) StartProcess(_ context.Context, a command.StartProcess) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) StopProcess(_ context.Context, a command.StopProcess) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) FocusApp(_ context.Context, a command.FocusApp) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) ListProcesses(_ context.Context, a command.ListProcesses) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) SetVolume(_ context.Context, a command.SetVolume) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) ShowSystemStats(_ context.Context, a command.ShowSystemStats) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) AdjustBrightness(_ context.Context, a command.AdjustBrightness) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) SetBrightness(_ context.Context, a command.SetBrightness) (Result, error) {
	return n.describe(a)
}

func (n *Narrator) ShowHelp(_ context.Context, a command.ShowHelp) (Result, error) {
	return showHelp(a), nil
}

func showHelp(a command.ShowHelp) Result {
	return Result{Say: "Showing available commands", Details: append([]string(nil), a.Lines...)}
}
