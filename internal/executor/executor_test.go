package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/sjawhar/chanti/internal/command"
)

type recorder struct {
	calls []string
}

func (r *recorder) hit(a command.Action) (Result, error) {
	r.calls = append(r.calls, a.Kind())
	return Result{Say: a.Kind()}, nil
}

func (r *recorder) Acknowledge(context.Context) error   { return nil }
func (r *recorder) Speak(context.Context, string) error { return nil }
func (r *recorder) TerminateProcess(_ context.Context, a command.TerminateProcess) (Result, error) {
	return r.hit(a)
}
func (r *recorder) ForceKillProcess(_ context.Context, a command.ForceKillProcess) (Result, error) {
	return r.hit(a)
}
func (r *recorder) TerminateProcesses(_ context.Context, a command.TerminateProcesses) (Result, error) {
	return r.hit(a)
}
func (r *recorder) DescribeProcess(_ context.Context, a command.DescribeProcess) (Result, error) {
	return r.hit(a)
}
func (r *recorder) FindProcesses(_ context.Context, a command.FindProcesses) (Result, error) {
	return r.hit(a)
}
func (r *recorder) MonitorProcess(_ context.Context, a command.MonitorProcess) (Result, error) {
	return r.hit(a)
}
func (r *recorder) SystemControl(_ context.Context, a command.SystemControl) (Result, error) {
	return r.hit(a)
}
func (r *recorder) TakeScreenshot(_ context.Context, a command.TakeScreenshot) (Result, error) {
	return r.hit(a)
}
func (r *recorder) OpenWebsite(_ context.Context, a command.OpenWebsite) (Result, error) {
	return r.hit(a)
}
func (r *recorder) SwitchToApp(_ context.Context, a command.SwitchToApp) (Result, error) {
	return r.hit(a)
}
func (r *recorder) StartProcess(_ context.Context, a command.StartProcess) (Result, error) {
	return r.hit(a)
}
func (r *recorder) StopProcess(_ context.Context, a command.StopProcess) (Result, error) {
	return r.hit(a)
}
func (r *recorder) FocusApp(_ context.Context, a command.FocusApp) (Result, error) {
	return r.hit(a)
}
func (r *recorder) ListProcesses(_ context.Context, a command.ListProcesses) (Result, error) {
	return r.hit(a)
}
func (r *recorder) SetVolume(_ context.Context, a command.SetVolume) (Result, error) {
	return r.hit(a)
}
func (r *recorder) ShowSystemStats(_ context.Context, a command.ShowSystemStats) (Result, error) {
	return r.hit(a)
}
func (r *recorder) AdjustBrightness(_ context.Context, a command.AdjustBrightness) (Result, error) {
	return r.hit(a)
}
func (r *recorder) SetBrightness(_ context.Context, a command.SetBrightness) (Result, error) {
	return r.hit(a)
}
func (r *recorder) ShowHelp(_ context.Context, a command.ShowHelp) (Result, error) {
	return r.hit(a)
}

func allActions() []command.Action {
	return []command.Action{
		command.TerminateProcess{PID: 1},
		command.ForceKillProcess{PID: 1},
		command.TerminateProcesses{PIDs: []int{1, 2}},
		command.DescribeProcess{PID: 1},
		command.FindProcesses{Term: "go"},
		command.MonitorProcess{PID: 1, Threshold: 80},
		command.SystemControl{Op: command.SystemLock},
		command.TakeScreenshot{Area: command.ScreenshotFull},
		command.OpenWebsite{Name: "github", URL: "https://github.com"},
		command.SwitchToApp{App: "chrome", Target: "Google Chrome"},
		command.StartProcess{Name: "notes", Target: "Notes"},
		command.StopProcess{Name: "notes", Target: "Notes"},
		command.FocusApp{App: "notes", Target: "Notes"},
		command.ListProcesses{},
		command.SetVolume{Level: 10},
		command.ShowSystemStats{},
		command.AdjustBrightness{Direction: command.DirectionUp},
		command.SetBrightness{Level: 50},
		command.ShowHelp{Lines: command.HelpLines()},
	}
}

func TestApplyRoutesEveryAction(t *testing.T) {
	rec := &recorder{}
	actions := allActions()

	for _, a := range actions {
		res, err := Apply(context.Background(), rec, a)
		if err != nil {
			t.Fatalf("Apply(%s) failed: %v", a.Kind(), err)
		}
		if res.Say != a.Kind() {
			t.Fatalf("Apply(%s) routed to %s", a.Kind(), res.Say)
		}
	}
	if len(rec.calls) != len(actions) {
		t.Fatalf("expected %d calls, got %d", len(actions), len(rec.calls))
	}
}

func TestApplyNilAction(t *testing.T) {
	if _, err := Apply(context.Background(), &recorder{}, nil); err == nil {
		t.Fatal("expected error for nil action")
	}
}

func TestNarratorDescribesWithoutActing(t *testing.T) {
	n := NewNarrator()

	for _, a := range allActions() {
		res, err := Apply(context.Background(), n, a)
		if err != nil {
			t.Fatalf("Apply(%s) failed: %v", a.Kind(), err)
		}
		if res.Say == "" {
			t.Fatalf("expected narration for %s", a.Kind())
		}
	}

	res, err := n.SetVolume(context.Background(), command.SetVolume{Level: 30})
	if err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	if res.Say != "Would volume 30%" {
		t.Fatalf("unexpected narration %q", res.Say)
	}
}

func TestNarratorReportsUnknownWebsite(t *testing.T) {
	_, err := NewNarrator().OpenWebsite(context.Background(), command.OpenWebsite{Name: "nowhere"})
	if err == nil || !strings.Contains(err.Error(), "nowhere") {
		t.Fatalf("expected unknown website error, got %v", err)
	}
}

func TestNarratorHelpCopiesLines(t *testing.T) {
	lines := []string{"a", "b"}
	res, err := NewNarrator().ShowHelp(context.Background(), command.ShowHelp{Lines: lines})
	if err != nil {
		t.Fatalf("ShowHelp failed: %v", err)
	}
	res.Details[0] = "changed"
	if lines[0] != "a" {
		t.Fatal("help details share storage with the action")
	}
}
