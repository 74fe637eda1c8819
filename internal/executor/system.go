package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sjawhar/chanti/internal/command"
	"github.com/sjawhar/chanti/internal/logging"
)

const (
	keyBrightnessUp   = 144
	keyBrightnessDown = 145
	brightnessStep    = 6.25
)

var notificationSounds = []string{
	"/System/Library/Sounds/Tink.aiff",
	"/System/Library/Sounds/Pop.aiff",
	"/System/Library/Sounds/Glass.aiff",
}

// System performs actions on the local machine. Process actions work
// wherever gopsutil does; desktop actions use macOS automation and return
// ErrUnsupported elsewhere.
type System struct {
	goos           string
	screenshotDir  string
	sampleInterval time.Duration
	now            func() time.Time

	run    func(ctx context.Context, name string, args ...string) error
	spawn  func(name string) error
	exists func(path string) bool
}

// NewSystem returns a System that saves screenshots under screenshotDir
// (the user's Desktop when empty).
func NewSystem(screenshotDir string) *System {
	if screenshotDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			screenshotDir = filepath.Join(home, "Desktop")
		}
	}
	return &System{
		goos:           runtime.GOOS,
		screenshotDir:  screenshotDir,
		sampleInterval: time.Second,
		now:            time.Now,
		run:            runCommand,
		spawn:          spawnCommand,
		exists:         fileExists,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func spawnCommand(name string) error {
	cmd := exec.Command(name)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *System) darwin() bool { return s.goos == "darwin" }

func (s *System) osascript(ctx context.Context, script string) error {
	return s.run(ctx, "osascript", "-e", script)
}

func (s *System) Acknowledge(ctx context.Context) error {
	if !s.darwin() {
		logging.Debugw("wake acknowledged")
		return nil
	}
	for _, sound := range notificationSounds {
		if s.exists(sound) {
			return s.run(ctx, "afplay", sound)
		}
	}
	return s.osascript(ctx, "beep")
}

func (s *System) Speak(ctx context.Context, msg string) error {
	if msg == "" {
		return nil
	}
	if !s.darwin() {
		logging.Infow("say", "message", msg)
		return nil
	}
	return s.run(ctx, "say", msg)
}

func (s *System) SystemControl(ctx context.Context, a command.SystemControl) (Result, error) {
	if !s.darwin() {
		return Result{}, fmt.Errorf("system %s: %w", a.Op, ErrUnsupported)
	}

	var err error
	var say string
	switch a.Op {
	case command.SystemSleep:
		say, err = "Putting computer to sleep", s.run(ctx, "pmset", "sleepnow")
	case command.SystemRestart:
		say, err = "Restarting computer", s.osascript(ctx, `tell app "System Events" to restart`)
	case command.SystemShutdown:
		say, err = "Shutting down computer", s.osascript(ctx, `tell app "System Events" to shut down`)
	case command.SystemLock:
		say, err = "Locking screen", s.run(ctx, "pmset", "displaysleepnow")
	case command.SystemNightMode:
		say, err = "Toggled night mode", s.osascript(ctx,
			`tell application "System Events" to tell appearance preferences to set dark mode to not dark mode`)
	default:
		return Result{}, fmt.Errorf("system %s: %w", a.Op, ErrUnsupported)
	}
	if err != nil {
		return Result{}, fmt.Errorf("system %s: %w", a.Op, err)
	}
	return Result{Say: say}, nil
}

func (s *System) TakeScreenshot(ctx context.Context, a command.TakeScreenshot) (Result, error) {
	if !s.darwin() {
		return Result{}, fmt.Errorf("screenshot: %w", ErrUnsupported)
	}

	path := filepath.Join(s.screenshotDir, "screenshot_"+s.now().Format("20060102-150405")+".png")
	args := []string{path}
	say := "Took full screenshot"
	switch a.Area {
	case command.ScreenshotSelection:
		args = []string{"-i", path}
		say = "Took screenshot of selection"
	case command.ScreenshotWindow:
		args = []string{"-w", path}
		say = "Took screenshot of active window"
	}
	if err := s.run(ctx, "screencapture", args...); err != nil {
		return Result{}, fmt.Errorf("screenshot: %w", err)
	}
	return Result{Say: say, Details: []string{path}}, nil
}

func (s *System) OpenWebsite(ctx context.Context, a command.OpenWebsite) (Result, error) {
	if a.URL == "" {
		return Result{}, unknownWebsite(a.Name)
	}

	opener := "open"
	switch s.goos {
	case "darwin":
	case "linux", "freebsd", "openbsd":
		opener = "xdg-open"
	default:
		return Result{}, fmt.Errorf("open website: %w", ErrUnsupported)
	}
	if err := s.run(ctx, opener, a.URL); err != nil {
		return Result{}, fmt.Errorf("open %s: %w", a.URL, err)
	}
	return Result{Say: "Opening " + a.Name, Details: []string{a.URL}}, nil
}

func (s *System) activate(ctx context.Context, app string) error {
	if !s.darwin() {
		return ErrUnsupported
	}
	return s.osascript(ctx, fmt.Sprintf("tell application %q to activate", app))
}

func (s *System) SwitchToApp(ctx context.Context, a command.SwitchToApp) (Result, error) {
	if err := s.activate(ctx, a.Target); err != nil {
		return Result{}, fmt.Errorf("switch to %s: %w", a.Target, err)
	}
	return Result{Say: "Switched to " + a.Target}, nil
}

func (s *System) FocusApp(ctx context.Context, a command.FocusApp) (Result, error) {
	if err := s.activate(ctx, a.Target); err != nil {
		return Result{}, fmt.Errorf("focus %s: %w", a.Target, err)
	}
	return Result{Say: "Focused " + a.Target}, nil
}

func (s *System) StartProcess(ctx context.Context, a command.StartProcess) (Result, error) {
	var err error
	if s.darwin() {
		err = s.run(ctx, "open", "-a", a.Target)
	} else {
		err = s.spawn(a.Target)
	}
	if err != nil {
		return Result{}, fmt.Errorf("start %s: %w", a.Target, err)
	}
	return Result{Say: fmt.Sprintf("Started %s successfully", a.Target)}, nil
}

func (s *System) SetVolume(ctx context.Context, a command.SetVolume) (Result, error) {
	if !s.darwin() {
		return Result{}, fmt.Errorf("volume: %w", ErrUnsupported)
	}
	if err := s.osascript(ctx, fmt.Sprintf("set volume output volume %d", a.Level)); err != nil {
		return Result{}, fmt.Errorf("volume: %w", err)
	}
	return Result{Say: fmt.Sprintf("Volume set to %d percent", a.Level)}, nil
}

func (s *System) pressKey(ctx context.Context, code int) error {
	return s.osascript(ctx, fmt.Sprintf(`tell application "System Events" to key code %d`, code))
}

func (s *System) AdjustBrightness(ctx context.Context, a command.AdjustBrightness) (Result, error) {
	if !s.darwin() {
		return Result{}, fmt.Errorf("brightness: %w", ErrUnsupported)
	}
	code := keyBrightnessUp
	if a.Direction == command.DirectionDown {
		code = keyBrightnessDown
	}
	if err := s.pressKey(ctx, code); err != nil {
		return Result{}, fmt.Errorf("brightness %s: %w", a.Direction, err)
	}
	return Result{Say: "Brightness " + string(a.Direction)}, nil
}

// SetBrightness has no absolute control on macOS, so it drives the level to
// zero with the brightness-down key and then steps up to the target.
func (s *System) SetBrightness(ctx context.Context, a command.SetBrightness) (Result, error) {
	if !s.darwin() {
		return Result{}, fmt.Errorf("brightness: %w", ErrUnsupported)
	}

	down := int(100 / brightnessStep)
	for range down {
		if err := s.pressKey(ctx, keyBrightnessDown); err != nil {
			return Result{}, fmt.Errorf("brightness %d: %w", a.Level, err)
		}
	}
	up := int(float64(a.Level)/brightnessStep + 0.5)
	for range up {
		if err := s.pressKey(ctx, keyBrightnessUp); err != nil {
			return Result{}, fmt.Errorf("brightness %d: %w", a.Level, err)
		}
	}
	return Result{Say: fmt.Sprintf("Brightness set to %d percent", a.Level)}, nil
}

func (s *System) ShowHelp(_ context.Context, a command.ShowHelp) (Result, error) {
	return showHelp(a), nil
}
