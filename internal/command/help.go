package command

var helpLines = []string{
	"Available commands:",
	"Application control:",
	"  start <app> - launch an application",
	"  stop <app> - close an application",
	"  focus <app> - bring an application to front",
	"  switch to <app> - switch to a running application",
	"System control:",
	"  sleep, go to sleep - put the computer to sleep",
	"  restart - restart the computer",
	"  shutdown - shut the computer down",
	"  lock, lock screen - lock the screen",
	"  night mode, dark mode - toggle dark mode",
	"Screenshots:",
	"  screenshot - full screen",
	"  screenshot window - active window",
	"  screenshot selection - selected area",
	"Websites:",
	"  open <website> - open a website, e.g. open gmail",
	"Display:",
	"  brightness up, brightness down",
	"  brightness <0-100>",
	"  brightness maximum, brightness minimum",
	"Processes:",
	"  list processes - show running processes",
	"  find <name> - search processes",
	"  info <pid> - describe a process",
	"  kill <pid>, force kill <pid>, kill pids <pid>...",
	"  monitor <pid> [threshold] - watch CPU usage",
	"System information:",
	"  system stats - CPU, memory and disk usage",
	"Volume:",
	"  volume <0-100>",
	"Help:",
	"  help - show this message",
}

// HelpLines returns a copy of the help text.
func HelpLines() []string {
	return append([]string(nil), helpLines...)
}
