package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
)

// Desktop sends native OS notifications. The platform backend is chosen once
// at construction; the scheduler never branches on platform.
type Desktop struct {
	appName string
	sound   bool
	timeout int // seconds, from the "long"/"short" duration setting

	send func(d *Desktop, title, message string) error
}

// NewDesktop builds a desktop notifier for the current OS. Returns ok=false
// when the host has no usable notification command, in which case the caller
// should fall back to the log notifier.
func NewDesktop(appName string, sound bool, duration string) (*Desktop, bool) {
	timeout := 5
	if duration == "long" {
		timeout = 10
	}
	d := &Desktop{appName: appName, sound: sound, timeout: timeout}

	switch runtime.GOOS {
	case "linux":
		if _, err := exec.LookPath("notify-send"); err != nil {
			slog.Warn("notify-send not found, desktop notifications disabled")
			return nil, false
		}
		d.send = sendNotifySend
	case "darwin":
		d.send = sendOsascript
	case "windows":
		d.send = sendPowershell
	default:
		slog.Warn("no desktop notification backend for platform", slog.String("goos", runtime.GOOS))
		return nil, false
	}
	return d, true
}

// Notify implements Notifier.
func (d *Desktop) Notify(reminderType, message string) {
	if err := d.send(d, TitleFor(reminderType), message); err != nil {
		recordFailure("desktop", err)
	}
}

func sendNotifySend(d *Desktop, title, message string) error {
	args := []string{
		"--app-name", d.appName,
		"--expire-time", strconv.Itoa(d.timeout * 1000),
		title, message,
	}
	return exec.Command("notify-send", args...).Run()
}

func sendOsascript(d *Desktop, title, message string) error {
	script := fmt.Sprintf("display notification %q with title %q", message, title)
	if d.sound {
		script += ` sound name "default"`
	}
	return exec.Command("osascript", "-e", script).Run()
}

func sendPowershell(d *Desktop, title, message string) error {
	// Burnt-toast style notification via the WinRT toast API; single quotes
	// doubled for PowerShell escaping.
	script := fmt.Sprintf(`
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$template.GetElementsByTagName('text').Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
$template.GetElementsByTagName('text').Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('%s').Show([Windows.UI.Notifications.ToastNotification]::new($template))`,
		psEscape(title), psEscape(message), psEscape(d.appName))
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

func psEscape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(out)
}
