// Package notice delivers leveled, transient user notices.
//
// The report view emits notices instead of rendering messages itself;
// the embedding surface decides how to present them (a toast, a banner,
// a log line). Notifier implementations must be safe for concurrent use.
package notice

import "log/slog"

// Level classifies a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notice is one transient message for the user.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives notices.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to the Notifier interface.
type Func func(n Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard is a Notifier that drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Success sends a success notice.
func Success(n Notifier, message string) {
	n.Notify(Notice{Level: LevelSuccess, Message: message})
}

// Error sends an error notice.
func Error(n Notifier, message string) {
	n.Notify(Notice{Level: LevelError, Message: message})
}

// Warning sends a warning notice.
func Warning(n Notifier, message string) {
	n.Notify(Notice{Level: LevelWarning, Message: message})
}

// Info sends an informational notice.
func Info(n Notifier, message string) {
	n.Notify(Notice{Level: LevelInfo, Message: message})
}

// Logger returns a Notifier that writes notices to l at the matching
// slog level.
func Logger(l *slog.Logger) Notifier {
	return Func(func(n Notice) {
		switch n.Level {
		case LevelError:
			l.Error(n.Message)
		case LevelWarning:
			l.Warn(n.Message)
		default:
			l.Info(n.Message)
		}
	})
}
