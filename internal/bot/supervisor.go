// ABOUTME: Last-resort supervisor for fire-and-forget background tasks
// ABOUTME: Logs failures and panics from unobserved goroutines; never takes the process down

package bot

import (
	"log/slog"
	"runtime/debug"
)

// Supervise runs fn on a new goroutine and observes its outcome. A returned
// error or a panic is logged and swallowed: a single bad background task must
// not take down service for unrelated in-flight conversations. All
// fire-and-forget goroutines in the gateway go through this.
func Supervise(logger *slog.Logger, name string, fn func() error) {
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("background task panicked",
					"task", name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		if err := fn(); err != nil {
			logger.Error("background task failed", "task", name, "error", err)
		}
	}()
}
