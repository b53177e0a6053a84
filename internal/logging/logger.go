package logging

import (
	"log/slog"
	"os"
)

// Setup installs the process-wide JSON logger on stdout. Outside production
// the level drops to debug so issued magic links and webhook traffic show
// up in the console.
func Setup(production bool) {
	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
