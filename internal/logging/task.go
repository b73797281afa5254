package logging

import "go.uber.org/zap"

// Palette holds the visual tags assigned to site tasks. Tags are picked
// round-robin by task index so concurrent sites are easy to tell apart in
// interleaved output.
var Palette = []string{"cyan", "magenta", "yellow", "green", "blue", "red"}

// ForTask derives the logger a site task uses for every line it emits. The
// returned logger is an immutable child of base carrying the site label and
// its palette tag; nothing is stored globally, so concurrent tasks can never
// observe each other's decoration.
func ForTask(base *zap.Logger, site string, taskIndex int) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	if taskIndex < 0 {
		taskIndex = 0
	}
	tag := Palette[taskIndex%len(Palette)]
	return base.With(
		zap.String("site", site),
		zap.String("tag", tag),
	)
}
