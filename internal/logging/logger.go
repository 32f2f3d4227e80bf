// Package logging is the structured logger used by the session layer and
// the CLI. Log lines carry container paths, states and error kinds; they
// never carry folder names, file names or file contents.
package logging

import "context"

// Logger takes a message plus key/value pairs, e.g.
//
//	log.Info(ctx, "container saved", "path", path, "sections", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every line.
	With(args ...any) Logger
}
