// Package logging is the structured logger every gophtodo component writes
// through. The production implementation is backed by log/slog.
package logging

import "context"

// Logger takes a message plus alternating key/value attributes:
//
//	log.Info(ctx, "task created", "user_id", userID, "task_id", taskID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds attributes to every record of the returned logger.
	With(args ...any) Logger
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

type nop struct{}

func (nop) Debug(context.Context, string, ...any) {}
func (nop) Info(context.Context, string, ...any)  {}
func (nop) Warn(context.Context, string, ...any)  {}
func (nop) Error(context.Context, string, ...any) {}
func (n nop) With(...any) Logger                  { return n }
