package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Chat(ctx context.Context, message string) error
	History(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Counts(ctx context.Context, args []string) error
	Backlog(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them until EOF,
// "exit" or "quit". Command errors are reported by the commands themselves.
//
//	Not logged in: help, register, login, exit
//	Logged in:     help, chat [text], history, (l)ist [status] [date],
//	               counts [date], backlog, logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "todo %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				fmt.Fprintln(w, "Available commands: register, login, exit")
			case "register":
				_ = a.Register(ctx)
			case "login":
				_ = a.Login(ctx)
			case "exit", "quit":
				fmt.Fprintln(w, "Bye!")
				return
			default:
				fmt.Fprintln(w, "Please log in first (type 'help' for commands)")
			}
			continue
		}

		switch cmd {
		case "help":
			fmt.Fprintln(w, "Available commands: chat [text], history, (l)ist [status] [date], counts [date], backlog, logout, exit")
		case "chat", "c":
			_ = a.Chat(ctx, strings.Join(args, " "))
		case "history":
			_ = a.History(ctx)
		case "l", "list":
			_ = a.List(ctx, args)
		case "counts":
			_ = a.Counts(ctx, args)
		case "backlog":
			_ = a.Backlog(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
