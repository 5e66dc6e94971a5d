package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
)

// Prompts, swapped in tests.
var (
	readLine   = ReadLine
	readSecret = ReadSecret
)

func (a *App) credentials() (string, string, error) {
	userName, err := readLine(a.reader, "Enter username", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := readSecret(a.reader, a.out)
	if err != nil {
		return "", "", err
	}
	return userName, password, nil
}

func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}

	if _, err := a.backend.Register(ctx, userName, password); err != nil {
		fmt.Fprintf(a.out, "Registration failed: %v\n", err)
		return err
	}

	fmt.Fprintln(a.out, "Success! You can log in now.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}

	s, err := a.backend.Login(ctx, userName, password)
	if err != nil {
		fmt.Fprintf(a.out, "Login unsuccessful: %v\n", err)
		return err
	}

	a.userName = s.Username
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.backend.SetToken("")
	a.userName = ""
	return nil
}

// Chat sends message, or prompts for one when it is empty.
func (a *App) Chat(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		m, err := readLine(a.reader, "Say something", a.out)
		if err != nil {
			return err
		}
		message = m
	}
	if message == "" {
		return nil
	}

	r, err := a.backend.Chat(ctx, message)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	fmt.Fprintf(a.out, "assistant: %s\n", r.AgentResponse)
	return nil
}

func (a *App) History(ctx context.Context) error {
	msgs, err := a.backend.History(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	for _, m := range msgs {
		who := "assistant"
		if m.IsUser {
			who = "you"
		}
		fmt.Fprintf(a.out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), who, m.Content)
	}
	return nil
}

// List prints tasks; args are an optional status and an optional date.
func (a *App) List(ctx context.Context, args []string) error {
	var status, date string
	for _, arg := range args {
		if strings.Count(arg, "-") == 2 {
			date = arg
		} else {
			status = arg
		}
	}

	tasks, err := a.backend.ListTasks(ctx, status, date)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDESCRIPTION")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.CurrentStatus, t.Description)
	}
	return tw.Flush()
}

func (a *App) Counts(ctx context.Context, args []string) error {
	var date string
	if len(args) > 0 {
		date = args[0]
	}

	c, err := a.backend.Counts(ctx, date)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	fmt.Fprintf(a.out, "active: %d  completed: %d  backlog: %d  total: %d\n", c.Active, c.Completed, c.Backlog, c.Total)
	return nil
}

func (a *App) Backlog(ctx context.Context) error {
	msg, err := a.backend.MarkBacklog(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
