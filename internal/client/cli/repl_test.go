package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}

func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}

func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}

func (f *fakeExec) Chat(ctx context.Context, message string) error {
	f.calls = append(f.calls, "chat:"+message)
	return nil
}

func (f *fakeExec) History(ctx context.Context) error {
	f.calls = append(f.calls, "history")
	return nil
}

func (f *fakeExec) List(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "list:"+strings.Join(args, ","))
	return nil
}

func (f *fakeExec) Counts(ctx context.Context, args []string) error {
	f.calls = append(f.calls, "counts")
	return nil
}

func (f *fakeExec) Backlog(ctx context.Context) error {
	f.calls = append(f.calls, "backlog")
	return nil
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"chat too early",
		"login",
		"",
		"chat add milk to my list",
		"l completed 2025-03-10",
		"counts",
		"backlog",
		"history",
		"foobar",
		"logout",
		"backlog",
		"exit",
		"login",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader(input)), &out)

	assert.Equal(t, []string{
		"login",
		"chat:add milk to my list",
		"list:completed,2025-03-10",
		"counts",
		"backlog",
		"history",
		"logout",
	}, exec.calls)
	assert.Contains(t, out.String(), "Please log in first")
	assert.Contains(t, out.String(), "Unknown command: foobar")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	exec := &fakeExec{loggedIn: true}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "(alice)" }, bufio.NewReader(strings.NewReader("history")), &out)

	assert.Equal(t, []string{"history"}, exec.calls)
	assert.Contains(t, out.String(), "todo (alice)> ")
}
