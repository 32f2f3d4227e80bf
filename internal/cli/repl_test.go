package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	unlocked bool
	lockErr  error

	calls []string
	args  [][]string
}

func (f *fakeExec) rec(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isUnlocked() bool { return f.unlocked }

func (f *fakeExec) Users(_ context.Context, a []string) error { return f.rec("users", a) }
func (f *fakeExec) Register(_ context.Context, a []string) error {
	f.unlocked = true
	return f.rec("register", a)
}
func (f *fakeExec) Unlock(_ context.Context, a []string) error {
	f.unlocked = true
	return f.rec("unlock", a)
}
func (f *fakeExec) List(_ context.Context, a []string) error   { return f.rec("ls", a) }
func (f *fakeExec) Cd(_ context.Context, a []string) error     { return f.rec("cd", a) }
func (f *fakeExec) Pwd(_ context.Context, a []string) error    { return f.rec("pwd", a) }
func (f *fakeExec) Tree(_ context.Context, a []string) error   { return f.rec("tree", a) }
func (f *fakeExec) Today(_ context.Context, a []string) error  { return f.rec("today", a) }
func (f *fakeExec) Mkdir(_ context.Context, a []string) error  { return f.rec("mkdir", a) }
func (f *fakeExec) Touch(_ context.Context, a []string) error  { return f.rec("touch", a) }
func (f *fakeExec) Move(_ context.Context, a []string) error   { return f.rec("mv", a) }
func (f *fakeExec) Rename(_ context.Context, a []string) error { return f.rec("rename", a) }
func (f *fakeExec) Remove(_ context.Context, a []string) error { return f.rec("rm", a) }
func (f *fakeExec) Cat(_ context.Context, a []string) error    { return f.rec("cat", a) }
func (f *fakeExec) Edit(_ context.Context, a []string) error   { return f.rec("edit", a) }
func (f *fakeExec) Write(_ context.Context, a []string) error  { return f.rec("write", a) }
func (f *fakeExec) Import(_ context.Context, a []string) error { return f.rec("import", a) }
func (f *fakeExec) Save(_ context.Context, a []string) error   { return f.rec("save", a) }
func (f *fakeExec) Discard(_ context.Context, a []string) error {
	f.unlocked = false
	return f.rec("discard", a)
}
func (f *fakeExec) Lock(_ context.Context, a []string) error {
	f.calls = append(f.calls, "lock")
	f.args = append(f.args, a)
	if f.lockErr != nil {
		return f.lockErr
	}
	f.unlocked = false
	return nil
}
func (f *fakeExec) Passwd(_ context.Context, a []string) error { return f.rec("passwd", a) }

func capturePrintln(t *testing.T) *strings.Builder {
	t.Helper()
	var sb strings.Builder
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		for i, v := range a {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(toString(v))
		}
		sb.WriteString("\n")
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &sb
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return ""
}

func script(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestRunREPL_LockedThenUnlockedCommands(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, script(
		"help",
		"ls",
		"unlock alice",
		"help",
		"ls notes",
		"cd /a",
		"mkdir a/b c",
		"mv x y",
		"cat x",
		"foobar",
		"exit",
	))

	assert.Equal(t, []string{"unlock", "ls", "cd", "mkdir", "mv", "cat", "lock"}, exec.calls)
	assert.Equal(t, []string{"alice"}, exec.args[0])
	assert.Equal(t, []string{"a/b", "c"}, exec.args[3])
	assert.Contains(t, out.String(), "clog> status > ")
	assert.Contains(t, out.String(), "register [name]")
	assert.Contains(t, out.String(), "unlock a container first")
	assert.Contains(t, out.String(), "Unknown command: foobar")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_RegisterRefusedWhileUnlocked(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{unlocked: true}
	runREPL(context.Background(), exec, func() string { return "" }, script("register bob", "quit"))

	assert.Equal(t, []string{"lock"}, exec.calls)
	assert.Contains(t, out.String(), "already unlocked")
}

func TestRunREPL_ExitRefusedWhenSaveFails(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{unlocked: true, lockErr: errors.New("disk full")}
	runREPL(context.Background(), exec, func() string { return "" }, script("exit", "discard", "exit"))

	assert.Equal(t, []string{"lock", "discard"}, exec.calls)
	assert.Contains(t, out.String(), "Error: disk full")
	assert.Contains(t, out.String(), "Not leaving")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_EOFLocks(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{unlocked: true}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("touch a")))

	assert.Equal(t, []string{"touch", "lock"}, exec.calls)
	assert.False(t, exec.unlocked)
}

func TestRunREPL_EmptyLinesAndAliases(t *testing.T) {
	capturePrintln(t)

	exec := &fakeExec{unlocked: true}
	runREPL(context.Background(), exec, func() string { return "" }, script("", "   ", "l", "show x", "logout", "login bob", "exit"))

	require.Equal(t, []string{"ls", "cat", "lock", "unlock", "lock"}, exec.calls)
}

func TestDescribe_Usage(t *testing.T) {
	err := usageError("cat <path>")
	assert.ErrorIs(t, err, errUsage)
	assert.Equal(t, "usage: cat <path>", describe(err))
}
