package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/clogkeeper/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

var (
	errUnlocked = errors.New("a container is already unlocked; lock it first")
	errUsage    = errors.New("usage")
)

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a recording stub.
type execIface interface {
	isUnlocked() bool

	Users(ctx context.Context, args []string) error
	Register(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error

	List(ctx context.Context, args []string) error
	Cd(ctx context.Context, args []string) error
	Pwd(ctx context.Context, args []string) error
	Tree(ctx context.Context, args []string) error
	Today(ctx context.Context, args []string) error
	Mkdir(ctx context.Context, args []string) error
	Touch(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Cat(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Write(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error

	Save(ctx context.Context, args []string) error
	Discard(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error
}

const (
	helpLocked = `Available commands:
  users                     list users with a container here
  register [name]           create a container for a new user
  unlock [name]             open a user's container
  exit | quit               leave the program`

	helpUnlocked = `Available commands:
  ls [path]                 list a folder
  cd [path]                 change folder (no path: root)
  pwd                       print the current folder
  tree                      print the whole tree
  today                     open the folder named after today's date
  mkdir <path>              create folders
  touch <path>              create an empty file
  mv <path> <folder>        move into another folder
  rename <path> <name>      rename in place
  rm <path>                 delete a file or folder
  cat <path>                print a file
  edit <path>               edit a file in the editor
  write <path>              replace a file with typed text
  import <host-file> <path> copy a host file into the container
  save                      write changes to disk
  discard                   drop unsaved changes and lock
  lock                      save and lock
  passwd                    change the password
  exit | quit               save, lock and leave`
)

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop ends on EOF or "exit"/"quit". Leaving locks an unlocked container
// first; if that save fails, exit is refused so no change is lost silently.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("clog> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			if a.isUnlocked() {
				report(a.Lock(ctx, nil))
			}
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !a.isUnlocked() {
			switch cmd {
			case "help":
				printlnFn(helpLocked)
			case "users":
				report(a.Users(ctx, args))
			case "register":
				report(a.Register(ctx, args))
			case "unlock", "login":
				report(a.Unlock(ctx, args))
			case "exit", "quit":
				printlnFn("Bye!")
				return
			default:
				printlnFn("Unknown command:", cmd, "(unlock a container first, or type 'help')")
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpUnlocked)
		case "users":
			report(a.Users(ctx, args))
		case "register", "unlock", "login":
			report(errUnlocked)
		case "l", "ls", "list":
			report(a.List(ctx, args))
		case "cd":
			report(a.Cd(ctx, args))
		case "pwd":
			report(a.Pwd(ctx, args))
		case "tree":
			report(a.Tree(ctx, args))
		case "today":
			report(a.Today(ctx, args))
		case "mkdir":
			report(a.Mkdir(ctx, args))
		case "touch":
			report(a.Touch(ctx, args))
		case "mv":
			report(a.Move(ctx, args))
		case "rename":
			report(a.Rename(ctx, args))
		case "rm":
			report(a.Remove(ctx, args))
		case "cat", "show":
			report(a.Cat(ctx, args))
		case "edit":
			report(a.Edit(ctx, args))
		case "write":
			report(a.Write(ctx, args))
		case "import":
			report(a.Import(ctx, args))
		case "save":
			report(a.Save(ctx, args))
		case "discard":
			report(a.Discard(ctx, args))
		case "lock", "logout":
			report(a.Lock(ctx, args))
		case "passwd":
			report(a.Passwd(ctx, args))
		case "exit", "quit":
			if err := a.Lock(ctx, nil); err != nil {
				report(err)
				printlnFn("Not leaving: use 'discard' to drop unsaved changes.")
				continue
			}
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", describe(err))
	}
}

func describe(err error) string {
	var u usageError
	if errors.As(err, &u) {
		return "usage: " + string(u)
	}
	return common.Describe(err)
}

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }
func (u usageError) Is(target error) bool { return target == errUsage }
