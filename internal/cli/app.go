package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/clogkeeper/internal/config"
	"github.com/dmitrijs2005/clogkeeper/internal/editor"
	"github.com/dmitrijs2005/clogkeeper/internal/logging"
	"github.com/dmitrijs2005/clogkeeper/internal/profiles"
	"github.com/dmitrijs2005/clogkeeper/internal/session"
	"github.com/dmitrijs2005/clogkeeper/internal/storage"
	"github.com/dmitrijs2005/clogkeeper/internal/vfs"
	"github.com/spf13/afero"
)

// App is the state of one interactive shell: at most one unlocked session
// and the current folder inside it.
type App struct {
	config   *config.Config
	manager  *session.Manager
	registry *profiles.Registry
	editor   *editor.Editor
	hostFs   afero.Fs
	log      logging.Logger
	now      func() time.Time
	db       *sql.DB

	session  *session.Session
	cwd      vfs.NodeID
	userName string

	reader *bufio.Reader
	out    io.Writer
}

// NewApp wires the shell to the OS filesystem, the profile registry in the
// data directory and the configured editor.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := profiles.InitDatabase(ctx, filepath.Join(c.DataDir, profiles.DBFileName))
	if err != nil {
		log.Error(ctx, "error initializing profile registry", "error", err)
		return nil, err
	}

	m := session.NewManager(storage.New(nil),
		session.WithCipher(c.CipherSuite()),
		session.WithKDFParams(c.KDFParams()),
		session.WithLogger(log),
	)

	a := newApp(c, m, profiles.NewRegistry(db), editor.New(editor.WithCommand(c.Editor)), log)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, m *session.Manager, r *profiles.Registry, ed *editor.Editor, log logging.Logger) *App {
	return &App{
		config:   c,
		manager:  m,
		registry: r,
		editor:   ed,
		hostFs:   afero.NewOsFs(),
		log:      log,
		now:      time.Now,
		cwd:      vfs.RootID,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run shows the known users and starts the shell. It returns when the user
// exits or stdin is closed; an unlocked container is saved and locked on
// the way out.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to clog (type 'help' for commands)")
	if err := a.Users(ctx, nil); err != nil {
		fmt.Fprintln(a.out, "Error:", describe(err))
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close releases the registry database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) isUnlocked() bool {
	return a.session != nil && a.session.State() == session.StateUnlocked
}

func (a *App) getStatus() string {
	if !a.isUnlocked() {
		return "(locked)"
	}
	p, err := a.session.Path(a.cwd)
	if err != nil {
		p = "?"
	}
	s := a.userName + " " + p
	if a.session.Dirty() {
		s += " *"
	}
	return fmt.Sprintf("(%s)", s)
}

// dropSession forgets the current session after it was locked.
func (a *App) dropSession() {
	a.session = nil
	a.userName = ""
	a.cwd = vfs.RootID
}
