package scratch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"contentanalyzer/internal/logging"
)

const (
	runDirPrefix = "run-"
	lockFileName = ".contentanalyzer.lock"
)

// Manager hands out per-run scopes below a scratch root.
type Manager struct {
	fs     afero.Fs
	root   string
	logger *slog.Logger
	lock   *flock.Flock
}

// NewManager constructs a Manager. fs may be nil for the OS filesystem.
func NewManager(fs afero.Fs, root string, logger *slog.Logger) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{
		fs:     fs,
		root:   filepath.Clean(root),
		logger: logging.NewComponentLogger(logger, "scratch"),
	}
}

// Root returns the scratch root directory.
func (m *Manager) Root() string {
	return m.root
}

// Open creates the root and removes run directories left behind by a process
// that exited without releasing them. On the OS filesystem the sweep only
// happens when no other live process shares the root: every process holds a
// shared lock on the root for its lifetime and the sweep needs it exclusively.
func (m *Manager) Open() error {
	if err := m.fs.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("create scratch root: %w", err)
	}
	if _, ok := m.fs.(*afero.OsFs); !ok {
		_, err := m.sweep()
		return err
	}

	m.lock = flock.New(filepath.Join(m.root, lockFileName))
	exclusive, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock scratch root: %w", err)
	}
	if exclusive {
		removed, err := m.sweep()
		if err != nil {
			_ = m.lock.Unlock()
			return err
		}
		if removed > 0 {
			m.logger.Info("removed orphaned scratch directories", logging.Int("count", removed))
		}
		if err := m.lock.Unlock(); err != nil {
			return fmt.Errorf("unlock scratch root: %w", err)
		}
	} else {
		m.logger.Debug("scratch root shared with another process; skipping sweep")
	}
	shared, err := m.lock.TryRLock()
	if err != nil {
		return fmt.Errorf("share scratch root lock: %w", err)
	}
	if !shared {
		return errors.New("share scratch root lock: held exclusively by another process")
	}
	return nil
}

// Close drops the process's hold on the scratch root.
func (m *Manager) Close() error {
	if m.lock == nil {
		return nil
	}
	return m.lock.Unlock()
}

func (m *Manager) sweep() (int, error) {
	entries, err := afero.ReadDir(m.fs, m.root)
	if err != nil {
		return 0, fmt.Errorf("list scratch root: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), runDirPrefix) {
			continue
		}
		if err := m.fs.RemoveAll(filepath.Join(m.root, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove orphaned %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// NewScope creates an empty directory for one run.
func (m *Manager) NewScope(runID string) (*Scope, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" || strings.ContainsAny(runID, `/\`) {
		return nil, fmt.Errorf("invalid run id %q", runID)
	}
	dir := filepath.Join(m.root, runDirPrefix+runID)
	if err := m.fs.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scope: %w", err)
	}
	return &Scope{fs: m.fs, dir: dir}, nil
}

// Scope owns every file created for a single run. Release removes all of them.
type Scope struct {
	fs       afero.Fs
	dir      string
	mu       sync.Mutex
	released bool
}

// Dir returns the scope directory.
func (s *Scope) Dir() string {
	return s.dir
}

// Path returns the path of name inside the scope. Nothing is written; a file
// created there is removed on Release.
func (s *Scope) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Write copies r into a new file inside the scope and returns its path.
func (s *Scope) Write(name string, r io.Reader) (string, int64, error) {
	path := s.Path(name)
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return "", n, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return path, n, nil
}

// Release removes the scope directory and everything in it. It is safe to
// call more than once.
func (s *Scope) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	if err := s.fs.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("release scope %s: %w", filepath.Base(s.dir), err)
	}
	return nil
}
