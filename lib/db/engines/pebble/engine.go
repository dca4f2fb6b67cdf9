package pebble

import (
	"bytes"
	"github.com/ValentinKolb/dTriple/lib/db"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/lni/dragonboat/v4/logger"
	"net/url"
	"os"
	"slices"
	"sync"
)

var log = logger.GetLogger("db")

// Options configures the pebble engine.
type Options struct {
	Dir    string // Data directory, one subdirectory per namespace
	FS     vfs.FS // File system, vfs.Default if nil
	NoSync bool   // Do not fsync on every batch commit
}

// Engine hands out pebble-backed namespaces.
type Engine struct {
	opts   Options
	mu     sync.Mutex // guards namespaces and closed
	open   map[string]*pebbleImpl
	closed bool
}

// NewEngine creates the data directory if necessary and returns the engine.
// Namespaces are opened lazily.
func NewEngine(opts Options) (*Engine, error) {
	if opts.FS == nil {
		opts.FS = vfs.Default
	}
	if opts.Dir == "" {
		return nil, errors.New("pebble engine requires a data directory")
	}
	if err := opts.FS.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory %s", opts.Dir)
	}
	log.Infof("opened pebble engine in %s (sync=%v)", opts.Dir, !opts.NoSync)
	return &Engine{
		opts: opts,
		open: make(map[string]*pebbleImpl),
	}, nil
}

func (e *Engine) dirOf(namespace []byte) string {
	return e.opts.FS.PathJoin(e.opts.Dir, url.PathEscape(string(namespace)))
}

func (e *Engine) exists(dir string) bool {
	_, err := e.opts.FS.Stat(dir)
	return err == nil
}

// Open returns the namespace, creating its pebble instance if create is true.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Open(namespace []byte, create bool) (db.KVDB, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, db.ErrClosed
	}

	name := string(namespace)
	if ns, ok := e.open[name]; ok {
		return ns, nil
	}

	dir := e.dirOf(namespace)
	if !create && !e.exists(dir) {
		return nil, db.ErrNamespaceNotFound
	}

	pdb, err := pebble.Open(dir, &pebble.Options{
		FS:     e.opts.FS,
		Logger: pebbleLogger{},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open pebble namespace %q", name)
	}

	writeOpts := pebble.Sync
	if e.opts.NoSync {
		writeOpts = pebble.NoSync
	}
	ns := &pebbleImpl{
		name:      name,
		dir:       dir,
		pdb:       pdb,
		writeOpts: writeOpts,
	}
	e.open[name] = ns
	log.Debugf("opened pebble namespace %q", name)
	return ns, nil
}

// Drop closes the namespace and removes its directory.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Drop(namespace []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return db.ErrClosed
	}

	name := string(namespace)
	dir := e.dirOf(namespace)
	if ns, ok := e.open[name]; ok {
		delete(e.open, name)
		if err := ns.shutdown(); err != nil {
			return errors.Wrapf(err, "failed to close pebble namespace %q", name)
		}
	} else if !e.exists(dir) {
		return db.ErrNamespaceNotFound
	}

	if err := e.opts.FS.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "failed to remove %s", dir)
	}
	log.Debugf("dropped pebble namespace %q", name)
	return nil
}

// Namespaces lists the namespace directories in ascending name order.
//
// Thread-safety: This method is safe for concurrent use
func (e *Engine) Namespaces() ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, db.ErrClosed
	}

	entries, err := e.opts.FS.List(e.opts.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([][]byte, 0, len(entries))
	for _, entry := range entries {
		info, err := e.opts.FS.Stat(e.opts.FS.PathJoin(e.opts.Dir, entry))
		if err != nil || !info.IsDir() {
			continue
		}
		name, err := url.PathUnescape(entry)
		if err != nil {
			log.Warningf("skipping foreign directory %q in %s", entry, e.opts.Dir)
			continue
		}
		names = append(names, []byte(name))
	}
	slices.SortFunc(names, bytes.Compare)
	return names, nil
}

// Implementation returns db.ImplPebble.
func (e *Engine) Implementation() db.Implementation {
	return db.ImplPebble
}

// Close closes all open pebble instances.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var result error
	for name, ns := range e.open {
		if err := ns.shutdown(); err != nil {
			result = errors.CombineErrors(result, errors.Wrapf(err, "failed to close pebble namespace %q", name))
		}
	}
	e.open = nil
	log.Infof("closed pebble engine in %s", e.opts.Dir)
	return result
}

// --------------------------------------------------------------------------
// Logger
// --------------------------------------------------------------------------

// pebbleLogger routes pebble's internal logging to the "db" logger.
// pebble logs every flush and compaction at info level, those go to debug.
type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	log.Panicf(format, args...)
}
