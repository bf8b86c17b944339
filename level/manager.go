// SPDX-License-Identifier: GPL-2.0-or-later

// Package level owns the currently loaded level and replaces it when the
// file changes.
package level

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"hlbsp/bsp"
	"hlbsp/conlog"
	"hlbsp/filesystem"
)

var errNoLevel = errors.New("no level loaded")

// Manager publishes one level at a time. Readers get the current level
// without locking, a new level replaces it only after it loaded completely.
type Manager struct {
	fs   *filesystem.SearchPath
	opts bsp.LoadOptions

	// OnReload is called after every reload attempt of Watch.
	OnReload func(l *bsp.Level, err error)

	mutex   sync.Mutex // serializes loads
	name    string
	current atomic.Pointer[bsp.Level]
}

func NewManager(fs *filesystem.SearchPath, opts bsp.LoadOptions) *Manager {
	return &Manager{fs: fs, opts: opts}
}

// Current returns the active level or nil.
func (m *Manager) Current() *bsp.Level {
	return m.current.Load()
}

// Name returns the file name of the active level.
func (m *Manager) Name() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.name
}

func (m *Manager) load(name string) (*bsp.Level, error) {
	f, err := m.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(bsp.ErrNotFound, "%s", name)
		}
		return nil, errors.Wrapf(err, "open level %s", name)
	}
	defer f.Close()
	opts := m.opts
	opts.Name = filesystem.StripExt(path.Base(filepath.ToSlash(name)))
	return bsp.Load(f, f.Size(), opts)
}

// Load reads the level name from the search path and makes it current.
// On error the current level stays.
func (m *Manager) Load(name string) (*bsp.Level, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	l, err := m.load(name)
	if err != nil {
		return nil, err
	}
	m.name = name
	m.current.Store(l)
	conlog.Printf("level %s loaded as %s", name, l.ID)
	return l, nil
}

// Reload loads the current level file again.
func (m *Manager) Reload() (*bsp.Level, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.name == "" {
		return nil, errNoLevel
	}
	l, err := m.load(m.name)
	if err != nil {
		conlog.Warnf("reload of %s failed, keeping %s: %v", m.name, m.Current().ID, err)
		return nil, err
	}
	m.current.Store(l)
	conlog.Printf("level %s reloaded as %s", m.name, l.ID)
	return l, nil
}

// Watch reloads the level whenever its file is written until ctx is done.
// Only levels stored as plain files can be watched.
func (m *Manager) Watch(ctx context.Context) error {
	name := m.Name()
	if name == "" {
		return errNoLevel
	}
	p, ok := m.fs.Resolve(name)
	if !ok {
		return errors.Errorf("%s is not a plain file", name)
	}
	p, err := filepath.Abs(p)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()
	// editors replace files, so watch the directory
	if err := w.Add(filepath.Dir(p)); err != nil {
		return errors.Wrapf(err, "watch %s", p)
	}
	conlog.DPrintf("watching %s", p)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != p || !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				continue
			}
			l, err := m.Reload()
			if m.OnReload != nil {
				m.OnReload(l, err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			conlog.Errorf("watch %s: %v", p, err)
		}
	}
}
