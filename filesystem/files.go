// SPDX-License-Identifier: GPL-2.0-or-later

package filesystem

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"hlbsp/conlog"
	"hlbsp/pack"
)

type File interface {
	io.ReadSeekCloser
	io.ReaderAt
	Size() int64
}

type binding interface {
	open(name string) (File, error)
	// path returns the os path of name if the binding is a directory.
	path(name string) (string, bool)
	close() error
	String() string
}

type dirBinding struct {
	dir string
}

type osFile struct {
	*os.File
	size int64
}

func (f *osFile) Size() int64 { return f.size }

func (d dirBinding) open(name string) (File, error) {
	f, err := os.Open(filepath.Join(d.dir, filepath.FromSlash(name)))
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return &osFile{f, fi.Size()}, nil
}

func (d dirBinding) path(name string) (string, bool) {
	p := filepath.Join(d.dir, filepath.FromSlash(name))
	if fi, err := os.Stat(p); err != nil || fi.IsDir() {
		return "", false
	}
	return p, true
}

func (d dirBinding) close() error   { return nil }
func (d dirBinding) String() string { return d.dir }

type packBinding struct {
	p *pack.Pack
}

type closer struct {
	*io.SectionReader
}

func (*closer) Close() error {
	return nil
}

func (p packBinding) open(name string) (File, error) {
	f, err := p.p.Open(name)
	if err != nil {
		return nil, err
	}
	return &closer{f}, nil
}

func (p packBinding) path(string) (string, bool) { return "", false }
func (p packBinding) close() error               { return p.p.Close() }
func (p packBinding) String() string             { return p.p.String() }

// SearchPath looks up files in directories and pack files. Later bindings
// shadow earlier ones.
type SearchPath struct {
	mutex    sync.RWMutex
	bindings []binding // highest priority first
}

func New(dirs ...string) *SearchPath {
	s := &SearchPath{}
	for _, d := range dirs {
		s.AddDir(d)
	}
	return s
}

// AddDir binds dir and the pak0.pak, pak1.pak, ... files inside of it in
// front of the current search path. Higher pak numbers win.
func (s *SearchPath) AddDir(dir string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.bindings = append([]binding{dirBinding{dir}}, s.bindings...)
	for i := 0; ; i++ {
		pfp := filepath.Join(dir, fmt.Sprintf("pak%d.pak", i))
		p, err := pack.NewPackReader(pfp)
		if err != nil {
			if !os.IsNotExist(err) {
				conlog.Warnf("could not use %s: %v", pfp, err)
			}
			break
		}
		s.bindings = append([]binding{packBinding{p}}, s.bindings...)
	}
}

// Close releases all pack files.
func (s *SearchPath) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var first error
	for _, b := range s.bindings {
		if err := b.close(); err != nil && first == nil {
			first = err
		}
	}
	s.bindings = nil
	return first
}

func clean(name string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+name)), "/")
}

// Open returns the first file called name on the search path. Missing files
// report an error matching fs.ErrNotExist.
func (s *SearchPath) Open(name string) (File, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	n := clean(name)
	for _, b := range s.bindings {
		f, err := b.open(n)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (s *SearchPath) ReadFile(name string) ([]byte, error) {
	file, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// Resolve returns the os path of name if the file found first is a plain
// file. Files inside of pack files have no os path.
func (s *SearchPath) Resolve(name string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	n := clean(name)
	for _, b := range s.bindings {
		if p, ok := b.path(n); ok {
			return p, true
		}
		if f, err := b.open(n); err == nil {
			f.Close()
			return "", false
		}
	}
	return "", false
}

// Dirs returns the bound directories, highest priority first.
func (s *SearchPath) Dirs() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var r []string
	for _, b := range s.bindings {
		if d, ok := b.(dirBinding); ok {
			r = append(r, d.dir)
		}
	}
	return r
}

func isSep(c uint8) bool {
	return c == '/' || c == '\\'
}

func Ext(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

func StripExt(path string) string {
	for i := len(path) - 1; i >= 0 && !isSep(path[i]); i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}
